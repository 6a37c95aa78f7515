package session

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no refresh token is stored for the user.
var ErrTokenNotFound = errors.New("session: refresh token not found")

// Store keeps issued refresh tokens in redis so logout can revoke them.
// When redis is not configured the server falls back to stateless JWT
// refresh, so all methods are safe to call on a nil *Store.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore connects to redis and verifies the connection with a ping.
func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Session] Connected to redis at %s", addr)
	return &Store{client: client, ttl: ttl}, nil
}

func refreshKey(userID int64) string {
	return "session:refresh:" + strconv.FormatInt(userID, 10)
}

// Save stores the refresh token for the user, replacing any previous one.
// A user has at most one live refresh token at a time.
func (s *Store) Save(ctx context.Context, userID int64, token string) error {
	if s == nil {
		return nil
	}
	return s.client.Set(ctx, refreshKey(userID), token, s.ttl).Err()
}

// Validate reports whether the presented token matches the stored one.
func (s *Store) Validate(ctx context.Context, userID int64, token string) error {
	if s == nil {
		return nil
	}

	stored, err := s.client.Get(ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if stored != token {
		return ErrTokenNotFound
	}
	return nil
}

// Revoke deletes the stored refresh token, invalidating future refreshes.
func (s *Store) Revoke(ctx context.Context, userID int64) error {
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, refreshKey(userID)).Err()
}

// Health pings redis.
func (s *Store) Health(ctx context.Context) error {
	if s == nil {
		return errors.New("session: redis not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
