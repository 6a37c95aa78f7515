package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meeting-copilot-backend/internal/ai"
	"meeting-copilot-backend/internal/auth"
	"meeting-copilot-backend/internal/config"
	"meeting-copilot-backend/internal/model"
	"meeting-copilot-backend/internal/storage"
)

// stubTranscriber is a Transcriber with canned results.
type stubTranscriber struct {
	text    string
	verbose *ai.VerboseTranscription
	err     error
}

func (s *stubTranscriber) TranscribeFile(ctx context.Context, filePath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubTranscriber) TranscribeWithTimestamps(ctx context.Context, filePath string) (*ai.VerboseTranscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.verbose != nil {
		return s.verbose, nil
	}
	return &ai.VerboseTranscription{Text: s.text}, nil
}

func (s *stubTranscriber) Model() string { return "whisper-test" }

// stubSummarizer is a Summarizer with canned results.
type stubSummarizer struct {
	summary   string
	analysis  *ai.StructuredAnalysis
	sentiment *ai.SentimentResult
	err       error

	gotStyle model.SummaryStyle
}

func (s *stubSummarizer) SummarizeText(ctx context.Context, text string, style model.SummaryStyle) (string, error) {
	s.gotStyle = style
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

func (s *stubSummarizer) AnalyzeStructured(ctx context.Context, text string) (*ai.StructuredAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.analysis != nil {
		return s.analysis, nil
	}
	return &ai.StructuredAnalysis{Summary: "analysis"}, nil
}

func (s *stubSummarizer) AnalyzeSentiment(ctx context.Context, text string) (*ai.SentimentResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sentiment != nil {
		return s.sentiment, nil
	}
	return &ai.SentimentResult{Sentiment: "neutral", Score: 3, Confidence: 0.5}, nil
}

func (s *stubSummarizer) Model() string { return "gemini-test" }

// stubGoogleVerifier is a GoogleVerifier with a canned profile.
type stubGoogleVerifier struct {
	user *auth.GoogleUserInfo
	err  error
}

func (s *stubGoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.GoogleUserInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

// testEnv wires handlers, routes and a logged-in user against an in-memory DB.
type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	store      *storage.LocalStore
	jwtManager *auth.JWTManager
	google     *stubGoogleVerifier
	user       model.User
	token      string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 인메모리 DB는 커넥션마다 별도 저장소를 갖기 때문에 풀을 1로 고정
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Meeting{},
		&model.MeetingParticipant{},
		&model.MeetingTranscript{},
		&model.MeetingSummary{},
	))
	return db
}

func newTestEnv(t *testing.T, transcriber Transcriber, summarizer Summarizer) *testEnv {
	t.Helper()

	db := newTestDB(t)

	store, err := storage.NewLocalStore(config.Upload{
		Dir:               t.TempDir(),
		MaxFileSize:       1024 * 1024,
		AllowedExtensions: []string{".mp3", ".wav", ".m4a", ".mp4", ".txt"},
	})
	require.NoError(t, err)

	jwtManager := auth.NewJWTManager("handler-test-secret", time.Hour, 7*24*time.Hour)

	if transcriber == nil {
		transcriber = &stubTranscriber{text: "stub transcript"}
	}
	if summarizer == nil {
		summarizer = &stubSummarizer{summary: "stub summary"}
	}

	google := &stubGoogleVerifier{err: auth.ErrInvalidGoogleToken}
	authHandler := NewAuthHandler(db, jwtManager, google, nil, false)
	meetingHandler := NewMeetingHandler(db, store, transcriber, summarizer)
	filesHandler := NewFilesHandler(db)
	settingsHandler := NewSettingsHandler(db)

	app := fiber.New()
	authMW := auth.Middleware(jwtManager)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/google", authHandler.GoogleLogin)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMW, authHandler.Logout)
	authGroup.Get("/me", authMW, authHandler.GetMe)
	authGroup.Put("/me", authMW, authHandler.UpdateMe)

	meetingGroup := app.Group("/api/meetings", authMW)
	meetingGroup.Post("/upload", meetingHandler.UploadMeeting)
	meetingGroup.Get("/", meetingHandler.ListMeetings)
	meetingGroup.Get("/stats/summary", meetingHandler.GetMeetingStats)
	meetingGroup.Post("/transcribe/:id", meetingHandler.TranscribeMeeting)
	meetingGroup.Post("/summarize/:id", meetingHandler.SummarizeMeeting)
	meetingGroup.Post("/process/:id", meetingHandler.ProcessMeeting)
	meetingGroup.Post("/analyze/:id", meetingHandler.AnalyzeMeeting)
	meetingGroup.Get("/:id", meetingHandler.GetMeeting)
	meetingGroup.Delete("/:id", meetingHandler.DeleteMeeting)

	filesGroup := app.Group("/api/files", authMW)
	filesGroup.Get("/list", filesHandler.ListRecordings)

	settingsGroup := app.Group("/api/settings", authMW)
	settingsGroup.Post("/recording-path", settingsHandler.SetRecordingPath)
	settingsGroup.Get("/recording-path", settingsHandler.GetRecordingPath)

	env := &testEnv{
		app:        app,
		db:         db,
		store:      store,
		jwtManager: jwtManager,
		google:     google,
	}
	env.user, env.token = env.createUser(t, "owner@example.com")
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) (model.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := model.User{Email: email, PasswordHash: &hash}
	require.NoError(t, e.db.Create(&user).Error)

	token, err := e.jwtManager.GenerateAccessToken(user.ID, user.Email)
	require.NoError(t, err)
	return user, token
}

// createMeeting inserts a meeting row with a real audio file on disk.
func (e *testEnv) createMeeting(t *testing.T, userID int64, mutate func(*model.Meeting)) model.Meeting {
	t.Helper()

	id := uuid.New().String()
	path := filepath.Join(e.store.Dir(), id+"_recording.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o644))

	meeting := model.Meeting{
		ID:                  id,
		UserID:              userID,
		Title:               "Weekly Sync",
		Platform:            model.PlatformManualUpload,
		Status:              model.MeetingStatusUploaded,
		AudioFilePath:       &path,
		TranscriptionStatus: model.ProcessingStatusPending,
		SummaryStatus:       model.ProcessingStatusPending,
	}
	if mutate != nil {
		mutate(&meeting)
	}
	require.NoError(t, e.db.Create(&meeting).Error)
	return meeting
}

func (e *testEnv) request(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return e.request(t, method, path, body, "application/json")
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// uploadRequest builds a multipart upload request body.
func uploadRequest(t *testing.T, filename, content, title string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if title != "" {
		require.NoError(t, writer.WriteField("title", title))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func (e *testEnv) reloadMeeting(t *testing.T, id string) model.Meeting {
	t.Helper()

	var meeting model.Meeting
	require.NoError(t, e.db.First(&meeting, "id = ?", id).Error)
	return meeting
}
