package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server Server
	Auth   Auth
	OAuth  OAuth
	Groq   Groq
	Gemini Gemini
	Upload Upload
	CORS   CORS
	Redis  Redis
	Env    string
	Debug  bool
}

// Server HTTP 서버 설정
type Server struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Auth 인증 설정
type Auth struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	SecureCookie       bool
}

// OAuth 외부 OAuth 클라이언트 설정
// Zoom 자격증명은 선언만 되어 있고 현재 어떤 라우트도 사용하지 않음
type OAuth struct {
	GoogleClientID     string
	GoogleClientSecret string
	ZoomClientID       string
	ZoomClientSecret   string
}

// Groq 음성 인식 API 설정 (Whisper 호환 엔드포인트)
type Groq struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxFileSize int64
	Timeout     time.Duration
}

// Gemini 요약 API 설정
type Gemini struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Upload 파일 업로드 설정
type Upload struct {
	Dir               string
	MaxFileSize       int64
	AllowedExtensions []string
}

// CORS CORS 설정
type CORS struct {
	AllowOrigins string
	AllowHeaders string
}

// Redis Redis 설정 (리프레시 토큰 저장소, 선택적)
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// 필수 환경 변수 검증
	jwtSecret := getRequiredEnv("SECRET_KEY")
	if jwtSecret == "fallback-secret-key-change-in-production" {
		log.Fatal("🚨 CRITICAL: SECRET_KEY must be changed from default value in production!")
	}

	cfg := &Config{
		Server: Server{
			Port:         getEnv("PORT", ":8000"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Auth: Auth{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			RefreshTokenExpiry: getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			SecureCookie:       getBool("SECURE_COOKIE", false),
		},
		OAuth: OAuth{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			ZoomClientID:       getEnv("ZOOM_CLIENT_ID", ""),
			ZoomClientSecret:   getEnv("ZOOM_CLIENT_SECRET", ""),
		},
		Groq: Groq{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("WHISPER_MODEL", "whisper-large-v3"),
			MaxFileSize: getInt64("GROQ_MAX_FILE_SIZE", 25*1024*1024),
			Timeout:     getDuration("GROQ_TIMEOUT", 120*time.Second),
		},
		Gemini: Gemini{
			APIKey:    getEnv("GEMINI_API_KEY", ""),
			BaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxTokens: getInt("MAX_SUMMARY_TOKENS", 1000),
			Timeout:   getDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Upload: Upload{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize:       getInt64("MAX_FILE_SIZE", 100*1024*1024),
			AllowedExtensions: getList("ALLOWED_EXTENSIONS", []string{".mp3", ".wav", ".m4a", ".mp4", ".mov", ".avi", ".txt"}),
		},
		CORS: CORS{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization"),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Env:   getEnv("ENVIRONMENT", "development"),
		Debug: getBool("DEBUG", true),
	}

	// API 키 미설정 경고 (기동은 계속)
	if cfg.Groq.APIKey == "" {
		log.Println("⚠️ GROQ_API_KEY is not set, transcription will be unavailable")
	}
	if cfg.Gemini.APIKey == "" {
		log.Println("⚠️ GEMINI_API_KEY is not set, summarization will be unavailable")
	}

	return cfg
}

// getRequiredEnv 필수 환경 변수 조회 (없으면 Fatal)
func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("🚨 CRITICAL: Required environment variable %s is not set!", key)
	}
	return value
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getInt64 64비트 정수형 환경 변수 조회
func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getList 콤마 구분 목록 환경 변수 조회
func getList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
