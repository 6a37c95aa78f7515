package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/ai"
	"meeting-copilot-backend/internal/auth"
	"meeting-copilot-backend/internal/config"
	"meeting-copilot-backend/internal/handler"
	"meeting-copilot-backend/internal/session"
	"meeting-copilot-backend/internal/storage"
)

// Server Fiber 서버 래퍼
type Server struct {
	app             *fiber.App
	cfg             *config.Config
	db              *gorm.DB
	authHandler     *handler.AuthHandler
	meetingHandler  *handler.MeetingHandler
	filesHandler    *handler.FilesHandler
	settingsHandler *handler.SettingsHandler
	jwtManager      *auth.JWTManager
	sessions        *session.Store
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               "Meeting Copilot API",
		ServerHeader:          "Fiber",
		StrictRouting:         false,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		BodyLimit:             int(cfg.Upload.MaxFileSize) + 1024*1024, // 멀티파트 오버헤드 여유분
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.OAuth.GoogleClientID)

	// 세션 저장소 초기화 (선택적 - 없으면 무상태 리프레시)
	var sessions *session.Store
	if cfg.Redis.Addr != "" {
		var err error
		sessions, err = session.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Auth.RefreshTokenExpiry)
		if err != nil {
			log.Printf("⚠️ Redis session store unavailable: %v (falling back to stateless refresh)", err)
			sessions = nil
		}
	} else {
		log.Println("ℹ️ Redis not configured, refresh tokens are stateless")
	}

	// 업로드 저장소 초기화
	store, err := storage.NewLocalStore(cfg.Upload)
	if err != nil {
		return nil, err
	}

	// AI 클라이언트 초기화
	transcriber := ai.NewTranscriptionClient(cfg.Groq)
	summarizer := ai.NewSummarizationClient(cfg.Gemini)

	return &Server{
		app:             app,
		cfg:             cfg,
		db:              db,
		authHandler:     handler.NewAuthHandler(db, jwtManager, googleAuth, sessions, cfg.Auth.SecureCookie),
		meetingHandler:  handler.NewMeetingHandler(db, store, transcriber, summarizer),
		filesHandler:    handler.NewFilesHandler(db),
		settingsHandler: handler.NewSettingsHandler(db),
		jwtManager:      jwtManager,
		sessions:        sessions,
	}, nil
}

// App 내부 Fiber 앱 반환 (테스트용)
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: false,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트 (프로바이더 구성 상태 포함)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":                "ok",
			"transcription_enabled": s.cfg.Groq.APIKey != "",
			"summarization_enabled": s.cfg.Gemini.APIKey != "",
			"session_store_enabled": s.sessions != nil,
		})
	})

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	authMW := auth.Middleware(s.jwtManager)

	// Auth 라우트 그룹
	authGroup := s.app.Group("/api/auth")
	authGroup.Post("/register", authLimiter, s.authHandler.Register)
	authGroup.Post("/login", authLimiter, s.authHandler.Login)
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", authMW, s.authHandler.Logout)
	authGroup.Get("/me", authMW, s.authHandler.GetMe)
	authGroup.Put("/me", authMW, s.authHandler.UpdateMe)

	// Meeting 라우트 그룹 (인증 필요)
	meetingGroup := s.app.Group("/api/meetings", authMW)
	meetingGroup.Post("/upload", s.meetingHandler.UploadMeeting)
	meetingGroup.Get("/", s.meetingHandler.ListMeetings)
	meetingGroup.Get("/stats/summary", s.meetingHandler.GetMeetingStats)
	meetingGroup.Post("/transcribe/:id", s.meetingHandler.TranscribeMeeting)
	meetingGroup.Post("/summarize/:id", s.meetingHandler.SummarizeMeeting)
	meetingGroup.Post("/process/:id", s.meetingHandler.ProcessMeeting)
	meetingGroup.Post("/analyze/:id", s.meetingHandler.AnalyzeMeeting)
	meetingGroup.Get("/:id", s.meetingHandler.GetMeeting)
	meetingGroup.Delete("/:id", s.meetingHandler.DeleteMeeting)

	// Files 라우트 그룹 (인증 필요)
	filesGroup := s.app.Group("/api/files", authMW)
	filesGroup.Get("/list", s.filesHandler.ListRecordings)

	// Settings 라우트 그룹 (인증 필요)
	settingsGroup := s.app.Group("/api/settings", authMW)
	settingsGroup.Post("/recording-path", s.settingsHandler.SetRecordingPath)
	settingsGroup.Get("/recording-path", s.settingsHandler.GetRecordingPath)
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if s.sessions != nil {
			s.sessions.Close()
		}
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Meeting Copilot API starting on %s", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
