package main

import (
	"log"

	"meeting-copilot-backend/internal/config"
	"meeting-copilot-backend/internal/database"
	"meeting-copilot-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결 (마이그레이션 포함)
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.Close(db)

	// Ping 테스트
	if err := database.Ping(db); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Printf("✅ Database connected successfully")

	// 서버 생성 및 설정
	srv, err := server.New(cfg, db)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
