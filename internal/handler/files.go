package handler

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/model"
	"meeting-copilot-backend/internal/storage"
)

// FilesHandler 로컬 녹음 폴더 핸들러
type FilesHandler struct {
	db *gorm.DB
}

// NewFilesHandler FilesHandler 생성
func NewFilesHandler(db *gorm.DB) *FilesHandler {
	return &FilesHandler{db: db}
}

// ListRecordings 설정된 녹음 폴더의 파일 목록 (최신순)
func (h *FilesHandler) ListRecordings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	if user.RecordingsPath == nil || *user.RecordingsPath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recording path is not configured",
		})
	}

	if _, err := os.Stat(*user.RecordingsPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "recording path does not exist",
		})
	}

	files, err := storage.ScanRecordings(*user.RecordingsPath)
	if err != nil {
		if os.IsPermission(err) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "permission denied reading recording path",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to scan recording path",
		})
	}

	// 스캔 시각 기록
	now := time.Now()
	user.LastFolderScan = &now
	h.db.Save(&user)

	return c.JSON(fiber.Map{
		"path":  *user.RecordingsPath,
		"files": files,
		"total": len(files),
	})
}
