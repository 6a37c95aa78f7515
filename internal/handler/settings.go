package handler

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/model"
)

// SettingsHandler 사용자 설정 핸들러
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler SettingsHandler 생성
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// RecordingPathRequest 녹음 폴더 설정 요청
type RecordingPathRequest struct {
	Path string `json:"path"`
}

// SetRecordingPath 녹음 폴더 경로 설정
func (h *SettingsHandler) SetRecordingPath(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req RecordingPathRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	path := strings.TrimSpace(req.Path)
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "path is required",
		})
	}

	info, err := os.Stat(path)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "path does not exist",
		})
	}
	if !info.IsDir() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "path is not a directory",
		})
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	now := time.Now()
	user.RecordingsPath = &path
	user.LastFolderScan = &now
	if err := h.db.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save settings",
		})
	}

	return c.JSON(fiber.Map{
		"message": "recording path updated",
		"path":    path,
	})
}

// GetRecordingPath 녹음 폴더 경로 조회
func (h *SettingsHandler) GetRecordingPath(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	return c.JSON(fiber.Map{
		"recording_path":   user.RecordingsPath,
		"last_folder_scan": user.LastFolderScan,
	})
}
