package handler

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/model"
	"meeting-copilot-backend/internal/storage"
)

// MeetingHandler 미팅 핸들러 (업로드, 조회, AI 파이프라인)
type MeetingHandler struct {
	db          *gorm.DB
	store       *storage.LocalStore
	transcriber Transcriber
	summarizer  Summarizer
}

// NewMeetingHandler MeetingHandler 생성
func NewMeetingHandler(db *gorm.DB, store *storage.LocalStore, transcriber Transcriber, summarizer Summarizer) *MeetingHandler {
	return &MeetingHandler{
		db:          db,
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
	}
}

// MeetingResponse 미팅 응답
type MeetingResponse struct {
	ID                     string     `json:"id"`
	Title                  string     `json:"title"`
	Platform               string     `json:"platform"`
	Status                 string     `json:"status"`
	TranscriptionStatus    string     `json:"transcription_status"`
	SummaryStatus          string     `json:"summary_status"`
	AudioFilePath          *string    `json:"audio_file_path,omitempty"`
	TranscriptionText      *string    `json:"transcription_text,omitempty"`
	SummaryText            *string    `json:"summary_text,omitempty"`
	ActionItems            *string    `json:"action_items,omitempty"`
	KeyPoints              *string    `json:"key_points,omitempty"`
	SentimentAnalysis      *string    `json:"sentiment_analysis,omitempty"`
	WordCountTranscription *int       `json:"word_count_transcription,omitempty"`
	WordCountSummary       *int       `json:"word_count_summary,omitempty"`
	ParticipantCount       *int       `json:"participant_count,omitempty"`
	DurationMinutes        *int       `json:"duration_minutes,omitempty"`
	ScheduledStart         *time.Time `json:"scheduled_start,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func toMeetingResponse(m *model.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:                     m.ID,
		Title:                  m.Title,
		Platform:               string(m.Platform),
		Status:                 string(m.Status),
		TranscriptionStatus:    string(m.TranscriptionStatus),
		SummaryStatus:          string(m.SummaryStatus),
		AudioFilePath:          m.AudioFilePath,
		TranscriptionText:      m.TranscriptionText,
		SummaryText:            m.SummaryText,
		ActionItems:            m.ActionItems,
		KeyPoints:              m.KeyPoints,
		SentimentAnalysis:      m.SentimentAnalysis,
		WordCountTranscription: m.WordCountTranscription,
		WordCountSummary:       m.WordCountSummary,
		ParticipantCount:       m.ParticipantCount,
		DurationMinutes:        m.DurationMinutes,
		ScheduledStart:         m.ScheduledStart,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// toMeetingListItem 목록 응답 (본문 텍스트 제외)
func toMeetingListItem(m *model.Meeting) MeetingResponse {
	resp := toMeetingResponse(m)
	resp.TranscriptionText = nil
	resp.SummaryText = nil
	resp.ActionItems = nil
	resp.KeyPoints = nil
	resp.SentimentAnalysis = nil
	return resp
}

// UploadMeeting 녹음 파일 업로드 및 미팅 생성
func (h *MeetingHandler) UploadMeeting(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	// 저장 전에 검증 (검증 실패 시 미팅 레코드 생성 안 함)
	if err := h.store.Validate(file.Filename, file.Size, file.Header.Get("Content-Type")); err != nil {
		status := fiber.StatusBadRequest
		if strings.Contains(err.Error(), "too large") {
			status = fiber.StatusRequestEntityTooLarge
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	title := sanitizeString(c.FormValue("title"))
	if title == "" {
		// 제목 미지정 시 파일명 그대로 사용
		title = filepath.Base(file.Filename)
	}

	meetingID := uuid.New().String()
	path, err := h.store.Save(file, meetingID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save file",
		})
	}

	meeting := model.Meeting{
		ID:                  meetingID,
		UserID:              userID,
		Title:               title,
		Platform:            model.PlatformManualUpload,
		Status:              model.MeetingStatusUploaded,
		AudioFilePath:       &path,
		TranscriptionStatus: model.ProcessingStatusPending,
		SummaryStatus:       model.ProcessingStatusPending,
	}

	if err := h.db.Create(&meeting).Error; err != nil {
		// DB 실패 시 저장된 파일 정리
		if removeErr := h.store.Remove(path); removeErr != nil {
			log.Printf("⚠️ Failed to clean up uploaded file %s: %v", path, removeErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create meeting",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"meeting_id": meeting.ID,
		"title":      meeting.Title,
		"status":     string(meeting.Status),
		"message":    "file uploaded successfully",
	})
}

// ListMeetings 내 미팅 목록 (최신순)
func (h *MeetingHandler) ListMeetings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var meetings []model.Meeting
	err := h.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get meetings",
		})
	}

	responses := make([]MeetingResponse, len(meetings))
	for i, m := range meetings {
		responses[i] = toMeetingListItem(&m)
	}

	return c.JSON(fiber.Map{
		"meetings": responses,
		"total":    len(responses),
	})
}

// GetMeeting 미팅 상세 조회
func (h *MeetingHandler) GetMeeting(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)
	meetingID := c.Params("id")

	var meeting model.Meeting
	err := h.db.
		Where("id = ? AND user_id = ?", meetingID, userID).
		Preload("Participants").
		Preload("Summaries").
		First(&meeting).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "meeting not found",
		})
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get meeting",
		})
	}

	return c.JSON(toMeetingResponse(&meeting))
}

// DeleteMeeting 미팅과 하위 레코드, 오디오 파일 삭제
func (h *MeetingHandler) DeleteMeeting(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)
	meetingID := c.Params("id")

	var meeting model.Meeting
	err := h.db.Where("id = ? AND user_id = ?", meetingID, userID).First(&meeting).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "meeting not found",
		})
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get meeting",
		})
	}

	// 오디오 파일 삭제 (없어도 진행)
	if meeting.AudioFilePath != nil {
		if err := h.store.Remove(*meeting.AudioFilePath); err != nil {
			log.Printf("⚠️ Failed to remove audio file %s: %v", *meeting.AudioFilePath, err)
		}
	}

	// 하위 레코드 → 미팅 순서로 트랜잭션 삭제
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&model.MeetingParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&model.MeetingTranscript{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&model.MeetingSummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meeting).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete meeting",
		})
	}

	return c.JSON(fiber.Map{
		"meeting_id": meeting.ID,
		"message":    "meeting deleted",
	})
}

// GetMeetingStats 내 미팅 통계
func (h *MeetingHandler) GetMeetingStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var total, transcribed, summarized int64
	base := h.db.Model(&model.Meeting{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get stats",
		})
	}
	base.Session(&gorm.Session{}).Where("transcription_text IS NOT NULL").Count(&transcribed)
	base.Session(&gorm.Session{}).Where("summary_text IS NOT NULL").Count(&summarized)

	var totalDuration int64
	h.db.Model(&model.Meeting{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&totalDuration)

	var avgDuration float64
	if total > 0 {
		avgDuration = float64(totalDuration) / float64(total)
	}

	return c.JSON(fiber.Map{
		"total_meetings":         total,
		"transcribed_meetings":   transcribed,
		"summarized_meetings":    summarized,
		"total_duration_minutes": totalDuration,
		"avg_duration_minutes":   avgDuration,
	})
}

// sanitizeString 문자열 정리 (XSS 방지)
func sanitizeString(s string) string {
	s = strings.TrimSpace(s)
	// 위험한 문자 제거
	invalidChars := []string{"<", ">", "\"", "\\", "|"}
	for _, char := range invalidChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
