package handler

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/ai"
	"meeting-copilot-backend/internal/model"
)

// Transcriber 음성 인식 클라이언트 인터페이스 (테스트에서 스텁으로 대체)
type Transcriber interface {
	TranscribeFile(ctx context.Context, filePath string) (string, error)
	TranscribeWithTimestamps(ctx context.Context, filePath string) (*ai.VerboseTranscription, error)
	Model() string
}

// Summarizer 요약 클라이언트 인터페이스
type Summarizer interface {
	SummarizeText(ctx context.Context, text string, style model.SummaryStyle) (string, error)
	AnalyzeStructured(ctx context.Context, text string) (*ai.StructuredAnalysis, error)
	AnalyzeSentiment(ctx context.Context, text string) (*ai.SentimentResult, error)
	Model() string
}

// TranscribeMeeting 미팅 오디오를 트랜스크립션
//
// 상태 전이: transcribing/processing 커밋 → 호출 → 성공 시 transcribed/completed,
// 실패 시 failed/failed. 중간 상태는 다른 요청에서 관찰 가능.
func (h *MeetingHandler) TranscribeMeeting(c *fiber.Ctx) error {
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

	// 파일이 사라진 미팅은 failed로 전이 (텍스트는 기록하지 않음)
	if !audioFileExists(&meeting) {
		meeting.Status = model.MeetingStatusFailed
		meeting.TranscriptionStatus = model.ProcessingStatusFailed
		h.db.Save(&meeting)

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "audio file not found",
		})
	}

	// 처리 시작 상태 커밋
	meeting.Status = model.MeetingStatusTranscribing
	meeting.TranscriptionStatus = model.ProcessingStatusProcessing
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update meeting",
		})
	}

	withTimestamps := c.QueryBool("timestamps", false)

	text, segments, transcribeErr := h.runTranscription(c.Context(), *meeting.AudioFilePath, withTimestamps)
	if transcribeErr != nil {
		// 재시도 실패 시 이전 결과도 무효화 (텍스트는 completed일 때만 존재)
		meeting.Status = model.MeetingStatusFailed
		meeting.TranscriptionStatus = model.ProcessingStatusFailed
		meeting.TranscriptionText = nil
		meeting.WordCountTranscription = nil
		h.db.Save(&meeting)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "transcription failed: " + transcribeErr.Error(),
		})
	}

	wordCount := len(strings.Fields(text))
	meeting.TranscriptionText = &text
	meeting.WordCountTranscription = &wordCount
	meeting.Status = model.MeetingStatusTranscribed
	meeting.TranscriptionStatus = model.ProcessingStatusCompleted
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save transcription",
		})
	}

	// 타임스탬프 요청 시 세그먼트를 발화 단위로 저장
	if len(segments) > 0 {
		h.db.Where("meeting_id = ?", meeting.ID).Delete(&model.MeetingTranscript{})
		for _, seg := range segments {
			start, end := seg.Start, seg.End
			h.db.Create(&model.MeetingTranscript{
				MeetingID: meeting.ID,
				Text:      strings.TrimSpace(seg.Text),
				StartTime: &start,
				EndTime:   &end,
			})
		}
	}

	return c.JSON(fiber.Map{
		"meeting_id":    meeting.ID,
		"transcription": text,
		"word_count":    wordCount,
		"status":        string(meeting.Status),
	})
}

func audioFileExists(m *model.Meeting) bool {
	if m.AudioFilePath == nil {
		return false
	}
	_, err := os.Stat(*m.AudioFilePath)
	return err == nil
}

func (h *MeetingHandler) runTranscription(ctx context.Context, path string, withTimestamps bool) (string, []ai.TranscriptionSegment, error) {
	if withTimestamps {
		verbose, err := h.transcriber.TranscribeWithTimestamps(ctx, path)
		if err != nil {
			return "", nil, err
		}
		return strings.TrimSpace(verbose.Text), verbose.Segments, nil
	}

	text, err := h.transcriber.TranscribeFile(ctx, path)
	if err != nil {
		return "", nil, err
	}
	return text, nil, nil
}

// SummarizeMeeting 트랜스크립션을 요약
//
// 실패 시 summary_status만 failed로 전이하고 coarse status는 건드리지 않음.
func (h *MeetingHandler) SummarizeMeeting(c *fiber.Ctx) error {
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

	if meeting.TranscriptionText == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no transcription available, transcribe the meeting first",
		})
	}

	style := model.NormalizeSummaryStyle(c.Query("style", "detailed"))

	meeting.SummaryStatus = model.ProcessingStatusProcessing
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update meeting",
		})
	}

	start := time.Now()
	summary, err := h.summarizer.SummarizeText(c.Context(), *meeting.TranscriptionText, style)
	if err != nil {
		meeting.SummaryStatus = model.ProcessingStatusFailed
		meeting.SummaryText = nil
		meeting.WordCountSummary = nil
		h.db.Save(&meeting)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "summarization failed: " + err.Error(),
		})
	}
	elapsed := time.Since(start).Seconds()

	wordCount := len(strings.Fields(summary))
	meeting.SummaryText = &summary
	meeting.WordCountSummary = &wordCount
	meeting.Status = model.MeetingStatusSummarized
	meeting.SummaryStatus = model.ProcessingStatusCompleted
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save summary",
		})
	}

	// 스타일별 요약 이력 기록
	aiModel := h.summarizer.Model()
	h.db.Create(&model.MeetingSummary{
		MeetingID:             meeting.ID,
		SummaryType:           style,
		Content:               summary,
		WordCount:             &wordCount,
		AIModel:               &aiModel,
		ProcessingTimeSeconds: &elapsed,
	})

	return c.JSON(fiber.Map{
		"meeting_id": meeting.ID,
		"summary":    summary,
		"style":      string(style),
		"word_count": wordCount,
		"status":     string(meeting.Status),
	})
}

// ProcessMeeting 트랜스크립션과 요약을 순차 실행
func (h *MeetingHandler) ProcessMeeting(c *fiber.Ctx) error {
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

	if !audioFileExists(&meeting) {
		meeting.Status = model.MeetingStatusFailed
		meeting.TranscriptionStatus = model.ProcessingStatusFailed
		h.db.Save(&meeting)

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "audio file not found",
		})
	}

	style := model.NormalizeSummaryStyle(c.Query("style", "detailed"))

	// 1단계: 트랜스크립션
	meeting.Status = model.MeetingStatusTranscribing
	meeting.TranscriptionStatus = model.ProcessingStatusProcessing
	meeting.SummaryStatus = model.ProcessingStatusPending
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update meeting",
		})
	}

	text, err := h.transcriber.TranscribeFile(c.Context(), *meeting.AudioFilePath)
	if err != nil {
		meeting.Status = model.MeetingStatusFailed
		meeting.TranscriptionStatus = model.ProcessingStatusFailed
		meeting.SummaryStatus = model.ProcessingStatusFailed
		meeting.TranscriptionText = nil
		meeting.WordCountTranscription = nil
		h.db.Save(&meeting)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "transcription failed: " + err.Error(),
		})
	}

	transcriptionWords := len(strings.Fields(text))
	meeting.TranscriptionText = &text
	meeting.WordCountTranscription = &transcriptionWords
	meeting.Status = model.MeetingStatusTranscribed
	meeting.TranscriptionStatus = model.ProcessingStatusCompleted
	meeting.SummaryStatus = model.ProcessingStatusProcessing
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save transcription",
		})
	}

	// 2단계: 요약 (실패해도 완료된 트랜스크립션은 유지)
	start := time.Now()
	summary, err := h.summarizer.SummarizeText(c.Context(), text, style)
	if err != nil {
		meeting.Status = model.MeetingStatusFailed
		meeting.SummaryStatus = model.ProcessingStatusFailed
		meeting.SummaryText = nil
		meeting.WordCountSummary = nil
		h.db.Save(&meeting)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "summarization failed: " + err.Error(),
		})
	}
	elapsed := time.Since(start).Seconds()

	summaryWords := len(strings.Fields(summary))
	meeting.SummaryText = &summary
	meeting.WordCountSummary = &summaryWords
	meeting.Status = model.MeetingStatusSummarized
	meeting.SummaryStatus = model.ProcessingStatusCompleted
	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save summary",
		})
	}

	aiModel := h.summarizer.Model()
	h.db.Create(&model.MeetingSummary{
		MeetingID:             meeting.ID,
		SummaryType:           style,
		Content:               summary,
		WordCount:             &summaryWords,
		AIModel:               &aiModel,
		ProcessingTimeSeconds: &elapsed,
	})

	return c.JSON(fiber.Map{
		"meeting_id":               meeting.ID,
		"transcription":            text,
		"transcription_word_count": transcriptionWords,
		"summary":                  summary,
		"summary_word_count":       summaryWords,
		"style":                    string(style),
		"status":                   string(meeting.Status),
	})
}

// AnalyzeMeeting 구조화 분석 실행 (토픽, 액션 아이템, 감정)
func (h *MeetingHandler) AnalyzeMeeting(c *fiber.Ctx) error {
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

	if meeting.TranscriptionText == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no transcription available, transcribe the meeting first",
		})
	}

	analysis, err := h.summarizer.AnalyzeStructured(c.Context(), *meeting.TranscriptionText)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "analysis failed: " + err.Error(),
		})
	}

	sentiment, err := h.summarizer.AnalyzeSentiment(c.Context(), *meeting.TranscriptionText)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sentiment analysis failed: " + err.Error(),
		})
	}

	// 분석 결과를 JSON 컬럼에 저장
	if data, err := json.Marshal(analysis.ActionItems); err == nil {
		s := string(data)
		meeting.ActionItems = &s
	}
	if data, err := json.Marshal(analysis.KeyInsights); err == nil {
		s := string(data)
		meeting.KeyPoints = &s
	}
	if data, err := json.Marshal(sentiment); err == nil {
		s := string(data)
		meeting.SentimentAnalysis = &s
	}

	if err := h.db.Save(&meeting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save analysis",
		})
	}

	return c.JSON(fiber.Map{
		"meeting_id": meeting.ID,
		"analysis":   analysis,
		"sentiment":  sentiment,
	})
}
