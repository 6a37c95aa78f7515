package handler

import (
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-copilot-backend/internal/ai"
	"meeting-copilot-backend/internal/model"
)

func TestTranscribeMeeting(t *testing.T) {
	env := newTestEnv(t, &stubTranscriber{text: "hello world"}, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/transcribe/"+meeting.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "hello world", out["transcription"])
	assert.Equal(t, float64(2), out["word_count"])
	assert.Equal(t, "transcribed", out["status"])

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusTranscribed, got.Status)
	assert.Equal(t, model.ProcessingStatusCompleted, got.TranscriptionStatus)
	require.NotNil(t, got.TranscriptionText)
	assert.Equal(t, "hello world", *got.TranscriptionText)
	require.NotNil(t, got.WordCountTranscription)
	assert.Equal(t, 2, *got.WordCountTranscription)
}

func TestTranscribeMeetingFailure(t *testing.T) {
	env := newTestEnv(t, &stubTranscriber{err: errors.New("provider unavailable")}, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/transcribe/"+meeting.ID, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Contains(t, out["error"], "provider unavailable")

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusFailed, got.Status)
	assert.Equal(t, model.ProcessingStatusFailed, got.TranscriptionStatus)
	assert.Nil(t, got.TranscriptionText)
}

func TestTranscribeMeetingMissingAudioFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)
	require.NoError(t, os.Remove(*meeting.AudioFilePath))

	resp := env.jsonRequest(t, "POST", "/api/meetings/transcribe/"+meeting.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 파일이 없으면 failed로 전이하고 텍스트는 기록하지 않음
	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusFailed, got.Status)
	assert.Equal(t, model.ProcessingStatusFailed, got.TranscriptionStatus)
	assert.Nil(t, got.TranscriptionText)
}

func TestTranscribeMeetingNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/transcribe/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTranscribeWithTimestampsPersistsSegments(t *testing.T) {
	env := newTestEnv(t, &stubTranscriber{
		verbose: &ai.VerboseTranscription{
			Text: "hello world",
			Segments: []ai.TranscriptionSegment{
				{ID: 0, Start: 0, End: 0.8, Text: " hello"},
				{ID: 1, Start: 0.9, End: 1.5, Text: " world"},
			},
		},
	}, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/transcribe/"+meeting.ID+"?timestamps=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transcripts []model.MeetingTranscript
	require.NoError(t, env.db.Where("meeting_id = ?", meeting.ID).Order("id").Find(&transcripts).Error)
	require.Len(t, transcripts, 2)
	assert.Equal(t, "hello", transcripts[0].Text)
	assert.Equal(t, "world", transcripts[1].Text)
	require.NotNil(t, transcripts[1].StartTime)
	assert.InDelta(t, 0.9, *transcripts[1].StartTime, 0.001)
}

func TestSummarizeMeeting(t *testing.T) {
	summarizer := &stubSummarizer{summary: "short recap of the call"}
	env := newTestEnv(t, nil, summarizer)

	text := "a long transcript"
	meeting := env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
		m.TranscriptionStatus = model.ProcessingStatusCompleted
		m.Status = model.MeetingStatusTranscribed
	})

	resp := env.jsonRequest(t, "POST", "/api/meetings/summarize/"+meeting.ID+"?style=brief", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "short recap of the call", out["summary"])
	assert.Equal(t, "brief", out["style"])
	assert.Equal(t, float64(5), out["word_count"])
	assert.Equal(t, model.StyleBrief, summarizer.gotStyle)

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusSummarized, got.Status)
	assert.Equal(t, model.ProcessingStatusCompleted, got.SummaryStatus)
	require.NotNil(t, got.SummaryText)
	require.NotNil(t, got.WordCountSummary)
	assert.Equal(t, 5, *got.WordCountSummary)

	// 스타일별 요약 이력이 기록됨
	var summaries []model.MeetingSummary
	require.NoError(t, env.db.Where("meeting_id = ?", meeting.ID).Find(&summaries).Error)
	require.Len(t, summaries, 1)
	assert.Equal(t, model.StyleBrief, summaries[0].SummaryType)
	require.NotNil(t, summaries[0].AIModel)
	assert.Equal(t, "gemini-test", *summaries[0].AIModel)
	require.NotNil(t, summaries[0].ProcessingTimeSeconds)
}

func TestSummarizeMeetingUnknownStyleFallsBack(t *testing.T) {
	summarizer := &stubSummarizer{summary: "recap"}
	env := newTestEnv(t, nil, summarizer)

	text := "transcript"
	meeting := env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
	})

	resp := env.jsonRequest(t, "POST", "/api/meetings/summarize/"+meeting.ID+"?style=haiku", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "detailed", out["style"])
	assert.Equal(t, model.StyleDetailed, summarizer.gotStyle)
}

func TestSummarizeMeetingWithoutTranscription(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/summarize/"+meeting.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.ProcessingStatusPending, got.SummaryStatus)
	assert.Equal(t, model.MeetingStatusUploaded, got.Status)
}

// 요약 실패는 summary_status만 failed로 만들고 coarse status는 유지한다.
func TestSummarizeMeetingFailure(t *testing.T) {
	env := newTestEnv(t, nil, &stubSummarizer{err: errors.New("quota exceeded")})

	text := "transcript"
	meeting := env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
		m.TranscriptionStatus = model.ProcessingStatusCompleted
		m.Status = model.MeetingStatusTranscribed
	})

	resp := env.jsonRequest(t, "POST", "/api/meetings/summarize/"+meeting.ID, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Contains(t, out["error"], "quota exceeded")

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusTranscribed, got.Status)
	assert.Equal(t, model.ProcessingStatusFailed, got.SummaryStatus)
	assert.Equal(t, model.ProcessingStatusCompleted, got.TranscriptionStatus)
	assert.Nil(t, got.SummaryText)
}

func TestProcessMeeting(t *testing.T) {
	env := newTestEnv(t,
		&stubTranscriber{text: "hello world again"},
		&stubSummarizer{summary: "the recap"},
	)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/process/"+meeting.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "hello world again", out["transcription"])
	assert.Equal(t, float64(3), out["transcription_word_count"])
	assert.Equal(t, "the recap", out["summary"])
	assert.Equal(t, "summarized", out["status"])

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusSummarized, got.Status)
	assert.Equal(t, model.ProcessingStatusCompleted, got.TranscriptionStatus)
	assert.Equal(t, model.ProcessingStatusCompleted, got.SummaryStatus)

	var count int64
	env.db.Model(&model.MeetingSummary{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProcessMeetingTranscriptionFails(t *testing.T) {
	env := newTestEnv(t, &stubTranscriber{err: errors.New("audio corrupt")}, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/process/"+meeting.ID, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusFailed, got.Status)
	assert.Equal(t, model.ProcessingStatusFailed, got.TranscriptionStatus)
	assert.Equal(t, model.ProcessingStatusFailed, got.SummaryStatus)
	assert.Nil(t, got.TranscriptionText)
}

// 트랜스크립션이 끝난 뒤 요약이 실패하면 트랜스크립션 결과는 유지된다.
func TestProcessMeetingSummarizationFails(t *testing.T) {
	env := newTestEnv(t,
		&stubTranscriber{text: "hello world"},
		&stubSummarizer{err: errors.New("model overloaded")},
	)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/process/"+meeting.ID, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	got := env.reloadMeeting(t, meeting.ID)
	assert.Equal(t, model.MeetingStatusFailed, got.Status)
	assert.Equal(t, model.ProcessingStatusCompleted, got.TranscriptionStatus)
	assert.Equal(t, model.ProcessingStatusFailed, got.SummaryStatus)
	require.NotNil(t, got.TranscriptionText)
	assert.Equal(t, "hello world", *got.TranscriptionText)
	assert.Nil(t, got.SummaryText)
}

func TestAnalyzeMeeting(t *testing.T) {
	env := newTestEnv(t, nil, &stubSummarizer{
		analysis: &ai.StructuredAnalysis{
			ActionItems: []string{"send notes"},
			KeyInsights: []string{"ship it"},
			Summary:     "planning",
		},
		sentiment: &ai.SentimentResult{Sentiment: "positive", Score: 4, Confidence: 0.8},
	})

	text := "transcript"
	meeting := env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
	})

	resp := env.jsonRequest(t, "POST", "/api/meetings/analyze/"+meeting.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := env.reloadMeeting(t, meeting.ID)
	require.NotNil(t, got.ActionItems)
	assert.Contains(t, *got.ActionItems, "send notes")
	require.NotNil(t, got.KeyPoints)
	assert.Contains(t, *got.KeyPoints, "ship it")
	require.NotNil(t, got.SentimentAnalysis)
	assert.Contains(t, *got.SentimentAnalysis, "positive")
}

func TestAnalyzeMeetingWithoutTranscription(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/analyze/"+meeting.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
