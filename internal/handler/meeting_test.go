package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-copilot-backend/internal/model"
)

func TestUploadMeeting(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	body, contentType := uploadRequest(t, "standup.mp3", "fake audio bytes", "Morning Standup")
	resp := env.request(t, "POST", "/api/meetings/upload", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeBody(t, resp)
	meetingID := out["meeting_id"].(string)
	assert.Equal(t, "Morning Standup", out["title"])
	assert.Equal(t, "uploaded", out["status"])

	meeting := env.reloadMeeting(t, meetingID)
	assert.Equal(t, env.user.ID, meeting.UserID)
	assert.Equal(t, model.PlatformManualUpload, meeting.Platform)
	assert.Equal(t, model.MeetingStatusUploaded, meeting.Status)
	assert.Equal(t, model.ProcessingStatusPending, meeting.TranscriptionStatus)
	assert.Equal(t, model.ProcessingStatusPending, meeting.SummaryStatus)
	assert.Nil(t, meeting.TranscriptionText)

	// 파일은 {id}_{원본명} 규칙으로 저장됨
	require.NotNil(t, meeting.AudioFilePath)
	assert.True(t, strings.HasSuffix(*meeting.AudioFilePath, meetingID+"_standup.mp3"))
	_, err := os.Stat(*meeting.AudioFilePath)
	assert.NoError(t, err)
}

func TestUploadMeetingDefaultsTitleToFilename(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	body, contentType := uploadRequest(t, "retro recording.wav", "audio", "")
	resp := env.request(t, "POST", "/api/meetings/upload", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, "retro recording.wav", out["title"])
}

func TestUploadMeetingRejectsExtension(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	body, contentType := uploadRequest(t, "malware.exe", "nope", "")
	resp := env.request(t, "POST", "/api/meetings/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 거부된 업로드는 미팅 레코드를 남기지 않음
	var count int64
	env.db.Model(&model.Meeting{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUploadMeetingRequiresFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.jsonRequest(t, "POST", "/api/meetings/upload", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMeetingsScopedAndNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	other, _ := env.createUser(t, "other@example.com")

	first := env.createMeeting(t, env.user.ID, func(m *model.Meeting) { m.Title = "First" })
	second := env.createMeeting(t, env.user.ID, func(m *model.Meeting) { m.Title = "Second" })
	env.createMeeting(t, other.ID, func(m *model.Meeting) { m.Title = "Not Mine" })

	// created_at 차이를 명시적으로 만들어 정렬을 고정
	env.db.Model(&model.Meeting{}).Where("id = ?", first.ID).
		Update("created_at", second.CreatedAt.Add(-time.Second))

	resp := env.request(t, "GET", "/api/meetings/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, float64(2), out["total"])

	meetings := out["meetings"].([]interface{})
	require.Len(t, meetings, 2)
	assert.Equal(t, "Second", meetings[0].(map[string]interface{})["title"])
	assert.Equal(t, "First", meetings[1].(map[string]interface{})["title"])
}

func TestGetMeeting(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	text := "hello world"
	meeting := env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
		m.TranscriptionStatus = model.ProcessingStatusCompleted
		m.Status = model.MeetingStatusTranscribed
	})

	resp := env.request(t, "GET", "/api/meetings/"+meeting.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, meeting.ID, out["id"])
	assert.Equal(t, "transcribed", out["status"])
	assert.Equal(t, "completed", out["transcription_status"])
	assert.Equal(t, "hello world", out["transcription_text"])
}

func TestGetMeetingNotFoundForOtherUser(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	other, _ := env.createUser(t, "other@example.com")
	meeting := env.createMeeting(t, other.ID, nil)

	resp := env.request(t, "GET", "/api/meetings/"+meeting.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteMeetingCascades(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)

	require.NoError(t, env.db.Create(&model.MeetingParticipant{
		MeetingID: meeting.ID, Name: "Kim",
	}).Error)
	require.NoError(t, env.db.Create(&model.MeetingTranscript{
		MeetingID: meeting.ID, Text: "hello",
	}).Error)
	require.NoError(t, env.db.Create(&model.MeetingSummary{
		MeetingID: meeting.ID, SummaryType: model.StyleDetailed, Content: "summary",
	}).Error)

	resp := env.request(t, "DELETE", "/api/meetings/"+meeting.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&model.Meeting{}).Where("id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	env.db.Model(&model.MeetingParticipant{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	env.db.Model(&model.MeetingTranscript{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	env.db.Model(&model.MeetingSummary{}).Where("meeting_id = ?", meeting.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// 오디오 파일도 제거됨
	_, err := os.Stat(*meeting.AudioFilePath)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteMeetingSurvivesMissingFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	meeting := env.createMeeting(t, env.user.ID, nil)
	require.NoError(t, os.Remove(*meeting.AudioFilePath))

	resp := env.request(t, "DELETE", "/api/meetings/"+meeting.ID, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetMeetingStats(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	text := "some transcript"
	summary := "a summary"
	duration := 30

	env.createMeeting(t, env.user.ID, nil)
	env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
		m.DurationMinutes = &duration
	})
	env.createMeeting(t, env.user.ID, func(m *model.Meeting) {
		m.TranscriptionText = &text
		m.SummaryText = &summary
		m.DurationMinutes = &duration
	})

	resp := env.request(t, "GET", "/api/meetings/stats/summary", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, float64(3), out["total_meetings"])
	assert.Equal(t, float64(2), out["transcribed_meetings"])
	assert.Equal(t, float64(1), out["summarized_meetings"])
	assert.Equal(t, float64(60), out["total_duration_minutes"])
	assert.Equal(t, float64(20), out["avg_duration_minutes"])
}

func TestGetMeetingStatsEmpty(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.request(t, "GET", "/api/meetings/stats/summary", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, float64(0), out["total_meetings"])
	assert.Equal(t, float64(0), out["avg_duration_minutes"])
}

func TestMeetingRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest("GET", "/api/meetings/", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
