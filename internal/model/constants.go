package model

import "fmt"

// MeetingStatus 미팅 라이프사이클 상태
type MeetingStatus string

const (
	MeetingStatusScheduled    MeetingStatus = "scheduled"
	MeetingStatusUploaded     MeetingStatus = "uploaded"
	MeetingStatusJoining      MeetingStatus = "joining"
	MeetingStatusActive       MeetingStatus = "active"
	MeetingStatusTranscribing MeetingStatus = "transcribing"
	MeetingStatusTranscribed  MeetingStatus = "transcribed"
	MeetingStatusSummarized   MeetingStatus = "summarized"
	MeetingStatusCompleted    MeetingStatus = "completed"
	MeetingStatusFailed       MeetingStatus = "failed"
)

func (s MeetingStatus) String() string {
	return string(s)
}

// ParseMeetingStatus 문자열을 MeetingStatus로 변환 (알 수 없는 값은 거부)
func ParseMeetingStatus(s string) (MeetingStatus, error) {
	switch MeetingStatus(s) {
	case MeetingStatusScheduled, MeetingStatusUploaded, MeetingStatusJoining,
		MeetingStatusActive, MeetingStatusTranscribing, MeetingStatusTranscribed,
		MeetingStatusSummarized, MeetingStatusCompleted, MeetingStatusFailed:
		return MeetingStatus(s), nil
	}
	return "", fmt.Errorf("unknown meeting status %q", s)
}

// ProcessingStatus 트랜스크립션/요약 개별 처리 상태
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

func (s ProcessingStatus) String() string {
	return string(s)
}

// ParseProcessingStatus 문자열을 ProcessingStatus로 변환
func ParseProcessingStatus(s string) (ProcessingStatus, error) {
	switch ProcessingStatus(s) {
	case ProcessingStatusPending, ProcessingStatusProcessing,
		ProcessingStatusCompleted, ProcessingStatusFailed:
		return ProcessingStatus(s), nil
	}
	return "", fmt.Errorf("unknown processing status %q", s)
}

// MeetingPlatform 미팅 플랫폼 태그
type MeetingPlatform string

const (
	PlatformZoom           MeetingPlatform = "zoom"
	PlatformGoogleMeet     MeetingPlatform = "google_meet"
	PlatformMicrosoftTeams MeetingPlatform = "microsoft_teams"
	PlatformManualUpload   MeetingPlatform = "manual_upload"
)

func (p MeetingPlatform) String() string {
	return string(p)
}

// ParseMeetingPlatform 문자열을 MeetingPlatform으로 변환
func ParseMeetingPlatform(s string) (MeetingPlatform, error) {
	switch MeetingPlatform(s) {
	case PlatformZoom, PlatformGoogleMeet, PlatformMicrosoftTeams, PlatformManualUpload:
		return MeetingPlatform(s), nil
	}
	return "", fmt.Errorf("unknown meeting platform %q", s)
}

// SummaryStyle 요약 스타일
type SummaryStyle string

const (
	StyleBrief        SummaryStyle = "brief"
	StyleDetailed     SummaryStyle = "detailed"
	StyleBulletPoints SummaryStyle = "bullet_points"
	StyleExecutive    SummaryStyle = "executive"
)

func (s SummaryStyle) String() string {
	return string(s)
}

// NormalizeSummaryStyle 알 수 없는 스타일은 detailed로 폴백
func NormalizeSummaryStyle(s string) SummaryStyle {
	switch SummaryStyle(s) {
	case StyleBrief, StyleDetailed, StyleBulletPoints, StyleExecutive:
		return SummaryStyle(s)
	}
	return StyleDetailed
}
