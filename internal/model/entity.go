package model

import (
	"time"
)

// User 사용자
type User struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash *string `gorm:"type:varchar(255)" json:"-"`
	FullName     *string `gorm:"type:varchar(255)" json:"full_name,omitempty"`
	Provider     *string `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID   *string `gorm:"type:varchar(255)" json:"provider_id,omitempty"`

	// 로컬 녹음 폴더 설정
	RecordingsPath *string    `gorm:"type:varchar(500)" json:"recordings_path,omitempty"`
	LastFolderScan *time.Time `json:"last_folder_scan,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Meetings []Meeting `gorm:"foreignKey:UserID" json:"meetings,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Meeting 미팅 녹음과 처리 상태
type Meeting struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"`

	// 미팅 정보
	Title             string          `gorm:"type:varchar(500);not null" json:"title"`
	Platform          MeetingPlatform `gorm:"type:varchar(50);not null" json:"platform"`
	PlatformMeetingID *string         `gorm:"type:varchar(255)" json:"platform_meeting_id,omitempty"`
	MeetingURL        *string         `gorm:"type:varchar(1000)" json:"meeting_url,omitempty"`

	// 타이밍
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	ActualStart     *time.Time `json:"actual_start,omitempty"`
	ActualEnd       *time.Time `json:"actual_end,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`

	// 상태 및 메타데이터
	Status          MeetingStatus `gorm:"type:varchar(50);default:'uploaded'" json:"status"`
	AudioFilePath   *string       `gorm:"type:varchar(1000)" json:"audio_file_path,omitempty"`
	MeetingMetadata *string       `gorm:"type:jsonb" json:"meeting_metadata,omitempty"`

	// AI 처리 결과
	TranscriptionText *string `gorm:"type:text" json:"transcription_text,omitempty"`
	SummaryText       *string `gorm:"type:text" json:"summary_text,omitempty"`
	ActionItems       *string `gorm:"type:jsonb" json:"action_items,omitempty"`
	KeyPoints         *string `gorm:"type:jsonb" json:"key_points,omitempty"`
	SentimentAnalysis *string `gorm:"type:jsonb" json:"sentiment_analysis,omitempty"`

	// 단어 수 및 통계
	WordCountTranscription *int `json:"word_count_transcription,omitempty"`
	WordCountSummary       *int `json:"word_count_summary,omitempty"`
	ParticipantCount       *int `json:"participant_count,omitempty"`

	// 개별 처리 상태 (coarse status와 독립적으로 추적)
	TranscriptionStatus ProcessingStatus `gorm:"type:varchar(50);default:'pending'" json:"transcription_status"`
	SummaryStatus       ProcessingStatus `gorm:"type:varchar(50);default:'pending'" json:"summary_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User         User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Participants []MeetingParticipant `gorm:"foreignKey:MeetingID" json:"participants,omitempty"`
	Transcripts  []MeetingTranscript  `gorm:"foreignKey:MeetingID" json:"transcripts,omitempty"`
	Summaries    []MeetingSummary     `gorm:"foreignKey:MeetingID" json:"summaries,omitempty"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// MeetingParticipant 미팅 참가자
type MeetingParticipant struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID string `gorm:"type:varchar(36);not null;index" json:"meeting_id"`

	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Email           *string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	PlatformUserID  *string    `gorm:"type:varchar(255)" json:"platform_user_id,omitempty"`
	JoinTime        *time.Time `json:"join_time,omitempty"`
	LeaveTime       *time.Time `json:"leave_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	IsHost          bool       `gorm:"default:false" json:"is_host"`
	IsAgent         bool       `gorm:"default:false" json:"is_agent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
}

func (MeetingParticipant) TableName() string {
	return "meeting_participants"
}

// MeetingTranscript 발화 단위 트랜스크립트
type MeetingTranscript struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID string `gorm:"type:varchar(36);not null;index" json:"meeting_id"`

	SpeakerName *string  `gorm:"type:varchar(255)" json:"speaker_name,omitempty"`
	SpeakerID   *string  `gorm:"type:varchar(255)" json:"speaker_id,omitempty"`
	Text        string   `gorm:"type:text;not null" json:"text"`
	StartTime   *float64 `json:"start_time,omitempty"`
	EndTime     *float64 `json:"end_time,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Language    string   `gorm:"type:varchar(10);default:'en'" json:"language"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
}

func (MeetingTranscript) TableName() string {
	return "meeting_transcripts"
}

// MeetingSummary 스타일별 요약 결과
type MeetingSummary struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID string `gorm:"type:varchar(36);not null;index" json:"meeting_id"`

	SummaryType           SummaryStyle `gorm:"type:varchar(50);not null" json:"summary_type"`
	Content               string       `gorm:"type:text;not null" json:"content"`
	WordCount             *int         `json:"word_count,omitempty"`
	AIModel               *string      `gorm:"type:varchar(100)" json:"ai_model,omitempty"`
	ProcessingTimeSeconds *float64     `json:"processing_time_seconds,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
}

func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}
