package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"meeting-copilot-backend/internal/config"
)

var (
	ErrTranscriptionNotConfigured = errors.New("transcription api key is not configured")
	ErrAudioFileNotFound          = errors.New("audio file not found")
	ErrAudioFileTooLarge          = errors.New("audio file exceeds provider size limit")
)

// supportedAudioFormats lists extensions the hosted Whisper endpoint accepts
var supportedAudioFormats = []string{
	".mp3", ".mp4", ".mpeg", ".mpga", ".m4a",
	".wav", ".webm", ".mov", ".avi",
}

// TranscriptionClient calls a hosted Whisper-compatible speech-to-text endpoint.
// It only formats the request and parses the response; the model itself is opaque.
type TranscriptionClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxFileSize int64
	httpClient  *http.Client
}

// NewTranscriptionClient creates a client from the Groq config section
func NewTranscriptionClient(cfg config.Groq) *TranscriptionClient {
	return &TranscriptionClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxFileSize: cfg.MaxFileSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Model returns the configured model identifier
func (c *TranscriptionClient) Model() string {
	return c.model
}

// TranscribeFile transcribes a local audio/video file to plain text.
// The file must exist and fit under the provider limit; both are checked
// before any network call is made.
func (c *TranscriptionClient) TranscribeFile(ctx context.Context, filePath string) (string, error) {
	if c.apiKey == "" {
		return "", ErrTranscriptionNotConfigured
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAudioFileNotFound, filePath)
	}
	if info.Size() > c.maxFileSize {
		return "", fmt.Errorf("%w: %.1fMB (max %.1fMB)",
			ErrAudioFileTooLarge,
			float64(info.Size())/1024/1024,
			float64(c.maxFileSize)/1024/1024)
	}

	body, err := c.postTranscription(ctx, filePath, map[string]string{
		"model":           c.model,
		"prompt":          "This is a meeting, interview, or podcast transcription. Include speakers and context.",
		"response_format": "text",
		"temperature":     "0",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}

// TranscriptionSegment is one timed span of the verbose response
type TranscriptionSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionWord is one timed word of the verbose response
type TranscriptionWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// VerboseTranscription carries text plus per-segment/word timing
type VerboseTranscription struct {
	Text     string                 `json:"text"`
	Duration float64                `json:"duration"`
	Segments []TranscriptionSegment `json:"segments"`
	Words    []TranscriptionWord    `json:"words"`
}

// TranscribeWithTimestamps transcribes with segment and word timing information
func (c *TranscriptionClient) TranscribeWithTimestamps(ctx context.Context, filePath string) (*VerboseTranscription, error) {
	if c.apiKey == "" {
		return nil, ErrTranscriptionNotConfigured
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAudioFileNotFound, filePath)
	}
	if info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("%w: %.1fMB (max %.1fMB)",
			ErrAudioFileTooLarge,
			float64(info.Size())/1024/1024,
			float64(c.maxFileSize)/1024/1024)
	}

	body, err := c.postTranscription(ctx, filePath, map[string]string{
		"model":                     c.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "word",
		"temperature":               "0",
	})
	if err != nil {
		return nil, err
	}

	var result VerboseTranscription
	if err := decodeJSON(body, &result); err != nil {
		return nil, fmt.Errorf("transcription response parse failed: %w", err)
	}

	return &result, nil
}

// SupportedFormats returns the audio/video extensions the provider accepts
func (c *TranscriptionClient) SupportedFormats() []string {
	formats := make([]string, len(supportedAudioFormats))
	copy(formats, supportedAudioFormats)
	return formats
}

// ValidateAudioFile reports whether a file is transcribable (exists, known
// extension, under the size limit)
func (c *TranscriptionClient) ValidateAudioFile(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	supported := false
	for _, f := range supportedAudioFormats {
		if ext == f {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}

	return info.Size() <= c.maxFileSize
}

// postTranscription uploads the file as multipart form data and returns the raw body
func (c *TranscriptionClient) postTranscription(ctx context.Context, filePath string, fields map[string]string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
