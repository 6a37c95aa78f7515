package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"meeting-copilot-backend/internal/config"
	"meeting-copilot-backend/internal/model"
)

var ErrSummarizationNotConfigured = errors.New("summarization api key is not configured")

// stylePrompts maps summary styles to their prompt templates
var stylePrompts = map[model.SummaryStyle]string{
	model.StyleBrief:        "Create a brief 2-3 sentence summary of the key points.",
	model.StyleDetailed:     "Provide a detailed summary with main topics, key insights, and action items.",
	model.StyleBulletPoints: "Create a bullet-point summary with main topics and subtopics.",
	model.StyleExecutive:    "Create an executive summary suitable for business stakeholders.",
}

// SummarizationClient calls a hosted generative-text endpoint (Gemini REST API).
// It selects a prompt template, sends the transcript, and parses the response;
// malformed JSON from the model surfaces as a plain error with no repair logic.
type SummarizationClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewSummarizationClient creates a client from the Gemini config section
func NewSummarizationClient(cfg config.Gemini) *SummarizationClient {
	return &SummarizationClient{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Model returns the configured model identifier
func (c *SummarizationClient) Model() string {
	return c.model
}

// SummarizeText summarizes a transcript in the given style
func (c *SummarizationClient) SummarizeText(ctx context.Context, text string, style model.SummaryStyle) (string, error) {
	prompt, ok := stylePrompts[style]
	if !ok {
		prompt = stylePrompts[model.StyleDetailed]
	}

	fullPrompt := fmt.Sprintf(
		"You are an expert at summarizing meeting transcripts and documents. %s\n\nPlease summarize this content:\n\n%s",
		prompt, text)

	return c.generateText(ctx, fullPrompt, false)
}

// StructuredAnalysis is the structured extraction of a meeting transcript
type StructuredAnalysis struct {
	MainTopics       []string `json:"main_topics"`
	KeyInsights      []string `json:"key_insights"`
	ActionItems      []string `json:"action_items"`
	Participants     []string `json:"participants"`
	Summary          string   `json:"summary"`
	Sentiment        string   `json:"sentiment"`
	DurationEstimate string   `json:"duration_estimate"`
}

// AnalyzeStructured extracts topics, insights, action items, participants,
// summary and sentiment as structured JSON
func (c *SummarizationClient) AnalyzeStructured(ctx context.Context, text string) (*StructuredAnalysis, error) {
	prompt := fmt.Sprintf(`Extract structured information from this meeting transcript and respond with valid JSON in this exact format:
{
    "main_topics": ["topic1", "topic2"],
    "key_insights": ["insight1", "insight2"],
    "action_items": ["action1", "action2"],
    "participants": ["person1", "person2"],
    "summary": "brief summary",
    "sentiment": "positive/neutral/negative",
    "duration_estimate": "X minutes"
}

Transcript:
%s`, text)

	raw, err := c.generateText(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result StructuredAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("structured analysis failed: %w", err)
	}
	if result.Sentiment == "" {
		result.Sentiment = "neutral"
	}

	return &result, nil
}

// GenerateActionItems extracts action items from a transcript
func (c *SummarizationClient) GenerateActionItems(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract action items from this meeting transcript. Return as JSON in this format:
{"action_items": ["item1", "item2", "item3"]}

Content:
%s`, text)

	raw, err := c.generateText(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result struct {
		ActionItems []string `json:"action_items"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("action item extraction failed: %w", err)
	}

	return result.ActionItems, nil
}

// SentimentResult is the sentiment analysis of a transcript.
// Score is clamped to [1,5], Confidence to [0,1].
type SentimentResult struct {
	Sentiment  string   `json:"sentiment"`
	Score      int      `json:"score"`
	Confidence float64  `json:"confidence"`
	Emotions   []string `json:"emotions"`
}

// AnalyzeSentiment analyzes the sentiment of meeting content
func (c *SummarizationClient) AnalyzeSentiment(ctx context.Context, text string) (*SentimentResult, error) {
	prompt := fmt.Sprintf(`Analyze the sentiment of this meeting content. Respond with JSON in this format:
{
    "sentiment": "positive/neutral/negative",
    "score": 3,
    "confidence": 0.8,
    "emotions": ["professional", "collaborative"]
}

Content:
%s`, text)

	raw, err := c.generateText(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result SentimentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	if result.Sentiment == "" {
		result.Sentiment = "neutral"
	}
	result.Score = clampInt(result.Score, 1, 5)
	result.Confidence = clampFloat(result.Confidence, 0, 1)

	return &result, nil
}

// GenerateMeetingMinutes generates formal meeting minutes from a transcript
func (c *SummarizationClient) GenerateMeetingMinutes(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Generate formal meeting minutes from this transcript. Include attendees, agenda items, decisions, and action items.

Transcript:
%s`, text)

	return c.generateText(ctx, prompt, false)
}

// AnswerQuestion answers a question about meeting content
func (c *SummarizationClient) AnswerQuestion(ctx context.Context, question, contextText string) (string, error) {
	prompt := "You are a helpful assistant specialized in answering questions about meetings and documents."
	if contextText != "" {
		prompt += " Use this context to answer questions: " + contextText
	}
	prompt += "\n\nQuestion: " + question

	return c.generateText(ctx, prompt, false)
}

// Gemini generateContent request/response wire types

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// generateText performs one generateContent call and returns the first
// candidate's text. jsonMode requests an application/json response body.
func (c *SummarizationClient) generateText(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c.apiKey == "" {
		return "", ErrSummarizationNotConfigured
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: c.maxTokens,
		},
	}
	if jsonMode {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read summarization response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarization provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result geminiResponse
	if err := decodeJSON(body, &result); err != nil {
		return "", fmt.Errorf("summarization response parse failed: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("summarization provider returned no candidates")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeJSON unmarshals a raw response body
func decodeJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
