package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/converse/internal/domain"
	"github.com/kailas-cloud/converse/internal/domain/intent"
	"github.com/kailas-cloud/converse/internal/metrics"
)

const systemPrompt = `You classify a single user utterance for a QnA and appointment-scheduling assistant.
Respond with JSON only: {"intent":"scheduleAppointment"|"askQuestion"|"none","confidence":0.0-1.0,"entities":[{"type":"datetime","value":"..."}]}.
Entities are optional; include datetime spans found in the utterance.`

// Recognizer classifies utterances via an OpenAI-compatible chat API.
type Recognizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the recognizer provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewRecognizer creates an OpenAI-compatible intent recognizer.
func NewRecognizer(cfg *Config) *Recognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recognizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// recognitionPayload is the constrained JSON the model must produce.
type recognitionPayload struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Entities   []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"entities"`
}

// Recognize implements dispatch.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, text string) (intent.Recognition, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		metrics.IntentRecognitionsTotal.WithLabelValues("unknown", "error").Inc()
		return intent.Recognition{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.IntentRecognitionsTotal.WithLabelValues("unknown", "error").Inc()
		return intent.Recognition{}, fmt.Errorf("empty completion response: %w", domain.ErrRecognizerService)
	}

	var payload recognitionPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		metrics.IntentRecognitionsTotal.WithLabelValues("unknown", "error").Inc()
		return intent.Recognition{}, fmt.Errorf("decode recognition: %w: %w", domain.ErrRecognizerService, err)
	}

	entities := make([]intent.Entity, len(payload.Entities))
	for i, e := range payload.Entities {
		entities[i] = intent.Entity{Type: e.Type, Value: e.Value}
	}

	rec := intent.NewRecognition(payload.Intent, payload.Confidence, entities)
	metrics.IntentRecognitionsTotal.WithLabelValues(rec.TopIntent(), "success").Inc()
	return rec, nil
}

// parseAPIError extracts a human-readable error from the API response.
// Everything is wrapped with domain.ErrRecognizerService.
func parseAPIError(err error) error {
	wrap := domain.ErrRecognizerService

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("recognizer API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("recognizer API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("recognizer request failed: %w", wrap)
}
