package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/pkg/logger"
)

// ollamaAIRepository is an implementation of AIRepository that talks to
// a local Ollama server via the /api/chat endpoint.
type ollamaAIRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
}

// NewOllamaAIRepository creates a new instance of ollamaAIRepository.
func NewOllamaAIRepository(cfg *config.Config, log *logger.Logger) AIRepository {
	return &ollamaAIRepository{
		client: &http.Client{
			Timeout: 300 * time.Second, // local models can be slow
		},
		cfg:    cfg,
		logger: log,
	}
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *ollamaOptions      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Model   string            `json:"model"`
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// Generate sends the conversation to Ollama and returns the raw text of
// the response.
func (r *ollamaAIRepository) Generate(ctx context.Context, messages []dto.Message) (string, error) {
	payload := ollamaChatRequest{
		Model:    r.cfg.Ollama.Model,
		Messages: make([]ollamaChatMessage, 0, len(messages)),
		Stream:   false,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, ollamaChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	if r.cfg.Ollama.Temperature > 0 {
		payload.Options = &ollamaOptions{Temperature: r.cfg.Ollama.Temperature}
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := strings.TrimRight(r.cfg.Ollama.BaseURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Debug("Sending request to Ollama", logger.StringField("url", apiURL), logger.StringField("model", r.cfg.Ollama.Model))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Error("Received non-OK response from Ollama", logger.IntField("status_code", resp.StatusCode))
		return "", fmt.Errorf("received non-OK response from Ollama: %d - %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("no content found in Ollama response")
	}

	return chatResp.Message.Content, nil
}
