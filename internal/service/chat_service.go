package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aramartialarts/portal-backend/internal/config"
)

// ErrChatUpstream marks failures of the completion API call so the
// handler can answer 502 instead of 500.
var ErrChatUpstream = errors.New("chat upstream error")

// chatSystemPrompt anchors the assistant persona for every relayed message.
const chatSystemPrompt = "You are a helpful assistant for Master Ara's Martial Arts."

// ChatService relays a single user message to an OpenAI-compatible
// chat-completions API. The upstream is an opaque collaborator: no
// retries, no conversation state, one request in, one answer out.
type ChatService struct {
	cfg    *config.Config
	client *http.Client
	log    zerolog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(cfg *config.Config, log zerolog.Logger) *ChatService {
	return &ChatService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete forwards the user message and returns the first choice's text.
func (s *ChatService) Complete(ctx context.Context, message string) (string, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrChatUpstream)
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.ChatBaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAIAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChatUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrChatUpstream, err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrChatUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrChatUpstream, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrChatUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
