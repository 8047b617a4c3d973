// Package generate wraps an OpenAI-compatible chat completion endpoint as
// the response-generation capability
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"moderato/internal/capability"
	perr "moderato/internal/platform/errors"
)

// Config for the generation client
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls a chat-completion style endpoint
type Client struct {
	cfg  Config
	http *http.Client
}

var _ capability.Generator = (*Client)(nil)

// New constructs a Client; zero timeout defaults to 30s
func New(cfg Config) *Client {
	to := cfg.Timeout
	if to <= 0 {
		to = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: to}}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces a moderation message constrained by the request
func (c *Client) Generate(ctx context.Context, req capability.GenerationRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "marshal generate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "build generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", perr.Wrap(err, perr.ErrorCodeTimeout, "generate timed out")
		}
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "generate unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", perr.Newf(perr.ErrorCodeUnavailable, "generate returned %d", resp.StatusCode)
		}
		return "", perr.Newf(perr.ErrorCodeInvalidOutput, "generate returned %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidOutput, "decode generate response")
	}
	if out.Error != nil {
		return "", perr.Newf(perr.ErrorCodeInvalidOutput, "generate error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", perr.New(perr.ErrorCodeInvalidOutput, "generate returned no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", perr.New(perr.ErrorCodeInvalidOutput, "generate returned empty text")
	}
	return text, nil
}

const systemPrompt = "You are a calm, de-escalating community moderation assistant. " +
	"Write a short reply addressed to the author. Be firm but respectful; never insult, " +
	"never threaten, never quote the offending text back."

func buildPrompt(req capability.GenerationRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Intervention strategy: %s\n", req.Strategy)
	if len(req.Kinds) > 0 {
		kinds := make([]string, len(req.Kinds))
		for i, k := range req.Kinds {
			kinds[i] = string(k)
		}
		fmt.Fprintf(&sb, "Detected concerns: %s\n", strings.Join(kinds, ", "))
	}
	if req.Rationale != "" {
		fmt.Fprintf(&sb, "Decision rationale: %s\n", req.Rationale)
	}
	if req.Author != "" {
		fmt.Fprintf(&sb, "Author to address: %s\n", req.Author)
	}
	if req.Lang != "" {
		fmt.Fprintf(&sb, "Write the reply in language: %s\n", req.Lang)
	}
	sb.WriteString("Reply with the moderation message only, no preamble.")
	return sb.String()
}
