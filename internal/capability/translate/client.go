// Package translate wraps a remote translation service as a capability.
// The wire shape matches the batch style common to research translation
// gateways: arrays in, arrays out
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moderato/internal/capability"
	perr "moderato/internal/platform/errors"
)

// Config for the translation client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the translation service over JSON HTTP
type Client struct {
	baseURL string
	http    *http.Client
}

var _ capability.Translator = (*Client)(nil)

// New constructs a Client; a zero timeout defaults to 10s
func New(cfg Config) *Client {
	to := cfg.Timeout
	if to <= 0 {
		to = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: to},
	}
}

type request struct {
	Source     []string `json:"source"`
	TargetLang string   `json:"target_lang"`
}

type response struct {
	Translation []string  `json:"translation"`
	Confidence  []float64 `json:"confidence"`
}

// Translate sends text for translation into targetLang
func (c *Client) Translate(ctx context.Context, text, targetLang string) (capability.Translation, error) {
	var zero capability.Translation

	body, err := json.Marshal(request{Source: []string{text}, TargetLang: targetLang})
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal translate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeUnknown, "build translate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return zero, perr.Wrap(err, perr.ErrorCodeTimeout, "translate timed out")
		}
		return zero, perr.Wrap(err, perr.ErrorCodeUnavailable, "translate unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return zero, perr.Newf(perr.ErrorCodeUnavailable, "translate returned %d", resp.StatusCode)
		}
		return zero, perr.Newf(perr.ErrorCodeInvalidOutput, "translate returned %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeInvalidOutput, "decode translate response")
	}
	if len(out.Translation) == 0 || out.Translation[0] == "" {
		return zero, perr.New(perr.ErrorCodeInvalidOutput, "translate returned no text")
	}

	conf := 1.0
	if len(out.Confidence) > 0 {
		conf = out.Confidence[0]
	}
	return capability.Translation{Text: out.Translation[0], Confidence: conf}, nil
}
