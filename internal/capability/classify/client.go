// Package classify wraps a comment-analysis scoring service as a capability.
// The wire shape follows the attribute-score style of hosted toxicity APIs:
// the caller requests named attributes and gets a summary score per attribute
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
)

// DefaultAttributes maps service attribute names to trigger kinds
var DefaultAttributes = map[string]moderation.TriggerKind{
	"THREAT":          moderation.KindThreat,
	"INSULT":          moderation.KindInsult,
	"PROFANITY":       moderation.KindProfanity,
	"IDENTITY_ATTACK": moderation.KindHateSpeech,
	"TOXICITY":        moderation.KindHarassment,
}

// Config for the scoring client
type Config struct {
	Name       string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Attributes map[string]moderation.TriggerKind
}

// Client calls the scoring service over JSON HTTP
type Client struct {
	name    string
	baseURL string
	apiKey  string
	attrs   map[string]moderation.TriggerKind
	http    *http.Client
}

var _ capability.Classifier = (*Client)(nil)

// New constructs a Client with DefaultAttributes unless overridden
func New(cfg Config) *Client {
	to := cfg.Timeout
	if to <= 0 {
		to = 10 * time.Second
	}
	attrs := cfg.Attributes
	if len(attrs) == 0 {
		attrs = DefaultAttributes
	}
	name := cfg.Name
	if name == "" {
		name = "comment-analysis"
	}
	return &Client{
		name:    name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		attrs:   attrs,
		http:    &http.Client{Timeout: to},
	}
}

// Name identifies the classifier in detector merge logs and stage statuses
func (c *Client) Name() string { return c.name }

type request struct {
	Comment             comment             `json:"comment"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type comment struct {
	Text string `json:"text"`
}

type response struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Classify scores text and maps attribute scores onto trigger kinds.
// When two attributes map to the same kind the higher score wins
func (c *Client) Classify(ctx context.Context, text string) (map[moderation.TriggerKind]float64, error) {
	reqAttrs := make(map[string]struct{}, len(c.attrs))
	for a := range c.attrs {
		reqAttrs[a] = struct{}{}
	}
	body, err := json.Marshal(request{Comment: comment{Text: text}, RequestedAttributes: reqAttrs})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal classify request")
	}

	url := c.baseURL
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "build classify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeTimeout, "classify timed out")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "classify unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "classify returned %d", resp.StatusCode)
		}
		return nil, perr.Newf(perr.ErrorCodeInvalidOutput, "classify returned %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidOutput, "decode classify response")
	}
	if len(out.AttributeScores) == 0 {
		return nil, perr.New(perr.ErrorCodeInvalidOutput, "classify returned no scores")
	}

	scores := map[moderation.TriggerKind]float64{}
	for attr, kind := range c.attrs {
		sc, ok := out.AttributeScores[attr]
		if !ok {
			continue
		}
		v := sc.SummaryScore.Value
		if v < 0 || v > 1 {
			return nil, perr.Newf(perr.ErrorCodeInvalidOutput, "score %v out of range for %s", v, attr)
		}
		if prev, ok := scores[kind]; !ok || v > prev {
			scores[kind] = v
		}
	}
	return scores, nil
}
