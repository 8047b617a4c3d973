// Package platform holds the out-of-core collaborators: where utterances
// come from and where moderation messages go. The pipeline core never
// imports this package; the watch worker wires it in
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
)

// Feed is the ingestion collaborator: it yields new utterances in arrival
// order together with an opaque cursor for the next poll
type Feed interface {
	Poll(ctx context.Context, cursor string) ([]moderation.Utterance, string, error)
}

// HTTPFeedConfig configures the polling HTTP feed
type HTTPFeedConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPFeed polls a JSON endpoint for new utterances
type HTTPFeed struct {
	baseURL string
	http    *http.Client
}

var _ Feed = (*HTTPFeed)(nil)

// NewHTTPFeed constructs an HTTPFeed; a zero timeout defaults to 15s
func NewHTTPFeed(cfg HTTPFeedConfig) *HTTPFeed {
	to := cfg.Timeout
	if to <= 0 {
		to = 15 * time.Second
	}
	return &HTTPFeed{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: to},
	}
}

type feedItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Lang      string    `json:"lang"`
	Author    string    `json:"author"`
	ThreadID  string    `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
	Ordinal   int       `json:"ordinal"`
}

type feedResponse struct {
	Utterances []feedItem `json:"utterances"`
	Cursor     string     `json:"cursor"`
}

// Poll fetches everything newer than cursor. An empty batch with the same
// cursor is the normal idle answer
func (f *HTTPFeed) Poll(ctx context.Context, cursor string) ([]moderation.Utterance, string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, cursor, perr.Wrap(err, perr.ErrorCodeConfiguration, "feed url")
	}
	if cursor != "" {
		q := u.Query()
		q.Set("cursor", cursor)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, cursor, perr.Wrap(err, perr.ErrorCodeUnknown, "build feed request")
	}

	resp, err := f.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, cursor, perr.Wrap(err, perr.ErrorCodeTimeout, "feed poll timed out")
		}
		return nil, cursor, perr.Wrap(err, perr.ErrorCodeUnavailable, "feed unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, cursor, perr.Newf(perr.ErrorCodeUnavailable, "feed returned %d", resp.StatusCode)
		}
		return nil, cursor, perr.Newf(perr.ErrorCodeInvalidOutput, "feed returned %d", resp.StatusCode)
	}

	var out feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, cursor, perr.Wrap(err, perr.ErrorCodeInvalidOutput, "decode feed response")
	}

	utts := make([]moderation.Utterance, len(out.Utterances))
	for i, it := range out.Utterances {
		utts[i] = moderation.Utterance{
			ID:        it.ID,
			Text:      it.Text,
			Lang:      it.Lang,
			Author:    it.Author,
			ThreadID:  it.ThreadID,
			CreatedAt: it.CreatedAt,
			Ordinal:   it.Ordinal,
		}
	}
	next := out.Cursor
	if next == "" {
		next = cursor
	}
	return utts, next, nil
}
