package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moderato/internal/capability"
	"moderato/internal/core/moderation"
	perr "moderato/internal/platform/errors"
)

func chatBody(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return b
}

func TestGenerateBuildsConstrainedPrompt(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write(chatBody("  Please keep the discussion respectful.  "))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	text, err := c.Generate(context.Background(), capability.GenerationRequest{
		Strategy:  moderation.StrategyEscalate,
		Kinds:     []moderation.TriggerKind{moderation.KindThreat},
		Rationale: "matched kinds [threat]",
		Author:    "user42",
		Lang:      "fr",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Please keep the discussion respectful." {
		t.Fatalf("text = %q (want trimmed)", text)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages = %d, want system+user", len(gotReq.Messages))
	}
	user := gotReq.Messages[1].Content
	for _, want := range []string{"escalate-to-human-moderator", "threat", "user42", "fr"} {
		if !strings.Contains(user, want) {
			t.Fatalf("prompt missing %q:\n%s", want, user)
		}
	}
}

func TestGenerateEmptyChoiceIsInvalidOutput(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(chatBody("   "))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Generate(context.Background(), capability.GenerationRequest{})
	if !perr.IsCode(err, perr.ErrorCodeInvalidOutput) {
		t.Fatalf("code = %d, want InvalidOutput (err=%v)", perr.CodeOf(err), err)
	}
}

func TestGenerateAPIErrorField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Generate(context.Background(), capability.GenerationRequest{})
	if !perr.IsCode(err, perr.ErrorCodeInvalidOutput) {
		t.Fatalf("code = %d, want InvalidOutput (err=%v)", perr.CodeOf(err), err)
	}
}
