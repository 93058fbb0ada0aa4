package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/medsim-backend/internal/platform/llm"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestGenerateMapsRolesAndFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"ok\":true}"}]}]}`))
	}))
	defer srv.Close()

	c, err := New(newTestLogger(t), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := c.Generate(context.Background(), llm.Request{
		System: "sys",
		JSON:   true,
		Turns:  []llm.Turn{{Role: llm.RoleUser, Text: "q"}, {Role: llm.RoleModel, Text: "a"}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text: %q", text)
	}
	input, _ := got["input"].([]any)
	if len(input) != 2 {
		t.Fatalf("unexpected input: %v", got["input"])
	}
	if second, _ := input[1].(map[string]any); second["role"] != "assistant" {
		t.Fatalf("model turn should map to assistant, got %v", second["role"])
	}
	if got["instructions"] != "sys" {
		t.Fatalf("unexpected instructions: %v", got["instructions"])
	}
	format, _ := got["text"].(map[string]any)["format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("unexpected text format: %v", got["text"])
	}
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()
	c, _ := New(newTestLogger(t), Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), llm.Request{Turns: []llm.Turn{{Role: llm.RoleUser, Text: "x"}}})
	var he *openAIHTTPError
	if !errors.As(err, &he) || he.HTTPStatusCode() != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(newTestLogger(t), Config{}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
