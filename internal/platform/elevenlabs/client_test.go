package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestSynthesize(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/"+DefaultVoiceID {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	c, err := New(newTestLogger(t), Config{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	audio, err := c.Synthesize(context.Background(), "It hurts here.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Fatalf("unexpected audio: %q", audio)
	}
	if got.Text != "It hurts here." || got.ModelID != DefaultModelID {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.VoiceSettings != DefaultVoiceSettings() {
		t.Fatalf("unexpected voice settings: %+v", got.VoiceSettings)
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"quota_exceeded"}`))
	}))
	defer srv.Close()

	c, _ := New(newTestLogger(t), Config{APIKey: "key", BaseURL: srv.URL})
	_, err := c.Synthesize(context.Background(), "x")
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402 HTTPError, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(newTestLogger(t), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
