package timing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/lyrics"
)

// fakeOpenAI serves a canned chat-completion response whose message
// content is the given string.
func fakeOpenAI(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

func newTestAnalyzer(t *testing.T, baseURL string) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(&config.Config{
		OpenAIAPIKey:     "test-key",
		OpenAIBaseURL:    baseURL,
		OpenAIModel:      "gpt-4o-mini",
		AITimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return a
}

func TestNewAnalyzerMissingKey(t *testing.T) {
	_, err := NewAnalyzer(&config.Config{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	content := `{"lines":[{"time":0,"words":[{"word":"Hello","start":0,"end":0.4},{"word":"world","start":0.5,"end":0.9}]}]}`
	srv := fakeOpenAI(t, content)
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	result, err := a.Analyze(context.Background(), "http://example/audio.mp3", "Hello world")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Fallback {
		t.Error("expected AI timing, got fallback")
	}
	if len(result.Document) != 1 || len(result.Document[0].Words) != 2 {
		t.Fatalf("unexpected document: %+v", result.Document)
	}
	if got := result.Document[0].Words[1]; got.Word != "world" || got.Start != 0.5 {
		t.Errorf("unexpected second word: %+v", got)
	}
}

func TestAnalyzeBareArray(t *testing.T) {
	content := `[{"time":0,"words":[{"word":"Hi","start":0,"end":0.3}]}]`
	srv := fakeOpenAI(t, content)
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	result, err := a.Analyze(context.Background(), "", "Hi")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Fallback {
		t.Error("expected AI timing, got fallback")
	}
}

func TestAnalyzeMalformedFallsBack(t *testing.T) {
	srv := fakeOpenAI(t, "Sure! Here are the timings you asked for.")
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	raw := "Hello world\nGoodbye now"
	result, err := a.Analyze(context.Background(), "", raw)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Fallback {
		t.Error("expected fallback for unparseable response")
	}
	if !reflect.DeepEqual(result.Document, lyrics.Generate(raw)) {
		t.Errorf("fallback document differs from heuristic: %+v", result.Document)
	}
}

func TestAnalyzeServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	result, err := a.Analyze(context.Background(), "", "Hello world")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Fallback {
		t.Error("expected fallback for server error")
	}
	if len(result.Document) == 0 {
		t.Error("fallback produced no document")
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	srv := fakeOpenAI(t, "{}")
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, "", "Hello world")
	if err == nil {
		t.Error("expected error when caller context is cancelled")
	}
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"wrapped lines", `{"lines":[{"time":0,"words":[{"word":"a","start":0,"end":1}]}]}`, false},
		{"bare array", `[{"time":0,"words":[{"word":"a","start":0,"end":1}]}]`, false},
		{"prose", "not json at all", true},
		{"empty object", `{}`, true},
		{"no lines", `{"lines":[]}`, true},
		{"line without words", `{"lines":[{"time":0,"words":[]}]}`, true},
		{"empty word", `{"lines":[{"time":0,"words":[{"word":"","start":0,"end":1}]}]}`, true},
		{"negative start", `{"lines":[{"time":0,"words":[{"word":"a","start":-1,"end":1}]}]}`, true},
		{"end before start", `{"lines":[{"time":0,"words":[{"word":"a","start":2,"end":1}]}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeDocument(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeDocument(%q) error = %v, wantErr %v", tt.content, err, tt.wantErr)
			}
		})
	}
}
