package editor

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
	"github.com/toriisent/yeezyplayer-store/core/timing"
	"github.com/toriisent/yeezyplayer-store/model"
)

// memoryStore records saves in memory; failing controls whether Save
// errors.
type memoryStore struct {
	saved   map[string]model.LyricDocument
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]model.LyricDocument)}
}

func (s *memoryStore) Save(ctx context.Context, trackID string, doc model.LyricDocument) error {
	if s.failing {
		return errors.New("store unavailable")
	}
	s.saved[trackID] = doc
	return nil
}

func testTrack() model.Track {
	return model.Track{ID: "track-1", Title: "Test Song"}
}

func openSession(t *testing.T, store LyricStore, analyzer *timing.Analyzer) (*Manager, *Session) {
	t.Helper()
	m := NewManager(store, analyzer)
	s := m.Open(testTrack(), nil)
	return m, s
}

func TestOpenSeedsDocument(t *testing.T) {
	m := NewManager(newMemoryStore(), nil)
	seed := lyrics.Generate("Hello world")

	s := m.Open(testTrack(), seed)
	if !reflect.DeepEqual(s.Document(), seed) {
		t.Errorf("session document = %+v, want seed %+v", s.Document(), seed)
	}
	if s.Mode() != ModeSimple {
		t.Errorf("initial mode = %v, want simple", s.Mode())
	}

	// The seed is copied, not aliased.
	seed[0].Time = 99
	if s.Document()[0].Time == 99 {
		t.Error("session aliases the caller's document")
	}
}

func TestSetMode(t *testing.T) {
	_, s := openSession(t, newMemoryStore(), nil)

	doc := lyrics.Generate("one two")
	if err := s.ApplyManualTiming("one two"); err != nil {
		t.Fatalf("ApplyManualTiming: %v", err)
	}

	if err := s.SetMode(ModeAdvanced); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if err := s.SetMode(ModeSimple); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	// Mode switches never touch the document.
	if !reflect.DeepEqual(s.Document(), doc) {
		t.Errorf("document changed across mode switches: %+v", s.Document())
	}

	if err := s.SetMode(Mode("weird")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestLineAndWordEdits(t *testing.T) {
	_, s := openSession(t, newMemoryStore(), nil)

	if err := s.AddLine(); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := s.SetLineTime(0, 2.5); err != nil {
		t.Fatalf("SetLineTime: %v", err)
	}
	if err := s.AddWord(0); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	if err := s.UpdateWord(0, 0, "Hello", 2.5, 3.0); err != nil {
		t.Fatalf("UpdateWord: %v", err)
	}
	if err := s.RemoveWord(0, 1); err != nil {
		t.Fatalf("RemoveWord: %v", err)
	}

	doc := s.Document()
	if doc[0].Time != 2.5 {
		t.Errorf("line time = %v, want 2.5", doc[0].Time)
	}
	if len(doc[0].Words) != 1 || doc[0].Words[0].Word != "Hello" {
		t.Errorf("unexpected words: %+v", doc[0].Words)
	}

	if err := s.RemoveLine(0); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if len(s.Document()) != 0 {
		t.Errorf("document not empty after RemoveLine: %+v", s.Document())
	}
}

func TestEditIndexValidation(t *testing.T) {
	_, s := openSession(t, newMemoryStore(), nil)
	s.AddLine()

	cases := []error{
		s.RemoveLine(5),
		s.SetLineTime(-1, 0),
		s.AddWord(3),
		s.RemoveWord(0, 7),
		s.UpdateWord(0, 7, "x", 0, 1),
	}
	for i, err := range cases {
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("case %d: expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
}

func TestApplyManualTiming(t *testing.T) {
	_, s := openSession(t, newMemoryStore(), nil)

	if err := s.ApplyManualTiming("Hello world\n8:Goodbye now"); err != nil {
		t.Fatalf("ApplyManualTiming: %v", err)
	}

	doc := s.Document()
	if len(doc) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc))
	}
	if doc[1].Time != 8 {
		t.Errorf("prefixed line time = %v, want 8", doc[1].Time)
	}
}

func TestSaveGating(t *testing.T) {
	store := newMemoryStore()
	_, s := openSession(t, store, nil)

	if s.CanSave() {
		t.Error("CanSave true on empty document")
	}
	if err := s.Save(context.Background()); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}

	s.ApplyManualTiming("Hello world")
	if !s.CanSave() {
		t.Error("CanSave false on non-empty document")
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := store.saved["track-1"]; !ok {
		t.Error("document was not persisted")
	}

	// A successful save closes the session.
	if err := s.AddLine(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after save, got %v", err)
	}
}

func TestSaveFailureKeepsSessionOpen(t *testing.T) {
	store := newMemoryStore()
	store.failing = true
	_, s := openSession(t, store, nil)
	s.ApplyManualTiming("Hello world")

	if err := s.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if s.Closed() {
		t.Error("session closed after failed save")
	}

	// Retry succeeds once the store recovers, with edits intact.
	store.failing = false
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry Save: %v", err)
	}
	if len(store.saved["track-1"]) != 1 {
		t.Errorf("unexpected persisted document: %+v", store.saved["track-1"])
	}
}

func TestSaveNormalizes(t *testing.T) {
	store := newMemoryStore()
	_, s := openSession(t, store, nil)

	s.AddLine()
	s.SetLineTime(0, 4)
	s.UpdateWord(0, 0, "late", 4, 4.5)
	s.AddLine()
	s.UpdateWord(1, 0, "early", 0, 0.5)

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	saved := store.saved["track-1"]
	if saved[0].Words[0].Word != "early" {
		t.Errorf("persisted document not sorted by time: %+v", saved)
	}
}

func TestAITimingUnavailable(t *testing.T) {
	_, s := openSession(t, newMemoryStore(), nil)

	_, err := s.ApplyAITiming(context.Background(), "Hello world")
	if !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestAITimingFallback(t *testing.T) {
	// The fake service answers with prose, so the analyzer degrades to
	// the fixed cadence and flags it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"no json here"}}]}`)
	}))
	defer srv.Close()

	analyzer, err := timing.NewAnalyzer(&config.Config{
		OpenAIAPIKey:     "test-key",
		OpenAIBaseURL:    srv.URL,
		OpenAIModel:      "gpt-4o-mini",
		AITimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	_, s := openSession(t, newMemoryStore(), analyzer)

	result, err := s.ApplyAITiming(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("ApplyAITiming: %v", err)
	}
	if !result.Fallback {
		t.Error("expected fallback result")
	}
	if !reflect.DeepEqual(s.Document(), lyrics.Generate("Hello world")) {
		t.Errorf("document is not the heuristic fallback: %+v", s.Document())
	}
}

func TestAITimingAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"lines\":[{\"time\":0,\"words\":[{\"word\":\"Hi\",\"start\":0,\"end\":0.3}]}]}"}}]}`)
	}))
	defer srv.Close()

	analyzer, err := timing.NewAnalyzer(&config.Config{
		OpenAIAPIKey:     "test-key",
		OpenAIBaseURL:    srv.URL,
		OpenAIModel:      "gpt-4o-mini",
		AITimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	_, s := openSession(t, newMemoryStore(), analyzer)
	s.Close()

	if _, err := s.ApplyAITiming(context.Background(), "Hi"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if len(s.Document()) != 0 {
		t.Errorf("closed session document mutated: %+v", s.Document())
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(newMemoryStore(), nil)
	s := m.Open(testTrack(), nil)

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get(%q) = %v, %v", s.ID, got, err)
	}

	// Sessions for different tracks are independent.
	other := m.Open(model.Track{ID: "track-2"}, nil)
	other.ApplyManualTiming("other words")
	if len(s.Document()) != 0 {
		t.Error("editing one session leaked into another")
	}

	m.Release(s.ID)
	if !s.Closed() {
		t.Error("Release did not close the session")
	}
	if _, err := m.Get(s.ID); err == nil {
		t.Error("released session still retrievable")
	}
}

func TestAIEnabled(t *testing.T) {
	if NewManager(newMemoryStore(), nil).AIEnabled() {
		t.Error("AIEnabled true without analyzer")
	}
}
