package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/editor"
	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/model"
	"github.com/toriisent/yeezyplayer-store/repository"

	"github.com/gorilla/mux"
)

// fakeLyricRepo keeps documents in memory.
type fakeLyricRepo struct {
	docs map[string]model.LyricDocument
}

func newFakeLyricRepo() *fakeLyricRepo {
	return &fakeLyricRepo{docs: make(map[string]model.LyricDocument)}
}

func (r *fakeLyricRepo) Save(ctx context.Context, trackID string, doc model.LyricDocument) error {
	r.docs[trackID] = lyrics.Normalize(doc)
	return nil
}

func (r *fakeLyricRepo) Load(ctx context.Context, trackID string) (model.LyricDocument, error) {
	doc, ok := r.docs[trackID]
	if !ok {
		return model.LyricDocument{}, nil
	}
	return doc, nil
}

func (r *fakeLyricRepo) DeleteByTrack(ctx context.Context, trackID string) error {
	delete(r.docs, trackID)
	return nil
}

// fakeTrackRepo serves tracks from a map and records the ids mutating
// calls were made with.
type fakeTrackRepo struct {
	tracks    map[string]*model.Track
	updatedID string
	deletedID string
}

func (r *fakeTrackRepo) Create(ctx context.Context, track *model.Track) error { return nil }
func (r *fakeTrackRepo) GetByID(ctx context.Context, id string) (*model.Track, error) {
	return r.tracks[id], nil
}
func (r *fakeTrackRepo) GetByRelease(ctx context.Context, releaseID string) ([]*model.Track, error) {
	return nil, nil
}
func (r *fakeTrackRepo) Update(ctx context.Context, track *model.Track) error {
	r.updatedID = track.ID
	copied := *track
	r.tracks[track.ID] = &copied
	return nil
}
func (r *fakeTrackRepo) Delete(ctx context.Context, id string) error {
	r.deletedID = id
	delete(r.tracks, id)
	return nil
}
func (r *fakeTrackRepo) Reorder(ctx context.Context, releaseID string, trackIDs []string) error {
	return nil
}
func (r *fakeTrackRepo) Search(ctx context.Context, query string) ([]*model.Track, error) {
	return nil, nil
}

var _ repository.LyricRepository = (*fakeLyricRepo)(nil)
var _ repository.TrackRepository = (*fakeTrackRepo)(nil)

func newTestHandler(lyricRepo *fakeLyricRepo) *APIHandler {
	trackRepo := &fakeTrackRepo{tracks: map[string]*model.Track{
		"track-1": {ID: "track-1", Title: "Test Song"},
	}}
	editors := editor.NewManager(lyricRepo, nil)
	return NewAPIHandler(nil, trackRepo, lyricRepo, nil, nil, editors, &config.Config{})
}

// testRouter registers the lyrics and editor routes without the auth
// middleware so handlers can be exercised directly.
func testRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/{track_id}/lyrics", h.GetLyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{track_id}/lyrics", h.PutLyricsHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{track_id}/lyrics/position", h.ResolveLyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/editor", h.OpenEditorHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}", h.GetEditorHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/editor/{session}", h.CloseEditorHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/editor/{session}/manual-timing", h.EditorManualTimingHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/ai-timing", h.EditorAnalyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/editor/{session}/save", h.EditorSaveHandler).Methods(http.MethodPost)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetLyricsEmpty(t *testing.T) {
	router := testRouter(newTestHandler(newFakeLyricRepo()))

	rec := doJSON(t, router, http.MethodGet, "/api/tracks/track-1/lyrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Lyrics model.LyricDocument `json:"lyrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Lyrics) != 0 {
		t.Errorf("expected empty document, got %+v", resp.Lyrics)
	}
}

func TestPutThenGetLyrics(t *testing.T) {
	repo := newFakeLyricRepo()
	router := testRouter(newTestHandler(repo))
	doc := lyrics.Generate("Hello world")

	rec := doJSON(t, router, http.MethodPut, "/api/tracks/track-1/lyrics", map[string]interface{}{"lyrics": doc})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/tracks/track-1/lyrics", nil)
	var resp struct {
		Lyrics model.LyricDocument `json:"lyrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Lyrics) != 1 || resp.Lyrics[0].Words[0].Word != "Hello" {
		t.Errorf("unexpected document: %+v", resp.Lyrics)
	}
}

func TestResolveLyricsEndpoint(t *testing.T) {
	repo := newFakeLyricRepo()
	repo.docs["track-1"] = lyrics.Generate("Hello world\nGoodbye now")
	router := testRouter(newTestHandler(repo))

	rec := doJSON(t, router, http.MethodGet, "/api/tracks/track-1/lyrics/position?t=4.2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var pos lyrics.Position
	if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pos.Line != 1 || pos.Word != 0 {
		t.Errorf("position = %+v, want line 1 word 0", pos)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/tracks/track-1/lyrics/position?t=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric t: status = %d", rec.Code)
	}
}

func TestEditorFlow(t *testing.T) {
	repo := newFakeLyricRepo()
	router := testRouter(newTestHandler(repo))

	// Open a session for the track.
	rec := doJSON(t, router, http.MethodPost, "/api/editor", map[string]string{"trackId": "track-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open status = %d, body %s", rec.Code, rec.Body)
	}
	var state editorStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.CanSave {
		t.Error("CanSave true for empty document")
	}
	if state.AIEnabled {
		t.Error("AIEnabled true without analyzer")
	}

	base := fmt.Sprintf("/api/editor/%s", state.Session)

	// Saving an empty document is rejected.
	rec = doJSON(t, router, http.MethodPost, base+"/save", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty save status = %d, want 422", rec.Code)
	}

	// AI timing is refused outright when not configured.
	rec = doJSON(t, router, http.MethodPost, base+"/ai-timing", map[string]string{"lyrics": "Hello world"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ai-timing status = %d, want 503", rec.Code)
	}

	// Manual timing fills the document.
	rec = doJSON(t, router, http.MethodPost, base+"/manual-timing", map[string]string{"lyrics": "Hello world"})
	if rec.Code != http.StatusOK {
		t.Fatalf("manual-timing status = %d, body %s", rec.Code, rec.Body)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.CanSave || len(state.Lyrics) != 1 {
		t.Errorf("unexpected state after manual timing: %+v", state)
	}

	// Save persists and releases the session.
	rec = doJSON(t, router, http.MethodPost, base+"/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body)
	}
	if len(repo.docs["track-1"]) != 1 {
		t.Errorf("document not persisted: %+v", repo.docs)
	}

	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("session still alive after save: status = %d", rec.Code)
	}
}

func TestEditorCloseDiscards(t *testing.T) {
	repo := newFakeLyricRepo()
	router := testRouter(newTestHandler(repo))

	rec := doJSON(t, router, http.MethodPost, "/api/editor", map[string]string{"trackId": "track-1"})
	var state editorStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	base := fmt.Sprintf("/api/editor/%s", state.Session)

	doJSON(t, router, http.MethodPost, base+"/manual-timing", map[string]string{"lyrics": "Hello world"})
	doJSON(t, router, http.MethodDelete, base, nil)

	if len(repo.docs["track-1"]) != 0 {
		t.Errorf("closed session persisted a document: %+v", repo.docs)
	}
}

func TestOpenEditorUnknownTrack(t *testing.T) {
	router := testRouter(newTestHandler(newFakeLyricRepo()))

	rec := doJSON(t, router, http.MethodPost, "/api/editor", map[string]string{"trackId": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
