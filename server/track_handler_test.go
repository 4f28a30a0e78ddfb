package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/editor"
	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/gorilla/mux"
)

func newTrackTestHandler() (*APIHandler, *fakeTrackRepo, *fakeLyricRepo) {
	trackRepo := &fakeTrackRepo{tracks: map[string]*model.Track{
		"track-1": {
			ID:         "track-1",
			ReleaseID:  "release-1",
			Title:      "Old Title",
			Artist:     "Ye",
			TrackOrder: 3,
		},
	}}
	lyricRepo := newFakeLyricRepo()
	editors := editor.NewManager(lyricRepo, nil)
	h := NewAPIHandler(nil, trackRepo, lyricRepo, nil, nil, editors, &config.Config{})
	return h, trackRepo, lyricRepo
}

// trackTestRouter registers the track handlers on the same URL
// patterns the server uses, so the handlers' route-variable reads are
// exercised against the real paths.
func trackTestRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.UpdateTrackHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}", h.DeleteTrackHandler).Methods(http.MethodDelete)
	return router
}

func TestUpdateTrack(t *testing.T) {
	h, trackRepo, _ := newTrackTestHandler()
	router := trackTestRouter(h)

	rec := doJSON(t, router, http.MethodPut, "/api/tracks/track-1", map[string]string{"title": "New Title"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if trackRepo.updatedID != "track-1" {
		t.Errorf("repo updated id = %q, want track-1", trackRepo.updatedID)
	}

	got := trackRepo.tracks["track-1"]
	if got.Title != "New Title" {
		t.Errorf("title = %q, want New Title", got.Title)
	}
	// Fields the request omitted keep their stored values.
	if got.Artist != "Ye" {
		t.Errorf("artist = %q, want Ye", got.Artist)
	}
	if got.TrackOrder != 3 {
		t.Errorf("track order = %d, want 3", got.TrackOrder)
	}
	if got.ReleaseID != "release-1" {
		t.Errorf("release id = %q, want release-1", got.ReleaseID)
	}
}

func TestUpdateTrackNotFound(t *testing.T) {
	h, trackRepo, _ := newTrackTestHandler()
	router := trackTestRouter(h)

	rec := doJSON(t, router, http.MethodPut, "/api/tracks/missing", map[string]string{"title": "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if trackRepo.updatedID != "" {
		t.Errorf("repo updated id = %q for a missing track", trackRepo.updatedID)
	}
}

func TestDeleteTrack(t *testing.T) {
	h, trackRepo, lyricRepo := newTrackTestHandler()
	lyricRepo.docs["track-1"] = lyrics.Generate("Hello world")
	router := trackTestRouter(h)

	rec := doJSON(t, router, http.MethodDelete, "/api/tracks/track-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if trackRepo.deletedID != "track-1" {
		t.Errorf("repo deleted id = %q, want track-1", trackRepo.deletedID)
	}
	if _, ok := trackRepo.tracks["track-1"]; ok {
		t.Error("track still present after delete")
	}
	if _, ok := lyricRepo.docs["track-1"]; ok {
		t.Error("lyrics still present after delete")
	}
}

func TestGetTrackAttachesLyrics(t *testing.T) {
	h, _, lyricRepo := newTrackTestHandler()
	lyricRepo.docs["track-1"] = lyrics.Generate("Hello world")
	router := trackTestRouter(h)

	rec := doJSON(t, router, http.MethodGet, "/api/tracks/track-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var track model.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &track); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(track.Lyrics) != 1 || track.Lyrics[0].Words[0].Word != "Hello" {
		t.Errorf("lyrics not attached: %+v", track.Lyrics)
	}
}
