package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/toriisent/yeezyplayer-store/cache"
	"github.com/toriisent/yeezyplayer-store/core/editor"
	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/gorilla/mux"
)

// loadLyrics fetches a track's document, Redis first, store second.
// Cache problems are logged and bypassed; the store is authoritative.
func (h *APIHandler) loadLyrics(ctx context.Context, trackID string) (model.LyricDocument, error) {
	if doc, hit, err := cache.GetLyrics(ctx, trackID); err == nil && hit {
		return doc, nil
	} else if err != nil {
		logger.Warn("lyrics cache read failed", logger.String("trackId", trackID), logger.ErrorField(err))
	}

	doc, err := h.lyricRepo.Load(ctx, trackID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetLyrics(ctx, trackID, doc); err != nil {
		logger.Warn("lyrics cache write failed", logger.String("trackId", trackID), logger.ErrorField(err))
	}
	return doc, nil
}

// GetLyricsHandler returns a track's timed lyrics.
func (h *APIHandler) GetLyricsHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["track_id"]
	doc, err := h.loadLyrics(r.Context(), trackID)
	if err != nil {
		logger.Error("failed to load lyrics", logger.String("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch lyrics")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"lyrics": doc})
}

// PutLyricsHandler replaces a track's document wholesale, bypassing
// the editor (used by bulk tooling).
func (h *APIHandler) PutLyricsHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["track_id"]

	var req struct {
		Lyrics model.LyricDocument `json:"lyrics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.lyricRepo.Save(r.Context(), trackID, req.Lyrics); err != nil {
		logger.Error("failed to save lyrics", logger.String("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to save lyrics")
		return
	}
	h.invalidateLyrics(r.Context(), trackID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// ResolveLyricsHandler maps a playback time to the active line/word,
// the same computation the player runs per tick, exposed for clients
// that want it server-side.
func (h *APIHandler) ResolveLyricsHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["track_id"]

	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Query parameter t must be a number of seconds")
		return
	}

	doc, err := h.loadLyrics(r.Context(), trackID)
	if err != nil {
		logger.Error("failed to load lyrics", logger.String("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch lyrics")
		return
	}

	respondJSON(w, http.StatusOK, lyrics.Resolve(t, doc))
}

func (h *APIHandler) invalidateLyrics(ctx context.Context, trackID string) {
	if err := cache.InvalidateLyrics(ctx, trackID); err != nil {
		logger.Warn("lyrics cache invalidation failed", logger.String("trackId", trackID), logger.ErrorField(err))
	}
}

// ---- Editor session endpoints (admin CMS) ----

type editorStateResponse struct {
	Session   string              `json:"session"`
	TrackID   string              `json:"trackId"`
	Mode      editor.Mode         `json:"mode"`
	Lyrics    model.LyricDocument `json:"lyrics"`
	CanSave   bool                `json:"canSave"`
	AIEnabled bool                `json:"aiEnabled"`
}

func (h *APIHandler) editorState(s *editor.Session) editorStateResponse {
	return editorStateResponse{
		Session:   s.ID,
		TrackID:   s.Track.ID,
		Mode:      s.Mode(),
		Lyrics:    s.Document(),
		CanSave:   s.CanSave(),
		AIEnabled: h.editors.AIEnabled(),
	}
}

// OpenEditorHandler opens an editing session for a track, seeded with
// its current lyrics.
func (h *APIHandler) OpenEditorHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackID string `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == "" {
		respondError(w, http.StatusBadRequest, "trackId is required")
		return
	}

	track, err := h.trackRepo.GetByID(r.Context(), req.TrackID)
	if err != nil {
		logger.Error("failed to get track", logger.String("id", req.TrackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch track")
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	doc, err := h.loadLyrics(r.Context(), req.TrackID)
	if err != nil {
		logger.Error("failed to load lyrics", logger.String("trackId", req.TrackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch lyrics")
		return
	}

	session := h.editors.Open(*track, doc)
	logger.Info("editor session opened",
		logger.String("session", session.ID),
		logger.String("trackId", track.ID))
	respondJSON(w, http.StatusCreated, h.editorState(session))
}

// getSession resolves the session from the URL, writing the error
// response itself when the session is unknown.
func (h *APIHandler) getSession(w http.ResponseWriter, r *http.Request) *editor.Session {
	id := mux.Vars(r)["session"]
	session, err := h.editors.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Editor session not found")
		return nil
	}
	return session
}

// GetEditorHandler returns the session's current state.
func (h *APIHandler) GetEditorHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

// SetEditorModeHandler switches between simple and advanced modes.
func (h *APIHandler) SetEditorModeHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}

	var req struct {
		Mode editor.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := session.SetMode(req.Mode); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

// EditorAddLineHandler appends a fresh blank line to the document.
func (h *APIHandler) EditorAddLineHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	if err := session.AddLine(); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

func (h *APIHandler) EditorRemoveLineHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	line, err := strconv.Atoi(mux.Vars(r)["line"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid line index")
		return
	}
	if err := session.RemoveLine(line); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

func (h *APIHandler) EditorSetLineTimeHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	line, err := strconv.Atoi(mux.Vars(r)["line"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid line index")
		return
	}

	var req struct {
		Time float64 `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := session.SetLineTime(line, req.Time); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

func (h *APIHandler) EditorAddWordHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	line, err := strconv.Atoi(mux.Vars(r)["line"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid line index")
		return
	}
	if err := session.AddWord(line); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

func (h *APIHandler) EditorUpdateWordHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	vars := mux.Vars(r)
	line, err1 := strconv.Atoi(vars["line"])
	word, err2 := strconv.Atoi(vars["word"])
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "Invalid line or word index")
		return
	}

	var req struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := session.UpdateWord(line, word, req.Word, req.Start, req.End); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

func (h *APIHandler) EditorRemoveWordHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}
	vars := mux.Vars(r)
	line, err1 := strconv.Atoi(vars["line"])
	word, err2 := strconv.Atoi(vars["word"])
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "Invalid line or word index")
		return
	}
	if err := session.RemoveWord(line, word); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

// EditorManualTimingHandler runs the fixed-cadence generator over
// pasted bulk text.
func (h *APIHandler) EditorManualTimingHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}

	var req struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Lyrics == "" {
		respondError(w, http.StatusBadRequest, "lyrics text is required")
		return
	}
	if err := session.ApplyManualTiming(req.Lyrics); err != nil {
		respondEditorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.editorState(session))
}

// EditorAnalyzeHandler runs the AI timing delegate over pasted bulk
// text. The response carries usedFallback so the UI can tell the
// operator heuristic timing was substituted.
func (h *APIHandler) EditorAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}

	var req struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Lyrics == "" {
		respondError(w, http.StatusBadRequest, "lyrics text is required")
		return
	}

	result, err := session.ApplyAITiming(r.Context(), req.Lyrics)
	if err != nil {
		respondEditorError(w, err)
		return
	}

	state := h.editorState(session)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"usedFallback": result.Fallback,
		"state":        state,
	})
}

// EditorSaveHandler commits the session's document and releases the
// session. A failed save keeps the session open for retry.
func (h *APIHandler) EditorSaveHandler(w http.ResponseWriter, r *http.Request) {
	session := h.getSession(w, r)
	if session == nil {
		return
	}

	if err := session.Save(r.Context()); err != nil {
		respondEditorError(w, err)
		return
	}

	h.invalidateLyrics(r.Context(), session.Track.ID)
	h.editors.Release(session.ID)
	logger.Info("lyrics saved from editor",
		logger.String("session", session.ID),
		logger.String("trackId", session.Track.ID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// CloseEditorHandler cancels the session, discarding unsaved edits.
func (h *APIHandler) CloseEditorHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session"]
	h.editors.Release(id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// respondEditorError maps editor sentinel errors to HTTP statuses.
func respondEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrClosed):
		respondError(w, http.StatusGone, "Editor session is closed")
	case errors.Is(err, editor.ErrEmptyDocument):
		respondError(w, http.StatusUnprocessableEntity, "Document must have at least one line before saving")
	case errors.Is(err, editor.ErrAnalysisPending):
		respondError(w, http.StatusConflict, "A timing analysis is already in progress")
	case errors.Is(err, editor.ErrAIUnavailable):
		respondError(w, http.StatusServiceUnavailable, "AI timing is not configured; use manual timing")
	case errors.Is(err, editor.ErrIndexOutOfRange):
		respondError(w, http.StatusBadRequest, "Line or word index out of range")
	default:
		logger.Error("editor operation failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Editor operation failed")
	}
}
