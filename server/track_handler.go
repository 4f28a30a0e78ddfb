package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"
	"github.com/toriisent/yeezyplayer-store/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GetTrackHandler returns one track, lyrics attached.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track, err := h.trackRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get track", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch track")
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	track.Lyrics, err = h.loadLyrics(r.Context(), id)
	if err != nil {
		logger.Error("failed to load lyrics", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch track")
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// CreateTrackHandler adds a track to a release.
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	releaseID := mux.Vars(r)["id"]

	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if track.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	track.ReleaseID = releaseID

	if err := h.trackRepo.Create(r.Context(), &track); err != nil {
		logger.Error("failed to create track", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create track")
		return
	}

	logger.Info("track created", logger.String("id", track.ID), logger.String("title", track.Title))
	respondJSON(w, http.StatusCreated, track)
}

// UpdateTrackHandler updates track metadata. The body is decoded over
// the stored track, so fields the caller omits keep their values.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existing, err := h.trackRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get track", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch track")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	track := *existing
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	track.ID = id
	track.ReleaseID = existing.ReleaseID
	track.CreatedAt = existing.CreatedAt

	if err := h.trackRepo.Update(r.Context(), &track); err != nil {
		logger.Error("failed to update track", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update track")
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler removes a track and its lyrics.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.lyricRepo.DeleteByTrack(r.Context(), id); err != nil {
		logger.Error("failed to delete lyrics", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}
	if err := h.trackRepo.Delete(r.Context(), id); err != nil {
		logger.Error("failed to delete track", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReorderTracksHandler rewrites a release's running order.
func (h *APIHandler) ReorderTracksHandler(w http.ResponseWriter, r *http.Request) {
	releaseID := mux.Vars(r)["id"]

	var req struct {
		TrackIDs []string `json:"trackIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		respondError(w, http.StatusBadRequest, "trackIds is required")
		return
	}

	if err := h.trackRepo.Reorder(r.Context(), releaseID, req.TrackIDs); err != nil {
		logger.Error("failed to reorder tracks", logger.String("releaseId", releaseID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to reorder tracks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// UploadAudioHandler stores an uploaded audio file and returns its
// public URL for use as a track's audioUrl.
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	h.uploadFile(w, r, "audio", storage.UploadAudio)
}

// UploadCoverHandler stores uploaded cover art.
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	h.uploadFile(w, r, "cover", storage.UploadCover)
}

// uploadFile handles a multipart upload and stores the file via the
// given storage function. The stored object name gets a uuid prefix so
// re-uploads never collide.
func (h *APIHandler) uploadFile(w http.ResponseWriter, r *http.Request, field string, store func(ctx context.Context, name string, reader io.Reader, size int64) (string, error)) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field: "+field)
		return
	}
	defer file.Close()

	name := uuid.New().String() + "-" + header.Filename
	url, err := store(r.Context(), name, file, header.Size)
	if err != nil {
		logger.Error("upload failed", logger.String("file", header.Filename), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	logger.Info("file uploaded", logger.String("file", header.Filename), logger.String("url", url))
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
