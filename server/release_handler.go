package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/gorilla/mux"
)

// GetReleasesHandler returns the full catalog, newest release first.
func (h *APIHandler) GetReleasesHandler(w http.ResponseWriter, r *http.Request) {
	releases, err := h.releaseRepo.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to list releases", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch releases")
		return
	}
	respondJSON(w, http.StatusOK, releases)
}

// GetReleaseHandler returns one release with its tracks.
func (h *APIHandler) GetReleaseHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	release, err := h.releaseRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get release", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch release")
		return
	}
	if release == nil {
		respondError(w, http.StatusNotFound, "Release not found")
		return
	}
	respondJSON(w, http.StatusOK, release)
}

// CreateReleaseHandler creates a release, optionally with tracks.
func (h *APIHandler) CreateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	var release model.Release
	if err := json.NewDecoder(r.Body).Decode(&release); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if release.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	switch release.Type {
	case model.ReleaseTypeSingle, model.ReleaseTypeEP, model.ReleaseTypeAlbum:
	case "":
		release.Type = model.ReleaseTypeSingle
	default:
		respondError(w, http.StatusBadRequest, "Type must be single, ep or album")
		return
	}

	if err := h.releaseRepo.Create(r.Context(), &release); err != nil {
		logger.Error("failed to create release", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create release")
		return
	}

	logger.Info("release created", logger.String("id", release.ID), logger.String("title", release.Title))
	respondJSON(w, http.StatusCreated, release)
}

// UpdateReleaseHandler updates release metadata.
func (h *APIHandler) UpdateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existing, err := h.releaseRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get release", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch release")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Release not found")
		return
	}

	var release model.Release
	if err := json.NewDecoder(r.Body).Decode(&release); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	release.ID = id
	release.CreatedAt = existing.CreatedAt

	if err := h.releaseRepo.Update(r.Context(), &release); err != nil {
		logger.Error("failed to update release", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update release")
		return
	}
	respondJSON(w, http.StatusOK, release)
}

// DeleteReleaseHandler removes a release and its tracks.
func (h *APIHandler) DeleteReleaseHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.releaseRepo.Delete(r.Context(), id); err != nil {
		logger.Error("failed to delete release", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete release")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleFeaturedHandler flips the featured flag on a release.
func (h *APIHandler) ToggleFeaturedHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	release, err := h.releaseRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get release", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch release")
		return
	}
	if release == nil {
		respondError(w, http.StatusNotFound, "Release not found")
		return
	}

	if err := h.releaseRepo.SetFeatured(r.Context(), id, !release.IsFeatured); err != nil {
		logger.Error("failed to toggle featured", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update release")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isFeatured": !release.IsFeatured})
}

// SearchHandler does a case-insensitive substring search over tracks
// (title, artist) and release titles.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"tracks":   []*model.Track{},
			"releases": []*model.Release{},
		})
		return
	}

	tracks, err := h.trackRepo.Search(r.Context(), query)
	if err != nil {
		logger.Error("track search failed", logger.String("q", query), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	releases, err := h.releaseRepo.Search(r.Context(), query)
	if err != nil {
		logger.Error("release search failed", logger.String("q", query), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tracks":   tracks,
		"releases": releases,
	})
}
