package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/editor"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/repository"
)

type contextKey string

const (
	ctxKeyUserID   contextKey = "userID"
	ctxKeyUsername contextKey = "username"
	ctxKeyIsAdmin  contextKey = "isAdmin"
)

// APIHandler bundles the dependencies of the HTTP handlers.
type APIHandler struct {
	releaseRepo repository.ReleaseRepository
	trackRepo   repository.TrackRepository
	lyricRepo   repository.LyricRepository
	likedRepo   repository.LikedRepository
	userRepo    repository.UserRepository
	editors     *editor.Manager
	cfg         *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	releaseRepo repository.ReleaseRepository,
	trackRepo repository.TrackRepository,
	lyricRepo repository.LyricRepository,
	likedRepo repository.LikedRepository,
	userRepo repository.UserRepository,
	editors *editor.Manager,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		releaseRepo: releaseRepo,
		trackRepo:   trackRepo,
		lyricRepo:   lyricRepo,
		likedRepo:   likedRepo,
		userRepo:    userRepo,
		editors:     editors,
		cfg:         cfg,
	}
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// IsAdminFromContext reports whether the request was made by an admin.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(ctxKeyIsAdmin).(bool)
	return ok && isAdmin
}
