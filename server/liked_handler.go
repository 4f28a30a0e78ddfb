package server

import (
	"net/http"

	"github.com/toriisent/yeezyplayer-store/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// sessionHeader carries the listener's session identity. The server
// mints a uuid on the first request that arrives without one and
// returns it in the response header; the client stores it and sends it
// back on every later request. Likes are keyed on this id, so identity
// is always an explicit parameter rather than ambient browser state.
const sessionHeader = "X-Listener-Session"

// listenerSession extracts the session id from the request, minting a
// fresh one when absent or malformed. The id in effect is always echoed
// back so clients can persist it.
func listenerSession(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(sessionHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}
	w.Header().Set(sessionHeader, id)
	return id
}

// ToggleLikeHandler likes or unlikes a track for the calling session.
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["track_id"]
	session := listenerSession(w, r)

	track, err := h.trackRepo.GetByID(r.Context(), trackID)
	if err != nil {
		logger.Error("failed to get track", logger.String("id", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch track")
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	var userID *int64
	if id, err := GetUserIDFromContext(r.Context()); err == nil {
		userID = &id
	}

	liked, err := h.likedRepo.Toggle(r.Context(), trackID, session, userID)
	if err != nil {
		logger.Error("failed to toggle like",
			logger.String("trackId", trackID),
			logger.String("session", session),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update liked songs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trackId": trackID,
		"liked":   liked,
		"session": session,
	})
}

// GetLikedHandler returns the track ids the calling session has liked.
func (h *APIHandler) GetLikedHandler(w http.ResponseWriter, r *http.Request) {
	session := listenerSession(w, r)

	ids, err := h.likedRepo.GetTrackIDs(r.Context(), session)
	if err != nil {
		logger.Error("failed to list liked songs",
			logger.String("session", session),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch liked songs")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trackIds": ids,
		"session":  session,
	})
}
