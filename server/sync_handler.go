package server

import (
	"net/http"

	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playbackTick is what the player sends on every progress update.
type playbackTick struct {
	CurrentTime float64 `json:"currentTime"`
}

// syncFrame is the server's answer: the active line and word for the
// reported playback time. Line and Word are -1 before the first line
// and between word intervals respectively.
type syncFrame struct {
	CurrentTime float64 `json:"currentTime"`
	Line        int     `json:"line"`
	Word        int     `json:"word"`
}

// LyricSyncHandler streams active-lyric positions over a websocket.
// The client reports playback time as it plays; for every tick the
// server answers with the resolved position. The document is loaded
// once at connect time, so resolution itself is a pure in-memory
// lookup and keeps up with per-frame tick rates.
func (h *APIHandler) LyricSyncHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["track_id"]

	doc, err := h.loadLyrics(r.Context(), trackID)
	if err != nil {
		logger.Error("failed to load lyrics for sync", logger.String("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch lyrics")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	logger.Debug("lyric sync connected", logger.String("trackId", trackID))

	for {
		var tick playbackTick
		if err := conn.ReadJSON(&tick); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("lyric sync read failed", logger.String("trackId", trackID), logger.ErrorField(err))
			}
			return
		}

		pos := lyrics.Resolve(tick.CurrentTime, doc)
		frame := syncFrame{
			CurrentTime: tick.CurrentTime,
			Line:        pos.Line,
			Word:        pos.Word,
		}
		if err := conn.WriteJSON(frame); err != nil {
			logger.Warn("lyric sync write failed", logger.String("trackId", trackID), logger.ErrorField(err))
			return
		}
	}
}
