package editor

import (
	"fmt"
	"sync"

	"github.com/toriisent/yeezyplayer-store/core/timing"
	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/google/uuid"
)

// Manager tracks open editor sessions by id. One session per open
// editor dialog; sessions for different tracks are fully independent.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    LyricStore
	analyzer *timing.Analyzer
}

// NewManager creates a session manager. analyzer may be nil when AI
// timing is not configured; sessions will then reject AI requests with
// ErrAIUnavailable while everything else keeps working.
func NewManager(store LyricStore, analyzer *timing.Analyzer) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		analyzer: analyzer,
	}
}

// Open starts an editing session for a track, seeded with the track's
// current lyrics (which may be empty).
func (m *Manager) Open(track model.Track, current model.LyricDocument) *Session {
	s := &Session{
		ID:       uuid.New().String(),
		Track:    track,
		mode:     ModeSimple,
		doc:      copyDocument(current),
		store:    m.store,
		analyzer: m.analyzer,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("editor: no session %q", id)
	}
	return s, nil
}

// Release closes the session (if still open) and forgets it. Called
// for both save-completion and cancel.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// AIEnabled reports whether sessions opened by this manager can use AI
// timing.
func (m *Manager) AIEnabled() bool {
	return m.analyzer != nil
}
