package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/core/timing"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"
)

// Mode is the editor's UI mode. Simple works on pasted bulk text and
// one of the timing generators; Advanced edits lines and words
// directly. Both operate on the same in-memory document, so switching
// modes never loses edits.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeAdvanced Mode = "advanced"
)

var (
	// ErrClosed is returned by any operation on a closed session.
	ErrClosed = errors.New("editor: session closed")
	// ErrEmptyDocument gates Save: at least one line is required.
	ErrEmptyDocument = errors.New("editor: document has no lines")
	// ErrAnalysisPending rejects a second AI request while one is
	// outstanding for this session.
	ErrAnalysisPending = errors.New("editor: timing analysis already in progress")
	// ErrAIUnavailable is returned when AI timing was requested but no
	// analyzer is configured.
	ErrAIUnavailable = errors.New("editor: AI timing not configured")
	// ErrIndexOutOfRange is returned for line/word indices outside the
	// document.
	ErrIndexOutOfRange = errors.New("editor: index out of range")
)

// LyricStore is the slice of the persistence layer the editor needs.
type LyricStore interface {
	Save(ctx context.Context, trackID string, doc model.LyricDocument) error
}

// Session holds one track's lyrics while an operator edits them. All
// methods are safe for concurrent use; the AI analysis is the only
// operation that suspends, and its continuation is discarded if the
// session was closed meanwhile.
type Session struct {
	ID    string
	Track model.Track

	mu        sync.Mutex
	mode      Mode
	doc       model.LyricDocument
	analyzing bool
	closed    bool
	saved     bool

	store    LyricStore
	analyzer *timing.Analyzer // nil when AI timing is not configured
}

// Mode returns the current editor mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between simple and advanced mode. The in-memory
// document is untouched.
func (s *Session) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if mode != ModeSimple && mode != ModeAdvanced {
		return fmt.Errorf("editor: unknown mode %q", mode)
	}
	s.mode = mode
	return nil
}

// Document returns a copy of the in-memory document.
func (s *Session) Document() model.LyricDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDocument(s.doc)
}

// CanSave reports whether Save is currently allowed.
func (s *Session) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && len(s.doc) > 0
}

// AddLine appends an empty line with a single blank word, mirroring
// what the advanced editor shows for a fresh line.
func (s *Session) AddLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.doc = append(s.doc, model.TimedLine{
		Words: []model.TimedWord{{}},
	})
	return nil
}

// RemoveLine deletes the line at the given index.
func (s *Session) RemoveLine(line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if line < 0 || line >= len(s.doc) {
		return ErrIndexOutOfRange
	}
	s.doc = append(s.doc[:line], s.doc[line+1:]...)
	return nil
}

// SetLineTime updates a line's start time.
func (s *Session) SetLineTime(line int, t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if line < 0 || line >= len(s.doc) {
		return ErrIndexOutOfRange
	}
	s.doc[line].Time = t
	return nil
}

// AddWord appends a blank word to the given line.
func (s *Session) AddWord(line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if line < 0 || line >= len(s.doc) {
		return ErrIndexOutOfRange
	}
	s.doc[line].Words = append(s.doc[line].Words, model.TimedWord{})
	return nil
}

// RemoveWord deletes one word from a line.
func (s *Session) RemoveWord(line, word int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if line < 0 || line >= len(s.doc) {
		return ErrIndexOutOfRange
	}
	words := s.doc[line].Words
	if word < 0 || word >= len(words) {
		return ErrIndexOutOfRange
	}
	s.doc[line].Words = append(words[:word], words[word+1:]...)
	return nil
}

// UpdateWord replaces one word's text and interval.
func (s *Session) UpdateWord(line, word int, text string, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if line < 0 || line >= len(s.doc) {
		return ErrIndexOutOfRange
	}
	words := s.doc[line].Words
	if word < 0 || word >= len(words) {
		return ErrIndexOutOfRange
	}
	words[word] = model.TimedWord{Word: text, Start: start, End: end}
	return nil
}

// ApplyManualTiming replaces the document with the fixed-cadence
// parse of the pasted text, honoring the optional "seconds:text" line
// prefixes.
func (s *Session) ApplyManualTiming(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.doc = lyrics.GenerateWithPrefixes(text)
	return nil
}

// ApplyAITiming requests AI timing for the pasted text and replaces
// the document with the result. Only one analysis per session may be
// outstanding; the editor UI disables resubmission while this runs and
// controls are re-enabled regardless of outcome. A result that arrives
// after Close is discarded without mutating anything.
func (s *Session) ApplyAITiming(ctx context.Context, text string) (timing.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return timing.Result{}, ErrClosed
	}
	if s.analyzing {
		s.mu.Unlock()
		return timing.Result{}, ErrAnalysisPending
	}
	if s.analyzer == nil {
		s.mu.Unlock()
		return timing.Result{}, ErrAIUnavailable
	}
	s.analyzing = true
	s.mu.Unlock()

	result, err := s.analyzer.Analyze(ctx, s.Track.AudioURL, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = false
	if err != nil {
		return timing.Result{}, err
	}
	if s.closed {
		// Editor went away while the request was in flight.
		logger.Debug("discarding timing result for closed session", logger.String("session", s.ID))
		return timing.Result{}, ErrClosed
	}
	s.doc = result.Document
	return result, nil
}

// Save persists the document wholesale and closes the session. The
// document must have at least one line. On a persistence failure the
// session stays open and the in-memory edits are kept so the operator
// can retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if len(s.doc) == 0 {
		s.mu.Unlock()
		return ErrEmptyDocument
	}
	doc := lyrics.Normalize(s.doc)
	s.mu.Unlock()

	if err := s.store.Save(ctx, s.Track.ID, doc); err != nil {
		return fmt.Errorf("editor: save failed: %w", err)
	}

	s.mu.Lock()
	s.saved = true
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Close discards the session. In-memory edits that were not saved are
// lost, which is the cancel semantics of the editor dialog.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the session has been saved or discarded.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func copyDocument(doc model.LyricDocument) model.LyricDocument {
	out := make(model.LyricDocument, len(doc))
	for i, line := range doc {
		words := make([]model.TimedWord, len(line.Words))
		copy(words, line.Words)
		out[i] = model.TimedLine{Time: line.Time, Words: words}
	}
	return out
}
