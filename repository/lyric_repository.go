package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/db"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/google/uuid"
)

// LyricRepository persists timed lyric documents. Save replaces a
// track's document wholesale; readers observe either the previous
// document or the new one, never a mix, because the replace runs in a
// single transaction.
type LyricRepository interface {
	Save(ctx context.Context, trackID string, doc model.LyricDocument) error
	Load(ctx context.Context, trackID string) (model.LyricDocument, error)
	DeleteByTrack(ctx context.Context, trackID string) error
}

// mysqlLyricRepository implements LyricRepository for MySQL.
type mysqlLyricRepository struct {
	DB *sql.DB
}

// NewMySQLLyricRepository creates a new instance of mysqlLyricRepository.
func NewMySQLLyricRepository() LyricRepository {
	return &mysqlLyricRepository{DB: db.DB}
}

// lineRow mirrors one lyric_lines row.
type lineRow struct {
	ID      string
	TrackID string
	Time    float64
	Order   int
}

// wordRow mirrors one lyric_words row.
type wordRow struct {
	ID     string
	LineID string
	Word   string
	Start  float64
	End    float64
	Order  int
}

// Save replaces the track's document inside one transaction: delete
// the existing lines (words cascade), then bulk-insert the new rows
// with order columns mirroring array position. The document is
// normalized first so the ordering invariant holds regardless of what
// the editor produced.
func (r *mysqlLyricRepository) Save(ctx context.Context, trackID string, doc model.LyricDocument) error {
	doc = lyrics.Normalize(doc)
	lineRows, wordRows := docToRows(trackID, doc)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for lyric save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lyric_lines WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("failed to delete existing lyrics for track %s: %w", trackID, err)
	}

	lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO lyric_lines (id, track_id, line_time, line_order) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare lyric line insert: %w", err)
	}
	defer lineStmt.Close()

	for _, line := range lineRows {
		if _, err := lineStmt.ExecContext(ctx, line.ID, line.TrackID, line.Time, line.Order); err != nil {
			return fmt.Errorf("failed to insert lyric line %d for track %s: %w", line.Order, trackID, err)
		}
	}

	wordStmt, err := tx.PrepareContext(ctx, `INSERT INTO lyric_words (id, lyric_line_id, word, start_time, end_time, word_order) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare lyric word insert: %w", err)
	}
	defer wordStmt.Close()

	for _, word := range wordRows {
		if _, err := wordStmt.ExecContext(ctx, word.ID, word.LineID, word.Word, word.Start, word.End, word.Order); err != nil {
			return fmt.Errorf("failed to insert lyric word %d for track %s: %w", word.Order, trackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lyric save for track %s: %w", trackID, err)
	}

	logger.Info("lyrics saved",
		logger.String("trackId", trackID),
		logger.Int("lines", len(lineRows)),
		logger.Int("words", len(wordRows)))
	return nil
}

// Load reconstructs the document, ordering by line_order/word_order in
// SQL since retrieval order from the store is not otherwise
// guaranteed, then normalizes defensively. A track with no lyrics
// yields an empty document, not an error.
func (r *mysqlLyricRepository) Load(ctx context.Context, trackID string) (model.LyricDocument, error) {
	lineQuery := `SELECT id, track_id, line_time, line_order FROM lyric_lines WHERE track_id = ? ORDER BY line_order`
	rows, err := r.DB.QueryContext(ctx, lineQuery, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyric lines for track %s: %w", trackID, err)
	}
	defer rows.Close()

	var lineRows []lineRow
	for rows.Next() {
		var line lineRow
		if err := rows.Scan(&line.ID, &line.TrackID, &line.Time, &line.Order); err != nil {
			return nil, fmt.Errorf("failed to scan lyric line: %w", err)
		}
		lineRows = append(lineRows, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lyric lines: %w", err)
	}

	if len(lineRows) == 0 {
		return model.LyricDocument{}, nil
	}

	wordQuery := `SELECT w.id, w.lyric_line_id, w.word, w.start_time, w.end_time, w.word_order
	               FROM lyric_words w
	               JOIN lyric_lines l ON l.id = w.lyric_line_id
	               WHERE l.track_id = ? ORDER BY w.word_order`
	wRows, err := r.DB.QueryContext(ctx, wordQuery, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyric words for track %s: %w", trackID, err)
	}
	defer wRows.Close()

	var wordRows []wordRow
	for wRows.Next() {
		var word wordRow
		if err := wRows.Scan(&word.ID, &word.LineID, &word.Word, &word.Start, &word.End, &word.Order); err != nil {
			return nil, fmt.Errorf("failed to scan lyric word: %w", err)
		}
		wordRows = append(wordRows, word)
	}
	if err := wRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lyric words: %w", err)
	}

	return rowsToDoc(lineRows, wordRows), nil
}

// DeleteByTrack removes a track's lyrics entirely.
func (r *mysqlLyricRepository) DeleteByTrack(ctx context.Context, trackID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM lyric_lines WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("failed to delete lyrics for track %s: %w", trackID, err)
	}
	return nil
}

// docToRows flattens a document into insertable rows, minting ids and
// recording array positions in the order columns.
func docToRows(trackID string, doc model.LyricDocument) ([]lineRow, []wordRow) {
	lineRows := make([]lineRow, 0, len(doc))
	wordRows := make([]wordRow, 0, doc.WordCount())

	for i, line := range doc {
		lr := lineRow{
			ID:      uuid.New().String(),
			TrackID: trackID,
			Time:    line.Time,
			Order:   i,
		}
		lineRows = append(lineRows, lr)

		for j, word := range line.Words {
			wordRows = append(wordRows, wordRow{
				ID:     uuid.New().String(),
				LineID: lr.ID,
				Word:   word.Word,
				Start:  word.Start,
				End:    word.End,
				Order:  j,
			})
		}
	}
	return lineRows, wordRows
}

// rowsToDoc reassembles a document from rows, sorting by the order
// columns rather than trusting retrieval order.
func rowsToDoc(lineRows []lineRow, wordRows []wordRow) model.LyricDocument {
	sort.SliceStable(lineRows, func(a, b int) bool {
		return lineRows[a].Order < lineRows[b].Order
	})

	wordsByLine := make(map[string][]wordRow, len(lineRows))
	for _, word := range wordRows {
		wordsByLine[word.LineID] = append(wordsByLine[word.LineID], word)
	}

	doc := make(model.LyricDocument, 0, len(lineRows))
	for _, line := range lineRows {
		lineWords := wordsByLine[line.ID]
		sort.SliceStable(lineWords, func(a, b int) bool {
			return lineWords[a].Order < lineWords[b].Order
		})

		words := make([]model.TimedWord, 0, len(lineWords))
		for _, word := range lineWords {
			words = append(words, model.TimedWord{
				Word:  word.Word,
				Start: word.Start,
				End:   word.End,
			})
		}
		doc = append(doc, model.TimedLine{Time: line.Time, Words: words})
	}
	return lyrics.Normalize(doc)
}
