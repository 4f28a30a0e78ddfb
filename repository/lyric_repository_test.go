package repository

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/model"
)

func TestDocToRows(t *testing.T) {
	doc := lyrics.Generate("Hello world\nGoodbye now")
	lineRows, wordRows := docToRows("track-1", doc)

	if len(lineRows) != 2 {
		t.Fatalf("expected 2 line rows, got %d", len(lineRows))
	}
	if len(wordRows) != 4 {
		t.Fatalf("expected 4 word rows, got %d", len(wordRows))
	}

	for i, line := range lineRows {
		if line.Order != i {
			t.Errorf("line %d order = %d, want %d", i, line.Order, i)
		}
		if line.TrackID != "track-1" {
			t.Errorf("line %d track id = %q", i, line.TrackID)
		}
		if line.ID == "" {
			t.Errorf("line %d has no id", i)
		}
	}

	// Words reference their line's minted id and record their array
	// position within the line.
	if wordRows[0].LineID != lineRows[0].ID || wordRows[2].LineID != lineRows[1].ID {
		t.Errorf("word rows reference wrong lines: %+v", wordRows)
	}
	if wordRows[0].Order != 0 || wordRows[1].Order != 1 || wordRows[2].Order != 0 {
		t.Errorf("word orders wrong: %+v", wordRows)
	}
}

func TestDocToRowsEmpty(t *testing.T) {
	lineRows, wordRows := docToRows("track-1", model.LyricDocument{})
	if len(lineRows) != 0 || len(wordRows) != 0 {
		t.Errorf("expected no rows, got %d lines %d words", len(lineRows), len(wordRows))
	}
}

func TestRowsToDocRoundTrip(t *testing.T) {
	doc := lyrics.Generate("Hello world\nGoodbye now\nThe very end")
	lineRows, wordRows := docToRows("track-1", doc)

	got := rowsToDoc(lineRows, wordRows)
	if !reflect.DeepEqual(got, lyrics.Normalize(doc)) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

func TestRowsToDocIgnoresRetrievalOrder(t *testing.T) {
	doc := lyrics.Generate("one two three\nfour five\nsix")
	lineRows, wordRows := docToRows("track-1", doc)

	// Shuffle rows to simulate arbitrary retrieval order; the order
	// columns must fully determine the reconstruction.
	rng := rand.New(rand.NewSource(1))
	rng.Shuffle(len(lineRows), func(a, b int) { lineRows[a], lineRows[b] = lineRows[b], lineRows[a] })
	rng.Shuffle(len(wordRows), func(a, b int) { wordRows[a], wordRows[b] = wordRows[b], wordRows[a] })

	got := rowsToDoc(lineRows, wordRows)
	if !reflect.DeepEqual(got, lyrics.Normalize(doc)) {
		t.Errorf("shuffled reconstruction mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

func TestRowsToDocLineWithoutWords(t *testing.T) {
	lineRows := []lineRow{{ID: "l1", TrackID: "t", Time: 0, Order: 0}}

	got := rowsToDoc(lineRows, nil)
	if len(got) != 1 || len(got[0].Words) != 0 {
		t.Errorf("unexpected document: %+v", got)
	}
}
