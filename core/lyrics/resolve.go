package lyrics

import (
	"sort"

	"github.com/toriisent/yeezyplayer-store/model"
)

// Position is the highlight state at one playback instant. Line is the
// index of the active line and Word the index of the active word within
// it; either is -1 when nothing is active.
type Position struct {
	Line int `json:"line"`
	Word int `json:"word"`
}

// NoPosition is returned when playback is outside the document.
var NoPosition = Position{Line: -1, Word: -1}

// Resolve maps a playback time to the active line and word of a
// document. It is a pure function of its inputs and is meant to be
// called on every playback tick; seeks (time jumping either direction)
// need no extra handling.
//
// A line is active on the half-open interval [line[i].Time,
// line[i+1].Time); the last line is open-ended. A word is active on the
// half-open interval [Start, End), except the last word of a line,
// whose interval is closed at End so the highlight does not drop in the
// gap before the next line.
//
// Nil or malformed documents resolve to NoPosition rather than
// panicking; the display renders everything dimmed in that case.
func Resolve(currentTime float64, doc model.LyricDocument) Position {
	if len(doc) == 0 || currentTime < doc[0].Time {
		return NoPosition
	}

	// Lines are time-ordered, so binary search for the last line whose
	// start is <= currentTime.
	line := sort.Search(len(doc), func(i int) bool {
		return doc[i].Time > currentTime
	}) - 1
	if line < 0 {
		return NoPosition
	}

	return Position{Line: line, Word: resolveWord(currentTime, doc[line].Words)}
}

// resolveWord finds the active word index within one line, or -1 when
// playback sits in a gap between words or before the first word.
func resolveWord(currentTime float64, words []model.TimedWord) int {
	for j, word := range words {
		if currentTime < word.Start {
			return -1
		}
		last := j == len(words)-1
		if currentTime < word.End || (last && currentTime == word.End) {
			return j
		}
	}
	return -1
}
