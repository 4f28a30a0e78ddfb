package lyrics

import (
	"sort"

	"github.com/toriisent/yeezyplayer-store/model"
)

// Normalize returns a copy of doc that satisfies the ordering
// invariants the resolver and persistence layer rely on: lines sorted
// by ascending start time, words within each line sorted by ascending
// start, and word End clamped up to Start where an edit left End before
// Start. The editor allows out-of-order manual edits, so this runs at
// the boundary, both before save and after load, instead of trusting
// callers.
func Normalize(doc model.LyricDocument) model.LyricDocument {
	if len(doc) == 0 {
		return model.LyricDocument{}
	}

	out := make(model.LyricDocument, len(doc))
	for i, line := range doc {
		words := make([]model.TimedWord, len(line.Words))
		copy(words, line.Words)
		for j := range words {
			if words[j].End < words[j].Start {
				words[j].End = words[j].Start
			}
		}
		sort.SliceStable(words, func(a, b int) bool {
			return words[a].Start < words[b].Start
		})
		out[i] = model.TimedLine{Time: line.Time, Words: words}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Time < out[b].Time
	})
	return out
}
