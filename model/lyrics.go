package model

// TimedWord is a single word of a lyric line with its playback interval
// in seconds. Start is never after End once the document has been
// normalized.
type TimedWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TimedLine is one lyric line: a start time plus its words in display
// order. An empty Words slice is legal and simply never highlights.
type TimedLine struct {
	Time  float64     `json:"time"`
	Words []TimedWord `json:"words"`
}

// LyricDocument is a track's full set of timed lines, ordered by
// ascending start time. Consumers assume the ordering and do not sort;
// producers are expected to run lyrics.Normalize before handing a
// document to the resolver or the persistence layer.
type LyricDocument []TimedLine

// WordCount returns the total number of words across all lines.
func (d LyricDocument) WordCount() int {
	n := 0
	for _, line := range d {
		n += len(line.Words)
	}
	return n
}

// Empty reports whether the document has no lines.
func (d LyricDocument) Empty() bool {
	return len(d) == 0
}
