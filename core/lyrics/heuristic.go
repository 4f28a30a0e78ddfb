package lyrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/toriisent/yeezyplayer-store/model"
)

// Fixed cadence used when no audio alignment is attempted: each line
// starts 4 seconds after the previous one and every word gets half a
// second. Simplistic on purpose; the AI path exists for natural timing.
const (
	secondsPerLine = 4.0
	secondsPerWord = 0.5
)

// timePrefix matches the optional "seconds:text" convention used in the
// admin bulk editor, e.g. "4:Second line of lyrics" or "12.5:...".
var timePrefix = regexp.MustCompile(`^(\d+(?:\.\d+)?):(.*)$`)

// Generate converts raw pasted text into a timed document using the
// fixed per-line/per-word cadence. One lyric line per physical newline;
// blank lines are discarded. Deterministic and total: identical input
// always yields an identical document.
func Generate(text string) model.LyricDocument {
	lines := splitLines(text)

	doc := make(model.LyricDocument, 0, len(lines))
	for i, line := range lines {
		lineTime := float64(i) * secondsPerLine
		doc = append(doc, timeLine(line, lineTime))
	}
	return doc
}

// GenerateWithPrefixes is Generate plus the "seconds:text" convention:
// a numeric prefix followed by a colon supplies an explicit start time
// for that line, and its words are spaced at the word cadence from that
// start. Lines without the prefix fall back to index-based timing.
func GenerateWithPrefixes(text string) model.LyricDocument {
	lines := splitLines(text)

	doc := make(model.LyricDocument, 0, len(lines))
	for i, line := range lines {
		lineTime := float64(i) * secondsPerLine
		if m := timePrefix.FindStringSubmatch(line); m != nil {
			if t, err := strconv.ParseFloat(m[1], 64); err == nil {
				lineTime = t
				line = strings.TrimSpace(m[2])
			}
		}
		if line == "" {
			continue
		}
		doc = append(doc, timeLine(line, lineTime))
	}
	return doc
}

// splitLines returns the non-empty trimmed lines of text in order.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// timeLine splits a line into whitespace-separated words and assigns
// the fixed word cadence starting at lineTime.
func timeLine(line string, lineTime float64) model.TimedLine {
	words := strings.Fields(line)
	timed := make([]model.TimedWord, 0, len(words))
	for j, word := range words {
		timed = append(timed, model.TimedWord{
			Word:  word,
			Start: lineTime + float64(j)*secondsPerWord,
			End:   lineTime + float64(j+1)*secondsPerWord,
		})
	}
	return model.TimedLine{Time: lineTime, Words: timed}
}
