package captions

import "sort"

// Word is one transcribed word with absolute song timestamps in seconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Line groups consecutive words for a single on-screen caption. The line
// spans from the first word's start to the last word's end.
type Line struct {
	Words []Word
	Start float64
	End   float64
}

// BuildLines groups words into caption lines of at most wordsPerLine words.
// Input words are sorted by start time; overlapping or out-of-order
// timestamps are clamped so every word (and line) is monotonically
// non-decreasing and lines never overlap.
func BuildLines(words []Word, wordsPerLine int) []Line {
	if len(words) == 0 {
		return nil
	}
	if wordsPerLine <= 0 {
		wordsPerLine = 4
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	// Clamp timestamps: each word starts no earlier than the previous word's
	// end, and ends no earlier than it starts.
	cursor := 0.0
	for i := range sorted {
		if sorted[i].Start < cursor {
			sorted[i].Start = cursor
		}
		if sorted[i].End < sorted[i].Start {
			sorted[i].End = sorted[i].Start
		}
		cursor = sorted[i].End
	}

	var lines []Line
	for start := 0; start < len(sorted); start += wordsPerLine {
		end := start + wordsPerLine
		if end > len(sorted) {
			end = len(sorted)
		}
		group := sorted[start:end]
		lines = append(lines, Line{
			Words: append([]Word(nil), group...),
			Start: group[0].Start,
			End:   group[len(group)-1].End,
		})
	}
	return lines
}
