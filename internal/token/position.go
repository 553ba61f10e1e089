// Package token defines the lexer's output vocabulary: positions, token
// types, and the rich Token/TokenPart records produced by the recognizer
// pipeline in internal/lexer.
package token

// Position is an immutable (offset, line, column) triple. Offsets are
// 0-based; line and column are 1-based, matching editor conventions.
type Position struct {
	Offset int
	Line   int
	Column int
}

// PositionTracker walks an input string once and remembers the starting
// offset of every line, so that any later offset can be resolved to a
// Position without re-scanning from the beginning.
type PositionTracker struct {
	input      string
	lineStarts []int
}

// NewPositionTracker builds a tracker over input, recording the offset of
// the first character of every line (offset 0 is always a line start).
func NewPositionTracker(input string) *PositionTracker {
	t := &PositionTracker{input: input, lineStarts: []int{0}}
	for i, c := range input {
		if c == '\n' {
			t.lineStarts = append(t.lineStarts, i+1)
		}
	}
	return t
}

// PositionAt resolves a 0-based byte offset into a Position. Offsets past
// the end of input clamp to the final valid position.
func (t *PositionTracker) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.input) {
		offset = len(t.input)
	}
	line := sortLineIndex(t.lineStarts, offset)
	col := offset - t.lineStarts[line] + 1
	return Position{Offset: offset, Line: line + 1, Column: col}
}

// sortLineIndex returns the index of the last lineStart <= offset, via
// binary search over the (already sorted) lineStarts slice.
func sortLineIndex(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Line returns the 1-based line's raw text (without trailing newline),
// used when rendering error context snippets.
func (t *PositionTracker) Line(line int) string {
	idx := line - 1
	if idx < 0 || idx >= len(t.lineStarts) {
		return ""
	}
	start := t.lineStarts[idx]
	end := len(t.input)
	if idx+1 < len(t.lineStarts) {
		end = t.lineStarts[idx+1] - 1
	}
	if end < start {
		end = start
	}
	if end > len(t.input) {
		end = len(t.input)
	}
	return t.input[start:end]
}

// LineCount returns the total number of lines tracked.
func (t *PositionTracker) LineCount() int {
	return len(t.lineStarts)
}
