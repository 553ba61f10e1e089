package lexer

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/xyproto/psh/internal/token"
)

// LexicalError reports a quote or expansion left unclosed at end of input,
// or a character no recognizer accepts (operators whose feature flag is
// off end up here). Escape sequences are not validated, in POSIX mode or
// otherwise. It carries an identifier (for correlating with later log
// lines) plus a rendered context snippet: up to two lines either side of
// the offending line, with a caret under the offending column.
type LexicalError struct {
	ID       string
	Message  string
	Position token.Position
	Snippet  string
}

func newLexicalError(tracker *token.PositionTracker, pos token.Position, message string) *LexicalError {
	return &LexicalError{
		ID:       ulid.Make().String(),
		Message:  message,
		Position: pos,
		Snippet:  RenderSnippet(tracker, pos),
	}
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s\n%s", e.Position.Line, e.Position.Column, e.Message, e.Snippet)
}

// RecoverableLexicalError is a LexicalError that additionally records
// where the driver should resume tokenization from, and what state to
// reset the context to. Tokenize does not construct it: recovery-mode
// errors are reported as plain *LexicalError values.
type RecoverableLexicalError struct {
	*LexicalError
	ResumeOffset int
	ResetState   State
}

// RenderSnippet formats two lines of context before and after pos.Line,
// plus a caret line under pos.Column.
func RenderSnippet(tracker *token.PositionTracker, pos token.Position) string {
	var out string
	start := pos.Line - 2
	if start < 1 {
		start = 1
	}
	end := pos.Line + 2
	if end > tracker.LineCount() {
		end = tracker.LineCount()
	}
	for l := start; l <= end; l++ {
		marker := "  "
		if l == pos.Line {
			marker = "> "
		}
		out += fmt.Sprintf("%s%4d | %s\n", marker, l, tracker.Line(l))
		if l == pos.Line {
			caret := fmt.Sprintf("%s     | %*s^\n", "  ", pos.Column-1, "")
			out += caret
		}
	}
	return out
}
