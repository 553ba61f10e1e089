package lexer

import "github.com/xyproto/psh/internal/token"

// whitespaceRecognizer consumes a run of horizontal whitespace, yielding
// no token. It runs last in the pipeline so every other recognizer gets
// first refusal.
type whitespaceRecognizer struct{}

func (whitespaceRecognizer) Priority() int { return 30 }
func (whitespaceRecognizer) Name() string { return "whitespace" }

func (whitespaceRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	end := ScanWhitespace(input, pos, cfg.UnicodeIdentifiers)
	if end == pos {
		return nil, pos, false
	}
	return nil, end, true
}
