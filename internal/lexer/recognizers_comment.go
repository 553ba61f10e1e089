package lexer

import "github.com/xyproto/psh/internal/token"

// commentRecognizer consumes a `#` and everything up to (not including)
// the next newline, yielding no token.
type commentRecognizer struct{}

func (commentRecognizer) Priority() int { return 60 }
func (commentRecognizer) Name() string { return "comment" }

func (commentRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	if !cfg.Comments || pos >= len(input) || input[pos] != '#' || !IsCommentStart(input, pos) {
		return nil, pos, false
	}
	end := pos
	for end < len(input) && input[end] != '\n' {
		end++
	}
	return nil, end, true
}
