package lexer

import (
	"strings"

	"github.com/xyproto/psh/internal/token"
)

// processSubRecognizer matches `<(...)` / `>(...)`, consuming a
// quote-aware balanced `(...)` body.
type processSubRecognizer struct{}

func (processSubRecognizer) Priority() int { return 160 }
func (processSubRecognizer) Name() string { return "process-substitution" }

func (processSubRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	if !cfg.ProcessSubstitution {
		return nil, pos, false
	}
	if !strings.HasPrefix(input[pos:], "<(") && !strings.HasPrefix(input[pos:], ">(") {
		return nil, pos, false
	}
	start := tracker.PositionAt(pos)
	typ := token.PROCESS_SUB_IN
	if input[pos] == '>' {
		typ = token.PROCESS_SUB_OUT
	}
	bodyStart := pos + 2
	end, _ := FindClosingDelimiter(input, bodyStart, '(', ')', true, true)
	value := input[pos:end]
	tok := &token.Token{
		Type: typ, Value: value,
		StartOffset: pos, EndOffset: end,
		Start: start, End: tracker.PositionAt(end),
	}
	ctx.UpdateCommandPosition(typ)
	return tok, end, true
}
