package lexer

import "github.com/xyproto/psh/internal/token"

// arithmeticContentRecognizer fires only while ArithmeticDepth > 0 (i.e.
// we're scanning the body of a `((...))` that the operator recognizer
// already opened) and swallows the whole expression up to the matching
// `))` as a single WORD. `$((...))` never reaches it: the literal
// recognizer parses that expansion whole.
type arithmeticContentRecognizer struct{}

func (arithmeticContentRecognizer) Priority() int { return 200 }
func (arithmeticContentRecognizer) Name() string { return "arithmetic-content" }

func (arithmeticContentRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	if ctx.ArithmeticDepth <= 0 {
		return nil, pos, false
	}
	start := tracker.PositionAt(pos)
	end, _ := FindBalancedDoubleParentheses(input, pos)
	// The trailing `))` belongs to the DOUBLE_RPAREN operator token that
	// follows; this recognizer only emits the body as a WORD.
	bodyEnd := end - 2
	if bodyEnd < pos {
		bodyEnd = pos
	}
	if bodyEnd == pos {
		// Empty arithmetic body (e.g. `(())`): nothing to emit as a WORD,
		// let the operator recognizer consume the immediate `))` instead.
		return nil, pos, false
	}
	value := input[pos:bodyEnd]
	tok := &token.Token{
		Type: token.WORD, Value: value,
		StartOffset: pos, EndOffset: bodyEnd,
		Start: start, End: tracker.PositionAt(bodyEnd),
	}
	ctx.UpdateCommandPosition(token.WORD)
	return tok, bodyEnd, true
}
