package lexer

import "github.com/xyproto/psh/internal/token"

// Recognizer is one pluggable unit in the recognizer pipeline. Recognize
// returns (token, newPos, true) on a match, (nil, newPos, true) when it
// consumed input but produced no token (whitespace, comments), or (nil,
// pos, false) when it does not apply at pos.
type Recognizer interface {
	Priority() int
	Name() string
	Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool)
}

// Registry holds recognizers sorted by descending priority. It is built
// once at Lexer construction time and never mutated afterward, so
// iterating it allocates nothing.
type Registry struct {
	recognizers []Recognizer
}

// NewRegistry returns the standard recognizer pipeline in priority order.
func NewRegistry() *Registry {
	rs := []Recognizer{
		arithmeticContentRecognizer{},
		processSubRecognizer{},
		operatorRecognizer{},
		keywordRecognizer{},
		literalRecognizer{},
		commentRecognizer{},
		whitespaceRecognizer{},
	}
	// Stable sort by descending priority; ties keep the above order.
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j].Priority() > rs[j-1].Priority(); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
	return &Registry{recognizers: rs}
}

// Dispatch tries each recognizer in priority order and returns the first
// match.
func (reg *Registry) Dispatch(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	for _, r := range reg.recognizers {
		if tok, newPos, ok := r.Recognize(input, pos, ctx, cfg, tracker); ok {
			return tok, newPos, true
		}
	}
	return nil, pos, false
}
