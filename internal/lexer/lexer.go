package lexer

import (
	"github.com/xyproto/psh/internal/shellapi"
	"github.com/xyproto/psh/internal/token"
)

// Lexer drives the recognizer pipeline over one input string, producing
// a token stream: dispatch to the registry at each offset; when nothing
// matches, record a lexical error and stop (strict mode) or skip ahead to
// the next whitespace or `;` (recovery mode); append EOF at the end.
type Lexer struct {
	registry *Registry
	cfg      Config
}

// New builds a Lexer with the standard recognizer pipeline.
func New(cfg Config) *Lexer {
	return &Lexer{registry: NewRegistry(), cfg: cfg}
}

// Tokenize lexes input in full, returning every token (EOF included) or
// the first lexical error encountered in strict mode. In recovery mode it
// collects up to cfg.MaxErrors errors and keeps going, returning them
// alongside whatever tokens it managed to produce.
func (l *Lexer) Tokenize(input string) ([]token.Token, []*LexicalError) {
	tracker := token.NewPositionTracker(input)
	ctx := NewContext()
	var tokens []token.Token
	var errs []*LexicalError
	pos := 0

	for pos < len(input) {
		tok, newPos, ok := l.registry.Dispatch(input, pos, ctx, l.cfg, tracker)
		if !ok {
			lerr := newLexicalError(tracker, tracker.PositionAt(pos), "unexpected character "+quoteRune(input[pos]))
			errs = append(errs, lerr)
			if l.cfg.StrictMode && !l.cfg.RecoveryMode {
				return tokens, errs
			}
			if len(errs) >= l.cfg.MaxErrors && l.cfg.MaxErrors > 0 {
				return tokens, errs
			}
			// Recovery: resynchronize at the next whitespace or `;`,
			// resetting scan state, and keep going.
			ctx.Reset()
			pos++
			for pos < len(input) && input[pos] != ' ' && input[pos] != '\t' &&
				input[pos] != '\n' && input[pos] != ';' {
				pos++
			}
			continue
		}
		if newPos <= pos {
			// A recognizer claimed a match but made no progress; treat as
			// an internal error rather than loop forever.
			lerr := newLexicalError(tracker, tracker.PositionAt(pos), "recognizer made no progress")
			errs = append(errs, lerr)
			return tokens, errs
		}
		if tok != nil {
			tokens = append(tokens, *tok)
		}
		pos = newPos
	}

	endPos := tracker.PositionAt(len(input))
	tokens = append(tokens, token.Token{
		Type: token.EOF, StartOffset: len(input), EndOffset: len(input),
		Start: endPos, End: endPos,
	})

	if !ctx.AtEnd() {
		errs = append(errs, newLexicalError(tracker, endPos, "unterminated "+ctx.State.String()+" at end of input"))
	}

	return tokens, errs
}

func quoteRune(b byte) string {
	return "'" + string(rune(b)) + "'"
}

// TokenizeErrs is Tokenize with errs widened to []error, the shape
// internal/shellapi.Tokenizer declares for the (out-of-scope) parser to
// consume without importing this package's concrete error type.
func (l *Lexer) TokenizeErrs(input string) ([]token.Token, []error) {
	toks, lexErrs := l.Tokenize(input)
	if len(lexErrs) == 0 {
		return toks, nil
	}
	errs := make([]error, len(lexErrs))
	for i, e := range lexErrs {
		errs[i] = e
	}
	return toks, errs
}

// tokenizerAdapter lets *Lexer stand in for shellapi.Tokenizer without the
// parser needing to know about the richer []*LexicalError return shape.
type tokenizerAdapter struct{ *Lexer }

func (a tokenizerAdapter) Tokenize(input string) ([]token.Token, []error) {
	return a.TokenizeErrs(input)
}

// AsTokenizer adapts l to the shellapi.Tokenizer interface the (out-of-
// scope) parser consumes.
func (l *Lexer) AsTokenizer() shellapi.Tokenizer {
	return tokenizerAdapter{l}
}

var _ shellapi.Tokenizer = tokenizerAdapter{}
