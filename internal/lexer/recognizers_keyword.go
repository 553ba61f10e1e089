package lexer

import (
	"strings"

	"github.com/xyproto/psh/internal/token"
)

// keywordRecognizer matches reserved words, but only at command position,
// with contextual refinements for `in` and `esac`.
type keywordRecognizer struct{}

func (keywordRecognizer) Priority() int { return 90 }
func (keywordRecognizer) Name() string { return "keyword" }

func (r keywordRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	word, end := scanBareWord(input, pos)
	if word == "" {
		return nil, pos, false
	}
	typ, ok := token.Keywords[word]
	if !ok {
		return nil, pos, false
	}
	// `in` is reserved only right after `for WORD` / `select WORD` /
	// `case WORD` (tracked by ctx.AwaitIn); everywhere else it is an
	// ordinary word, even at command position. `esac` (after `;;`/`;&`/
	// `;|`/NEWLINE) relies on CommandPosition already being gated
	// correctly by the preceding token.
	if typ == token.IN {
		if ctx.AwaitIn != 1 {
			return nil, pos, false
		}
	} else if !ctx.CommandPosition {
		return nil, pos, false
	}
	start := tracker.PositionAt(pos)
	tok := &token.Token{
		Type: typ, Value: word,
		StartOffset: pos, EndOffset: end,
		Start: start, End: tracker.PositionAt(end),
	}
	ctx.UpdateCommandPosition(typ)
	if typ == token.CASE {
		ctx.InCasePattern = true
	}
	if typ == token.ESAC {
		ctx.InCasePattern = false
	}
	return tok, end, true
}

// scanBareWord reads an identifier-like run and reports it only if the
// following character is a word terminator (or end of input), so that
// e.g. "iffy" is never mistaken for the "if" keyword.
func scanBareWord(input string, pos int) (string, int) {
	r := []rune(input)
	i := runeIndex(input, pos)
	start := i
	for i < len(r) && (r[i] == '!' || IsIdentifierChar(r[i], false)) {
		if r[i] == '!' && i != start {
			break
		}
		i++
	}
	if i == start {
		return "", pos
	}
	end := byteIndex(input, i)
	word := input[pos:end]
	if i < len(r) && !isWordTerminatorRune(r[i]) {
		return "", pos
	}
	if word == "" || strings.TrimSpace(word) == "" {
		return "", pos
	}
	return word, end
}
