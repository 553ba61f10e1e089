package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/xyproto/psh/internal/token"
)

// literalRecognizer builds WORD tokens out of everything the higher
// priority recognizers didn't claim: bare identifiers, numbers, glob
// patterns, quoted/expanded composite words, and variable/array
// assignments.
type literalRecognizer struct{}

func (literalRecognizer) Priority() int { return 70 }
func (literalRecognizer) Name() string { return "literal" }

func (literalRecognizer) Recognize(input string, pos int, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	if pos >= len(input) {
		return nil, pos, false
	}
	// A `#` opening a comment belongs to the comment recognizer below us
	// in priority; without this refusal `# foo` would lex as a WORD.
	if cfg.Comments && input[pos] == '#' && IsCommentStart(input, pos) {
		return nil, pos, false
	}
	start := tracker.PositionAt(pos)

	// Inside [[ ]], < and > are comparison operators, surfaced as
	// one-character WORDs rather than redirections.
	if ctx.BracketDepth > 0 && (input[pos] == '<' || input[pos] == '>') {
		end := pos + 1
		tok := &token.Token{
			Type: token.WORD, Value: input[pos:end],
			StartOffset: pos, EndOffset: end,
			Start: start, End: tracker.PositionAt(end),
		}
		ctx.UpdateCommandPosition(token.WORD)
		return tok, end, true
	}

	if cfg.VariableAssignment && ctx.CommandPosition {
		if end, isAssign := matchAssignmentPrefix(input, pos); isAssign {
			return scanWordBody(input, pos, end, start, ctx, cfg, tracker)
		}
	}

	return scanWordBody(input, pos, pos, start, ctx, cfg, tracker)
}

// matchAssignmentPrefix recognizes `NAME=`, `NAME+=`, `NAME[key]=` and
// `NAME[key]+=` prefixes, returning the offset just past the `=` and
// whether a prefix was found.
func matchAssignmentPrefix(input string, pos int) (int, bool) {
	i := pos
	if i >= len(input) || !IsIdentifierStart(rune(input[i]), false) {
		return pos, false
	}
	i++
	for i < len(input) && IsIdentifierChar(rune(input[i]), false) {
		i++
	}
	if i == pos {
		return pos, false
	}
	if i < len(input) && input[i] == '[' {
		depth := 1
		j := i + 1
		for j < len(input) && depth > 0 {
			switch input[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			j++
		}
		if depth != 0 {
			return pos, false
		}
		i = j
	}
	if i < len(input) && input[i] == '+' && i+1 < len(input) && input[i+1] == '=' {
		return i + 2, true
	}
	if i < len(input) && input[i] == '=' {
		return i + 1, true
	}
	return pos, false
}

// escapeByteLen converts an escape's consumed rune count (as reported by
// HandleEscapeSequence) into a byte length at pos.
func escapeByteLen(input string, pos, runes int) int {
	n := 0
	for i := 0; i < runes && pos+n < len(input); i++ {
		_, size := utf8.DecodeRuneInString(input[pos+n:])
		n += size
	}
	return n
}

// scanWordBody consumes a (possibly composite) word starting at bodyPos,
// building Parts for any quoted/expanded segments, and concatenating
// adjacent segments per shell's `foo"bar"'baz'` juxtaposition rule. The
// returned token spans from the original pos (which may precede bodyPos
// when an assignment prefix was matched).
func scanWordBody(input string, pos, bodyPos int, start token.Position, ctx *Context, cfg Config, tracker *token.PositionTracker) (*token.Token, int, bool) {
	var parts []token.Part
	var plain strings.Builder
	cur := bodyPos
	sawAny := bodyPos > pos
	quoteType := token.QuoteNone
	// Distinguish pure-quoted words (STRING) and lone expansions
	// (VARIABLE/COMMAND_SUB/...) from ordinary WORDs.
	unquotedText := bodyPos > pos
	quotedSegs := 0
	unquotedExps := 0

	// An assignment prefix (NAME=, NAME+=, arr[key]=) is part of the
	// token's literal text like any other plain run.
	plainStart := pos
	plain.WriteString(input[pos:bodyPos])

	flushPlain := func() {
		if plain.Len() > 0 {
			parts = append(parts, token.Part{
				Value: plain.String(),
				Start: tracker.PositionAt(plainStart),
				End:   tracker.PositionAt(cur),
			})
			plain.Reset()
		}
	}

	for cur < len(input) {
		c := input[cur]
		if isWordTerminatorRune(rune(c)) || c == '\n' {
			break
		}
		if plain.Len() == 0 {
			plainStart = cur
		}
		if c == '\\' {
			res := HandleEscapeSequence(input, cur, 0)
			consumed := escapeByteLen(input, cur, res.Consumed)
			if res.LiteralDollar {
				flushPlain()
				parts = append(parts, token.Part{
					Value: res.Text, LiteralDollar: true,
					Start: tracker.PositionAt(cur),
					End:   tracker.PositionAt(cur + consumed),
				})
			} else {
				plain.WriteString(res.Text)
			}
			unquotedText = true
			cur += consumed
			sawAny = true
			continue
		}
		if ctx.BracketDepth > 0 && (c == '<' || c == '>') {
			break
		}
		// After `=~`, `[`/`]` don't terminate the word: the whole regex
		// pattern on the right-hand side is one token. A `[` opening a word
		// at command position starts a `test`-style word instead.
		if !ctx.AfterRegexMatch && ctx.BracketDepth > 0 && (c == '[' || c == ']') &&
			!(c == '[' && cur == pos && ctx.CommandPosition) {
			break
		}
		switch c {
		case '\'':
			if cfg.SingleQuotes {
				flushPlain()
				ps, newPos, ok := ParseQuotedString(input, cur+1, singleQuoteRules, tracker)
				parts = append(parts, ps...)
				quoteType = token.CombineQuoteType(quoteType, token.QuoteSingle)
				quotedSegs++
				if !ok {
					ctx.State = StateInSingleQuote
				}
				cur = newPos
				sawAny = true
				continue
			}
		case '"':
			if cfg.DoubleQuotes {
				flushPlain()
				ps, newPos, ok := ParseQuotedString(input, cur+1, doubleQuoteRules, tracker)
				parts = append(parts, ps...)
				quoteType = token.CombineQuoteType(quoteType, token.QuoteDouble)
				quotedSegs++
				if !ok {
					ctx.State = StateInDoubleQuote
				}
				cur = newPos
				sawAny = true
				continue
			}
		case '`':
			if cfg.Backticks {
				flushPlain()
				part, newPos := parseBacktickSub(input, cur, tracker)
				parts = append(parts, part)
				unquotedExps++
				if part.ExpansionType == token.ExpBacktickUnclosed {
					ctx.State = StateInBacktick
				}
				cur = newPos
				sawAny = true
				continue
			}
		case '$':
			// $'...' is ANSI-C quoting, not an expansion.
			if cfg.SingleQuotes && cur+1 < len(input) && input[cur+1] == '\'' {
				flushPlain()
				ps, newPos, ok := ParseQuotedString(input, cur+2, ansiCQuoteRules, tracker)
				parts = append(parts, ps...)
				quoteType = token.CombineQuoteType(quoteType, token.QuoteANSIC)
				quotedSegs++
				if !ok {
					ctx.State = StateInSingleQuote
				}
				cur = newPos
				sawAny = true
				continue
			}
			if cfg.VariableExpansion || cfg.CommandSubstitution || cfg.ArithmeticExpansion {
				flushPlain()
				part, newPos := ParseExpansion(input, cur, 0, tracker)
				if newPos > cur {
					parts = append(parts, part)
					if part.IsExpansion {
						unquotedExps++
					} else {
						unquotedText = true
					}
					switch part.ExpansionType {
					case token.ExpCommandUnclosed:
						ctx.State = StateInCommandSub
					case token.ExpArithmeticUnclosed:
						ctx.State = StateInArithmetic
					case token.ExpParameterUnclosed:
						ctx.State = StateInBraceVar
					}
					cur = newPos
					sawAny = true
					continue
				}
			}
		}
		plain.WriteByte(c)
		unquotedText = true
		cur++
	}
	flushPlain()

	if cur == bodyPos && !sawAny {
		return nil, pos, false
	}

	var value strings.Builder
	for _, p := range parts {
		value.WriteString(p.Value)
	}

	typ := token.WORD
	switch {
	case !unquotedText && unquotedExps == 0 && quotedSegs > 0:
		typ = token.STRING
	case !unquotedText && quotedSegs == 0 && unquotedExps == 1 && len(parts) == 1:
		switch parts[0].ExpansionType {
		case token.ExpVariable, token.ExpParameter:
			typ = token.VARIABLE
		case token.ExpCommand:
			typ = token.COMMAND_SUB
		case token.ExpBacktick:
			typ = token.COMMAND_SUB_BACKTICK
		case token.ExpArithmetic:
			typ = token.ARITH_EXPANSION
		}
	}

	// Stretch the outer parts over the token's own span so the quote
	// characters are covered: Start==Parts[0].Start, End==Parts[len-1].End.
	if len(parts) > 0 {
		parts[0].Start = start
		parts[len(parts)-1].End = tracker.PositionAt(cur)
	}

	tok := &token.Token{
		Type: typ, Value: value.String(),
		StartOffset: pos, EndOffset: cur,
		Start: start, End: tracker.PositionAt(cur),
		Parts: parts, QuoteType: quoteType, HasQuote: quoteType != token.QuoteNone,
	}

	if ctx.AwaitingHeredocDelim {
		tok.HeredocStrip = ctx.PendingHeredocStrip
		tok.HeredocQuoted = quoteType != token.QuoteNone
		ctx.HeredocDelimiters = append(ctx.HeredocDelimiters, HeredocPending{
			Delimiter: tok.Value, Strip: tok.HeredocStrip, Quoted: tok.HeredocQuoted,
		})
		ctx.AwaitingHeredocDelim = false
		ctx.PendingHeredocStrip = false
	}

	ctx.UpdateCommandPosition(typ)
	ctx.AfterRegexMatch = false
	return tok, cur, true
}
