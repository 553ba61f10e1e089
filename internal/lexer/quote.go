package lexer

import (
	"strings"

	"github.com/xyproto/psh/internal/token"
)

// QuoteRules describes how one opening delimiter's body is scanned.
type QuoteRules struct {
	QuoteChar       rune
	AllowExpansions bool
	AllowEscapes    bool
	EscapeSet       string // for double-quote mode: chars after \ that are processed
}

var (
	doubleQuoteRules = QuoteRules{QuoteChar: '"', AllowExpansions: true, AllowEscapes: true, EscapeSet: "\"\\`$\n"}
	singleQuoteRules = QuoteRules{QuoteChar: '\'', AllowExpansions: false, AllowEscapes: false}
	backtickRules    = QuoteRules{QuoteChar: '`', AllowExpansions: true, AllowEscapes: true, EscapeSet: "\\`$"}
	ansiCQuoteRules  = QuoteRules{QuoteChar: '\'', AllowExpansions: false, AllowEscapes: true}
)

// ParseQuotedString walks input starting at pos (just after the opening
// quote) under rules, returning the accumulated parts, the offset just
// after the closing quote, and whether a close was actually found.
func ParseQuotedString(input string, pos int, rules QuoteRules, tracker *token.PositionTracker) ([]token.Part, int, bool) {
	var parts []token.Part
	var literal strings.Builder
	litStart := pos
	r := []rune(input)
	i := runeIndex(input, pos)

	flush := func(endOffset int) {
		if literal.Len() == 0 {
			return
		}
		parts = append(parts, token.Part{
			Value:     literal.String(),
			QuoteType: quoteTypeFor(rules),
			Start:     tracker.PositionAt(litStart),
			End:       tracker.PositionAt(endOffset),
		})
		literal.Reset()
	}

	for i < len(r) {
		c := r[i]
		off := byteIndex(input, i)

		if c == rules.QuoteChar {
			flush(off)
			return parts, byteIndex(input, i+1), true
		}

		if c == '\\' {
			quoteCtx := rules.QuoteChar
			if rules.QuoteChar == '\'' && rules.AllowEscapes {
				// $'...': ANSI-C escapes use quoteContext '$'.
				quoteCtx = '$'
			}
			if !rules.AllowEscapes {
				literal.WriteRune(c)
				i++
				continue
			}
			res := HandleEscapeSequence(input, off, quoteCtx)
			if res.Consumed == 0 {
				literal.WriteRune(c)
				i++
				continue
			}
			if res.LiteralDollar {
				flush(off)
				parts = append(parts, token.Part{
					Value: res.Text, LiteralDollar: true,
					QuoteType: quoteTypeFor(rules),
					Start:     tracker.PositionAt(off),
					End:       tracker.PositionAt(off + res.Consumed),
				})
				litStart = off + res.Consumed
			} else {
				literal.WriteString(res.Text)
			}
			i += res.Consumed
			continue
		}

		if rules.AllowExpansions && c == '$' {
			flush(off)
			part, newPos := ParseExpansion(input, off, rules.QuoteChar, tracker)
			parts = append(parts, part)
			i = runeIndex(input, newPos)
			litStart = newPos
			continue
		}

		if rules.AllowExpansions && c == '`' && rules.QuoteChar != '`' {
			flush(off)
			part, newPos := parseBacktickSub(input, off, tracker)
			parts = append(parts, part)
			i = runeIndex(input, newPos)
			litStart = newPos
			continue
		}

		literal.WriteRune(c)
		i++
	}
	flush(byteIndex(input, len(r)))
	return parts, byteIndex(input, len(r)), false
}

func quoteTypeFor(rules QuoteRules) token.QuoteType {
	switch rules.QuoteChar {
	case '"':
		return token.QuoteDouble
	case '`':
		return token.QuoteNone
	case '\'':
		if rules.AllowEscapes {
			return token.QuoteANSIC
		}
		return token.QuoteSingle
	}
	return token.QuoteNone
}

// ParseExpansion dispatches on the character after `$`. pos points at
// the `$` itself.
func ParseExpansion(input string, pos int, quoteContext rune, tracker *token.PositionTracker) (token.Part, int) {
	start := tracker.PositionAt(pos)
	r := []rune(input)
	i := runeIndex(input, pos)
	if i+1 >= len(r) {
		return token.Part{Value: "$", Start: start, End: tracker.PositionAt(pos + 1)}, pos + 1
	}
	next := r[i+1]

	switch {
	case next == '(' && i+2 < len(r) && r[i+2] == '(':
		bodyStart := byteIndex(input, i+3)
		end, closed := FindBalancedDoubleParentheses(input, bodyStart)
		expType := token.ExpArithmetic
		if !closed {
			expType = token.ExpArithmeticUnclosed
		}
		value := input[pos:end]
		return token.Part{
			Value: value, IsExpansion: true, ExpansionType: expType,
			Start: start, End: tracker.PositionAt(end),
		}, end

	case next == '(':
		bodyStart := byteIndex(input, i+2)
		end, closed := FindClosingDelimiter(input, bodyStart, '(', ')', true, true)
		expType := token.ExpCommand
		if !closed {
			expType = token.ExpCommandUnclosed
		}
		value := input[pos:end]
		return token.Part{
			Value: value, IsExpansion: true, ExpansionType: expType,
			Start: start, End: tracker.PositionAt(end),
		}, end

	case next == '{':
		bodyStart := byteIndex(input, i+2)
		end, closed := ValidateBraceExpansion(input, bodyStart)
		expType := token.ExpParameter
		if !closed {
			expType = token.ExpParameterUnclosed
		}
		value := input[pos:end]
		return token.Part{
			Value: value, IsExpansion: true, ExpansionType: expType, IsVariable: true,
			Start: start, End: tracker.PositionAt(end),
		}, end

	default:
		name, end := ExtractVariableName(input, byteIndex(input, i+1), false)
		if name == "" {
			// `$` followed by something that can't start a name: a
			// literal dollar, not an expansion (e.g. `$ ` or `$` at EOF).
			return token.Part{Value: "$", Start: start, End: tracker.PositionAt(pos + 1)}, pos + 1
		}
		value := "$" + name
		return token.Part{
			Value: value, IsExpansion: true, IsVariable: true, ExpansionType: token.ExpVariable,
			Start: start, End: tracker.PositionAt(end),
		}, end
	}
}

func parseBacktickSub(input string, pos int, tracker *token.PositionTracker) (token.Part, int) {
	start := tracker.PositionAt(pos)
	bodyStart := pos + 1
	r := []rune(input)
	i := runeIndex(input, bodyStart)
	for i < len(r) {
		c := r[i]
		if c == '\\' && i+1 < len(r) {
			nxt := r[i+1]
			if nxt == '\\' || nxt == '`' || nxt == '$' {
				i += 2
				continue
			}
		}
		if c == '`' {
			end := byteIndex(input, i+1)
			return token.Part{
				Value: input[pos:end], IsExpansion: true, ExpansionType: token.ExpBacktick,
				Start: start, End: tracker.PositionAt(end),
			}, end
		}
		i++
	}
	end := byteIndex(input, len(r))
	return token.Part{
		Value: input[pos:end], IsExpansion: true, ExpansionType: token.ExpBacktickUnclosed,
		Start: start, End: tracker.PositionAt(end),
	}, end
}
