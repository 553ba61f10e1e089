package lexer

import (
	"strings"
	"unicode"

	"github.com/xyproto/psh/internal/token"
)

// This file holds stateless scanning helpers shared across recognizers.
// None of them mutate a Context; all state manipulation lives in the
// recognizers and the driver.

const posixWhitespace = " \t\n\v\f\r"

// IsIdentifierStart reports whether c may begin an identifier.
func IsIdentifierStart(c rune, posixMode bool) bool {
	if posixMode {
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return c == '_' || unicode.IsLetter(c)
}

// IsIdentifierChar reports whether c may continue an identifier.
func IsIdentifierChar(c rune, posixMode bool) bool {
	if posixMode {
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsMark(c)
}

// IsWhitespace reports whether c is horizontal/vertical whitespace,
// under POSIX (ASCII-only) or Unicode rules.
func IsWhitespace(c rune, posixMode bool) bool {
	if posixMode {
		return strings.ContainsRune(posixWhitespace, c)
	}
	return unicode.IsSpace(c)
}

// NormalizeIdentifier applies NFC-equivalent case folding used outside
// POSIX mode. Go's standard library has no built-in NFC normalizer
// without an extra module; since identifiers here are restricted to
// ASCII-compatible shell variable names in practice, normalization
// reduces to optional lowercasing, matching the common case the
// reference implementation's normalize_identifier handles.
func NormalizeIdentifier(name string, posixMode, caseSensitive bool) string {
	if posixMode || caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// ReadUntilChar scans from pos until target (not escaped, if escape is
// true) and returns the content read (excluding target) and the
// position just after target (or at end of input if target was never
// found).
func ReadUntilChar(input string, pos int, target rune, escape bool) (string, int) {
	var b strings.Builder
	r := []rune(input)
	i := runeIndex(input, pos)
	for i < len(r) {
		c := r[i]
		if escape && c == '\\' && i+1 < len(r) {
			b.WriteRune(r[i+1])
			i += 2
			continue
		}
		if c == target {
			i++
			break
		}
		b.WriteRune(c)
		i++
	}
	return b.String(), byteIndex(input, i)
}

// FindClosingDelimiter scans for the close delimiter matching open,
// honoring nesting depth, and optionally skipping delimiters that occur
// inside '...' or "..." or after a backslash escape.
func FindClosingDelimiter(input string, pos int, open, close rune, trackQuotes, trackEscapes bool) (int, bool) {
	r := []rune(input)
	i := runeIndex(input, pos)
	depth := 1
	var inSingle, inDouble bool
	for i < len(r) {
		c := r[i]
		if trackEscapes && c == '\\' && i+1 < len(r) && !inSingle {
			i += 2
			continue
		}
		if trackQuotes && !inDouble && c == '\'' {
			inSingle = !inSingle
			i++
			continue
		}
		if trackQuotes && !inSingle && c == '"' {
			inDouble = !inDouble
			i++
			continue
		}
		if !inSingle && !inDouble {
			switch c {
			case open:
				if open != close {
					depth++
				}
			case close:
				depth--
				if depth == 0 {
					return byteIndex(input, i+1), true
				}
			}
		}
		i++
	}
	return byteIndex(input, len(r)), false
}

// FindBalancedParentheses scans for the ) matching the ( at pos (pos
// points just after the opening paren).
func FindBalancedParentheses(input string, pos int) (int, bool) {
	return FindClosingDelimiter(input, pos, '(', ')', true, true)
}

// FindBalancedDoubleParentheses scans for the `))` that closes an
// arithmetic expansion opened by `$((` or `((`. Interior `(`/`)` are
// pair-counted so nested subshells inside the arithmetic text (unusual,
// but syntactically legal as a command substitution) don't confuse the
// scan.
func FindBalancedDoubleParentheses(input string, pos int) (int, bool) {
	r := []rune(input)
	i := runeIndex(input, pos)
	depth := 1
	for i < len(r) {
		c := r[i]
		if c == '\\' && i+1 < len(r) {
			i += 2
			continue
		}
		switch c {
		case '(':
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				// Require a second ')' immediately (possibly after
				// nothing, since this IS depth-0 exit) to close `))`.
				if i < len(r) && r[i] == ')' {
					return byteIndex(input, i+1), true
				}
				// Single `)` at depth 0: not a valid `))` close; bash
				// would treat this as an error in arithmetic context,
				// but we report not-found so the caller can decide.
				return byteIndex(input, i), false
			}
		default:
			i++
		}
	}
	return byteIndex(input, len(r)), false
}

// EscapeResult is what HandleEscapeSequence produces: either literal
// text to emit, or a signal that the backslash-dollar sentinel rule
// applies (see token.Part.LiteralDollar).
type EscapeResult struct {
	Text          string
	LiteralDollar bool
	// Consumed is the number of runes consumed from input starting at
	// pos (including the backslash).
	Consumed int
}

// HandleEscapeSequence implements the only place escape semantics live.
// quoteContext is 0 for "outside quotes", '\'' or '"' or
// '`' for the corresponding quote, and '$' standing in for $'...' ANSI-C
// quoting (the caller passes '$' as quoteContext inside $'...').
func HandleEscapeSequence(input string, pos int, quoteContext rune) EscapeResult {
	r := []rune(input)
	i := runeIndex(input, pos)
	if i >= len(r) || r[i] != '\\' {
		return EscapeResult{}
	}
	if i+1 >= len(r) {
		return EscapeResult{Text: "\\", Consumed: 1}
	}
	next := r[i+1]

	switch quoteContext {
	case '\'':
		return EscapeResult{}
	case '"':
		switch next {
		case '"', '\\', '`', '$', '\n':
			if next == '\n' {
				return EscapeResult{Text: "", Consumed: 2}
			}
			return EscapeResult{Text: string(next), Consumed: 2}
		default:
			return EscapeResult{Text: "\\", Consumed: 1}
		}
	case '$': // inside $'...'
		return handleANSICEscape(r, i)
	default: // outside quotes
		if next == '\n' {
			return EscapeResult{Text: "", Consumed: 2}
		}
		if next == '$' {
			return EscapeResult{Text: "\\$", LiteralDollar: true, Consumed: 2}
		}
		return EscapeResult{Text: string(next), Consumed: 2}
	}
}

func handleANSICEscape(r []rune, i int) EscapeResult {
	next := r[i+1]
	simple := map[rune]rune{
		'n': '\n', 't': '\t', 'r': '\r', 'b': '\b', 'f': '\f', 'v': '\v',
		'a': '\a', '\\': '\\', '\'': '\'', '"': '"', '?': '?', 'e': 0x1b,
	}
	if c, ok := simple[next]; ok {
		return EscapeResult{Text: string(c), Consumed: 2}
	}
	switch next {
	case 'x':
		return readFixedHex(r, i, 2)
	case '0':
		return readOctal(r, i)
	case 'u':
		return readFixedHex4(r, i)
	case 'U':
		return readFixedHex8(r, i)
	}
	return EscapeResult{Text: string(next), Consumed: 2}
}

func readFixedHex(r []rune, i, n int) EscapeResult {
	j := i + 2
	start := j
	for j < len(r) && j-start < n && isHexDigit(r[j]) {
		j++
	}
	if j == start {
		return EscapeResult{Text: "x", Consumed: 2}
	}
	v := parseHex(string(r[start:j]))
	return EscapeResult{Text: string(rune(v)), Consumed: j - i}
}

func readFixedHex4(r []rune, i int) EscapeResult {
	res := readFixedHex(r, i, 4)
	return res
}

func readFixedHex8(r []rune, i int) EscapeResult {
	j := i + 2
	start := j
	for j < len(r) && j-start < 8 && isHexDigit(r[j]) {
		j++
	}
	if j == start {
		return EscapeResult{Text: "U", Consumed: 2}
	}
	v := parseHex(string(r[start:j]))
	return EscapeResult{Text: string(rune(v)), Consumed: j - i}
}

func readOctal(r []rune, i int) EscapeResult {
	j := i + 1 // start at the '0'
	start := j
	for j < len(r) && j-start < 4 && r[j] >= '0' && r[j] <= '7' {
		j++
	}
	v := parseOctal(string(r[start:j]))
	return EscapeResult{Text: string(rune(v)), Consumed: j - i}
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseHex(s string) int {
	v := 0
	for _, c := range s {
		v *= 16
		switch {
		case c >= '0' && c <= '9':
			v += int(c - '0')
		case c >= 'a' && c <= 'f':
			v += int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v += int(c-'A') + 10
		}
	}
	return v
}

func parseOctal(s string) int {
	v := 0
	for _, c := range s {
		if c < '0' || c > '7' {
			continue
		}
		v = v*8 + int(c-'0')
	}
	return v
}

// ExtractQuotedContent reads a quoteChar-delimited literal starting at
// pos (pointing just after the opening quote). When allowEscapes is
// false (single quotes), no character is ever treated as an escape.
func ExtractQuotedContent(input string, pos int, quoteChar rune, allowEscapes bool) (string, int, bool) {
	r := []rune(input)
	i := runeIndex(input, pos)
	var b strings.Builder
	for i < len(r) {
		c := r[i]
		if allowEscapes && c == '\\' && i+1 < len(r) {
			b.WriteRune(r[i])
			b.WriteRune(r[i+1])
			i += 2
			continue
		}
		if c == quoteChar {
			return b.String(), byteIndex(input, i+1), true
		}
		b.WriteRune(c)
		i++
	}
	return b.String(), byteIndex(input, len(r)), false
}

var specialVarChars = "?$!#@*-0123456789"

// ExtractVariableName returns the longest valid variable name starting
// at pos, or a single-character special variable (? $ ! # @ * - 0-9).
func ExtractVariableName(input string, pos int, posixMode bool) (string, int) {
	r := []rune(input)
	i := runeIndex(input, pos)
	if i >= len(r) {
		return "", pos
	}
	if strings.ContainsRune(specialVarChars, r[i]) {
		return string(r[i]), byteIndex(input, i+1)
	}
	if !IsIdentifierStart(r[i], posixMode) {
		return "", pos
	}
	start := i
	i++
	for i < len(r) && IsIdentifierChar(r[i], posixMode) {
		i++
	}
	return string(r[start:i]), byteIndex(input, i)
}

var commentBoundary = " \t\n;|&<>(){}[]"

// IsCommentStart reports whether a `#` at pos begins a comment: true
// only at the very start of input or when the previous character is a
// word/operator boundary.
func IsCommentStart(input string, pos int) bool {
	if pos == 0 {
		return true
	}
	r := []rune(input)
	i := runeIndex(input, pos)
	if i == 0 {
		return true
	}
	prev := r[i-1]
	return strings.ContainsRune(commentBoundary, prev)
}

// ScanWhitespace returns the position just after a run of horizontal
// whitespace starting at pos (newline is never consumed: it is a
// NEWLINE operator token in its own right).
func ScanWhitespace(input string, pos int, unicodeAware bool) int {
	r := []rune(input)
	i := runeIndex(input, pos)
	for i < len(r) {
		c := r[i]
		if c == '\n' {
			break
		}
		if unicodeAware {
			if !unicode.IsSpace(c) {
				break
			}
		} else if c != ' ' && c != '\t' && c != '\r' {
			break
		}
		i++
	}
	return byteIndex(input, i)
}

// OperatorEntry is one row of the length-indexed operator table consulted
// by FindOperatorMatch and the operator recognizer.
type OperatorEntry struct {
	Text string
	Type token.Type
}

// FindOperatorMatch performs a greedy longest-match search over
// operatorsByLength (already grouped and sorted longest-first by the
// caller) starting at pos.
func FindOperatorMatch(input string, pos int, operatorsByLength [][]OperatorEntry) (OperatorEntry, bool) {
	for _, group := range operatorsByLength {
		for _, op := range group {
			if strings.HasPrefix(input[pos:], op.Text) {
				return op, true
			}
		}
	}
	return OperatorEntry{}, false
}

// ValidateBraceExpansion scans a `${...}` body starting just after `${`,
// honoring brace nesting, and returns the offset just after the matching
// `}` plus whether it was found closed.
func ValidateBraceExpansion(input string, pos int) (int, bool) {
	return FindClosingDelimiter(input, pos, '{', '}', true, true)
}

// runeIndex converts a byte offset into input to a rune index.
func runeIndex(input string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	return len([]rune(input[:min(byteOffset, len(input))]))
}

// byteIndex converts a rune index back into a byte offset into input.
func byteIndex(input string, runeOffset int) int {
	if runeOffset <= 0 {
		return 0
	}
	i := 0
	count := 0
	for idx := range input {
		if count == runeOffset {
			return idx
		}
		i = idx
		count++
	}
	if count == runeOffset {
		return len(input)
	}
	_ = i
	return len(input)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
