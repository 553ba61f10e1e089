// Package multiline buffers interactive input across physical lines and
// decides when a logical command is syntactically complete: a trailing
// backslash, an unclosed quote or backtick, a dangling pipe/logical
// operator, an open paren/brace/bracket, an unbalanced control-structure
// keyword, or a heredoc still waiting for its terminator all keep
// reading more lines.
package multiline

import "strings"

// Buffer accumulates physical lines of one logical command.
type Buffer struct {
	lines []string
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends a physical line.
func (b *Buffer) Add(line string) {
	b.lines = append(b.lines, line)
}

// Empty reports whether any line has been buffered yet.
func (b *Buffer) Empty() bool {
	return len(b.lines) == 0
}

// Reset clears the buffer, ready for the next logical command.
func (b *Buffer) Reset() {
	b.lines = nil
}

// String joins the buffered lines with newlines, matching how the
// completed command is handed to the lexer/executor.
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}

var openKeywords = map[string]bool{
	"if": true, "while": true, "until": true, "for": true, "case": true,
}

var closeKeywords = map[string]bool{
	"fi": true, "done": true, "esac": true,
}

type pendingHeredoc struct {
	delim string
	strip bool
}

// scanState is the running tally a Classifier accumulates while walking
// the logical command line by line.
type scanState struct {
	inSingle, inDouble, inBacktick bool
	parenDepth, braceDepth, bracketDepth int
	controlDepth                         int
	pending                               []pendingHeredoc
}

// Classifier decides whether accumulated input forms one complete
// logical command. It holds no state of its own: every call to
// IsComplete receives the full accumulated text and re-derives
// completeness from scratch.
type Classifier struct{}

// NewClassifier returns a Classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// IsComplete reports whether text is a syntactically complete command
// that can be handed off to the lexer.
func (c *Classifier) IsComplete(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	if endsInLineContinuation(text) {
		return false
	}

	var st scanState
	lines := strings.Split(text, "\n")
	lastSyntaxLine := ""

	for _, line := range lines {
		if len(st.pending) > 0 {
			candidate := line
			if st.pending[0].strip {
				candidate = strings.TrimLeft(candidate, "\t")
			}
			if candidate == st.pending[0].delim {
				st.pending = st.pending[1:]
			}
			continue
		}
		lastSyntaxLine = line
		scanLine(line, &st)
	}

	switch {
	case st.inSingle, st.inDouble, st.inBacktick:
		return false
	case st.parenDepth > 0, st.braceDepth > 0, st.bracketDepth > 0:
		return false
	case len(st.pending) > 0:
		return false
	case st.controlDepth > 0:
		return false
	case hasTrailingOperator(lastSyntaxLine):
		return false
	}
	return true
}

// endsInLineContinuation reports whether text ends (after stripping one
// trailing newline, the shape a freshly Entered line arrives in) with an
// odd run of backslashes: an escaped trailing backslash doesn't count.
func endsInLineContinuation(text string) bool {
	t := strings.TrimSuffix(text, "\n")
	count := 0
	for i := len(t) - 1; i >= 0 && t[i] == '\\'; i-- {
		count++
	}
	return count%2 == 1
}

func hasTrailingOperator(line string) bool {
	t := strings.TrimRight(line, " \t")
	return strings.HasSuffix(t, "&&") || strings.HasSuffix(t, "||") ||
		strings.HasSuffix(t, "|&") || strings.HasSuffix(t, "|")
}

// scanLine walks one physical (non-heredoc-body) line, updating st in
// place: quote/backtick state, paren/brace/bracket depth, control
// keyword balance, and any heredoc operators it finds.
func scanLine(line string, st *scanState) {
	var word strings.Builder
	flushWord := func() {
		w := word.String()
		word.Reset()
		if w == "" {
			return
		}
		switch {
		case openKeywords[w]:
			st.controlDepth++
		case closeKeywords[w]:
			if st.controlDepth > 0 {
				st.controlDepth--
			}
		}
	}

	i := 0
	n := len(line)
	for i < n {
		c := line[i]

		if st.inSingle {
			if c == '\'' {
				st.inSingle = false
			}
			i++
			continue
		}
		if c == '\\' && i+1 < n {
			i += 2
			continue
		}
		if st.inDouble {
			if c == '"' {
				st.inDouble = false
			}
			i++
			continue
		}
		if st.inBacktick {
			if c == '`' {
				st.inBacktick = false
			}
			i++
			continue
		}

		switch {
		case c == '\'':
			flushWord()
			st.inSingle = true
			i++
		case c == '"':
			flushWord()
			st.inDouble = true
			i++
		case c == '`':
			flushWord()
			st.inBacktick = true
			i++
		case c == '(':
			flushWord()
			st.parenDepth++
			i++
		case c == ')':
			flushWord()
			if st.parenDepth > 0 {
				st.parenDepth--
			}
			i++
		case c == '{':
			flushWord()
			st.braceDepth++
			i++
		case c == '}':
			flushWord()
			if st.braceDepth > 0 {
				st.braceDepth--
			}
			i++
		case c == '[':
			flushWord()
			st.bracketDepth++
			i++
		case c == ']':
			flushWord()
			if st.bracketDepth > 0 {
				st.bracketDepth--
			}
			i++
		case c == '<' && i+2 < n && line[i+1] == '<' && line[i+2] == '<':
			// Here-string, not a heredoc: no delimiter to wait for.
			flushWord()
			i += 3
		case c == '<' && i+1 < n && line[i+1] == '<':
			flushWord()
			delim, strip, next := parseHeredocDelimiter(line, i+2)
			if delim != "" {
				st.pending = append(st.pending, pendingHeredoc{delim: delim, strip: strip})
			}
			i = next
		case isWordBoundary(c):
			flushWord()
			i++
		default:
			word.WriteByte(c)
			i++
		}
	}
	flushWord()
}

func isWordBoundary(c byte) bool {
	switch c {
	case ' ', '\t', ';', '|', '&', '<', '>', '$':
		return true
	}
	return false
}

// parseHeredocDelimiter reads a heredoc operator's delimiter word
// starting just after the `<<`, handling the `-` (tab-stripping) flag,
// an optionally quoted delimiter, and a backslash-escaped delimiter. It
// returns the unquoted delimiter text, the strip flag, and the offset to
// resume scanning from.
func parseHeredocDelimiter(line string, pos int) (string, bool, int) {
	n := len(line)
	strip := false
	if pos < n && line[pos] == '-' {
		strip = true
		pos++
	}
	for pos < n && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}
	if pos >= n {
		return "", strip, pos
	}
	if line[pos] == '\'' || line[pos] == '"' {
		quote := line[pos]
		start := pos + 1
		end := strings.IndexByte(line[start:], quote)
		if end < 0 {
			return line[start:], strip, n
		}
		return line[start : start+end], strip, start + end + 1
	}
	if line[pos] == '\\' && pos+1 < n {
		pos++
	}
	start := pos
	for pos < n && !isWordBoundary(line[pos]) && line[pos] != '(' && line[pos] != ')' {
		pos++
	}
	return line[start:pos], strip, pos
}
