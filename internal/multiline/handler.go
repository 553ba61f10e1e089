package multiline

import "fmt"

// LineReader is the minimal surface a Handler needs from whatever reads
// one physical line of interactive input (a readline-style line editor,
// a bufio.Scanner over a script file, or a test double). ReadLine
// returns ("", false) on EOF.
type LineReader interface {
	ReadLine(prompt string) (string, bool)
}

// Handler assembles physical lines into complete logical commands,
// prompting with PS1 for the first line of a command and PS2 for every
// continuation line.
type Handler struct {
	reader     LineReader
	classifier *Classifier
	buffer     *Buffer

	// PS1/PS2 are resolved lazily on every prompt so live edits to the
	// shell's environment (via a builtin `PS1=...` assignment) take
	// effect on the very next line read.
	PS1 func() string
	PS2 func() string
}

// NewHandler builds a Handler reading lines from r, with the given
// prompt providers. Either provider may be nil, in which case a fixed
// "$ " / "> " is used.
func NewHandler(r LineReader, ps1, ps2 func() string) *Handler {
	if ps1 == nil {
		ps1 = func() string { return "$ " }
	}
	if ps2 == nil {
		ps2 = func() string { return "> " }
	}
	return &Handler{
		reader:     r,
		classifier: NewClassifier(),
		buffer:     NewBuffer(),
		PS1:        ps1,
		PS2:        ps2,
	}
}

// ErrUnexpectedEOF is returned by ReadCommand when EOF arrives in the
// middle of an incomplete logical command, the multi-line analogue of
// bash's "syntax error: unexpected end of file".
var ErrUnexpectedEOF = fmt.Errorf("psh: syntax error: unexpected end of file")

// ReadCommand reads and assembles one complete logical command, prompting
// as many times as necessary. It returns ("", false, nil) on a clean EOF
// with no partial input buffered, and a non-nil error if EOF arrives
// mid-command.
func (h *Handler) ReadCommand() (string, bool, error) {
	h.buffer.Reset()
	for {
		prompt := h.prompt()
		line, ok := h.reader.ReadLine(prompt)
		if !ok {
			if h.buffer.Empty() {
				return "", false, nil
			}
			return "", false, ErrUnexpectedEOF
		}
		h.buffer.Add(line)
		joined := h.buffer.String()
		if h.classifier.IsComplete(joined) {
			return joined, true, nil
		}
	}
}

func (h *Handler) prompt() string {
	if h.buffer.Empty() {
		return h.PS1()
	}
	return h.PS2()
}
