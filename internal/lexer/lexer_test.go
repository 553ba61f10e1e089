package lexer

import (
	"testing"

	"github.com/xyproto/psh/internal/token"
)

func tokenTypes(toks []token.Token) []token.Type {
	var out []token.Type
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func assertTypes(t *testing.T, got []token.Token, want ...token.Type) {
	t.Helper()
	gotTypes := tokenTypes(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", gotTypes, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, gotTypes[i], want[i], gotTypes)
		}
	}
}

func TestTokenizeSimpleCommand(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("echo hello")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.EOF)
}

func TestTokenizePipeline(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("ls -la | grep foo")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.PIPE, token.WORD, token.WORD, token.EOF)
}

func TestTokenizeRedirections(t *testing.T) {
	t.Run("simple redirects", func(t *testing.T) {
		l := New(defaultConfig())
		toks, errs := l.Tokenize("cmd < in > out")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		assertTypes(t, toks, token.WORD, token.REDIRECT_IN, token.WORD, token.REDIRECT_OUT, token.WORD, token.EOF)
	})

	t.Run("fd-prefixed redirect carries FD", func(t *testing.T) {
		l := New(defaultConfig())
		toks, _ := l.Tokenize("cmd 2>&1")
		var found bool
		for _, tok := range toks {
			if tok.Type == token.REDIRECT_DUP {
				found = true
				if !tok.HasFD || tok.FD != 2 {
					t.Fatalf("expected fd=2, got %+v", tok)
				}
			}
		}
		if !found {
			t.Fatalf("expected a REDIRECT_DUP token, got %v", tokenTypes(toks))
		}
	})

	t.Run("append redirect", func(t *testing.T) {
		l := New(defaultConfig())
		toks, errs := l.Tokenize("cmd >> out")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		assertTypes(t, toks, token.WORD, token.REDIRECT_APPEND, token.WORD, token.EOF)
	})
}

func TestTokenizeLogicalOperators(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("true && false || echo done")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks,
		token.WORD, token.AND_AND, token.WORD, token.OR_OR, token.WORD, token.WORD, token.EOF)
}

func TestTokenizeIfStatement(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("if true; then echo hi; fi")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks,
		token.IF, token.WORD, token.SEMICOLON, token.THEN, token.WORD, token.WORD,
		token.SEMICOLON, token.FI, token.EOF)
}

func TestTokenizeDoubleQuotedWordWithVariable(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize(`echo "hello $USER"`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %v", tokenTypes(toks))
	}
	word := toks[1]
	if !word.IsComposite() {
		t.Fatalf("expected a composite STRING token, got %+v", word)
	}
	if word.QuoteType != token.QuoteDouble {
		t.Fatalf("expected QuoteDouble, got %v", word.QuoteType)
	}
	var sawVar bool
	for _, p := range word.Parts {
		if p.IsVariable && p.Value == "$USER" {
			sawVar = true
		}
	}
	if !sawVar {
		t.Fatalf("expected a $USER variable part, got %+v", word.Parts)
	}
}

func TestTokenizeWordTypeClassification(t *testing.T) {
	l := New(defaultConfig())
	cases := []struct {
		in   string
		want token.Type
	}{
		{`echo "hello world"`, token.STRING},
		{`echo 'literal'`, token.STRING},
		{`echo $USER`, token.VARIABLE},
		{`echo ${USER}`, token.VARIABLE},
		{`echo $(date)`, token.COMMAND_SUB},
		{"echo `date`", token.COMMAND_SUB_BACKTICK},
		{`echo $((1 + 2))`, token.ARITH_EXPANSION},
		{`echo plain`, token.WORD},
		{`echo pre"fix"`, token.WORD},
	}
	for _, tc := range cases {
		toks, errs := l.Tokenize(tc.in)
		if len(errs) != 0 {
			t.Fatalf("Tokenize(%q): unexpected errors: %v", tc.in, errs)
		}
		if toks[1].Type != tc.want {
			t.Errorf("Tokenize(%q): token 1 = %s, want %s", tc.in, toks[1].Type, tc.want)
		}
	}
}

func TestTokenizeSingleQuoteNoExpansion(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize(`echo '$USER'`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	word := toks[1]
	if word.Value != "$USER" {
		t.Fatalf("expected literal $USER, got %q", word.Value)
	}
	for _, p := range word.Parts {
		if p.IsExpansion {
			t.Fatalf("single-quoted text must not expand, got %+v", p)
		}
	}
}

func TestTokenizeUnclosedDoubleQuoteIsError(t *testing.T) {
	l := New(BatchPreset())
	_, errs := l.Tokenize(`echo "unterminated`)
	if len(errs) == 0 {
		t.Fatalf("expected a lexical error for an unterminated quote")
	}
}

func TestTokenizeArithmeticExpansion(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("echo $((1 + 2))")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	word := toks[1]
	var sawArith bool
	for _, p := range word.Parts {
		if p.ExpansionType == token.ExpArithmetic {
			sawArith = true
		}
	}
	if !sawArith {
		t.Fatalf("expected an arithmetic expansion part, got %+v", word.Parts)
	}
}

func TestTokenizeBackgroundOperator(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("sleep 1 &")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.AMPERSAND, token.EOF)
}

func TestTokenizeProcessSubstitution(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("diff <(sort a) <(sort b)")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.PROCESS_SUB_IN, token.PROCESS_SUB_IN, token.EOF)
}

func TestTokenizeVariableAssignment(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("FOO=bar echo hi")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Value != "FOO=bar" {
		t.Fatalf("expected assignment token %q, got %q", "FOO=bar", toks[0].Value)
	}

	t.Run("empty value", func(t *testing.T) {
		toks, errs := l.Tokenize("FOO= cmd")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if toks[0].Value != "FOO=" {
			t.Fatalf("expected %q, got %q", "FOO=", toks[0].Value)
		}
	})

	t.Run("array assignment", func(t *testing.T) {
		toks, errs := l.Tokenize("arr[0]=v")
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if toks[0].Type != token.WORD || toks[0].Value != "arr[0]=v" {
			t.Fatalf("expected one WORD %q, got %s %q", "arr[0]=v", toks[0].Type, toks[0].Value)
		}
	})

	t.Run("quoted assignment value", func(t *testing.T) {
		toks, errs := l.Tokenize(`FOO="a b"`)
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if toks[0].Value != "FOO=a b" {
			t.Fatalf("expected %q, got %q", "FOO=a b", toks[0].Value)
		}
	})
}

func TestTokenizeCommentIsSkipped(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("echo hi # trailing comment")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.EOF)

	toks, errs = l.Tokenize("# whole-line comment")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.EOF)
}

func TestTokenizeFDRedirectValueText(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("cmd 2>&1 >log")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.REDIRECT_DUP, token.REDIRECT_OUT, token.WORD, token.EOF)
	if toks[1].Value != "2>&1" {
		t.Fatalf("expected REDIRECT_DUP value %q, got %q", "2>&1", toks[1].Value)
	}

	toks, _ = l.Tokenize("cmd 3>>log")
	if toks[1].Type != token.REDIRECT_APPEND || toks[1].FD != 3 {
		t.Fatalf("expected REDIRECT_APPEND fd=3, got %s fd=%d", toks[1].Type, toks[1].FD)
	}
	toks, _ = l.Tokenize("cmd 2>>log")
	if toks[1].Type != token.REDIRECT_ERR_APPEND || toks[1].FD != 2 {
		t.Fatalf("expected REDIRECT_ERR_APPEND fd=2, got %s fd=%d", toks[1].Type, toks[1].FD)
	}
}

func TestTokenizeForLoop(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("for i in 1 2 3; do echo $i; done")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks,
		token.FOR, token.WORD, token.IN, token.WORD, token.WORD, token.WORD,
		token.SEMICOLON, token.DO, token.WORD, token.VARIABLE,
		token.SEMICOLON, token.DONE, token.EOF)
}

func TestTokenizeInIsOnlyReservedAfterForOrCase(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("in the beginning")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.WORD, token.EOF)

	toks, _ = l.Tokenize("case $x in foo) echo hi;; esac")
	if toks[2].Type != token.IN {
		t.Fatalf("expected IN after `case $x`, got %s", toks[2].Type)
	}
}

func TestTokenizeDoubleBracketComparison(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("[[ a < b ]]")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks,
		token.DOUBLE_LBRACKET, token.WORD, token.WORD, token.WORD, token.DOUBLE_RBRACKET, token.EOF)
	if toks[2].Value != "<" {
		t.Fatalf("expected < as a WORD inside [[ ]], got %q", toks[2].Value)
	}
}

func TestTokenizeRegexMatchOperator(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize(`[[ $x =~ ^[0-9]+$ ]]`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var sawRegex bool
	var pattern string
	for i, tok := range toks {
		if tok.Type == token.REGEX_MATCH {
			sawRegex = true
			if i+1 < len(toks) {
				pattern = toks[i+1].Value
			}
		}
	}
	if !sawRegex {
		t.Fatalf("expected a REGEX_MATCH token, got %v", tokenTypes(toks))
	}
	if pattern != "^[0-9]+$" {
		t.Fatalf("expected the regex pattern as one word, got %q", pattern)
	}
}

func TestTokenizeUnquotedEscapes(t *testing.T) {
	l := New(defaultConfig())

	toks, errs := l.Tokenize(`echo a\ b`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertTypes(t, toks, token.WORD, token.WORD, token.EOF)
	if toks[1].Value != "a b" {
		t.Fatalf("expected escaped space kept in one word, got %q", toks[1].Value)
	}

	toks, _ = l.Tokenize(`echo \$HOME`)
	word := toks[1]
	var sawLiteralDollar bool
	for _, p := range word.Parts {
		if p.LiteralDollar {
			sawLiteralDollar = true
		}
		if p.IsExpansion {
			t.Fatalf("escaped dollar must not expand, got %+v", p)
		}
	}
	if !sawLiteralDollar {
		t.Fatalf("expected a LiteralDollar part, got %+v", word.Parts)
	}
}

func TestTokenizeANSICQuoting(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize(`echo $'a\tb\n'`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	word := toks[1]
	if word.Value != "a\tb\n" {
		t.Fatalf("expected C escapes processed, got %q", word.Value)
	}
	if word.QuoteType != token.QuoteANSIC {
		t.Fatalf("expected QuoteANSIC, got %v", word.QuoteType)
	}
}

func TestTokenizeUnclosedConstructsAreErrors(t *testing.T) {
	cases := []string{
		"echo 'unterminated",
		"echo `unterminated",
		"echo $(unterminated",
		"echo ${unterminated",
	}
	for _, in := range cases {
		l := New(BatchPreset())
		_, errs := l.Tokenize(in)
		if len(errs) == 0 {
			t.Errorf("Tokenize(%q): expected an unterminated-construct error", in)
		}
	}
}

func TestPositionTrackingAcrossLines(t *testing.T) {
	l := New(defaultConfig())
	toks, errs := l.Tokenize("echo one\necho two")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var sawLine2 bool
	for _, tok := range toks {
		if tok.Start.Line == 2 {
			sawLine2 = true
		}
	}
	if !sawLine2 {
		t.Fatalf("expected at least one token on line 2, got %+v", toks)
	}
}
