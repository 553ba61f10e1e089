package lexer

// Config enumerates the feature flags and modes that gate which
// recognizers and expansion forms are active during a tokenization run.
type Config struct {
	DoubleQuotes        bool
	SingleQuotes        bool
	Backticks           bool
	VariableExpansion   bool
	BraceExpansion      bool
	ParameterExpansion  bool
	CommandSubstitution bool
	ArithmeticExpansion bool
	Pipes               bool
	Redirections        bool
	Heredocs            bool
	Background          bool
	LogicalOperators    bool
	CompoundCommands    bool // [[ ]], (( ))
	ProcessSubstitution bool
	RegexOperator       bool
	TildeExpansion      bool
	GlobPatterns        bool
	Extglob             bool
	Comments            bool
	VariableAssignment  bool

	POSIXMode          bool
	UnicodeIdentifiers bool
	CaseSensitive      bool
	StrictMode         bool
	RecoveryMode       bool
	MaxErrors          int
	BashCompatibility  bool
	ShCompatibility    bool
}

// defaultConfig is the baseline every preset starts from: every feature
// except extglob enabled, non-POSIX, case-sensitive, strict (first error
// aborts).
func defaultConfig() Config {
	return Config{
		DoubleQuotes:        true,
		SingleQuotes:        true,
		Backticks:           true,
		VariableExpansion:   true,
		BraceExpansion:      true,
		ParameterExpansion:  true,
		CommandSubstitution: true,
		ArithmeticExpansion: true,
		Pipes:               true,
		Redirections:        true,
		Heredocs:            true,
		Background:          true,
		LogicalOperators:    true,
		CompoundCommands:    true,
		ProcessSubstitution: true,
		RegexOperator:       true,
		TildeExpansion:      true,
		GlobPatterns:        true,
		Extglob:             false,
		Comments:            true,
		VariableAssignment:  true,
		UnicodeIdentifiers:  true,
		CaseSensitive:       true,
		StrictMode:          true,
		RecoveryMode:        false,
		MaxErrors:           1,
		BashCompatibility:   true,
	}
}

// InteractivePreset favors recovery over aborting: a bad token in a
// REPL shouldn't kill the session.
func InteractivePreset() Config {
	c := defaultConfig()
	c.StrictMode = false
	c.RecoveryMode = true
	c.MaxErrors = 20
	return c
}

// BatchPreset aborts on the first lexical error, appropriate for script
// execution where partial results are worse than a clean failure.
func BatchPreset() Config {
	c := defaultConfig()
	c.StrictMode = true
	c.RecoveryMode = false
	c.MaxErrors = 1
	return c
}

// PerformancePreset trims the feature surface that's rarely exercised in
// hot loops (process substitution, extglob). The recognizer pipeline
// itself is the same as in every other preset; the process-substitution
// recognizer just declines at once.
func PerformancePreset() Config {
	c := defaultConfig()
	c.ProcessSubstitution = false
	c.Extglob = false
	c.RecoveryMode = false
	return c
}

// DebugPreset is the interactive preset with an unbounded error budget,
// useful when exercising the recovery path itself.
func DebugPreset() Config {
	c := InteractivePreset()
	c.MaxErrors = 1 << 30
	return c
}

// POSIXPreset sets POSIXMode, restricts whitespace to ASCII and disables
// the bash-only compound commands and extensions. The recognizers do not
// read POSIXMode: identifier scanning stays Unicode-aware under this
// preset too.
func POSIXPreset() Config {
	c := defaultConfig()
	c.POSIXMode = true
	c.UnicodeIdentifiers = false
	c.CompoundCommands = false
	c.ProcessSubstitution = false
	c.Extglob = false
	c.BashCompatibility = false
	c.ShCompatibility = true
	return c
}
