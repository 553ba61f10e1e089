// Package shellapi declares the thin interfaces this module's core
// (lexer, multi-line input, job control, launcher, subshell executor)
// is consumed through by the parser, built-ins, expander, and REPL glue
// layered on top of it. Nothing in this package has logic of its own —
// it exists so those external collaborators and this module agree on a
// contract without either depending on the other's internals.
package shellapi

import (
	"github.com/xyproto/psh/internal/job"
	"github.com/xyproto/psh/internal/token"
)

// Config is whatever the lexer needs to tokenize; implemented by
// lexer.Config so external callers can hold this interface without
// importing the lexer package's concrete type when they only need to
// pass it through.
type Config interface{}

// Tokenizer is the parser's view of the lexer: tokenize produces a
// finite stream ending in an EOF token.
type Tokenizer interface {
	Tokenize(input string) (tokens []token.Token, errs []error)
}

// Builtin is the signature every built-in command implements: args
// excludes the command name itself, shell is the thin State surface
// below.
type Builtin func(args []string, shell State) int

// JobControl is the subset of job.Manager built-ins are allowed to
// call directly: parse a job spec, list/inspect/remove jobs, wait for
// one, and move one to the foreground.
type JobControl interface {
	ParseJobSpec(spec string) *job.Job
	ListJobs() []string
	GetJob(id int) *job.Job
	RemoveJob(id int)
	WaitForJob(j *job.Job) int
	SetForegroundJob(j *job.Job)
}

// IOManager is the redirection surface built-ins and the executor use
// to apply and later undo `>`, `<`, `>>`, fd-duplication, etc. SavedFD
// is opaque to callers — it only needs to round-trip through Restore.
type IOManager interface {
	ApplyRedirections(redirects []Redirect) (saved []SavedFD, err error)
	RestoreRedirections(saved []SavedFD) error
}

// Redirect is the minimal shape an IOManager needs to apply one
// redirection; the AST node the parser actually produces carries more
// (e.g. a Word to expand for the target), but only these resolved
// fields cross into this module's scope.
type Redirect struct {
	Kind   token.Type // REDIRECT_IN, REDIRECT_OUT, REDIRECT_APPEND, REDIRECT_DUP, HEREDOC, HERE_STRING, ...
	FD     int
	HasFD  bool
	Target string
}

// SavedFD is an opaque fd-table entry an IOManager can restore later.
type SavedFD struct {
	FD       int
	DupOf    int
	HasDupOf bool
}

// State is the shell-state surface a Builtin observes: variables/env/
// positional params/last exit code/options, plus the job and IO
// managers. The concrete implementation (variable scoping, option
// parsing, the expander) lives entirely outside this module.
type State interface {
	Variables() map[string]string
	Env() map[string]string
	PositionalParams() []string
	LastExitCode() int
	SetLastExitCode(code int)
	Option(name string) bool

	Jobs() JobControl
	IO() IOManager
}

// Exit codes a Builtin or the launcher may return.
const (
	ExitSuccess       = 0
	ExitFailure       = 1
	ExitUsageError    = 2
	ExitNotExecutable = 126
	ExitNotFound      = 127
	ExitSIGINT        = 130
)

// ExitForSignal computes the conventional 128+N exit status for a
// process terminated by signal N.
func ExitForSignal(n int) int { return 128 + n }
