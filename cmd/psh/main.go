// Command psh is a minimal driver that wires the lexer, multi-line input
// assembler, job-control manager, process launcher, subshell executor, and
// signal/terminal manager into a runnable loop. It is deliberately not a
// full shell: parsing beyond one flat pipeline, variable/glob/arithmetic
// expansion, and built-in commands beyond the handful needed to exercise
// job control all belong to a parser/expander/REPL layer built on top of
// this module. What's here is enough to read a line, tokenize it, and
// run it as a simple command or pipeline with working Ctrl-Z/fg/bg/jobs
// semantics.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/xyproto/psh/internal/clog"
	"github.com/xyproto/psh/internal/job"
	"github.com/xyproto/psh/internal/launcher"
	"github.com/xyproto/psh/internal/lexer"
	"github.com/xyproto/psh/internal/multiline"
	"github.com/xyproto/psh/internal/shellcfg"
	"github.com/xyproto/psh/internal/subshell"
	"github.com/xyproto/psh/internal/termsig"
	"github.com/xyproto/psh/internal/token"
)

const versionString = "psh 0.1.0"

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information and exit")
		verbose     = flag.Bool("v", false, "verbose mode: dump the token stream for each command before running it")
		posix       = flag.Bool("posix", false, "use POSIX-mode lexer rules instead of the bash-compatible default")
		command     = flag.String("c", "", "execute a single command string and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString)
		os.Exit(0)
	}

	handler := clog.NewAttributesHandler(clog.NewColorHandler(os.Stderr, slog.LevelInfo))
	logger := slog.New(handler)

	cfg, err := shellcfg.Load()
	if err != nil {
		logger.Error("failed to load shell environment", "error", err)
		os.Exit(1)
	}

	lexCfg := lexer.InteractivePreset()
	if *posix {
		lexCfg = lexer.POSIXPreset()
	}

	sh := newShell(lexCfg, cfg, logger)
	sh.verbose = *verbose
	defer sh.sig.Stop()

	if *command != "" {
		sh.runText(context.Background(), *command)
		os.Exit(sh.lastExit)
	}

	interactive := isTerminal(os.Stdin.Fd())
	if interactive {
		termsig.EnsureForeground()
		sh.sig.Start()
		sh.runInteractive(os.Stdin, os.Stdout)
	} else {
		sh.runScript(os.Stdin)
	}
	os.Exit(sh.lastExit)
}

// shell bundles the pieces this module provides into the thin driver a
// real REPL/parser would otherwise own.
type shell struct {
	lexCfg    lexer.Config
	lex       *lexer.Lexer
	env       *shellcfg.Env
	jobs      *job.Manager
	launch    *launcher.Launcher
	subshells *subshell.Executor
	sig       *termsig.Manager
	logger    *slog.Logger
	verbose   bool
	lastExit  int
}

func newShell(lexCfg lexer.Config, env *shellcfg.Env, logger *slog.Logger) *shell {
	jobs := job.NewManager()
	jobs.Notify = true

	sig := termsig.New(termsig.InteractiveMode, jobs)
	sig.OnSignal = func(s os.Signal) {
		fmt.Fprintln(os.Stderr)
	}

	return &shell{
		lexCfg:    lexCfg,
		lex:       lexer.New(lexCfg),
		env:       env,
		jobs:      jobs,
		launch:    launcher.New(jobs),
		subshells: subshell.New(jobs, os.Stderr),
		sig:       sig,
		logger:    logger,
	}
}

// scannerLineReader adapts a bufio.Scanner to multiline.LineReader,
// writing the prompt before each read the way a real line editor would
// before showing its own prompt.
type scannerLineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerLineReader) ReadLine(prompt string) (string, bool) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

// runInteractive reads lines from in, assembling multi-line commands with
// multiline.Handler (PS1 for a fresh command, PS2 for continuation lines),
// and running each completed command as it's recognized.
func (sh *shell) runInteractive(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	handler := multiline.NewHandler(&scannerLineReader{scanner: scanner, out: out},
		func() string { return sh.env.PS1 },
		func() string { return sh.env.PS2 },
	)

	for {
		sh.jobs.NotifyCompletedJobs(func(line string) { fmt.Fprintln(out, line) })

		text, ok, err := handler.ReadCommand()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if !ok {
			return
		}
		sh.runText(context.Background(), text)
	}
}

// runScript reads in to EOF and runs it as one batch of statements,
// matching how a non-interactive shell invocation (`psh < script`) behaves:
// no prompts, and a lexical error aborts the remaining input.
func (sh *shell) runScript(in io.Reader) {
	data, err := io.ReadAll(in)
	if err != nil {
		sh.logger.Error("failed to read script", "error", err)
		sh.lastExit = 1
		return
	}
	sh.runText(context.Background(), string(data))
}

// runText tokenizes text and runs every statement it contains in order.
// If the lexer reports any error, nothing in text is run and the exit
// status is 2.
func (sh *shell) runText(ctx context.Context, text string) {
	toks, errs := sh.lex.Tokenize(text)
	if sh.verbose {
		for _, t := range toks {
			fmt.Fprintf(os.Stderr, "  %-16s %q\n", t.Type, t.Value)
		}
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if len(errs) > 0 {
		sh.lastExit = 2
		return
	}

	for _, stmt := range splitStatements(toks) {
		sh.runStatement(clog.WithAttributes(ctx), stmt)
	}
}

// statement is one `;`/newline-separated unit: a pipeline of one or more
// commands, plus whether it was suffixed with `&`.
type statement struct {
	pipeline   [][]string
	background bool
}

// splitStatements walks a flat token stream into statements, splitting on
// SEMICOLON/NEWLINE/EOF and further splitting each statement's pipeline on
// PIPE. It understands exactly this much of shell grammar: every other
// token (redirections, &&/||, compound-command operators, reserved words)
// is dropped without a diagnostic, and the words around it join the
// current command.
func splitStatements(toks []token.Token) []statement {
	var stmts []statement
	var pipeline [][]string
	var words []string
	background := false

	flushCommand := func() {
		if len(words) > 0 {
			pipeline = append(pipeline, words)
			words = nil
		}
	}
	flushStatement := func() {
		flushCommand()
		if len(pipeline) > 0 {
			stmts = append(stmts, statement{pipeline: pipeline, background: background})
		}
		pipeline = nil
		background = false
	}

	for _, t := range toks {
		switch t.Type {
		case token.WORD, token.STRING, token.VARIABLE, token.COMMAND_SUB,
			token.COMMAND_SUB_BACKTICK, token.ARITH_EXPANSION:
			words = append(words, t.Value)
		case token.PIPE:
			flushCommand()
		case token.AMPERSAND:
			background = true
		case token.SEMICOLON, token.NEWLINE, token.EOF:
			flushStatement()
		default:
			// Redirections, compound-command operators, and reserved
			// words aren't interpreted by this demo driver.
		}
	}
	flushStatement()
	return stmts
}

// runStatement runs one pipeline, handling the handful of built-ins a
// job-control demo needs directly (cd changes the driver's own working
// directory and can't be delegated to a child process; exit/jobs/fg/bg/wait
// talk straight to job.Manager) and deferring everything else to
// launcher.Launcher.
func (sh *shell) runStatement(ctx context.Context, stmt statement) {
	if len(stmt.pipeline) == 1 {
		switch stmt.pipeline[0][0] {
		case "cd":
			sh.lastExit = sh.builtinCd(stmt.pipeline[0][1:])
			return
		case "exit":
			sh.builtinExit(stmt.pipeline[0][1:])
			return
		case "jobs":
			for _, line := range sh.jobs.ListJobs() {
				fmt.Println(line)
			}
			sh.lastExit = 0
			return
		case "fg":
			sh.lastExit = sh.builtinFg(stmt.pipeline[0][1:])
			return
		case "bg":
			sh.lastExit = sh.builtinBg(stmt.pipeline[0][1:])
			return
		case "wait":
			sh.lastExit = sh.builtinWait(stmt.pipeline[0][1:])
			return
		}
	}

	if len(stmt.pipeline) == 1 {
		sh.lastExit = sh.runSingle(ctx, stmt.pipeline[0], stmt.background)
		return
	}
	sh.lastExit = sh.runPipeline(ctx, stmt.pipeline, stmt.background)
}

func (sh *shell) runSingle(ctx context.Context, argv []string, background bool) int {
	clog.AddAttribute(ctx, "command", argv[0])
	j, cmd, err := sh.launch.LaunchJob(launcher.Config{
		Command:    argv[0],
		Args:       argv[1:],
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Foreground: !background,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	j.Foreground = !background
	clog.AddJob(ctx, j.ID, j.Pgid)

	if background {
		sh.logger.InfoContext(ctx, "started background job", "job_id", j.ID, "pgid", j.Pgid, "command", j.Command)
		return 0
	}

	status := sh.jobs.WaitForJob(j)
	sh.jobs.SetForegroundJob(nil)
	if j.State == job.Done {
		sh.jobs.RemoveJob(j.ID)
	}
	_ = cmd
	return status
}

// runPipeline launches every stage of a pipeline connected by os.Pipe,
// joins them into one process group (the first stage becomes the leader,
// the rest join it), and registers the whole pipeline as a single job.
func (sh *shell) runPipeline(ctx context.Context, pipeline [][]string, background bool) int {
	n := len(pipeline)
	cmds := make([]launcher.Config, n)
	pipes := make([]*os.File, 0, (n-1)*2)

	var prevRead *os.File
	for i, argv := range pipeline {
		cfg := launcher.Config{
			Command: argv[0],
			Args:    argv[1:],
			Stdin:   os.Stdin,
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
		}
		if i > 0 {
			cfg.Stdin = prevRead
		}
		if i < n-1 {
			r, w, err := os.Pipe()
			if err != nil {
				fmt.Fprintln(os.Stderr, "psh: pipe:", err)
				return 1
			}
			cfg.Stdout = w
			pipes = append(pipes, r, w)
			prevRead = r
		}
		cfg.Role = launcher.PipelineMember
		if i == 0 {
			cfg.Role = launcher.PipelineLeader
		}
		cmds[i] = cfg
	}

	var j *job.Job
	pgid := 0
	for i, cfg := range cmds {
		cfg.Pgid = pgid
		cmd, pid, err := sh.launch.Launch(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			closeAll(pipes)
			return exitCodeFor(err)
		}
		if i == 0 {
			pgid = pid
			j = sh.jobs.CreateJob(pgid, pipelineCommandString(pipeline))
			j.Foreground = !background
		}
		j.AddProcess(pid, cfg.Command)
		_ = cmd
	}
	closeAll(pipes)

	if background {
		clog.AddJob(ctx, j.ID, j.Pgid)
		sh.logger.InfoContext(ctx, "started background pipeline", "job_id", j.ID, "pgid", j.Pgid)
		return 0
	}

	sh.jobs.SetForegroundJob(j)
	status := sh.jobs.WaitForJob(j)
	sh.jobs.SetForegroundJob(nil)
	if j.State == job.Done {
		sh.jobs.RemoveJob(j.ID)
	}
	return status
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func pipelineCommandString(pipeline [][]string) string {
	parts := make([]string, len(pipeline))
	for i, argv := range pipeline {
		parts[i] = strings.Join(argv, " ")
	}
	return strings.Join(parts, " | ")
}

func exitCodeFor(err error) int {
	var lerr *launcher.LaunchError
	if ok := castLaunchError(err, &lerr); ok && lerr.NotFound {
		return 127
	}
	return 126
}

func castLaunchError(err error, target **launcher.LaunchError) bool {
	if le, ok := err.(*launcher.LaunchError); ok {
		*target = le
		return true
	}
	return false
}

func (sh *shell) builtinCd(args []string) int {
	dir := sh.env.Home
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "psh: cd: HOME not set")
		return 1
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintln(os.Stderr, "psh: cd:", err)
		return 1
	}
	return 0
}

func (sh *shell) builtinExit(args []string) {
	code := sh.lastExit
	if len(args) > 0 {
		fmt.Sscanf(args[0], "%d", &code)
	}
	sh.sig.Stop()
	os.Exit(code)
}

func (sh *shell) builtinFg(args []string) int {
	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	j := sh.jobs.ParseJobSpec(spec)
	if j == nil {
		fmt.Fprintln(os.Stderr, "psh: fg: no such job")
		return 1
	}
	j.Foreground = true
	sh.jobs.SetForegroundJob(j)
	if j.State == job.Stopped {
		if err := sh.jobs.ContinueJob(j); err != nil {
			fmt.Fprintln(os.Stderr, "psh: fg:", err)
		}
	}
	status := sh.jobs.WaitForJob(j)
	sh.jobs.SetForegroundJob(nil)
	if j.State == job.Done {
		sh.jobs.RemoveJob(j.ID)
	}
	return status
}

func (sh *shell) builtinBg(args []string) int {
	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	j := sh.jobs.ParseJobSpec(spec)
	if j == nil {
		fmt.Fprintln(os.Stderr, "psh: bg: no such job")
		return 1
	}
	j.Foreground = false
	if j.State == job.Stopped {
		if err := sh.jobs.ContinueJob(j); err != nil {
			fmt.Fprintln(os.Stderr, "psh: bg:", err)
			return 1
		}
	}
	fmt.Printf("[%d] %s\n", j.ID, j.Command)
	return 0
}

func (sh *shell) builtinWait(args []string) int {
	if len(args) == 0 {
		results := sh.jobs.WaitAll()
		status := 0
		for _, code := range results {
			status = code
		}
		return status
	}
	j := sh.jobs.ParseJobSpec(args[0])
	if j == nil {
		fmt.Fprintln(os.Stderr, "psh: wait:", args[0], ": no such job")
		return 127
	}
	return sh.jobs.WaitForJob(j)
}

// isTerminal reports whether fd is attached to a controlling terminal,
// the same ioctl probe internal/job uses to decide whether terminal-ownership
// transfer applies at all.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), ioctlGetTermios)
	return err == nil
}
