// Package launcher starts external commands as tracked jobs: it joins
// the new process to the right process group (pipeline leader, pipeline
// member, or a standalone single command), wires stdio/fds, and hands
// off to job.Manager for tracking.
//
// Where the reference shell forks and does this setup by hand in the
// child after fork(), this package leans on os/exec and
// syscall.SysProcAttr{Setpgid, Pgid}: the exec family already performs
// the fork+exec dance and lets the kernel assign the process group
// before the child's first instruction runs, which sidesteps the
// fork-then-race-to-setpgid synchronization pipe the original needs.
package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/xyproto/psh/internal/job"
)

// Role is a process's position within a pipeline, mirroring the
// reference shell's ProcessRole.
type Role int

const (
	Single Role = iota
	PipelineLeader
	PipelineMember
)

// Config describes how to start one process.
type Config struct {
	Role       Role
	Pgid       int // process group to join; 0 means "become leader"
	Foreground bool
	Command    string
	Args       []string
	Env        []string // nil means inherit os.Environ()
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Dir        string
}

// LaunchError wraps a failure to start a process, distinguishing a
// missing-executable lookup failure from other OS errors so callers can
// report the conventional "command not found" exit status (127).
type LaunchError struct {
	Command  string
	Err      error
	NotFound bool
}

func (e *LaunchError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("psh: %s: command not found", e.Command)
	}
	return fmt.Sprintf("psh: %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Launcher starts processes and registers them with a job.Manager.
type Launcher struct {
	Jobs *job.Manager
}

// New builds a Launcher bound to jobs.
func New(jobs *job.Manager) *Launcher {
	return &Launcher{Jobs: jobs}
}

// Launch starts cfg.Command and returns the running *exec.Cmd alongside
// its pid. The process joins the group pgidFor(cfg) selects (a new group
// it leads for a leader/single command, cfg.Pgid for a pipeline member);
// the pgid itself is not returned. It does not
// register a job — callers that want job tracking should use LaunchJob,
// or build a pipeline's member processes with repeated Launch calls
// sharing one pgid before registering them together.
func (l *Launcher) Launch(cfg Config) (cmd *exec.Cmd, pid int, err error) {
	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, 0, &LaunchError{Command: cfg.Command, Err: err, NotFound: true}
	}

	cmd = exec.Command(path, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Stdin = cfg.Stdin
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	} else {
		cmd.Env = os.Environ()
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgidFor(cfg),
	}

	if err := cmd.Start(); err != nil {
		return nil, 0, &LaunchError{Command: cfg.Command, Err: err}
	}

	return cmd, cmd.Process.Pid, nil
}

// pgidFor computes the SysProcAttr.Pgid value: 0 tells the kernel "make
// this process its own group leader", matching setpgid(0, 0) in the
// reference child; a nonzero pgid joins an existing group the way a
// pipeline member does.
func pgidFor(cfg Config) int {
	switch cfg.Role {
	case PipelineLeader, Single:
		return 0
	default:
		return cfg.Pgid
	}
}

// LaunchJob is the single-command convenience path: start the process,
// create a job for it, and (if foreground) transfer terminal ownership.
func (l *Launcher) LaunchJob(cfg Config) (*job.Job, *exec.Cmd, error) {
	cfg.Role = Single
	cmd, pid, err := l.Launch(cfg)
	if err != nil {
		return nil, nil, err
	}

	pgid := pid
	j := l.Jobs.CreateJob(pgid, commandString(cfg))
	j.AddProcess(pid, cfg.Command)
	j.Foreground = cfg.Foreground

	if cfg.Foreground {
		l.Jobs.SetForegroundJob(j)
	}

	return j, cmd, nil
}

func commandString(cfg Config) string {
	s := cfg.Command
	for _, a := range cfg.Args {
		s += " " + a
	}
	return s
}
