// Package termsig manages the signal disposition and terminal ownership
// a job-control shell needs: ignoring SIGTTOU/SIGTTIN so backgrounding
// doesn't stop the shell itself, reaping SIGCHLD to keep job status
// current, and claiming/returning the controlling terminal around
// foreground job execution.
package termsig

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/xyproto/psh/internal/job"
)

// Mode selects which signal policy Manager installs.
type Mode int

const (
	// ScriptMode restores default dispositions for job-control signals
	// (a script shouldn't suspend or swallow SIGINT silently), but still
	// ignores SIGTTOU/SIGTTIN since a background script writing to the
	// terminal must not be stopped by the kernel.
	ScriptMode Mode = iota
	// InteractiveMode installs the full REPL signal policy: SIGINT/SIGTERM/
	// SIGHUP/SIGQUIT routed through a handler (trap dispatch lives above
	// this package), SIGTSTP/SIGTTOU/SIGTTIN ignored, SIGCHLD reaped here.
	InteractiveMode
)

// Manager owns the installed signal handlers and terminal-ownership
// transitions for one shell process.
type Manager struct {
	mode     Mode
	jobs     *job.Manager
	sigCh    chan os.Signal
	stopCh   chan struct{}
	OnSignal func(sig os.Signal) // invoked for SIGINT/SIGTERM/SIGHUP/SIGQUIT in InteractiveMode; nil means print a newline and continue
}

// New builds a Manager; it does not install any handlers until Start is called.
func New(mode Mode, jobs *job.Manager) *Manager {
	return &Manager{mode: mode, jobs: jobs}
}

// Start installs the signal policy for m.mode and, in InteractiveMode,
// begins reaping SIGCHLD in a background goroutine. Call Stop to tear
// both down.
func (m *Manager) Start() {
	switch m.mode {
	case ScriptMode:
		m.startScriptMode()
	case InteractiveMode:
		m.startInteractiveMode()
	}
}

// Stop restores default signal dispositions and stops the reaper goroutine.
func (m *Manager) Stop() {
	if m.sigCh != nil {
		signal.Stop(m.sigCh)
		close(m.stopCh)
		m.sigCh = nil
	}
	signal.Reset(unix.SIGTSTP, unix.SIGTTOU, unix.SIGTTIN)
}

func (m *Manager) startScriptMode() {
	signal.Reset(unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD, unix.SIGPIPE)
	ignoreSignals(unix.SIGTTOU, unix.SIGTTIN)
}

func (m *Manager) startInteractiveMode() {
	ignoreSignals(unix.SIGTSTP, unix.SIGTTOU, unix.SIGTTIN)

	m.sigCh = make(chan os.Signal, 16)
	m.stopCh = make(chan struct{})
	signal.Notify(m.sigCh, unix.SIGINT, unix.SIGTERM, unix.SIGHUP, unix.SIGQUIT, unix.SIGCHLD)

	go func() {
		for {
			select {
			case <-m.stopCh:
				return
			case sig := <-m.sigCh:
				if sig == unix.SIGCHLD {
					m.reapChildren()
					continue
				}
				if m.OnSignal != nil {
					m.OnSignal(sig)
				} else {
					fmt.Fprintln(os.Stderr)
				}
			}
		}
	}()
}

// reapChildren drains every exited or signal-killed child non-blockingly
// and updates job state. Wait4 is called without WUNTRACED, so a child
// that stops is not collected here (WaitForJob observes stops), and the
// foreground-stop branch below does not fire for reaps made by this loop.
func (m *Manager) reapChildren() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err != nil || pid <= 0 {
			return
		}

		j := m.jobs.GetJobByPid(pid)
		if j == nil {
			continue
		}
		j.UpdateProcessStatus(pid, ws)
		j.UpdateState()

		if j.State == job.Stopped && j.Foreground {
			j.Notified = false
			m.reclaimTerminal()
		}
	}
}

// reclaimTerminal makes the shell's own process group the foreground
// process group of the controlling terminal again.
func (m *Manager) reclaimTerminal() {
	pgid := unix.Getpgrp()
	_ = unix.IoctlSetInt(0, unix.TIOCSPGRP, pgid)
}

// EnsureForeground makes the shell process its own process group
// leader and claims the controlling terminal, the setup every
// interactive job-control shell does once at startup.
func EnsureForeground() {
	pid := os.Getpid()
	pgid := unix.Getpgrp()
	if pgid != pid {
		_ = unix.Setpgid(0, pid)
	}
	_ = unix.IoctlSetInt(0, unix.TIOCSPGRP, pid)
}

func ignoreSignals(sigs ...os.Signal) {
	signal.Ignore(sigs...)
}
