// Package job tracks background and foreground process groups: which
// pids belong to which job, whether each process is running, stopped,
// or done, and the bookkeeping (current/previous job, terminal-mode
// save/restore) a job-control shell needs to report and resume them.
package job

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// State is a job's aggregate status, derived from its processes.
type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Process is a single pid inside a job (a pipeline stage, typically).
type Process struct {
	Pid       int
	Command   string
	Status    unix.WaitStatus
	HasStatus bool
	Stopped   bool
	Completed bool
}

// UpdateStatus folds a Wait4 status into the process's running/stopped/
// completed flags.
func (p *Process) UpdateStatus(status unix.WaitStatus) {
	p.Status = status
	p.HasStatus = true
	switch {
	case status.Stopped():
		p.Stopped = true
		p.Completed = false
	case status.Exited(), status.Signaled():
		p.Stopped = false
		p.Completed = true
	default:
		p.Stopped = false
		p.Completed = false
	}
}

// exitStatus maps a wait status to a shell-style exit code: the raw
// exit code if the process exited normally, or 128+signal if it was
// killed or stopped by a signal.
func exitStatus(status unix.WaitStatus) int {
	switch {
	case status.Exited():
		return status.ExitStatus()
	case status.Signaled():
		return 128 + int(status.Signal())
	case status.Stopped():
		return 128 + int(status.StopSignal())
	default:
		return 0
	}
}

// Job is a pipeline or single command running (or having run) under one
// process group.
type Job struct {
	ID         int
	Pgid       int
	Command    string
	Processes  []*Process
	State      State
	Foreground bool
	Notified   bool
	Tmodes     *unix.Termios
}

// AddProcess appends a tracked process to the job.
func (j *Job) AddProcess(pid int, command string) {
	j.Processes = append(j.Processes, &Process{Pid: pid, Command: command})
}

// UpdateProcessStatus updates the single process matching pid, if any.
func (j *Job) UpdateProcessStatus(pid int, status unix.WaitStatus) {
	for _, p := range j.Processes {
		if p.Pid == pid {
			p.UpdateStatus(status)
			return
		}
	}
}

func (j *Job) AllProcessesStopped() bool {
	for _, p := range j.Processes {
		if !p.Stopped {
			return false
		}
	}
	return true
}

func (j *Job) AllProcessesCompleted() bool {
	for _, p := range j.Processes {
		if !p.Completed {
			return false
		}
	}
	return true
}

func (j *Job) AnyProcessRunning() bool {
	for _, p := range j.Processes {
		if !p.Stopped && !p.Completed {
			return true
		}
	}
	return false
}

// UpdateState recomputes j.State from its processes' flags.
func (j *Job) UpdateState() {
	switch {
	case j.AllProcessesCompleted():
		j.State = Done
	case j.AllProcessesStopped():
		j.State = Stopped
	default:
		j.State = Running
	}
}

// FormatStatus renders the job the way `jobs` prints it, the state padded
// to 12 columns: "[1]+  Running      sleep 10".
func (j *Job) FormatStatus(isCurrent, isPrevious bool) string {
	marker := ' '
	switch {
	case isCurrent:
		marker = '+'
	case isPrevious:
		marker = '-'
	}
	return fmt.Sprintf("[%d]%c  %-12s %s", j.ID, marker, j.State, j.Command)
}

// Manager owns every tracked job plus the shell's notion of "current"
// and "previous" job, and mediates terminal ownership when control
// passes between the shell and a foreground job.
type Manager struct {
	mu          sync.Mutex
	jobs        map[int]*Job
	nextID      int
	current     *Job
	previous    *Job
	shellPgid   int
	shellTmodes *unix.Termios
	Notify      bool // mirrors the shell's `notify` option: report completion immediately, not just at the next prompt
}

// NewManager builds a Manager bound to the controlling terminal on fd 0,
// saving the shell's own terminal modes for later restoration.
func NewManager() *Manager {
	m := &Manager{
		jobs:   make(map[int]*Job),
		nextID: 1,
	}
	m.shellPgid = unix.Getpgrp()
	if tmodes, err := unix.IoctlGetTermios(0, ioctlGetTermios); err == nil {
		m.shellTmodes = tmodes
	}
	return m
}

// CreateJob registers a new job under the given process group and
// returns it.
func (m *Manager) CreateJob(pgid int, command string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := &Job{ID: m.nextID, Pgid: pgid, Command: command, State: Running, Foreground: true}
	m.jobs[j.ID] = j
	m.nextID++
	return j
}

// RemoveJob drops a job from tracking, fixing up current/previous refs
// the way the reference shell does: the removed current job falls back
// to the previous job (which itself becomes unset), and a removed
// previous job just clears.
func (m *Manager) RemoveJob(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return
	}
	switch j {
	case m.current:
		m.current = m.previous
		m.previous = nil
	case m.previous:
		m.previous = nil
	}
	delete(m.jobs, id)
}

func (m *Manager) GetJob(id int) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *Manager) GetJobByPid(pid int) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		for _, p := range j.Processes {
			if p.Pid == pid {
				return j
			}
		}
	}
	return nil
}

func (m *Manager) GetJobByPgid(pgid int) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Pgid == pgid {
			return j
		}
	}
	return nil
}

// SetForegroundJob hands terminal ownership to job (or back to the
// shell if job is nil), saving the outgoing job's terminal modes and
// restoring the incoming one's.
func (m *Manager) SetForegroundJob(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current != job {
		if tmodes, err := unix.IoctlGetTermios(0, ioctlGetTermios); err == nil {
			m.current.Tmodes = tmodes
		}
		m.previous = m.current
	}
	m.current = job

	switch {
	case job != nil && job.Tmodes != nil:
		if m.ownsTerminalLocked() {
			_ = unix.IoctlSetTermios(0, ioctlSetTermios, job.Tmodes)
			_ = unix.IoctlSetInt(0, unix.TIOCSPGRP, job.Pgid)
		}
	case job == nil:
		if m.shellTmodes != nil {
			_ = unix.IoctlSetTermios(0, ioctlSetTermios, m.shellTmodes)
		}
		_ = unix.IoctlSetInt(0, unix.TIOCSPGRP, m.shellPgid)
	default:
		if m.ownsTerminalLocked() {
			_ = unix.IoctlSetInt(0, unix.TIOCSPGRP, job.Pgid)
		}
	}
}

// ownsTerminalLocked reports whether the shell may hand the terminal's
// foreground group to a job: stdin must be a terminal and the shell must
// currently be its foreground group. Test harnesses that share a
// controlling terminal with the shell fail the second check; transferring
// anyway would leave both fighting over tcsetpgrp.
func (m *Manager) ownsTerminalLocked() bool {
	fg, err := unix.IoctlGetInt(0, unix.TIOCGPGRP)
	if err != nil {
		return false
	}
	return fg == m.shellPgid
}

// ContinueJob sends SIGCONT to job's process group, clearing every
// process's Stopped flag and recomputing job state — the kernel-side half
// of resuming a job that `fg`/`bg` both need before they can wait on or
// detach from it.
func (m *Manager) ContinueJob(j *Job) error {
	if j == nil {
		return nil
	}
	if err := unix.Kill(-j.Pgid, unix.SIGCONT); err != nil {
		return err
	}
	for _, p := range j.Processes {
		if p.Stopped {
			p.Stopped = false
		}
	}
	j.Notified = false
	j.UpdateState()
	return nil
}

// CountActiveJobs returns the number of tracked jobs not yet Done.
func (m *Manager) CountActiveJobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.State != Done {
			n++
		}
	}
	return n
}

// NotifyCompletedJobs prints (via the supplied writer function) a "Done"
// line for every completed background job not yet notified, then drops
// it from tracking.
func (m *Manager) NotifyCompletedJobs(print func(string)) {
	m.mu.Lock()
	var toRemove []int
	var lines []string
	for id, j := range m.jobs {
		if j.State == Done && !j.Notified && !j.Foreground {
			lines = append(lines, fmt.Sprintf("\n[%d]+  Done                    %s", j.ID, j.Command))
			j.Notified = true
			toRemove = append(toRemove, id)
		}
	}
	m.mu.Unlock()

	for _, l := range lines {
		print(l)
	}
	for _, id := range toRemove {
		m.RemoveJob(id)
	}
}

// NotifyStoppedJobs prints a "Stopped" line for every newly stopped job
// not yet notified.
func (m *Manager) NotifyStoppedJobs(print func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.State == Stopped && !j.Notified {
			marker := ' '
			switch j {
			case m.current:
				marker = '+'
			case m.previous:
				marker = '-'
			}
			print(fmt.Sprintf("[%d]%c  Stopped                 %s", j.ID, marker, j.Command))
			j.Notified = true
		}
	}
}

// ListJobs returns every tracked job's formatted status, ordered by job ID.
func (m *Manager) ListJobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		j := m.jobs[id]
		lines = append(lines, j.FormatStatus(j == m.current, j == m.previous))
	}
	return lines
}

// ParseJobSpec resolves a job-control spec (`%1`, `%+`, `%-`, `%str`, a
// bare pid, or empty for the current job) to its Job.
func (m *Manager) ParseJobSpec(spec string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec == "" {
		return m.current
	}
	if !strings.HasPrefix(spec, "%") {
		pid, err := strconv.Atoi(spec)
		if err != nil {
			return nil
		}
		return m.getJobByPidLocked(pid)
	}

	rest := spec[1:]
	switch {
	case rest == "+" || rest == "" || rest == "%":
		return m.current
	case rest == "-":
		return m.previous
	case isAllDigits(rest):
		id, _ := strconv.Atoi(rest)
		return m.jobs[id]
	case strings.HasPrefix(rest, "?"):
		needle := rest[1:]
		for _, id := range m.sortedIDsLocked() {
			if strings.Contains(m.jobs[id].Command, needle) {
				return m.jobs[id]
			}
		}
		return nil
	default:
		for _, id := range m.sortedIDsLocked() {
			if strings.HasPrefix(m.jobs[id].Command, rest) {
				return m.jobs[id]
			}
		}
		return nil
	}
}

// sortedIDsLocked returns tracked job IDs in ascending order so spec
// searches (%str, %?str) are deterministic instead of following Go's
// randomized map iteration. Caller must hold m.mu.
func (m *Manager) sortedIDsLocked() []int {
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *Manager) getJobByPidLocked(pid int) *Job {
	for _, j := range m.jobs {
		for _, p := range j.Processes {
			if p.Pid == pid {
				return j
			}
		}
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// WaitForJob blocks until every process in job has stopped or
// completed, updating process and job state as results arrive, and
// returns the exit status of the job's last process (conventionally the
// pipeline's overall exit status).
func (m *Manager) WaitForJob(job *Job) int {
	return m.waitForJob(job, false)[0]
}

// WaitForJobAll is WaitForJob but returns every process's individual
// exit status, indexed the same as job.Processes — used to implement
// PIPESTATUS-style introspection.
func (m *Manager) WaitForJobAll(job *Job) []int {
	return m.waitForJob(job, true)
}

func (m *Manager) waitForJob(job *Job, collectAll bool) []int {
	if len(job.Processes) == 0 {
		return []int{0}
	}
	statuses := make([]int, len(job.Processes))

	for job.AnyProcessRunning() {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-job.Pgid, &ws, unix.WUNTRACED, nil)
		if err != nil {
			break
		}
		job.UpdateProcessStatus(pid, ws)
		for i, p := range job.Processes {
			if p.Pid != pid {
				continue
			}
			statuses[i] = exitStatus(ws)
		}
	}

	// Processes that were reaped elsewhere (e.g. a SIGCHLD handler)
	// still carry their last known status on the Process struct.
	for i, p := range job.Processes {
		if p.Completed && p.HasStatus {
			statuses[i] = exitStatus(p.Status)
		}
	}

	oldState := job.State
	job.UpdateState()

	if m.Notify && oldState != Done && job.State == Done && !job.Foreground && !job.Notified {
		job.Notified = true
	}

	if !collectAll {
		return []int{statuses[len(statuses)-1]}
	}
	return statuses
}

// WaitAll waits for every currently tracked background job to finish,
// the way `wait` with no arguments does, and returns each job's final
// exit status keyed by job ID.
func (m *Manager) WaitAll() map[int]int {
	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	targets := make([]*Job, 0, len(m.jobs))
	for id, j := range m.jobs {
		if !j.Foreground {
			ids = append(ids, id)
			targets = append(targets, j)
		}
	}
	m.mu.Unlock()

	results := make(map[int]int, len(targets))
	for i, j := range targets {
		results[ids[i]] = m.WaitForJob(j)
	}
	return results
}
