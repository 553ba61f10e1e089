package job

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// signalNames is the POSIX signal-name table the reference shell's kill
// builtin uses for both directions of -s NAME / -l lookups.
var signalNames = map[string]unix.Signal{
	"HUP": unix.SIGHUP, "INT": unix.SIGINT, "QUIT": unix.SIGQUIT,
	"ILL": unix.SIGILL, "TRAP": unix.SIGTRAP, "ABRT": unix.SIGABRT,
	"BUS": unix.SIGBUS, "FPE": unix.SIGFPE, "KILL": unix.SIGKILL,
	"USR1": unix.SIGUSR1, "SEGV": unix.SIGSEGV, "USR2": unix.SIGUSR2,
	"PIPE": unix.SIGPIPE, "ALRM": unix.SIGALRM, "TERM": unix.SIGTERM,
	"CHLD": unix.SIGCHLD, "CONT": unix.SIGCONT, "STOP": unix.SIGSTOP,
	"TSTP": unix.SIGTSTP, "TTIN": unix.SIGTTIN, "TTOU": unix.SIGTTOU,
	"URG": unix.SIGURG, "XCPU": unix.SIGXCPU, "XFSZ": unix.SIGXFSZ,
	"VTALRM": unix.SIGVTALRM, "PROF": unix.SIGPROF, "WINCH": unix.SIGWINCH,
	"IO": unix.SIGIO, "SYS": unix.SIGSYS,
}

var signalByNumber = func() map[int]string {
	m := make(map[int]string, len(signalNames))
	for name, sig := range signalNames {
		m[int(sig)] = name
	}
	return m
}()

// ParseSignal resolves a signal spec: a bare or `SIG`-prefixed name
// (case-insensitive, e.g. "TERM", "SIGTERM", "term") or a numeric string
// in 0..64 ("15").
func ParseSignal(spec string) (unix.Signal, error) {
	if spec == "" {
		return 0, fmt.Errorf("job: empty signal spec")
	}
	if n, err := strconv.Atoi(spec); err == nil {
		if n < 0 || n > 64 {
			return 0, fmt.Errorf("job: signal number %d out of range", n)
		}
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(spec)
	name = strings.TrimPrefix(name, "SIG")
	if sig, ok := signalNames[name]; ok {
		return sig, nil
	}
	return 0, fmt.Errorf("job: unknown signal %q", spec)
}

// SignalName returns the bare (no SIG prefix) name for a signal number,
// or "" if it isn't one of the names this shell recognizes.
func SignalName(sig unix.Signal) string {
	return signalByNumber[int(sig)]
}
