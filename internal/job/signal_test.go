package job

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestParseSignalForms(t *testing.T) {
	cases := []struct {
		in   string
		want unix.Signal
	}{
		{"TERM", unix.SIGTERM},
		{"SIGTERM", unix.SIGTERM},
		{"term", unix.SIGTERM},
		{"sigterm", unix.SIGTERM},
		{"15", unix.SIGTERM},
		{"KILL", unix.SIGKILL},
	}
	for _, tc := range cases {
		got, err := ParseSignal(tc.in)
		if err != nil {
			t.Fatalf("ParseSignal(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseSignal(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSignalUnknown(t *testing.T) {
	if _, err := ParseSignal("NOTASIGNAL"); err == nil {
		t.Fatal("expected an error for an unknown signal name")
	}
}

func TestSignalName(t *testing.T) {
	if got := SignalName(unix.SIGINT); got != "INT" {
		t.Fatalf("got %q, want INT", got)
	}
}

func TestWaitAllOnlyWaitsBackgroundJobs(t *testing.T) {
	m := &Manager{jobs: make(map[int]*Job), nextID: 1}
	fg := m.CreateJob(1, "fg")
	fg.Foreground = true
	bg := m.CreateJob(2, "bg")
	bg.Foreground = false
	bg.AddProcess(999999, "bg")
	bg.Processes[0].Completed = true
	bg.Processes[0].Status = mkExited(0)
	bg.Processes[0].HasStatus = true

	results := m.WaitAll()
	if _, ok := results[fg.ID]; ok {
		t.Fatal("did not expect a foreground job in WaitAll results")
	}
	if status, ok := results[bg.ID]; !ok || status != 0 {
		t.Fatalf("expected bg job status 0, got %v ok=%v", status, ok)
	}
}
