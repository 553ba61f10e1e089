package subshell

import (
	"bytes"
	"testing"
	"time"
)

func TestRunSubshellForegroundReturnsStatusDirectly(t *testing.T) {
	e := New(nil, nil)
	got := e.RunSubshell(func() int { return 7 }, false)
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestRunSubshellBackgroundReturnsImmediately(t *testing.T) {
	e := New(nil, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	got := e.RunSubshell(func() int {
		close(started)
		<-release
		return 3
	}, true)
	if got != 0 {
		t.Fatalf("background run should return 0 immediately, got %d", got)
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("background body never started")
	}
	close(release)
}

func TestBackgroundTaskWait(t *testing.T) {
	e := New(nil, nil)
	e.RunSubshell(func() int { return 42 }, true)

	e.mu.Lock()
	var task *BackgroundTask
	for _, tk := range e.tasks {
		task = tk
	}
	e.mu.Unlock()

	if task == nil {
		t.Fatal("expected a registered background task")
	}
	if got := task.Wait(); got != 42 {
		t.Fatalf("Wait() = %d, want 42", got)
	}
	if !task.Done() {
		t.Fatal("expected Done() true after Wait returns")
	}
}

func TestRunBackgroundNotifiesStderr(t *testing.T) {
	var buf bytes.Buffer
	e := New(nil, &buf)
	e.Notify = true
	release := make(chan struct{})
	e.RunSubshell(func() int { <-release; return 0 }, true)
	close(release)

	if buf.Len() == 0 {
		t.Fatal("expected a background-start notification written to stderr")
	}
}
