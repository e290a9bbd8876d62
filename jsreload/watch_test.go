package jsreload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func writeScript(t *testing.T, path, source string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitGeneration(t *testing.T, reloads <-chan int, want int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case generation := <-reloads:
			if generation >= want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for generation %d", want)
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "counter.js")
	writeScript(t, path, counterV1)

	reloads := make(chan int, 16)
	m := newModule(t,
		WithDebounce(20*time.Millisecond),
		WithReloadHandler(func(generation int) { reloads <- generation }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx, path) }()

	waitGeneration(t, reloads, 1)
	mustCall(t, m, "inc")

	writeScript(t, path, counterV2)
	waitGeneration(t, reloads, 2)

	if got := mustValue(t, m, "doubled"); got != int64(3) {
		t.Fatalf("expected reloaded computed over carried count, got %v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestWatchReportsBrokenReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "counter.js")
	writeScript(t, path, counterV1)

	reloads := make(chan int, 16)
	failures := make(chan error, 16)
	m := newModule(t,
		WithDebounce(20*time.Millisecond),
		WithReloadHandler(func(generation int) { reloads <- generation }),
		WithErrorHandler(func(err error) { failures <- err }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx, path) }()

	waitGeneration(t, reloads, 1)
	writeScript(t, path, "function setup( {")

	select {
	case err := <-failures:
		if err == nil {
			t.Fatalf("expected a reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload error")
	}
	if m.Generation() != 1 {
		t.Fatalf("expected broken script to leave generation 1, got %d", m.Generation())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestWatchMissingFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newModule(t)
	err := m.Watch(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	if err == nil {
		t.Fatalf("expected error for missing script")
	}
}
