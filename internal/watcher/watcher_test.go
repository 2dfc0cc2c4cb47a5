package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/printforge/accountlink/internal/config"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("polling-seconds: 10\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var mu sync.Mutex
	var got *config.Config
	w, err := NewWatcher(path, func(cfg *config.Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err = w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err = os.WriteFile(path, []byte("polling-seconds: 42\nconnect-polling: true\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	})
	mu.Lock()
	defer mu.Unlock()
	if got.PollingSeconds != 42 || !got.ConnectPolling {
		t.Fatalf("reloaded config = %+v", got)
	}
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("polling-seconds: 10\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var mu sync.Mutex
	reloads := 0
	w, err := NewWatcher(path, func(*config.Config) {
		mu.Lock()
		reloads++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err = w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	// Same bytes written again must not fire the callback.
	if err = os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if reloads != 0 {
		t.Fatalf("reloads = %d, want 0", reloads)
	}
}
