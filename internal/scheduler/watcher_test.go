package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/menav/internal/logger"
)

func startWatcher(t *testing.T, root string, ignore []string) (*Watcher, chan struct{}) {
	t.Helper()
	fired := make(chan struct{}, 8)
	w := NewWatcher(root, ignore, 50*time.Millisecond, func() bool {
		fired <- struct{}{}
		return true
	}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return w, fired
}

func TestWatcherTriggersOnConfigChange(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config", "user", "pages"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, fired := startWatcher(t, root, nil)

	if err := os.WriteFile(filepath.Join(root, "config", "user", "pages", "home.yml"), []byte("title: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("no rebuild requested after a config change")
	}
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	var count atomic.Int32
	w := NewWatcher(root, nil, 200*time.Millisecond, func() bool {
		count.Add(1)
		return true
	}, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(root, "config.yml"), []byte("site: {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(600 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("rebuild requests = %d, want 1", got)
	}
}

func TestWatcherRelevant(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")
	w := NewWatcher(root, []string{dist}, 0, func() bool { return true }, logger.NewNop())

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"config write", fsnotify.Event{Name: filepath.Join(root, "config.yml"), Op: fsnotify.Write}, true},
		{"template create", fsnotify.Event{Name: filepath.Join(root, "templates", "x.html"), Op: fsnotify.Create}, true},
		{"output dir", fsnotify.Event{Name: filepath.Join(dist, "index.html"), Op: fsnotify.Write}, false},
		{"output dir itself", fsnotify.Event{Name: dist, Op: fsnotify.Create}, false},
		{"hidden file", fsnotify.Event{Name: filepath.Join(root, ".config.yml.swp"), Op: fsnotify.Write}, false},
		{"editor backup", fsnotify.Event{Name: filepath.Join(root, "config.yml~"), Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "config.yml"), Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}
