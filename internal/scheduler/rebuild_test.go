package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/search"
	"github.com/MrSnakeDoc/menav/internal/site"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

type fakeBuilder struct {
	mu    sync.Mutex
	calls int
	err   error
	hash  string
}

func (f *fakeBuilder) Build(ctx context.Context) (*site.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &site.Result{
		Hash:    f.hash,
		BuiltAt: time.Now(),
		Files:   []string{site.IndexFile},
		Records: []search.Record{search.NewRecord("home", "GitHub", "Code host", "https://github.com", "")},
	}, nil
}

func (f *fakeBuilder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu    sync.Mutex
	saved []index.Snapshot
	snap  *index.Snapshot
	err   error
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, snap index.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, snap)
	return f.err
}

func (f *fakeStore) LoadSnapshot(ctx context.Context) (*index.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.snap == nil {
		return nil, redisstore.ErrNoSnapshot
	}
	return f.snap, nil
}

func (f *fakeStore) Saved() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func TestRebuilderRebuild(t *testing.T) {
	b := &fakeBuilder{hash: "h1"}
	st := &fakeStore{}
	idx := index.NewMemoryIndex()
	rb := NewRebuilder(b, st, idx, logger.NewNop(), 0)

	if rb.Built() {
		t.Fatal("Built() should be false before the first build")
	}
	if _, err := rb.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if !rb.Built() || rb.Last() == nil || rb.Last().Hash != "h1" {
		t.Errorf("after Rebuild: built=%v last=%+v", rb.Built(), rb.Last())
	}
	if !idx.Ready() || idx.Count() != 1 || idx.Hash() != "h1" {
		t.Errorf("index not updated: ready=%v count=%d", idx.Ready(), idx.Count())
	}
	if st.Saved() != 1 {
		t.Errorf("store saves = %d, want 1", st.Saved())
	}

	// Same output: the mirror is not written again.
	if _, err := rb.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if st.Saved() != 1 {
		t.Errorf("store saves after unchanged rebuild = %d, want 1", st.Saved())
	}
}

func TestRebuilderFailedBuildKeepsPrevious(t *testing.T) {
	b := &fakeBuilder{hash: "h1"}
	idx := index.NewMemoryIndex()
	rb := NewRebuilder(b, nil, idx, logger.NewNop(), 0)

	if _, err := rb.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	b.err = errors.New("boom")
	if _, err := rb.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild() should return the build error")
	}
	if !rb.Built() || idx.Hash() != "h1" {
		t.Error("a failed build must keep the previous snapshot")
	}
}

func TestRebuilderStoreErrorIsNotFatal(t *testing.T) {
	st := &fakeStore{err: errors.New("redis down")}
	rb := NewRebuilder(&fakeBuilder{hash: "h1"}, st, index.NewMemoryIndex(), logger.NewNop(), 0)

	if _, err := rb.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v, want nil when only the mirror fails", err)
	}
}

func TestRebuilderTriggerIsNonBlocking(t *testing.T) {
	rb := NewRebuilder(&fakeBuilder{}, nil, index.NewMemoryIndex(), logger.NewNop(), 0)

	// Not started: the first trigger fills the buffer, the second is refused.
	if !rb.Trigger() {
		t.Fatal("first Trigger() should be accepted")
	}
	if rb.Trigger() {
		t.Error("second Trigger() should report a pending rebuild")
	}
}

func TestRebuilderStartAndTrigger(t *testing.T) {
	b := &fakeBuilder{hash: "h1"}
	rb := NewRebuilder(b, nil, index.NewMemoryIndex(), logger.NewNop(), 0)

	done := make(chan struct{}, 4)
	rb.OnBuild(func(*site.Result, error) { done <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rb.Stop()
	<-done // initial build

	if !rb.Trigger() {
		t.Fatal("Trigger() refused")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered rebuild did not run")
	}
	if b.Calls() != 2 {
		t.Errorf("builds = %d, want 2", b.Calls())
	}
}

func TestRebuilderStartSurvivesFailedBuild(t *testing.T) {
	rb := NewRebuilder(&fakeBuilder{err: errors.New("no config")}, nil, index.NewMemoryIndex(), logger.NewNop(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v, want nil", err)
	}
	rb.Stop()
	rb.Stop()

	if rb.Built() {
		t.Error("Built() should stay false after a failed build")
	}
}

func TestRebuilderInterval(t *testing.T) {
	b := &fakeBuilder{hash: "h1"}
	rb := NewRebuilder(b, nil, index.NewMemoryIndex(), logger.NewNop(), 20*time.Millisecond)

	done := make(chan struct{}, 16)
	rb.OnBuild(func(*site.Result, error) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rb.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d builds ran", i)
		}
	}
}

func TestRedisSyncer(t *testing.T) {
	tests := []struct {
		name      string
		store     *fakeStore
		wantErr   bool
		wantReady bool
	}{
		{"no snapshot", &fakeStore{}, false, false},
		{"snapshot", &fakeStore{snap: &index.Snapshot{Hash: "h0", Records: []search.Record{
			search.NewRecord("home", "GitHub", "", "https://github.com", ""),
		}}}, false, true},
		{"store error", &fakeStore{err: errors.New("down")}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := index.NewMemoryIndex()
			err := NewRedisSyncer(tt.store, idx, logger.NewNop()).Sync(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Sync() error = %v, wantErr %v", err, tt.wantErr)
			}
			if idx.Ready() != tt.wantReady {
				t.Errorf("index ready = %v, want %v", idx.Ready(), tt.wantReady)
			}
		})
	}
}
