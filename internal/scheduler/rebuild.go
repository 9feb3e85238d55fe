package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/site"
)

// SiteBuilder produces one build of the site.
type SiteBuilder interface {
	Build(ctx context.Context) (*site.Result, error)
}

// SnapshotStore mirrors build snapshots outside the process.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap index.Snapshot) error
	LoadSnapshot(ctx context.Context) (*index.Snapshot, error)
}

// Rebuilder regenerates the site on demand and, optionally, on an interval
type Rebuilder struct {
	builder       SiteBuilder
	store         SnapshotStore
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.Mutex // serializes builds
	built  atomic.Bool
	last   atomic.Pointer[site.Result]
	hooks  []func(*site.Result, error)
	hookMu sync.RWMutex
}

// NewRebuilder creates a new rebuilder. store may be nil. interval <= 0
// disables periodic rebuilds.
func NewRebuilder(
	builder SiteBuilder,
	store SnapshotStore,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
) *Rebuilder {
	return &Rebuilder{
		builder:       builder,
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
	}
}

// OnBuild registers fn to run after every rebuild attempt.
func (rb *Rebuilder) OnBuild(fn func(*site.Result, error)) {
	rb.hookMu.Lock()
	defer rb.hookMu.Unlock()
	rb.hooks = append(rb.hooks, fn)
}

// Start builds once, then serves triggers and ticks until Stop or ctx is done.
// A failed first build is logged, not returned: the server stays up so the
// configuration can be fixed and rebuilt.
func (rb *Rebuilder) Start(ctx context.Context) error {
	if _, err := rb.Rebuild(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rb.logger.Error("initial build failed, waiting for a rebuild",
			logger.Error(err))
	}

	go func() {
		var tick <-chan time.Time
		if rb.interval > 0 {
			ticker := time.NewTicker(rb.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				rb.rebuildLogged(ctx, "periodic")
			case <-rb.manualTrigger:
				rb.rebuildLogged(ctx, "manual")
			case <-rb.stopCh:
				rb.logger.Debug("rebuild loop stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the rebuild loop. Safe to call more than once.
func (rb *Rebuilder) Stop() {
	rb.stopOnce.Do(func() { close(rb.stopCh) })
}

// Trigger asks for a rebuild without blocking. It returns false when one
// is already pending.
func (rb *Rebuilder) Trigger() bool {
	select {
	case rb.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Built reports whether at least one build succeeded.
func (rb *Rebuilder) Built() bool {
	return rb.built.Load()
}

// Last returns the most recent successful build, nil before the first one.
func (rb *Rebuilder) Last() *site.Result {
	return rb.last.Load()
}

// Rebuild runs a build and publishes its search records
func (rb *Rebuilder) Rebuild(ctx context.Context) (*site.Result, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	res, err := rb.builder.Build(ctx)
	if err == nil {
		rb.publish(ctx, res)
	}
	rb.runHooks(res, err)
	return res, err
}

func (rb *Rebuilder) rebuildLogged(ctx context.Context, reason string) {
	rb.logger.Info("rebuild triggered", logger.String("reason", reason))
	if _, err := rb.Rebuild(ctx); err != nil {
		rb.logger.Error("rebuild failed",
			logger.String("reason", reason),
			logger.Error(err))
	}
}

func (rb *Rebuilder) publish(ctx context.Context, res *site.Result) {
	snap := index.Snapshot{
		Hash:    res.Hash,
		BuiltAt: res.BuiltAt,
		Layers:  res.Layers,
		Files:   res.Files,
		Records: res.Records,
	}

	unchanged := rb.index.Ready() && rb.index.Hash() == res.Hash
	rb.index.Update(snap)
	rb.last.Store(res)
	rb.built.Store(true)

	if unchanged {
		rb.logger.Debug("build output unchanged", logger.String("hash", res.Hash))
		return
	}

	// Redis is a mirror; the memory index stays authoritative
	if rb.store != nil {
		if err := rb.store.SaveSnapshot(ctx, snap); err != nil {
			rb.logger.Warn("failed to save snapshot to redis",
				logger.Error(err))
		} else {
			rb.logger.Debug("snapshot saved to redis", logger.String("hash", res.Hash))
		}
	}
}

func (rb *Rebuilder) runHooks(res *site.Result, err error) {
	rb.hookMu.RLock()
	defer rb.hookMu.RUnlock()
	for _, fn := range rb.hooks {
		fn(res, err)
	}
}
