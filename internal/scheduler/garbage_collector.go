package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

const (
	// DefaultGCThreshold is the age after which stale output files are deleted
	DefaultGCThreshold = 24 * time.Hour
)

// GarbageCollector removes files from the output directory that the last
// build no longer produces, such as a favicon that was renamed.
type GarbageCollector struct {
	dir       string
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector for dir
func NewGarbageCollector(
	dir string,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		dir:       dir,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.interval <= 0 {
		return fmt.Errorf("garbage collection interval must be > 0, got %v", gc.interval)
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect deletes top-level files of the output directory that are not part
// of the current build and are older than the threshold. It does nothing
// before the first build.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	if !gc.index.Ready() {
		gc.logger.Debug("no build yet, skipping garbage collection")
		return 0, nil
	}

	keep := make(map[string]bool)
	for _, f := range gc.index.Snapshot().Files {
		keep[f] = true
	}

	entries, err := os.ReadDir(gc.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", gc.dir, err)
	}

	now := gc.now()
	deleted := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if e.IsDir() || keep[e.Name()] {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age < gc.threshold {
			continue
		}

		path := filepath.Join(gc.dir, e.Name())
		if err := os.Remove(path); err != nil {
			gc.logger.Warn("failed to delete stale output file",
				logger.String("path", path),
				logger.Error(err))
			continue
		}

		gc.logger.Info("garbage collected stale output file",
			logger.String("path", path),
			logger.String("age", age.Round(time.Second).String()))
		deleted++
	}

	if deleted == 0 {
		gc.logger.Debug("no output files to garbage collect")
	}
	return deleted, nil
}
