package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

// RedisSyncer warms the memory index from the last mirrored snapshot on startup
type RedisSyncer struct {
	store  SnapshotStore
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store SnapshotStore,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the stored snapshot into the memory index. A missing snapshot
// is not an error.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing search snapshot from redis to memory")

	snap, err := rs.store.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, redisstore.ErrNoSnapshot) {
			rs.logger.Info("no snapshot found in redis")
			return nil
		}
		return err
	}

	rs.index.Update(*snap)

	rs.logger.Info("synced snapshot from redis",
		logger.String("hash", snap.Hash),
		logger.Int("records", len(snap.Records)))

	return nil
}
