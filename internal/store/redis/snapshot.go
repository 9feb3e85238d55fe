package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/menav/internal/index"
)

// DefaultSnapshotTTL is how long a build snapshot survives without a rebuild (7 days)
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// ErrNoSnapshot is returned when no build was mirrored yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store mirrors build snapshots and search responses in Redis
type Store struct {
	client redis.Cmdable
	ns     string
	ttl    time.Duration
}

// NewStore creates a new Redis store scoped to namespace ns
func NewStore(client redis.Cmdable, ns string) *Store {
	return &Store{
		client: client,
		ns:     ns,
		ttl:    DefaultSnapshotTTL,
	}
}

// SaveSnapshot stores the snapshot and its hash in a single transaction
func (s *Store) SaveSnapshot(ctx context.Context, snap index.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SnapshotKey(s.ns), data, s.ttl)
		pipe.Set(ctx, HashKey(s.ns), snap.Hash, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the last stored snapshot
func (s *Store) LoadSnapshot(ctx context.Context) (*index.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey(s.ns)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap index.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
