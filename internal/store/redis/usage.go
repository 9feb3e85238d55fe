package redis

import (
	"context"
	"fmt"
)

// QueryCount is one entry of the query statistics
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// IncrementQuery counts one search for query
func (s *Store) IncrementQuery(ctx context.Context, query string) error {
	if err := s.client.ZIncrBy(ctx, QueriesKey(s.ns), 1, query).Err(); err != nil {
		return fmt.Errorf("failed to count query: %w", err)
	}
	return nil
}

// TopQueries returns the n most frequent queries, most frequent first
func (s *Store) TopQueries(ctx context.Context, n int) ([]QueryCount, error) {
	if n <= 0 {
		return []QueryCount{}, nil
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, QueriesKey(s.ns), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get query stats: %w", err)
	}

	stats := make([]QueryCount, 0, len(entries))
	for _, e := range entries {
		q, ok := e.Member.(string)
		if !ok {
			continue
		}
		stats = append(stats, QueryCount{Query: q, Count: int64(e.Score)})
	}
	return stats, nil
}
