package redis

import (
	"context"
	"fmt"
	"strings"
)

// IncrementServiceCalls increments the dispatched-call counter for a service
func (s *Store) IncrementServiceCalls(ctx context.Context, service string) error {
	if err := s.client.Incr(ctx, StatsKey(service)).Err(); err != nil {
		return fmt.Errorf("failed to increment stats for %s: %w", service, err)
	}
	return nil
}

// GetServiceCallStats retrieves dispatched-call counters for all services
func (s *Store) GetServiceCallStats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64)

	iter := s.client.Scan(ctx, 0, KeyPrefixStats+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		count, err := s.client.Get(ctx, key).Int64()
		if err != nil {
			continue
		}
		stats[strings.TrimPrefix(key, KeyPrefixStats)] = count
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan stats keys: %w", err)
	}

	return stats, nil
}
