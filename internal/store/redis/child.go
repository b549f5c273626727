package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultChildTTL is the default TTL for child records (48 hours)
	DefaultChildTTL = 48 * time.Hour
)

// Store mirrors the memory index into Redis so the service survives a
// restart without waiting for the first upstream refresh.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveChild stores a child record in Redis
func (s *Store) SaveChild(ctx context.Context, child *domain.Child) error {
	data, err := json.Marshal(child)
	if err != nil {
		return fmt.Errorf("failed to marshal child: %w", err)
	}

	key := ChildKey(child.ID)

	// Store child record
	if err := s.client.Set(ctx, key, data, DefaultChildTTL).Err(); err != nil {
		return fmt.Errorf("failed to save child: %w", err)
	}

	// Add to set of all children
	if err := s.client.SAdd(ctx, AllChildrenKey(), child.ID).Err(); err != nil {
		return fmt.Errorf("failed to add child to set: %w", err)
	}

	return nil
}

// GetChild retrieves a child record from Redis by ID
func (s *Store) GetChild(ctx context.Context, id int) (*domain.Child, error) {
	key := ChildKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("child not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get child: %w", err)
	}

	var child domain.Child
	if err := json.Unmarshal(data, &child); err != nil {
		return nil, fmt.Errorf("failed to unmarshal child: %w", err)
	}

	return &child, nil
}

// GetAllChildren retrieves all child records from Redis
func (s *Store) GetAllChildren(ctx context.Context) ([]*domain.Child, error) {
	ids, err := s.client.SMembers(ctx, AllChildrenKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get child IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Child{}, nil
	}

	children := make([]*domain.Child, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		child, err := s.GetChild(ctx, id)
		if err != nil {
			// Skip children that couldn't be retrieved
			continue
		}
		children = append(children, child)
	}

	return children, nil
}

// DeleteChild removes a child record from Redis
func (s *Store) DeleteChild(ctx context.Context, id int) error {
	key := ChildKey(id)

	// Delete child record
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}

	// Remove from set of all children
	if err := s.client.SRem(ctx, AllChildrenKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove child from set: %w", err)
	}

	return nil
}

// SaveChildrenMany stores multiple child records in Redis (bulk operation)
func (s *Store) SaveChildrenMany(ctx context.Context, children []*domain.Child) error {
	pipe := s.client.Pipeline()

	for _, child := range children {
		data, err := json.Marshal(child)
		if err != nil {
			return fmt.Errorf("failed to marshal child %d: %w", child.ID, err)
		}

		key := ChildKey(child.ID)
		pipe.Set(ctx, key, data, DefaultChildTTL)
		pipe.SAdd(ctx, AllChildrenKey(), child.ID)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save children: %w", err)
	}

	return nil
}
