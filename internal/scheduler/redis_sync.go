package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	redisstore "github.com/MrSnakeDoc/cradle/internal/store/redis"
)

// RedisSyncer warms the memory index from Redis on startup, so children are
// resolvable before the first upstream refresh completes.
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer.
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads children from Redis and updates memory index.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing children from redis to memory")

	children, err := rs.store.GetAllChildren(ctx)
	if err != nil {
		return err
	}

	if len(children) == 0 {
		rs.logger.Info("no children found in redis")
		return nil
	}

	rs.index.UpdateChildren(children)

	rs.logger.Info("synced children from redis",
		logger.Int("count", len(children)))

	return nil
}
