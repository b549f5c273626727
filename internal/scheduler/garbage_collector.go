package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	redisstore "github.com/MrSnakeDoc/cradle/internal/store/redis"
)

const (
	// DefaultGCThreshold is the duration after which disabled children are deleted
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// GarbageCollector handles cleanup of children that stayed disabled past the
// threshold.
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	// Start periodic collection
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
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

// Collect removes children that have been disabled for longer than the threshold
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	gc.logger.Info("running garbage collection for disabled children")

	now := time.Now()
	children := gc.index.GetAllChildren()
	deletedCount := 0

	for _, child := range children {
		// Only collect disabled children
		if !child.Disabled {
			continue
		}

		// Check if child has been disabled long enough
		if child.UpdatedAt.IsZero() {
			continue
		}

		disabledDuration := now.Sub(child.UpdatedAt)
		if disabledDuration < gc.threshold {
			continue
		}

		// Delete from memory index
		gc.index.DeleteChild(child.ID)

		// Delete from Redis store (best effort)
		if gc.store != nil {
			if err := gc.store.DeleteChild(ctx, child.ID); err != nil {
				gc.logger.Warn("failed to delete child from redis",
					logger.Int("child_id", child.ID),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected disabled child",
			logger.Int("child_id", child.ID),
			logger.String("slug", child.Slug),
			logger.String("disabled_for", disabledDuration.String()))

		deletedCount++
	}

	if deletedCount > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("children_deleted", deletedCount))
	} else {
		gc.logger.Debug("no children to garbage collect")
	}

	return nil
}
