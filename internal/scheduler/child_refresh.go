package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/metrics"
	redisstore "github.com/MrSnakeDoc/cradle/internal/store/redis"
)

// Upstream is the slice of the Baby Buddy client the refresher needs.
type Upstream interface {
	Children(ctx context.Context) ([]babybuddy.Child, error)
	LatestEntry(ctx context.Context, endpoint string, childID int) (map[string]any, error)
}

// ChildRefresher handles periodic polling of children and their latest
// records from the Baby Buddy API.
type ChildRefresher struct {
	api           Upstream
	store         *redisstore.Store
	index         *index.MemoryIndex
	metrics       *metrics.Collector
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewChildRefresher creates a new child refresher.
func NewChildRefresher(
	api Upstream,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	collector *metrics.Collector,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ChildRefresher {
	return &ChildRefresher{
		api:           api,
		store:         store,
		index:         idx,
		metrics:       collector,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic refresh process.
func (cr *ChildRefresher) Start(ctx context.Context) error {
	// Refresh immediately on start
	if err := cr.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	// Start periodic refresh
	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Refresh(ctx); err != nil {
					cr.logger.Error("failed to refresh children",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual refresh triggered")
				if err := cr.Refresh(ctx); err != nil {
					cr.logger.Error("failed to refresh children",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher.
func (cr *ChildRefresher) Stop() {
	close(cr.stopCh)
}

// Refresh polls the upstream children list plus the latest record per data
// endpoint, then updates store + index. Children that disappeared upstream
// are kept but marked disabled.
func (cr *ChildRefresher) Refresh(ctx context.Context) error {
	cr.logger.Info("refreshing children from babybuddy")
	cr.metrics.RefreshTotal.Inc()

	upstream, err := cr.api.Children(ctx)
	if err != nil {
		cr.metrics.RefreshErrors.Inc()
		return fmt.Errorf("failed to list children: %w", err)
	}
	if len(upstream) == 0 {
		cr.logger.Warn("no children found upstream, add at least one child in babybuddy")
	}

	now := time.Now()
	refreshed := make([]*domain.Child, 0, len(upstream))
	seen := make(map[int]bool, len(upstream))

	for _, wire := range upstream {
		child := cr.mergeChild(wire, now)
		cr.fetchLatest(ctx, child)
		refreshed = append(refreshed, child)
		seen[wire.ID] = true
	}

	// Children no longer served upstream are marked disabled; the garbage
	// collector deletes them later. The published record is cloned before
	// the flag is set, it may be mid-encode in a handler.
	var disabled []*domain.Child
	for _, existing := range cr.index.GetAllChildren() {
		if seen[existing.ID] || existing.Disabled {
			if existing.Disabled && !seen[existing.ID] {
				disabled = append(disabled, existing)
			}
			continue
		}
		gone := existing.Clone()
		gone.Disabled = true
		gone.UpdatedAt = now
		disabled = append(disabled, gone)
	}

	if len(disabled) > 0 {
		cr.logger.Info("marking removed children as disabled",
			logger.Int("count", len(disabled)))
	}

	refreshed = append(refreshed, disabled...)

	// Update memory index
	cr.index.UpdateChildren(refreshed)

	cr.metrics.LastRefresh.SetToCurrentTime()
	cr.metrics.ChildrenTracked.Set(float64(len(upstream)))

	cr.logger.Info("refreshed children from babybuddy",
		logger.Int("count", len(upstream)))

	// Update Redis store (best effort)
	if cr.store != nil {
		if err := cr.store.SaveChildrenMany(ctx, refreshed); err != nil {
			cr.logger.Warn("failed to save children to redis",
				logger.Error(err))
			// Don't fail - memory index is the primary source
		} else {
			cr.logger.Info("children saved to redis")
		}
	}

	return nil
}

// mergeChild folds one upstream record into a copy of the existing domain
// child, or creates a fresh one. The record published in the index is never
// written to; handlers read it concurrently without a lock, so all mutation
// happens on a private clone published later via UpdateChildren.
func (cr *ChildRefresher) mergeChild(wire babybuddy.Child, now time.Time) *domain.Child {
	var child *domain.Child
	if existing, ok := cr.index.GetChild(wire.ID); ok {
		child = existing.Clone()
	} else {
		child = &domain.Child{
			ID:        wire.ID,
			CreatedAt: now,
			Data:      make(map[string]domain.EntryMap),
		}
	}

	child.Slug = wire.Slug
	child.FirstName = wire.FirstName
	child.LastName = wire.LastName
	child.BirthDate = wire.BirthDate
	child.LastSeenAt = now
	child.UpdatedAt = now
	child.Disabled = false

	return child
}

// fetchLatest pulls the most recent record per data endpoint. Individual
// endpoint failures are logged and skipped; the child entry stays usable.
func (cr *ChildRefresher) fetchLatest(ctx context.Context, child *domain.Child) {
	for _, endpoint := range babybuddy.DataEndpoints {
		entry, err := cr.api.LatestEntry(ctx, endpoint, child.ID)
		if err != nil {
			cr.logger.Warn("failed to fetch latest entry",
				logger.String("endpoint", endpoint),
				logger.String("child", child.Slug),
				logger.Error(err))
			continue
		}
		if entry == nil {
			delete(child.Data, endpoint)
			continue
		}
		child.Data[endpoint] = entry
	}
}
