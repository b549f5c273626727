package domain

import (
	"fmt"
	"time"
)

// EntryMap is the latest upstream record for one data endpoint, as returned
// by the Baby Buddy API.
type EntryMap = map[string]any

// Child represents the canonical runtime record for one tracked child.
//
// It is NOT tied to the Baby Buddy wire format, Redis, or the HTTP layer.
// All inputs (upstream refreshes, Redis warm-up) are merged into this
// structure.
//
// A Child is uniquely identified by its upstream ID.
type Child struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the Baby Buddy child id.
	ID int

	// Slug is the URL-safe identity used to resolve entity targets.
	// Example: jane-doe
	Slug string

	// ─────────────────────────────
	// Profile
	// (overwritten on each refresh)
	// ─────────────────────────────

	FirstName string
	LastName  string

	// BirthDate in YYYY-MM-DD form, as served by the API.
	BirthDate string

	// ─────────────────────────────
	// Latest data
	// ─────────────────────────────

	// Data holds the most recent record per data endpoint.
	// Example key: "feedings".
	Data map[string]EntryMap

	// ─────────────────────────────
	// Observation & persistence
	// ─────────────────────────────

	// LastSeenAt is updated whenever the child is observed upstream.
	LastSeenAt time.Time

	// Counter is the number of service calls dispatched for this child.
	Counter int64

	CreatedAt time.Time
	UpdatedAt time.Time

	// ─────────────────────────────
	// Liveness & cleanup
	// ─────────────────────────────

	// Disabled marks a child that disappeared upstream. It may be
	// garbage-collected later.
	Disabled bool
}

// FullName returns the display name, e.g. "Jane Doe".
func (c *Child) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// Clone returns a copy that is safe to mutate while the original stays
// published. The Data map is copied; the per-endpoint records it points to
// are replaced wholesale on refresh, never mutated in place, so they can be
// shared.
func (c *Child) Clone() *Child {
	clone := *c
	clone.Data = make(map[string]EntryMap, len(c.Data))
	for endpoint, entry := range c.Data {
		clone.Data[endpoint] = entry
	}
	return &clone
}
