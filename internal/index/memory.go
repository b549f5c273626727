package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/domain"
)

// MemoryIndex provides in-memory storage and lookup for tracked children.
// It is the primary read path for the HTTP layer; Redis only mirrors it
// across restarts.
//
// Published *domain.Child records are immutable: updates replace the record
// (see Child.Clone), so callers may keep reading a returned pointer without
// holding the lock.
type MemoryIndex struct {
	mu         sync.RWMutex
	children   map[int]*domain.Child // ID -> Child
	slugs      map[string]int        // Slug -> ID
	lastReload time.Time             // Timestamp of last upstream refresh
}

// NewMemoryIndex creates a new memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		children: make(map[int]*domain.Child),
		slugs:    make(map[string]int),
	}
}

// UpdateChildren replaces all children in the index.
func (idx *MemoryIndex) UpdateChildren(children []*domain.Child) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.children = make(map[int]*domain.Child, len(children))
	idx.slugs = make(map[string]int, len(children))
	for _, child := range children {
		idx.children[child.ID] = child
		idx.slugs[child.Slug] = child.ID
	}
	idx.lastReload = time.Now()
}

// GetChild retrieves a child by ID.
func (idx *MemoryIndex) GetChild(id int) (*domain.Child, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	child, ok := idx.children[id]
	return child, ok
}

// GetChildBySlug retrieves a child by its slug.
func (idx *MemoryIndex) GetChildBySlug(slug string) (*domain.Child, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	id, ok := idx.slugs[slug]
	if !ok {
		return nil, false
	}
	child, ok := idx.children[id]
	return child, ok
}

// GetAllChildren returns all children.
func (idx *MemoryIndex) GetAllChildren() []*domain.Child {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	children := make([]*domain.Child, 0, len(idx.children))
	for _, child := range idx.children {
		children = append(children, child)
	}
	return children
}

// AddChild adds or updates a single child.
func (idx *MemoryIndex) AddChild(child *domain.Child) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.children[child.ID] = child
	idx.slugs[child.Slug] = child.ID
}

// DeleteChild removes a child from the index.
func (idx *MemoryIndex) DeleteChild(id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if child, ok := idx.children[id]; ok {
		delete(idx.slugs, child.Slug)
	}
	delete(idx.children, id)
}

// Count returns the number of children in the index.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.children)
}

// IncrementCounter increments the dispatched-call counter for a child.
// The record is replaced rather than written to, readers hold pointers to
// published children without taking the lock.
func (idx *MemoryIndex) IncrementCounter(id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	child, ok := idx.children[id]
	if !ok {
		return
	}
	bumped := child.Clone()
	bumped.Counter++
	idx.children[id] = bumped
}

// GetLastReload returns the timestamp of the last upstream refresh.
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
