package state

import (
	"sync"

	"github.com/nhle/taskpilot/internal/model"
)

// Collection is an identity-keyed, ordered list of entities. All
// mutations go through SetAll, Merge, MergeSince, Remove and Clear; each
// one notifies the store's observers after the collection lock has been
// released, so observers may read the collection freely.
type Collection[T model.Entity] struct {
	name Name
	hub  *hub

	mu    sync.RWMutex
	items []T
	index map[string]int

	// removedAt records the sequence number of the last removal of an id
	// that is still absent. It backs MergeSince.
	removedAt map[string]uint64
}

func newCollection[T model.Entity](name Name, h *hub) *Collection[T] {
	return &Collection[T]{
		name:      name,
		hub:       h,
		index:     make(map[string]int),
		removedAt: make(map[string]uint64),
	}
}

// Name returns the collection's observer key.
func (c *Collection[T]) Name() Name { return c.name }

// SetAll replaces the whole collection with items. When items repeats an
// id, the entry keeps the position of its first occurrence and the value
// of its last.
func (c *Collection[T]) SetAll(items []T) {
	c.mu.Lock()
	c.items = make([]T, 0, len(items))
	c.index = make(map[string]int, len(items))
	for _, it := range items {
		id := it.GetID()
		if i, ok := c.index[id]; ok {
			c.items[i] = it
			continue
		}
		c.index[id] = len(c.items)
		c.items = append(c.items, it)
		delete(c.removedAt, id)
	}
	c.hub.next()
	c.mu.Unlock()

	c.hub.emit(Change{Collection: c.name, Kind: ChangeReset})
}

// Merge replaces the entity with the same id in place, or prepends it when
// absent. It reports whether the entity was inserted.
func (c *Collection[T]) Merge(item T) bool {
	c.mu.Lock()
	inserted := c.mergeLocked(item)
	c.mu.Unlock()

	c.hub.emit(Change{Collection: c.name, Kind: ChangeMerged, ID: item.GetID()})
	return inserted
}

// MergeSince merges item unless its id was removed after mark was taken.
// Callers take a mark before issuing a request and merge the response
// with it, so a delete that lands while the request is in flight is not
// undone by the late response. It reports whether the merge was applied.
func (c *Collection[T]) MergeSince(item T, mark uint64) bool {
	id := item.GetID()

	c.mu.Lock()
	if seq, ok := c.removedAt[id]; ok && seq > mark {
		c.mu.Unlock()
		return false
	}
	c.mergeLocked(item)
	c.mu.Unlock()

	c.hub.emit(Change{Collection: c.name, Kind: ChangeMerged, ID: id})
	return true
}

func (c *Collection[T]) mergeLocked(item T) bool {
	id := item.GetID()
	c.hub.next()
	if i, ok := c.index[id]; ok {
		c.items[i] = item
		return false
	}

	delete(c.removedAt, id)
	c.items = append(c.items, item)
	copy(c.items[1:], c.items[:len(c.items)-1])
	c.items[0] = item
	for i, it := range c.items {
		c.index[it.GetID()] = i
	}
	return true
}

// Remove deletes the entity with the given id. Removing an absent id is a
// no-op and notifies nobody. It reports whether anything was removed.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].GetID()] = j
	}
	c.removedAt[id] = c.hub.next()
	c.mu.Unlock()

	c.hub.emit(Change{Collection: c.name, Kind: ChangeRemoved, ID: id})
	return true
}

// Clear empties the collection and forgets removal history.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	c.items = nil
	c.index = make(map[string]int)
	c.removedAt = make(map[string]uint64)
	c.hub.next()
	c.mu.Unlock()

	c.hub.emit(Change{Collection: c.name, Kind: ChangeCleared})
}

// Mark returns the store-wide operation sequence. See MergeSince.
func (c *Collection[T]) Mark() uint64 {
	return c.hub.mark()
}

// Get returns the entity with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Items returns a copy of the collection in display order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Find returns the first entity matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns the entities matching pred in display order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, it := range c.items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Derive returns a live view of the entities matching pred. The view holds
// no data of its own and re-filters on every read.
func (c *Collection[T]) Derive(pred func(T) bool) *View[T] {
	return &View[T]{source: c, pred: pred}
}

// View is a lazily filtered projection of a Collection.
type View[T model.Entity] struct {
	source *Collection[T]
	pred   func(T) bool
}

// Items returns the entities currently matching the view's predicate.
func (v *View[T]) Items() []T {
	return v.source.Filter(v.pred)
}

// Len returns the number of entities currently matching.
func (v *View[T]) Len() int {
	return len(v.Items())
}

// Contains reports whether the entity with id is currently in the view.
func (v *View[T]) Contains(id string) bool {
	it, ok := v.source.Get(id)
	return ok && v.pred(it)
}
