// Package idmap implements the ordered id-keyed map (spec C8): add fails
// silently on a duplicate key, get can optionally remove its entry, and
// iterate is safe against the callback removing the node it was just
// given. An optional mutex supports the client's multi-threaded mode.
package idmap

import (
	"sort"
	"sync"
)

// Map is an ordered map from a signed 64-bit id to a value of type V.
// Where the original implementation reaches for an intrusive red-black
// tree keyed by a void* comparator to stay type-agnostic, a Go type
// parameter serves the same genericity without the intrusive-node
// bookkeeping.
//
// The zero value is not usable; construct with New.
type Map[V any] struct {
	mu    sync.Locker
	items map[int64]V
	keys  []int64 // kept sorted; drives ordered Iterate
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// New returns an empty Map. When threadSafe is true, every method
// serializes on an internal mutex so the map may be shared across
// goroutines (spec §5's multi-threaded mode); when false, the caller is
// responsible for serializing access.
func New[V any](threadSafe bool) *Map[V] {
	m := &Map[V]{items: make(map[int64]V)}
	if threadSafe {
		m.mu = &sync.Mutex{}
	} else {
		m.mu = noopLocker{}
	}
	return m
}

// Add inserts (id, v) and reports whether it was added. It returns false
// without modifying the map if id is already present — the original's
// "fails silently on duplicate key" contract.
func (m *Map[V]) Add(id int64, v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; exists {
		return false
	}
	m.items[id] = v
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= id })
	m.keys = append(m.keys, 0)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = id
	return true
}

// Get looks up id, optionally removing it from the map in the same
// locked section (remove=true). The second return reports whether id
// was found.
func (m *Map[V]) Get(id int64, remove bool) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		var zero V
		return zero, false
	}
	if remove {
		m.removeLocked(id)
	}
	return v, true
}

func (m *Map[V]) removeLocked(id int64) {
	delete(m.items, id)
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= id })
	if i < len(m.keys) && m.keys[i] == id {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
}

// Len reports the number of entries currently in the map.
func (m *Map[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// Iterate invokes cb once per entry in ascending key order. cb may
// remove the entry it was just handed (directly, or via Get with
// remove=true, or Remove) without disturbing the traversal of the
// remaining entries — the original's "get next pointer before invoking
// the callback" guard, reimplemented here by snapshotting the key order
// up front and skipping any key the callback has since removed.
func (m *Map[V]) Iterate(cb func(id int64, v V)) {
	m.mu.Lock()
	keys := append([]int64(nil), m.keys...)
	m.mu.Unlock()
	for _, id := range keys {
		m.mu.Lock()
		v, ok := m.items[id]
		m.mu.Unlock()
		if ok {
			cb(id, v)
		}
	}
}

// Remove deletes id from the map, if present, and reports whether it was
// found.
func (m *Map[V]) Remove(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false
	}
	m.removeLocked(id)
	return true
}
