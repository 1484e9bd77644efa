// Package keylock provides mutual exclusion per chat id.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out one mutex per key. Entries are dropped once nobody holds or waits
// for them, so the map stays proportional to the number of busy chats.
// The zero value is ready to use.
type Map struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func New() *Map {
	return &Map{entries: make(map[int64]*entry)}
}

// Lock blocks until key is free and returns the matching unlock function.
func (m *Map) Lock(key int64) (unlock func()) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[int64]*entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len reports the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
