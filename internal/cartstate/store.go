// Package cartstate holds the client's working view of the cart: the last
// server-confirmed lines plus the optimistic quantity overrides rendered ahead
// of confirmation, and the per-line pending set that gates one in-flight
// mutation per line. Only the controller mutates this store; rendering code
// reads through the accessors.
package cartstate

import (
	"sort"
	"sync"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
)

type Store struct {
	mu        sync.RWMutex
	lines     map[int64]domain.CartLine
	overrides map[int64]int
	pending   map[int64]struct{}

	// onChange is the render hook, invoked after every visible mutation.
	onChange func()
}

func NewStore(onChange func()) *Store {
	return &Store{
		lines:     make(map[int64]domain.CartLine),
		overrides: make(map[int64]int),
		pending:   make(map[int64]struct{}),
		onChange:  onChange,
	}
}

// Seed replaces the whole view with server data, dropping all overrides and
// pending marks. Used at first render and after a forced reload.
func (s *Store) Seed(lines []domain.CartLine) {
	s.mu.Lock()
	s.lines = make(map[int64]domain.CartLine, len(lines))
	for _, l := range lines {
		s.lines[l.ID] = l
	}
	s.overrides = make(map[int64]int)
	s.pending = make(map[int64]struct{})
	s.mu.Unlock()
	s.notify()
}

// Line returns the server-confirmed copy of a line.
func (s *Store) Line(id int64) (domain.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lines[id]
	return l, ok
}

// Lines returns all lines ordered by id, with display quantities applied.
func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartLine, 0, len(s.lines))
	for id, l := range s.lines {
		if q, ok := s.overrides[id]; ok {
			l.Quantity = q
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DisplayQuantity returns the override quantity if present, else the
// server-confirmed quantity. ok is false when the line is absent, which the
// caller must treat as removed.
func (s *Store) DisplayQuantity(id int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.overrides[id]; ok {
		return q, true
	}
	l, ok := s.lines[id]
	if !ok {
		return 0, false
	}
	return l.Quantity, true
}

// SetOverride records an optimistic display quantity. The floor is 1; going
// below it is a removal, which is a different operation.
func (s *Store) SetOverride(id int64, quantity int) bool {
	if quantity < 1 {
		return false
	}
	s.mu.Lock()
	if _, ok := s.lines[id]; !ok {
		s.mu.Unlock()
		return false
	}
	s.overrides[id] = quantity
	s.mu.Unlock()
	s.notify()
	return true
}

// ClearOverride reverts display to the server-confirmed value. Used on
// rollback.
func (s *Store) ClearOverride(id int64) {
	s.mu.Lock()
	delete(s.overrides, id)
	s.mu.Unlock()
	s.notify()
}

// ConfirmQuantity installs a server-acknowledged quantity and drops the
// override that anticipated it.
func (s *Store) ConfirmQuantity(id int64, quantity int) {
	s.mu.Lock()
	if l, ok := s.lines[id]; ok {
		l.Quantity = quantity
		s.lines[id] = l
	}
	delete(s.overrides, id)
	s.mu.Unlock()
	s.notify()
}

// RemoveLine deletes the line and any override for it. Used after a confirmed
// removal (or a NotFound that amounts to one).
func (s *Store) RemoveLine(id int64) {
	s.mu.Lock()
	delete(s.lines, id)
	delete(s.overrides, id)
	delete(s.pending, id)
	s.mu.Unlock()
	s.notify()
}

// Clear empties the whole view. The bulk path has no per-line rollback.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = make(map[int64]domain.CartLine)
	s.overrides = make(map[int64]int)
	s.pending = make(map[int64]struct{})
	s.mu.Unlock()
	s.notify()
}

// BeginPending marks a line as having a mutation in flight. Returns false if
// one already is, which suppresses the duplicate trigger.
func (s *Store) BeginPending(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inFlight := s.pending[id]; inFlight {
		return false
	}
	s.pending[id] = struct{}{}
	return true
}

func (s *Store) EndPending(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// IsPending reports whether a line's controls should be disabled.
func (s *Store) IsPending(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[id]
	return ok
}

// DisplayCount sums display quantities across all lines.
func (s *Store) DisplayCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for id, l := range s.lines {
		if q, ok := s.overrides[id]; ok {
			total += q
			continue
		}
		total += l.Quantity
	}
	return total
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
