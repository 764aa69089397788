package game

import (
	"sort"
	"sync"

	"trio_table/internal/domain"
)

// tokenSet is the bounded set of slots a player currently marks. The
// owning player mutates it under the slot lock while toggling; the
// dealer mutates it under the same slot lock while resolving a valid
// claim, so the set carries its own mutex for the cross-task reads.
type tokenSet struct {
	mu       sync.Mutex
	slots    map[domain.SlotID]struct{}
	capacity int
}

func newTokenSet(capacity int) *tokenSet {
	return &tokenSet{
		slots:    make(map[domain.SlotID]struct{}, capacity),
		capacity: capacity,
	}
}

func (s *tokenSet) Contains(slot domain.SlotID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[slot]
	return ok
}

// Add marks the slot, refusing once the set is full.
func (s *tokenSet) Add(slot domain.SlotID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) >= s.capacity {
		return false
	}
	s.slots[slot] = struct{}{}
	return true
}

func (s *tokenSet) Remove(slot domain.SlotID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot]; !ok {
		return false
	}
	delete(s.slots, slot)
	return true
}

func (s *tokenSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *tokenSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.slots {
		delete(s.slots, slot)
	}
}

// Snapshot returns the marked slots in ascending order.
func (s *tokenSet) Snapshot() []domain.SlotID {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]domain.SlotID, 0, len(s.slots))
	for slot := range s.slots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}
