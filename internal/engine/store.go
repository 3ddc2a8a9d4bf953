package engine

import (
	"errors"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// DefaultCapacity is the default number of alarm store slots.
const DefaultCapacity = 64

// ErrStoreFull is returned when a new definition cannot be tracked.
var ErrStoreFull = errors.New("alarm store is full")

// store is a bounded, append-only pool of alarm states keyed by definition index.
// Slots are never freed or reused.
type store struct {
	// slots holds tracked states in allocation order.
	slots []alarm.State
	// capacity is the maximum number of slots.
	capacity int
}

func newStore(capacity int) *store {
	return &store{
		slots:    make([]alarm.State, 0, capacity),
		capacity: capacity,
	}
}

// reset empties the store.
func (s *store) reset() {
	s.slots = s.slots[:0]
}

// lookup returns the slot owned by the definition at index.
func (s *store) lookup(index int) *alarm.State {
	for i := range s.slots {
		if s.slots[i].Index == index {
			return &s.slots[i]
		}
	}

	return nil
}

// acquire returns the slot owned by index, allocating one if needed.
func (s *store) acquire(index int, def *alarm.Definition) (*alarm.State, error) {
	if slot := s.lookup(index); slot != nil {
		return slot, nil
	}

	if len(s.slots) >= s.capacity {
		return nil, ErrStoreFull
	}

	s.slots = append(s.slots, alarm.NewState(index, def))

	return &s.slots[len(s.slots)-1], nil
}

// at returns the slot at position i in allocation order.
func (s *store) at(i int) *alarm.State {
	if i < 0 || i >= len(s.slots) {
		return nil
	}

	return &s.slots[i]
}

func (s *store) len() int {
	return len(s.slots)
}
