package signal

import (
	"math"
	"sync"
	"time"
)

// reading is one pushed measurement.
type reading struct {
	value float64
	at    time.Time
}

// PushSource is a signal source fed by acquisition collaborators.
//
// Readings expire after staleAfter so that a stalled producer fails safe:
// the engine sees NaN and no rule triggers on an old value.
type PushSource struct {
	// readings holds the latest value per signal name.
	readings map[string]reading
	// staleAfter is the validity of a reading; zero disables expiry.
	staleAfter time.Duration
	// now returns the current time.
	now func() time.Time
	// mu protects readings.
	mu sync.RWMutex
}

// Option configures a PushSource.
type Option func(*PushSource)

// WithClock replaces the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PushSource) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPushSource creates an empty source whose readings expire after staleAfter.
func NewPushSource(staleAfter time.Duration, opts ...Option) *PushSource {
	s := &PushSource{
		readings:   make(map[string]reading),
		staleAfter: staleAfter,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Set stores a reading for one signal.
func (s *PushSource) Set(name string, value float64) {
	s.SetAll(map[string]float64{name: value})
}

// SetAll stores a consistent batch of readings under one timestamp.
func (s *PushSource) SetAll(values map[string]float64) {
	s.Apply(values, nil)
}

// Invalidate forgets a signal so that it reads NaN.
func (s *PushSource) Invalidate(name string) {
	s.Apply(nil, []string{name})
}

// Apply stores values and forgets invalid as one update; readers never see
// half of it. A name present in both ends up invalid.
func (s *PushSource) Apply(values map[string]float64, invalid []string) {
	at := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, value := range values {
		s.readings[name] = reading{value: value, at: at}
	}

	for _, name := range invalid {
		delete(s.readings, name)
	}
}

// Read returns the latest valid reading or NaN.
func (s *PushSource) Read(name string) float64 {
	s.mu.RLock()
	r, ok := s.readings[name]
	s.mu.RUnlock()

	if !ok {
		return math.NaN()
	}

	if s.staleAfter > 0 && s.now().Sub(r.at) > s.staleAfter {
		return math.NaN()
	}

	return r.value
}

// Names returns the names of every signal ever pushed and not invalidated.
func (s *PushSource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.readings))
	for name := range s.readings {
		names = append(names, name)
	}

	return names
}

// Bool encodes a status flag as the 0/1 measurement rules compare against.
func Bool(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
