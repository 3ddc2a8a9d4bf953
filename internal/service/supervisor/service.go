package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/engine"
	"github.com/oshokin/chiller-supervisor/internal/logger"
	"github.com/oshokin/chiller-supervisor/internal/observability/metrics"
	repo "github.com/oshokin/chiller-supervisor/internal/repository/state"
	"github.com/oshokin/chiller-supervisor/internal/signal"
)

// service owns the alarm engine and serializes every access to it.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// engine evaluates the rulebook; it is not safe for concurrent use.
	engine *engine.Engine
	// source receives pushed signal readings.
	source *signal.PushSource
	// metrics is optional.
	metrics *metrics.Metrics
	// repo persists the alarm store; optional.
	repo repo.Repository
	// start is the origin of the millisecond counter passed to the engine.
	start time.Time
	// savedRevision is the engine revision last persisted.
	savedRevision uint64
	// mu protects engine and savedRevision, and orders pushes against ticks.
	mu sync.Mutex
}

// newService wraps eng and restores persisted alarm state when a repository is set.
func newService(
	ctx context.Context,
	eng *engine.Engine,
	source *signal.PushSource,
	m *metrics.Metrics,
	repository repo.Repository,
) (*service, error) {
	s := &service{
		engine:  eng,
		source:  source,
		metrics: m,
		repo:    repository,
		start:   time.Now(),
	}

	eng.Init()

	if repository == nil {
		s.savedRevision = eng.Revision()

		return s, nil
	}

	snapshot, err := repository.Load(ctx)

	switch {
	case err == nil:
		if err = eng.Restore(snapshot.Alarms); err != nil {
			// A changed rulebook invalidates the old slots; start clean.
			logger.WarnKV(ctx, "Discarding persisted alarm state", "error", err, "saved_at", snapshot.SavedAt)
		} else {
			logger.InfoKV(ctx, "Alarm state restored", "alarms", len(snapshot.Alarms), "saved_at", snapshot.SavedAt)
		}
	case errors.Is(err, repo.ErrNotFound):
		// Keep empty store.
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}

	s.savedRevision = eng.Revision()

	return s, nil
}

// millis converts a wall-clock instant to the engine's wrapping millisecond counter.
func (s *service) millis(now time.Time) uint32 {
	return uint32(now.Sub(s.start).Milliseconds()) //nolint:gosec // Wrapping is intended.
}

// tick runs one evaluation cycle at now.
func (s *service) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Tick(s.millis(now))

	if s.metrics != nil {
		summary := s.summaryLocked()
		s.metrics.ObserveTick(metrics.Gauges{
			ActiveWarnings: summary.ActiveWarnings,
			ActiveTrips:    summary.ActiveTrips,
			Tracked:        summary.Tracked,
			Untracked:      summary.Untracked,
		})
	}

	s.persistLocked(ctx)
}

// run ticks every interval until ctx is canceled.
func (s *service) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Alarm evaluation started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Alarm evaluation stopped")

			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// persistLocked saves the alarm store when it changed since the last save.
func (s *service) persistLocked(ctx context.Context) {
	if s.repo == nil || s.engine.Revision() == s.savedRevision {
		return
	}

	snapshot := &repo.Snapshot{
		SavedAt: time.Now(),
		Alarms:  s.engine.Snapshot(),
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		logger.Errorf(ctx, "Failed to persist alarm state: %v", err)

		return
	}

	s.savedRevision = s.engine.Revision()
}

// List returns every tracked alarm with its definition.
func (s *service) List(_ context.Context) []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entriesLocked()
}

func (s *service) entriesLocked() []domain.Entry {
	entries := make([]domain.Entry, 0, s.engine.Count())

	for i := range s.engine.Count() {
		st, ok := s.engine.Get(i)
		if !ok {
			break
		}

		def, _ := s.engine.Definition(st.Index)
		entries = append(entries, domain.Entry{Slot: i, Definition: def, State: st})
	}

	return entries
}

// Summary returns the supervisory overview.
func (s *service) Summary(_ context.Context) domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.summaryLocked()
}

func (s *service) summaryLocked() domain.Summary {
	summary := domain.Summary{
		Tracked:   s.engine.Count(),
		Capacity:  s.engine.Capacity(),
		Untracked: s.engine.Untracked(),
	}

	entries := s.entriesLocked()
	for i := range entries {
		summary.Add(&entries[i])
	}

	return summary
}

// AckAll acknowledges every tracked alarm.
func (s *service) AckAll(ctx context.Context, actor *domain.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.AckAll()
	s.persistLocked(ctx)

	logger.InfoKV(ctx, "Alarms acknowledged", "actor", actor.String())
}

// Reset clears the latched alarm in slot.
func (s *service) Reset(ctx context.Context, actor *domain.Actor, slot int) error {
	ctx = logger.WithKV(ctx, "slot", slot, "actor", actor.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Reset(slot); err != nil {
		logger.WarnKV(ctx, "Alarm reset refused", "error", err)

		return err
	}

	s.persistLocked(ctx)

	logger.Info(ctx, "Alarm reset")

	return nil
}

// ResetAll clears every latched alarm that qualifies.
func (s *service) ResetAll(ctx context.Context, actor *domain.Actor) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.engine.ResetAll()
	s.persistLocked(ctx)

	logger.InfoKV(ctx, "Alarms reset", "count", n, "actor", actor.String())

	return n
}

// PushSignals stores a batch of readings for the next tick.
// The batch lands between ticks, never during one.
func (s *service) PushSignals(ctx context.Context, values map[string]float64, invalid []string) {
	s.mu.Lock()
	s.source.Apply(values, invalid)
	s.mu.Unlock()

	logger.DebugKV(ctx, "Signals pushed", "count", len(values), "invalidated", len(invalid))
}
