package signal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestPushSource_ReadsLatest verifies readings, unknown names and invalidation.
func TestPushSource_ReadsLatest(t *testing.T) {
	t.Parallel()

	s := NewPushSource(0)
	require.True(t, math.IsNaN(s.Read("SuctionPressure")))

	s.Set("SuctionPressure", 120)
	s.SetAll(map[string]float64{"SuctionPressure": 105, "PhaseOK": Bool(true)})

	require.InDelta(t, 105.0, s.Read("SuctionPressure"), 0)
	require.InDelta(t, 1.0, s.Read("PhaseOK"), 0)
	require.ElementsMatch(t, []string{"SuctionPressure", "PhaseOK"}, s.Names())

	s.Invalidate("PhaseOK")
	require.True(t, math.IsNaN(s.Read("PhaseOK")))
	require.InDelta(t, 0.0, Bool(false), 0)
}

// TestPushSource_Apply stores and invalidates a batch in one update.
func TestPushSource_Apply(t *testing.T) {
	t.Parallel()

	s := NewPushSource(0)
	s.SetAll(map[string]float64{"OilPressure": 40, "CondLWT": 29})

	s.Apply(map[string]float64{"SuctionPressure": 112, "CondLWT": 31}, []string{"OilPressure", "CondLWT"})

	require.InDelta(t, 112.0, s.Read("SuctionPressure"), 0)
	require.True(t, math.IsNaN(s.Read("OilPressure")))
	require.True(t, math.IsNaN(s.Read("CondLWT")))
	require.ElementsMatch(t, []string{"SuctionPressure"}, s.Names())
}

// TestPushSource_Staleness verifies that old readings read NaN.
func TestPushSource_Staleness(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	s := NewPushSource(5*time.Second, WithClock(func() time.Time { return now }))

	s.Set("DischargePressure", 300)

	now = now.Add(5 * time.Second)
	require.InDelta(t, 300.0, s.Read("DischargePressure"), 0)

	now = now.Add(time.Millisecond)
	require.True(t, math.IsNaN(s.Read("DischargePressure")))

	s.Set("DischargePressure", 310)
	require.InDelta(t, 310.0, s.Read("DischargePressure"), 0)
}
