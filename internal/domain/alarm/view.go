package alarm

import "fmt"

// Actor identifies who performed a supervisory action.
type Actor struct {
	// Hostname is the machine the action came from.
	Hostname string
	// Username is the operator who performed it.
	Username string
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return fmt.Sprintf("%s@%s", a.Username, a.Hostname)
}

// Entry pairs a tracked state with its definition for HMI listings.
type Entry struct {
	// Slot is the position in the alarm store.
	Slot int
	// Definition is the owning rulebook row.
	Definition Definition
	// State is a copy of the live state.
	State State
}

// Summary is the supervisory overview of the alarm store.
type Summary struct {
	// AnyActive is true when any alarm or warning is asserted.
	AnyActive bool
	// AnyTrip is true when any trip-class alarm is asserted.
	AnyTrip bool
	// Tracked is the number of slots in use.
	Tracked int
	// Capacity is the number of slots available.
	Capacity int
	// Untracked is the number of definitions without a slot.
	Untracked int
	// ActiveWarnings counts asserted warnings.
	ActiveWarnings int
	// ActiveTrips counts asserted trips.
	ActiveTrips int
	// Unacknowledged counts asserted alarms nobody acknowledged.
	Unacknowledged int
}

// Add folds one entry into the summary counters.
func (s *Summary) Add(e *Entry) {
	if !e.State.Active {
		return
	}

	s.AnyActive = true

	if e.Definition.IsTrip() {
		s.AnyTrip = true
		s.ActiveTrips++
	} else {
		s.ActiveWarnings++
	}

	if !e.State.Acknowledged {
		s.Unacknowledged++
	}
}
