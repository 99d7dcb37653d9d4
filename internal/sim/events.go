package sim

import (
	"fmt"
	"sort"
)

type Action string

const (
	ActionReset    Action = "reset"
	ActionOverride Action = "override"
)

// Event is an administrative action applied to the controller before the
// first tick at or after At.
type Event struct {
	At     float64 `yaml:"at" json:"at"`
	Action Action  `yaml:"action" json:"action"`
	Key    string  `yaml:"key,omitempty" json:"key,omitempty"`
}

func (e Event) Validate() error {
	switch e.Action {
	case ActionReset, ActionOverride:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
}

func (e Event) Apply(c Controller) {
	switch e.Action {
	case ActionReset:
		c.Reset()
	case ActionOverride:
		c.EngageOverride(e.Key)
	}
}

// timeEpsilon absorbs accumulated rounding in the step clock.
const timeEpsilon = 1e-9

type schedule struct {
	events []Event
	next   int
}

func newSchedule(events []Event) *schedule {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &schedule{events: sorted}
}

// apply fires every pending event due at or before t, in order.
func (s *schedule) apply(t float64, c Controller) {
	for s.next < len(s.events) && s.events[s.next].At <= t+timeEpsilon {
		s.events[s.next].Apply(c)
		s.next++
	}
}

func validateEvents(events []Event) error {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}
