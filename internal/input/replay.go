package input

import "sort"

// TimedEvent is an input edge stamped with the logical song time it
// was recorded at.
type TimedEvent struct {
	Ms    float64
	Event Event
}

// ReplaySource plays back a recorded input stream. An edge is released
// once the logical clock passes its timestamp, so a replay runs
// through the same judgement path a live player does.
type ReplaySource struct {
	Now func() float64

	events []TimedEvent
	cursor int
}

func NewReplaySource(events []TimedEvent, now func() float64) *ReplaySource {
	sorted := make([]TimedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ms < sorted[j].Ms })
	return &ReplaySource{Now: now, events: sorted}
}

func (s *ReplaySource) Poll() []Event {
	events := []Event{}
	now := s.Now()
	for s.cursor < len(s.events) && s.events[s.cursor].Ms <= now {
		events = append(events, s.events[s.cursor].Event)
		s.cursor++
	}
	return events
}

// Done reports whether every recorded edge has been released.
func (s *ReplaySource) Done() bool {
	return s.cursor >= len(s.events)
}

func (s *ReplaySource) Close() error {
	return nil
}
