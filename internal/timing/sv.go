package timing

import (
	"sort"
)

// SvChange is a scroll velocity multiplier change anchored to a
// measure. MsTime and Position are derived from the owning TimeMap.
// Position is the accumulated distance integral up to this change,
// not a literal coordinate.
type SvChange struct {
	Measure    float64 `yaml:"measure"`
	Multiplier float64 `yaml:"multiplier"`
	MsTime     float64 `yaml:"-"`
	Position   float64 `yaml:"-"`
}

// SvTrack holds the ordered SvChange list of one bar line and answers
// scroll distance queries against it.
type SvTrack struct {
	changes []SvChange
}

func NewSvTrack(changes []SvChange, m *TimeMap) *SvTrack {
	t := &SvTrack{}
	t.SetChanges(changes, m)
	return t
}

// SetChanges replaces the list and reindexes against the given map.
// An empty list gets a single 1.0x change at measure 0 so every query
// has a segment to land in.
func (t *SvTrack) SetChanges(changes []SvChange, m *TimeMap) {
	if len(changes) == 0 {
		changes = []SvChange{{Measure: 0, Multiplier: 1}}
	}
	t.changes = make([]SvChange, len(changes))
	copy(t.changes, changes)
	sort.SliceStable(t.changes, func(i, j int) bool {
		return t.changes[i].Measure < t.changes[j].Measure
	})
	t.Reindex(m)
}

// Reindex recomputes MsTime and the Position prefix integral. Must be
// called again whenever the owning TimeMap changes.
func (t *SvTrack) Reindex(m *TimeMap) {
	t.changes[0].MsTime = m.MsAt(t.changes[0].Measure)
	t.changes[0].Position = 0
	for i := 1; i < len(t.changes); i++ {
		prev := t.changes[i-1]
		t.changes[i].MsTime = m.MsAt(t.changes[i].Measure)
		t.changes[i].Position = prev.Position +
			(t.changes[i].MsTime-prev.MsTime)*prev.Multiplier
	}
}

func (t *SvTrack) Changes() []SvChange {
	return t.changes
}

// IndexAt returns the index of the last change whose Measure <= the
// query, clamped. A query landing exactly on a change selects it.
func (t *SvTrack) IndexAt(measure float64) int {
	idx := sort.Search(len(t.changes), func(i int) bool {
		return t.changes[i].Measure > measure
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// PositionAt returns the accumulated scroll distance at an absolute
// millisecond time, extrapolating past the last change.
func (t *SvTrack) PositionAt(ms float64) float64 {
	idx := sort.Search(len(t.changes), func(i int) bool {
		return t.changes[i].MsTime > ms
	}) - 1
	if idx < 0 {
		idx = 0
	}
	c := t.changes[idx]
	return c.Position + (ms-c.MsTime)*c.Multiplier
}
