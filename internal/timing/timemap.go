package timing

import (
	"sort"
)

const (
	DefaultBpm                = 100.0
	DefaultTimeSigNumerator   = 4
	DefaultTimeSigDenominator = 4
)

// TimeChange is a tempo/time-signature change anchored to a measure.
// MsTime is derived, never authored.
type TimeChange struct {
	Measure            float64 `yaml:"measure"`
	Bpm                float64 `yaml:"bpm"`
	TimeSigNumerator   int     `yaml:"timeSigNumerator"`
	TimeSigDenominator int     `yaml:"timeSigDenominator"`
	MsTime             float64 `yaml:"-"`
}

// MeasureToMs converts a measure delta to milliseconds for a constant
// tempo segment. One measure at 100 BPM 4/4 is 2400ms.
func MeasureToMs(measureDelta, bpm float64, timeSigNumerator int) float64 {
	return measureDelta * (60000.0 / (bpm / float64(timeSigNumerator)))
}

// MsToMeasure is the inverse of MeasureToMs for the same segment.
func MsToMeasure(ms, bpm float64, timeSigNumerator int) float64 {
	return ms / (60000.0 / (bpm / float64(timeSigNumerator)))
}

// TimeMap owns the ordered TimeChange list of one song and converts
// between measure positions and absolute milliseconds.
type TimeMap struct {
	changes []TimeChange
}

func NewTimeMap(changes []TimeChange) *TimeMap {
	m := &TimeMap{}
	m.SetChanges(changes)
	return m
}

// DefaultTimeMap is a single change at measure 0, 100 BPM 4/4.
func DefaultTimeMap() *TimeMap {
	return NewTimeMap(nil)
}

// SetChanges replaces the list and recomputes every derived MsTime.
// An empty list is replaced with the default change, a chart without
// any tempo information is not playable.
func (m *TimeMap) SetChanges(changes []TimeChange) {
	if len(changes) == 0 {
		changes = []TimeChange{{
			Measure:            0,
			Bpm:                DefaultBpm,
			TimeSigNumerator:   DefaultTimeSigNumerator,
			TimeSigDenominator: DefaultTimeSigDenominator,
		}}
	}
	m.changes = make([]TimeChange, len(changes))
	copy(m.changes, changes)
	sort.SliceStable(m.changes, func(i, j int) bool {
		return m.changes[i].Measure < m.changes[j].Measure
	})
	m.reindex()
}

func (m *TimeMap) Reset() {
	m.SetChanges(nil)
}

func (m *TimeMap) Changes() []TimeChange {
	return m.changes
}

// reindex recomputes the MsTime prefix sums.
func (m *TimeMap) reindex() {
	m.changes[0].MsTime = 0
	for i := 1; i < len(m.changes); i++ {
		prev := m.changes[i-1]
		m.changes[i].MsTime = prev.MsTime +
			MeasureToMs(m.changes[i].Measure-prev.Measure, prev.Bpm, prev.TimeSigNumerator)
	}
}

// IndexAtMs returns the index of the last change whose MsTime <= ms,
// clamped into the valid range.
func (m *TimeMap) IndexAtMs(ms float64) int {
	idx := sort.Search(len(m.changes), func(i int) bool {
		return m.changes[i].MsTime > ms
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// IndexAtMeasure returns the index of the last change whose
// Measure <= measure, clamped into the valid range.
func (m *TimeMap) IndexAtMeasure(measure float64) int {
	idx := sort.Search(len(m.changes), func(i int) bool {
		return m.changes[i].Measure > measure
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// MsAt converts a measure position to absolute milliseconds.
func (m *TimeMap) MsAt(measure float64) float64 {
	c := m.changes[m.IndexAtMeasure(measure)]
	return c.MsTime + MeasureToMs(measure-c.Measure, c.Bpm, c.TimeSigNumerator)
}

// MeasureAt converts absolute milliseconds to a measure position.
func (m *TimeMap) MeasureAt(ms float64) float64 {
	c := m.changes[m.IndexAtMs(ms)]
	return c.Measure + MsToMeasure(ms-c.MsTime, c.Bpm, c.TimeSigNumerator)
}
