package timing

import (
	"math"
	"testing"
)

func TestSvPositionIntegral(t *testing.T) {
	m := DefaultTimeMap()
	track := NewSvTrack([]SvChange{
		{Measure: 0, Multiplier: 1},
		{Measure: 1, Multiplier: 2},
		{Measure: 2, Multiplier: 0.5},
	}, m)
	changes := track.Changes()

	// 1 measure at 1.0x == 2400 distance
	if math.Abs(changes[1].Position-2400.0) > epsilon {
		t.Log("position", changes[1].Position)
		t.Log("expected", 2400.0)
		t.Fail()
	}
	// plus 1 measure at 2.0x
	if math.Abs(changes[2].Position-7200.0) > epsilon {
		t.Log("position", changes[2].Position)
		t.Log("expected", 7200.0)
		t.Fail()
	}
	// extrapolate half a measure past the last change at 0.5x
	if pos := track.PositionAt(6000.0); math.Abs(pos-7800.0) > epsilon {
		t.Log("position", pos)
		t.Log("expected", 7800.0)
		t.Fail()
	}
}

var svIndexTests = map[float64]int{
	-1.0: 0,
	0.0:  0,
	0.9:  0,
	1.0:  1, // exact boundary activates the change
	1.5:  1,
	2.0:  2,
	99.0: 2,
}

func TestSvIndexAt(t *testing.T) {
	m := DefaultTimeMap()
	track := NewSvTrack([]SvChange{
		{Measure: 0, Multiplier: 1},
		{Measure: 1, Multiplier: 2},
		{Measure: 2, Multiplier: 0.5},
	}, m)
	for measure, expected := range svIndexTests {
		if idx := track.IndexAt(measure); idx != expected {
			t.Log("measure ", measure)
			t.Log("out     ", idx)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestSvEmptyListGetsUnitChange(t *testing.T) {
	track := NewSvTrack(nil, DefaultTimeMap())
	changes := track.Changes()
	if len(changes) != 1 || changes[0].Multiplier != 1 {
		t.Log("changes", changes)
		t.Fail()
	}
}

func TestSvReindexFollowsTimeMap(t *testing.T) {
	m := NewTimeMap([]TimeChange{
		{Measure: 0, Bpm: 200, TimeSigNumerator: 4, TimeSigDenominator: 4},
	})
	track := NewSvTrack([]SvChange{
		{Measure: 0, Multiplier: 1},
		{Measure: 1, Multiplier: 3},
	}, m)
	// 1 measure at 200 BPM 4/4 is 1200ms
	if math.Abs(track.Changes()[1].MsTime-1200.0) > epsilon {
		t.Log("msTime", track.Changes()[1].MsTime)
		t.Fail()
	}
}
