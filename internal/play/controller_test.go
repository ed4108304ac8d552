package play

import (
	"testing"

	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/input"
	"git.lost.host/meutraa/rubi/internal/judge"
	"git.lost.host/meutraa/rubi/internal/timing"
)

func laneNotes(times ...float64) []*chart.NoteData {
	m := timing.DefaultTimeMap()
	notes := make([]*chart.NoteData, len(times))
	for i, t := range times {
		notes[i] = &chart.NoteData{Lane: 0, MeasureTime: t}
		notes[i].MsTime = m.MsAt(t)
	}
	return notes
}

func collect(c *Controller) *[]*judge.NoteResult {
	results := &[]*judge.NoteResult{}
	c.OnHit = func(r *judge.NoteResult) { *results = append(*results, r) }
	return results
}

func TestSpawnLookahead(t *testing.T) {
	notes := laneNotes(0.5, 1.0, 2.0) // 1200, 2400, 4800 ms
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)

	spawned := []*chart.NoteData{}
	c.OnSpawn = func(n *chart.NoteData) { spawned = append(spawned, n) }

	c.Spawn(0)
	if len(spawned) != 1 || spawned[0] != notes[0] {
		t.Log("spawned", spawned)
		t.Fail()
	}
	c.Spawn(1000)
	if len(spawned) != 2 {
		t.Log("spawned after advance", len(spawned))
		t.Fail()
	}
}

func TestSpawnSkipsStaleNotes(t *testing.T) {
	notes := laneNotes(0.5, 1.0)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)

	spawned := 0
	c.OnSpawn = func(n *chart.NoteData) { spawned++ }

	// first observation is already past both notes, e.g. after a seek
	c.Spawn(3000)
	if spawned != 0 {
		t.Log("stale notes spawned", spawned)
		t.Fail()
	}
	if notes[0].Spawned || notes[1].Spawned {
		t.Log("stale notes marked spawned")
		t.Fail()
	}
}

func TestAutoplayPerfectHits(t *testing.T) {
	notes := laneNotes(0.5, 1.0, 2.0)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	c.Autoplay = true
	results := collect(c)

	c.RunAutoplay(2500)
	c.Flush(0)

	if len(*results) != 2 {
		t.Log("results", len(*results))
		t.Fail()
	}
	for _, r := range *results {
		if r.Rating != judge.Perfect || r.Distance != 0 {
			t.Log("result", r)
			t.Fail()
		}
	}
	if c.HitIndex() != 2 {
		t.Log("hit index", c.HitIndex())
		t.Fail()
	}
}

func TestAutoplayStopsAtShouldMiss(t *testing.T) {
	notes := laneNotes(0.5, 1.0, 1.5)
	notes[1].ShouldMiss = true
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	c.Autoplay = true
	results := collect(c)

	c.RunAutoplay(5000)
	c.Flush(0)

	if len(*results) != 1 || c.HitIndex() != 1 {
		t.Log("results", len(*results), "hit index", c.HitIndex())
		t.Fail()
	}
}

func TestLateSweepCompleteness(t *testing.T) {
	notes := laneNotes(0.25, 0.5, 0.75, 1.0, 1.25)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	// simulate ticks with no input at all, well past the last note
	for now := 0.0; now < notes[len(notes)-1].MsTime+1000; now += 16 {
		c.Spawn(now)
		c.SweepMisses(now)
		c.Flush(0)
	}

	if len(*results) != len(notes) {
		t.Log("judged", len(*results), "of", len(notes))
		t.Fail()
	}
	if c.HitIndex() != len(notes) {
		t.Log("hit index", c.HitIndex())
		t.Fail()
	}
	bad := judge.DefaultWindows().Bad()
	for _, r := range *results {
		if r.Rating != judge.Miss {
			t.Log("rating", r.Rating)
			t.Fail()
		}
		if r.Distance != -bad-1 {
			t.Log("sentinel distance", r.Distance)
			t.Fail()
		}
	}
}

func TestManualHitWithinWindow(t *testing.T) {
	notes := laneNotes(1.0) // 2400ms
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	c.HandleInput(input.Event{Lane: 0, Pressed: true}, 2370)
	c.Flush(0)

	if len(*results) != 1 {
		t.Log("results", len(*results))
		t.Fatal()
	}
	r := (*results)[0]
	if r.Rating != judge.Great || r.Distance != 30 || r.Kind != judge.Tap {
		t.Log("result", r)
		t.Fail()
	}
}

func TestManualHitOutsideWindowIgnored(t *testing.T) {
	notes := laneNotes(1.0)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	c.HandleInput(input.Event{Lane: 0, Pressed: true}, 2000)
	c.Flush(0)

	if len(*results) != 0 || c.HitIndex() != 0 {
		t.Log("early press consumed the note")
		t.Fail()
	}
}

func TestEchoEventsIgnored(t *testing.T) {
	notes := laneNotes(1.0)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	c.HandleInput(input.Event{Lane: 0, Pressed: true, Echo: true}, 2400)
	c.Flush(0)

	if len(*results) != 0 {
		t.Log("echo event judged a note")
		t.Fail()
	}
}

func TestHoldPressAndRelease(t *testing.T) {
	m := timing.DefaultTimeMap()
	hold := &chart.NoteData{Lane: 0, MeasureTime: 1.0, MeasureLength: 1.0}
	hold.MsTime = m.MsAt(1.0)
	hold.MsLength = m.MsAt(2.0) - hold.MsTime

	c := NewController(0, []*chart.NoteData{hold}, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	unset := 0
	c.OnHoldUnset = func(n *chart.NoteData) { unset++ }

	c.HandleInput(input.Event{Lane: 0, Pressed: true}, 2400)
	if c.HoldingIndex() != 0 {
		t.Log("holding index", c.HoldingIndex())
		t.Fail()
	}
	c.Flush(1.0)

	// release close to the tail, current measure 1.9 vs end measure 2.0
	c.HandleInput(input.Event{Lane: 0, Pressed: false}, 4560)
	c.Flush(1.9)

	if len(*results) != 2 {
		t.Log("results", len(*results))
		t.Fatal()
	}
	if (*results)[0].Kind != judge.Hold || (*results)[0].Rating != judge.Perfect {
		t.Log("head result", (*results)[0])
		t.Fail()
	}
	if (*results)[1].Kind != judge.Tail || (*results)[1].Rating != judge.Perfect {
		t.Log("tail result", (*results)[1])
		t.Fail()
	}
	if unset != 1 || c.HoldingIndex() != -1 {
		t.Log("unset", unset, "holding", c.HoldingIndex())
		t.Fail()
	}
}

func TestHoldEarlyReleaseTailMisses(t *testing.T) {
	m := timing.DefaultTimeMap()
	hold := &chart.NoteData{Lane: 0, MeasureTime: 1.0, MeasureLength: 2.0}
	hold.MsTime = m.MsAt(1.0)
	hold.MsLength = m.MsAt(3.0) - hold.MsTime

	c := NewController(0, []*chart.NoteData{hold}, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	c.HandleInput(input.Event{Lane: 0, Pressed: true}, 2400)
	c.Flush(1.0)
	// release right away, two measures before the tail
	c.HandleInput(input.Event{Lane: 0, Pressed: false}, 2500)
	c.Flush(1.04)

	if len(*results) != 2 {
		t.Log("results", len(*results))
		t.Fatal()
	}
	if (*results)[1].Kind != judge.Tail || (*results)[1].Rating != judge.Miss {
		t.Log("tail result", (*results)[1])
		t.Fail()
	}
}

func TestFlushPreservesInsertionOrder(t *testing.T) {
	notes := laneNotes(0.1, 0.2, 0.3)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	// everything is late, the sweep enqueues in note order
	c.SweepMisses(10000)
	c.Flush(0)

	for i, r := range *results {
		if r.Index != i {
			t.Log("order", i, r.Index)
			t.Fail()
		}
	}
}

func TestDiscardDropsQueue(t *testing.T) {
	notes := laneNotes(0.1)
	c := NewController(0, notes, judge.DefaultWindows(), 2000, nil)
	results := collect(c)

	c.SweepMisses(10000)
	c.Discard()
	c.Flush(0)

	if len(*results) != 0 {
		t.Log("discarded judgements still committed")
		t.Fail()
	}
}
