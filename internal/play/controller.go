package play

import (
	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/input"
	"git.lost.host/meutraa/rubi/internal/judge"
)

// pending is one queued judgement, collected during a tick and rated
// at flush time. Queueing keeps side effects out of the scan loops
// and makes the per-frame ordering deterministic.
type pending struct {
	note     *chart.NoteData
	index    int
	distance float64
	kind     judge.HitKind
}

// Controller judges one lane of one bar line.
type Controller struct {
	Lane     int
	Autoplay bool

	notes        []*chart.NoteData // time ordered, this lane only
	spawnIndex   int
	hitIndex     int
	holdingIndex int // -1 when no hold is active

	windows     judge.Windows
	lookaheadMs float64

	queue []pending

	registry *Registry

	OnSpawn     func(note *chart.NoteData)
	OnHit       func(result *judge.NoteResult)
	OnHoldUnset func(note *chart.NoteData)
}

func NewController(lane int, notes []*chart.NoteData, windows judge.Windows, lookaheadMs float64, registry *Registry) *Controller {
	return &Controller{
		Lane:         lane,
		notes:        notes,
		holdingIndex: -1,
		windows:      windows,
		lookaheadMs:  lookaheadMs,
		registry:     registry,
	}
}

func (c *Controller) Notes() []*chart.NoteData {
	return c.notes
}

// HitIndex is the cursor past the last judged note.
func (c *Controller) HitIndex() int {
	return c.hitIndex
}

func (c *Controller) HoldingIndex() int {
	return c.holdingIndex
}

// Spawn marks notes entering the lookahead window. Notes already in
// the past when first observed are skipped without spawning, so a
// seek does not flood the field with instantly stale notes.
func (c *Controller) Spawn(nowMs float64) {
	for c.spawnIndex < len(c.notes) {
		n := c.notes[c.spawnIndex]
		until := n.MsTime - nowMs
		if until > c.lookaheadMs {
			break
		}
		if until >= 0 && !n.Spawned {
			n.Spawned = true
			if nil != c.registry {
				c.registry.spawn(n)
			}
			if nil != c.OnSpawn {
				c.OnSpawn(n)
			}
		}
		c.spawnIndex++
	}
}

// RunAutoplay enqueues perfect hits for every note whose time has
// arrived, stopping at the first ShouldMiss note, which is judged by
// other means.
func (c *Controller) RunAutoplay(nowMs float64) {
	if !c.Autoplay {
		return
	}
	for c.hitIndex < len(c.notes) {
		n := c.notes[c.hitIndex]
		if n.MsTime-nowMs > 0 {
			break
		}
		if n.ShouldMiss {
			break
		}
		kind := judge.Tap
		if n.IsHold() {
			kind = judge.Hold
		}
		n.Hit = true
		c.enqueue(pending{note: n, index: c.hitIndex, distance: 0, kind: kind})
		c.hitIndex++
	}
}

// SweepMisses forces a miss for every note that has fallen past the
// worst window, so no note is ever left ungraded. The distance is
// pinned one past the window as a sentinel.
func (c *Controller) SweepMisses(nowMs float64) {
	bad := c.windows.Bad()
	for c.hitIndex < len(c.notes) {
		n := c.notes[c.hitIndex]
		if n.MsTime-nowMs > -bad {
			break
		}
		n.Hit = true
		c.enqueue(pending{note: n, index: c.hitIndex, distance: -bad - 1, kind: judge.Tap})
		c.hitIndex++
	}
}

// HandleInput translates one press or release edge into a queued
// judgement. Echo events from key repeat are ignored.
func (c *Controller) HandleInput(ev input.Event, nowMs float64) {
	if c.Autoplay || ev.Echo || ev.Lane != c.Lane {
		return
	}

	if !ev.Pressed {
		if c.holdingIndex < 0 {
			return
		}
		n := c.notes[c.holdingIndex]
		if nil != c.OnHoldUnset {
			c.OnHoldUnset(n)
		}
		c.enqueue(pending{
			note:     n,
			index:    c.holdingIndex,
			distance: n.MsEnd() - nowMs,
			kind:     judge.Tail,
		})
		c.holdingIndex = -1
		return
	}

	if c.hitIndex >= len(c.notes) {
		return
	}
	n := c.notes[c.hitIndex]
	distance := n.MsTime - nowMs
	if distance > c.windows.Bad() || distance < -c.windows.Bad() {
		return
	}
	kind := judge.Tap
	if n.IsHold() {
		kind = judge.Hold
		c.holdingIndex = c.hitIndex
	}
	n.Hit = true
	c.enqueue(pending{note: n, index: c.hitIndex, distance: distance, kind: kind})
	c.hitIndex++
}

func (c *Controller) enqueue(p pending) {
	c.queue = append(c.queue, p)
}

// Flush rates every queued judgement in insertion order, runs the
// note type modules over the result and fires the hit callback.
// currentMeasure feeds the tail rule.
func (c *Controller) Flush(currentMeasure float64) {
	queue := c.queue
	c.queue = c.queue[:0]
	for _, p := range queue {
		result := &judge.NoteResult{
			Note:     p.note,
			Distance: p.distance,
			Index:    p.index,
			Kind:     p.kind,
		}
		if p.kind == judge.Tail {
			result.Rating = judge.RateTail(currentMeasure, p.note.MeasureEnd())
		} else {
			result.Rating = c.windows.Rate(p.distance)
		}
		if p.kind == judge.Hold && result.Rating == judge.Miss {
			result.Kind = judge.Tap
		}
		if nil != c.registry {
			c.registry.hit(result)
		}
		if nil != c.OnHit {
			c.OnHit(result)
		}
	}
}

// Discard drops any judgements still queued, used when a playthrough
// is torn down mid tick.
func (c *Controller) Discard() {
	c.queue = c.queue[:0]
}
