package conductor

import (
	"math"
	"time"

	"git.lost.host/meutraa/rubi/internal/timing"
)

// Conductor is the transport clock of one playthrough. It produces a
// monotonically advancing logical time anchored to the wall clock and
// is periodically reconciled against the audio device by its owner.
// The conductor is the authority, audio playback is the slave.
type Conductor struct {
	Offset float64 // ms added to the raw clock
	Speed  float64

	timeMap *timing.TimeMap

	playing bool
	anchor  time.Time // wall clock at Play/Resume
	heldMs  float64   // raw time at the anchor, or the frozen time while paused
	tcIndex int

	// step/beat/measure memoization, keyed on the exact queried time
	cachedMs      float64
	cachedValid   bool
	cachedMeasure float64
	cachedBeat    float64
	cachedStep    float64

	lastMeasure int
	lastBeat    int
	lastStep    int

	// Injected clock for tests
	Now func() time.Time

	OnTimeChange func(index int)
	OnMeasureHit func(measure int)
	OnBeatHit    func(beat int)
	OnStepHit    func(step int)
}

func New(m *timing.TimeMap) *Conductor {
	if nil == m {
		m = timing.DefaultTimeMap()
	}
	return &Conductor{
		Speed:       1.0,
		timeMap:     m,
		Now:         time.Now,
		lastMeasure: -1,
		lastBeat:    -1,
		lastStep:    -1,
	}
}

func (c *Conductor) Playing() bool {
	return c.playing
}

func (c *Conductor) TimeMap() *timing.TimeMap {
	return c.timeMap
}

func (c *Conductor) TimeChangeIndex() int {
	return c.tcIndex
}

// rawMs is the un-offset, un-scaled clock value.
func (c *Conductor) rawMs() float64 {
	if !c.playing {
		return c.heldMs
	}
	return c.heldMs + float64(c.Now().Sub(c.anchor))/float64(time.Millisecond)
}

// AudioTime is the time the audio device should be at, in ms.
func (c *Conductor) AudioTime() float64 {
	return c.Offset + c.rawMs()
}

// Time is the logical song time in ms.
func (c *Conductor) Time() float64 {
	return c.AudioTime() * c.Speed
}

// Play starts playback at the given raw clock time.
func (c *Conductor) Play(ms float64) {
	c.anchor = c.Now()
	c.heldMs = ms
	c.playing = true
	c.resolveIndex()
}

// Pause samples the current time and freezes there.
func (c *Conductor) Pause() {
	c.heldMs = c.rawMs()
	c.playing = false
}

// Resume re-anchors against the held time and continues.
func (c *Conductor) Resume() {
	c.anchor = c.Now()
	c.playing = true
}

// Stop rewinds to zero and pauses.
func (c *Conductor) Stop() {
	c.SetTime(0)
	c.playing = false
}

// Reset restores the default tempo map and all transport state.
func (c *Conductor) Reset() {
	c.timeMap.Reset()
	c.Offset = 0
	c.Speed = 1.0
	c.tcIndex = 0
	c.cachedValid = false
	c.lastMeasure, c.lastBeat, c.lastStep = -1, -1, -1
	c.Stop()
}

// SetTime seeks to an explicit raw time. Unlike the tick path this
// re-resolves the time change index with a full search, so backward
// seeks land in the correct segment.
func (c *Conductor) SetTime(ms float64) {
	c.anchor = c.Now()
	c.heldMs = ms
	c.cachedValid = false
	c.resolveIndex()
}

func (c *Conductor) resolveIndex() {
	c.tcIndex = c.timeMap.IndexAtMs(c.Time())
}

// Tick advances the time change index and fires any boundary events
// crossed since the previous tick. Boundaries are level triggered on
// the integer floor value: a large jump fires only the final
// boundary, not the intermediate ones.
func (c *Conductor) Tick() {
	ms := c.Time()

	changes := c.timeMap.Changes()
	for c.tcIndex+1 < len(changes) && changes[c.tcIndex+1].MsTime <= ms {
		c.tcIndex++
		if nil != c.OnTimeChange {
			c.OnTimeChange(c.tcIndex)
		}
	}

	measure, beat, step := c.derive(ms)

	// Floor, not trunc: during a negative lead-in the boundaries must
	// not fire until the value is actually crossed.
	if m := int(math.Floor(measure)); m != c.lastMeasure {
		c.lastMeasure = m
		if nil != c.OnMeasureHit {
			c.OnMeasureHit(m)
		}
	}
	if b := int(math.Floor(beat)); b != c.lastBeat {
		c.lastBeat = b
		if nil != c.OnBeatHit {
			c.OnBeatHit(b)
		}
	}
	if s := int(math.Floor(step)); s != c.lastStep {
		c.lastStep = s
		if nil != c.OnStepHit {
			c.OnStepHit(s)
		}
	}
}

// derive computes measure/beat/step for a time against the active
// change, memoized on exact time equality so repeated queries inside
// one frame are free.
func (c *Conductor) derive(ms float64) (measure, beat, step float64) {
	if c.cachedValid && c.cachedMs == ms {
		return c.cachedMeasure, c.cachedBeat, c.cachedStep
	}

	changes := c.timeMap.Changes()
	idx := c.tcIndex
	if idx >= len(changes) {
		idx = len(changes) - 1
	}
	tc := changes[idx]

	measure = tc.Measure + timing.MsToMeasure(ms-tc.MsTime, tc.Bpm, tc.TimeSigNumerator)
	beat = measure * float64(tc.TimeSigNumerator)
	step = beat * float64(tc.TimeSigDenominator)

	c.cachedMs = ms
	c.cachedValid = true
	c.cachedMeasure = measure
	c.cachedBeat = beat
	c.cachedStep = step
	return measure, beat, step
}

// CurrentMeasure is the fractional measure position at the current time.
func (c *Conductor) CurrentMeasure() float64 {
	m, _, _ := c.derive(c.Time())
	return m
}

func (c *Conductor) CurrentBeat() float64 {
	_, b, _ := c.derive(c.Time())
	return b
}

func (c *Conductor) CurrentStep() float64 {
	_, _, s := c.derive(c.Time())
	return s
}
