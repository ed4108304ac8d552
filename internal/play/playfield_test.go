package play

import (
	"errors"
	"testing"
	"time"

	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/judge"
	"git.lost.host/meutraa/rubi/internal/timing"
)

// stubClock stands in for the audio device.
type stubClock struct {
	position time.Duration
	playing  bool
	seeked   []time.Duration
}

func (c *stubClock) Position() time.Duration { return c.position }
func (c *stubClock) Playing() bool           { return c.playing }
func (c *stubClock) Seek(to time.Duration) error {
	c.seeked = append(c.seeked, to)
	c.position = to
	return nil
}

func testSong(times ...float64) *chart.RubiChart {
	notes := make([]*chart.NoteData, len(times))
	for i, t := range times {
		notes[i] = &chart.NoteData{Lane: i % 4, MeasureTime: t}
	}
	return &chart.RubiChart{
		ScrollSpeed: 1.0,
		TimeChanges: []timing.TimeChange{
			{Measure: 0, Bpm: 100, TimeSigNumerator: 4, TimeSigDenominator: 4},
		},
		Charts: []*chart.ChartData{
			{Name: "player", Lanes: 4, Playable: true, Notes: notes},
		},
	}
}

// drive runs a playfield on a deterministic clock until past endMs.
func drive(p *PlayField, endMs float64) {
	now := time.Unix(100, 0)
	p.Conductor.Now = func() time.Time { return now }
	p.Start(0)
	for p.Conductor.Time() < endMs {
		p.Tick(nil)
		now = now.Add(16 * time.Millisecond)
	}
	p.Tick(nil)
}

func TestNewRejectsInvalidChart(t *testing.T) {
	song := testSong()
	_, err := New(song, nil, nil, DefaultOptions())
	if !errors.Is(err, chart.ErrNoNotes) {
		t.Log("error", err)
		t.Fail()
	}

	song = testSong(1.0)
	song.TimeChanges = nil
	_, err = New(song, nil, nil, DefaultOptions())
	if !errors.Is(err, chart.ErrNoTimeChanges) {
		t.Log("error", err)
		t.Fail()
	}
}

func TestAutoplayFullRun(t *testing.T) {
	song := testSong(0.25, 0.5, 0.75, 1.0)
	opts := DefaultOptions()
	opts.Autoplay = true
	p, err := New(song, nil, nil, opts)
	if nil != err {
		t.Fatal(err)
	}

	hits := 0
	p.OnNoteHit = func(barLine int, r *judge.NoteResult) {
		if r.Rating != judge.Perfect {
			t.Log("autoplay rating", r.Rating)
			t.Fail()
		}
		hits++
	}

	drive(p, 4000)

	if hits != 4 {
		t.Log("hits", hits)
		t.Fail()
	}
	if p.Score.Combo != 4 || p.Score.Counts[judge.Perfect] != 4 {
		t.Log("combo", p.Score.Combo, "counts", p.Score.Counts)
		t.Fail()
	}
}

func TestNoInputRunMissesEverything(t *testing.T) {
	song := testSong(0.25, 0.5, 0.75)
	p, err := New(song, nil, nil, DefaultOptions())
	if nil != err {
		t.Fatal(err)
	}

	drive(p, 2500)

	if p.Score.Counts[judge.Miss] != 3 {
		t.Log("miss count", p.Score.Counts[judge.Miss])
		t.Fail()
	}
	for _, ctrl := range p.BarLines()[0].Controllers {
		if ctrl.HitIndex() != len(ctrl.Notes()) {
			t.Log("lane", ctrl.Lane, "hit index", ctrl.HitIndex())
			t.Fail()
		}
	}
}

func TestUnscoredBarLineDoesNotTouchScore(t *testing.T) {
	song := testSong(0.5)
	song.Charts = append(song.Charts, &chart.ChartData{
		Name:  "npc",
		Lanes: 4,
		Notes: []*chart.NoteData{{Lane: 0, MeasureTime: 0.5}},
	})
	opts := DefaultOptions()
	opts.Autoplay = true
	p, err := New(song, nil, nil, opts)
	if nil != err {
		t.Fatal(err)
	}

	npcHits := 0
	p.OnNoteHit = func(barLine int, r *judge.NoteResult) {
		if barLine == 1 {
			npcHits++
		}
	}

	drive(p, 2000)

	if npcHits != 1 {
		t.Log("npc hits", npcHits)
		t.Fail()
	}
	if p.Score.TotalJudged() != 1 {
		t.Log("judged", p.Score.TotalJudged())
		t.Fail()
	}
}

func TestResyncSeeksDriftingClock(t *testing.T) {
	song := testSong(4.0) // keep the session alive past the check
	clock := &stubClock{playing: true}
	p, err := New(song, clock, nil, DefaultOptions())
	if nil != err {
		t.Fatal(err)
	}

	drift := 0.0
	p.OnResync = func(d float64) { drift = d }

	now := time.Unix(100, 0)
	p.Conductor.Now = func() time.Time { return now }
	p.Start(0)

	// audio lags 50ms behind: inside the threshold, no reseek
	now = now.Add(1000 * time.Millisecond)
	clock.position = 950 * time.Millisecond
	p.Tick(nil)
	if len(clock.seeked) != 0 {
		t.Log("reseeked inside threshold")
		t.Fail()
	}

	// audio lags 400ms behind: reseek to the conductor
	now = now.Add(1000 * time.Millisecond)
	clock.position = 1600 * time.Millisecond
	p.Tick(nil)
	if len(clock.seeked) != 1 || clock.seeked[0] != 2*time.Second {
		t.Log("seeked", clock.seeked)
		t.Fail()
	}
	if drift < 399 || drift > 401 {
		t.Log("drift", drift)
		t.Fail()
	}
}

func TestResyncAtScaledRate(t *testing.T) {
	song := testSong(8.0)
	clock := &stubClock{playing: true}
	p, err := New(song, clock, nil, DefaultOptions())
	if nil != err {
		t.Fatal(err)
	}
	p.Conductor.Speed = 1.5

	now := time.Unix(100, 0)
	p.Conductor.Now = func() time.Time { return now }
	p.Start(0)

	// device runs at the scaled sample rate, so after 1000ms of real
	// time its position tracks the logical chart time exactly
	now = now.Add(1000 * time.Millisecond)
	clock.position = 1500 * time.Millisecond
	p.Tick(nil)
	if len(clock.seeked) != 0 {
		t.Log("reseeked an in-sync clock", clock.seeked)
		t.Fail()
	}

	// real lag reseeks to the logical time, not the wall clock
	now = now.Add(1000 * time.Millisecond)
	clock.position = 2600 * time.Millisecond
	p.Tick(nil)
	if len(clock.seeked) != 1 || clock.seeked[0] != 3*time.Second {
		t.Log("seeked", clock.seeked)
		t.Fail()
	}
}

func TestFailedFiresOnce(t *testing.T) {
	// enough misses to drain the starting health
	times := []float64{}
	for i := 0; i < 10; i++ {
		times = append(times, 0.1+float64(i)*0.1)
	}
	song := testSong(times...)
	p, err := New(song, nil, nil, DefaultOptions())
	if nil != err {
		t.Fatal(err)
	}

	failed := 0
	p.OnFailed = func() { failed++ }

	drive(p, 4000)

	if !p.Failed() || failed != 1 {
		t.Log("failed", p.Failed(), "events", failed)
		t.Fail()
	}
}

func TestBarLineAddRemoveEvents(t *testing.T) {
	song := testSong(0.5)
	p, err := New(song, nil, nil, DefaultOptions())
	if nil != err {
		t.Fatal(err)
	}

	added, removed := -1, -1
	p.OnBarLineAdded = func(i int) { added = i }
	p.OnBarLineRemoved = func(i int) { removed = i }

	p.AddBarLine(&chart.ChartData{Name: "npc", Lanes: 4,
		Notes: []*chart.NoteData{{Lane: 0, MeasureTime: 1.0}}})
	if added != 1 || len(p.BarLines()) != 2 {
		t.Log("added", added, "bar lines", len(p.BarLines()))
		t.Fail()
	}

	p.RemoveBarLine(1)
	if removed != 1 || len(p.BarLines()) != 1 {
		t.Log("removed", removed, "bar lines", len(p.BarLines()))
		t.Fail()
	}
}
