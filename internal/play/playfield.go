package play

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/rubi/internal/audio"
	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/conductor"
	"git.lost.host/meutraa/rubi/internal/input"
	"git.lost.host/meutraa/rubi/internal/judge"
	"git.lost.host/meutraa/rubi/internal/score"
)

// BarLine is one playable lane group and its per-lane controllers.
type BarLine struct {
	Chart       *chart.ChartData
	Controllers []*Controller
	Scored      bool
}

// Options are the externally configured tuning knobs.
type Options struct {
	Windows     judge.Windows
	LookaheadMs float64
	ResyncMs    float64
	Autoplay    bool // autoplay the player bar line too
}

func DefaultOptions() Options {
	return Options{
		Windows:     judge.DefaultWindows(),
		LookaheadMs: 2000,
		ResyncMs:    150,
	}
}

// PlayField owns one playthrough: a conductor, the bar lines and the
// score aggregation. All observer callbacks fire synchronously from
// within Tick.
type PlayField struct {
	Song      *chart.RubiChart
	Conductor *conductor.Conductor
	Score     *score.Manager

	clock    audio.Clock
	barLines []*BarLine
	registry *Registry
	opts     Options
	failed   bool

	OnNoteSpawned    func(barLine int, note *chart.NoteData)
	OnNoteHit        func(barLine int, result *judge.NoteResult)
	OnStatistics     func(combo int, rating judge.Judgment, distance float64)
	OnResync         func(driftMs float64)
	OnFailed         func()
	OnBarLineAdded   func(index int)
	OnBarLineRemoved func(index int)
}

// New validates and prepares a chart and builds the session around
// it. The song's derived data is recomputed here, so callers may hand
// in freshly loaded or freshly edited charts.
func New(song *chart.RubiChart, clock audio.Clock, registry *Registry, opts Options) (*PlayField, error) {
	if err := song.Validate(); nil != err {
		return nil, fmt.Errorf("unable to start playthrough: %w", err)
	}
	if nil == registry {
		registry = NewRegistry()
	}

	for _, c := range song.Charts {
		c.Format()
	}
	song.ConvertData()

	p := &PlayField{
		Song:      song,
		Conductor: conductor.New(song.TimeMap()),
		Score:     score.NewManager(),
		clock:     clock,
		registry:  registry,
		opts:      opts,
	}

	for _, c := range song.Charts {
		if c.Playable {
			for _, n := range c.Notes {
				n.CountsTowardScore = true
			}
		}
		registry.Initialize(c.Notes)
		p.addBarLine(c)
	}
	return p, nil
}

func (p *PlayField) addBarLine(c *chart.ChartData) {
	index := len(p.barLines)
	bl := &BarLine{Chart: c, Scored: c.Playable}
	for lane := 0; lane < c.Lanes; lane++ {
		ctrl := NewController(lane, c.NotesInLane(lane), p.opts.Windows, p.opts.LookaheadMs, p.registry)
		ctrl.Autoplay = !c.Playable || p.opts.Autoplay
		ctrl.OnSpawn = func(n *chart.NoteData) {
			if nil != p.OnNoteSpawned {
				p.OnNoteSpawned(index, n)
			}
		}
		ctrl.OnHit = func(result *judge.NoteResult) {
			if bl.Scored {
				p.Score.AddResult(result)
				if nil != p.OnStatistics {
					p.OnStatistics(p.Score.Combo, result.Rating, result.Distance)
				}
			}
			if nil != p.OnNoteHit {
				p.OnNoteHit(index, result)
			}
		}
		bl.Controllers = append(bl.Controllers, ctrl)
	}
	p.barLines = append(p.barLines, bl)
}

// AddBarLine attaches another lane group mid-session.
func (p *PlayField) AddBarLine(c *chart.ChartData) {
	c.ConvertData(p.Conductor.TimeMap())
	p.addBarLine(c)
	if nil != p.OnBarLineAdded {
		p.OnBarLineAdded(len(p.barLines) - 1)
	}
}

// RemoveBarLine detaches a lane group, discarding any judgements it
// had queued this tick.
func (p *PlayField) RemoveBarLine(index int) {
	if index < 0 || index >= len(p.barLines) {
		return
	}
	for _, ctrl := range p.barLines[index].Controllers {
		ctrl.Discard()
	}
	p.barLines = append(p.barLines[:index], p.barLines[index+1:]...)
	if nil != p.OnBarLineRemoved {
		p.OnBarLineRemoved(index)
	}
}

func (p *PlayField) BarLines() []*BarLine {
	return p.barLines
}

func (p *PlayField) Failed() bool {
	return p.failed
}

func (p *PlayField) Start(atMs float64) {
	p.Conductor.Play(atMs)
}

func (p *PlayField) Pause() {
	p.Conductor.Pause()
}

func (p *PlayField) Resume() {
	p.Conductor.Resume()
}

// Stop tears the session down. Queued judgements are discarded, not
// committed.
func (p *PlayField) Stop() {
	for _, bl := range p.barLines {
		for _, ctrl := range bl.Controllers {
			ctrl.Discard()
		}
	}
	p.Conductor.Stop()
}

// Tick runs one frame: spawn, autoplay, late sweep, manual input,
// flush, in that order across every bar line, then reconciles the
// audio clock. The ordering is what makes replays reproducible.
func (p *PlayField) Tick(events []input.Event) {
	p.Conductor.Tick()
	now := p.Conductor.Time()

	for _, bl := range p.barLines {
		for _, ctrl := range bl.Controllers {
			ctrl.Spawn(now)
		}
	}
	for _, bl := range p.barLines {
		for _, ctrl := range bl.Controllers {
			ctrl.RunAutoplay(now)
		}
	}
	for _, bl := range p.barLines {
		for _, ctrl := range bl.Controllers {
			ctrl.SweepMisses(now)
		}
	}
	for _, ev := range events {
		for _, bl := range p.barLines {
			if !bl.Scored {
				continue
			}
			for _, ctrl := range bl.Controllers {
				ctrl.HandleInput(ev, now)
			}
		}
	}

	measure := p.Conductor.CurrentMeasure()
	for _, bl := range p.barLines {
		for _, ctrl := range bl.Controllers {
			ctrl.Flush(measure)
		}
	}

	p.resync()

	if !p.failed && p.Score.Failed() {
		p.failed = true
		if nil != p.OnFailed {
			p.OnFailed()
		}
	}
}

// resync seeks the audio device back to the conductor when the drift
// crosses the threshold. Drift inside the threshold is left alone.
// The device is started at a rate-scaled sample rate, so its position
// advances in logical chart time and is compared against Time, not
// the unscaled wall clock.
func (p *PlayField) resync() {
	if nil == p.clock || !p.Conductor.Playing() || !p.clock.Playing() {
		return
	}
	drift := p.Conductor.Time() - float64(p.clock.Position())/float64(time.Millisecond)
	if drift > p.opts.ResyncMs || drift < -p.opts.ResyncMs {
		target := time.Duration(p.Conductor.Time() * float64(time.Millisecond))
		if err := p.clock.Seek(target); nil != err {
			return
		}
		if nil != p.OnResync {
			p.OnResync(drift)
		}
	}
}
