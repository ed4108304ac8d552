package chart

import (
	"errors"
	"log"
	"sort"

	"git.lost.host/meutraa/rubi/internal/timing"
)

var (
	ErrNoTimeChanges = errors.New("chart has no time changes")
	ErrNoNotes       = errors.New("chart has no notes")
)

// ChartData is one playable bar line: its lanes, its time-ordered
// notes and its own scroll velocity list.
type ChartData struct {
	Name      string            `yaml:"name"`
	Lanes     int               `yaml:"lanes"`
	Playable  bool              `yaml:"playable"`
	Notes     []*NoteData       `yaml:"notes"`
	SvChanges []timing.SvChange `yaml:"svChanges,omitempty"`
	Sv        *timing.SvTrack   `yaml:"-"`
}

// RubiChart is the whole authored song.
type RubiChart struct {
	ScrollSpeed float64             `yaml:"scrollSpeed"`
	Difficulty  Difficulty          `yaml:"difficulty"`
	TimeChanges []timing.TimeChange `yaml:"timeChanges"`
	Charts      []*ChartData        `yaml:"charts"`
}

type Difficulty struct {
	Name   string `yaml:"name"`
	Rating int    `yaml:"rating,omitempty"`
}

// Validate refuses charts a playthrough cannot begin on.
func (r *RubiChart) Validate() error {
	if len(r.TimeChanges) == 0 {
		return ErrNoTimeChanges
	}
	for _, c := range r.Charts {
		if len(c.Notes) > 0 {
			return nil
		}
	}
	return ErrNoNotes
}

// TimeMap builds the conversion map for this song's tempo list.
func (r *RubiChart) TimeMap() *timing.TimeMap {
	return timing.NewTimeMap(r.TimeChanges)
}

// ConvertData recomputes every derived field of every bar line
// against the song's current tempo list. Must be called after load
// and after any mutation of TimeChanges or a chart's SvChanges.
func (r *RubiChart) ConvertData() {
	m := r.TimeMap()
	for _, c := range r.Charts {
		c.ConvertData(m)
	}
}

func (c *ChartData) ConvertData(m *timing.TimeMap) {
	c.Sv = timing.NewSvTrack(c.SvChanges, m)
	for _, n := range c.Notes {
		n.MsTime = m.MsAt(n.MeasureTime)
		if n.MeasureLength > 0 {
			n.MsLength = m.MsAt(n.MeasureEnd()) - n.MsTime
		} else {
			n.MsLength = 0
		}
		n.StartingSvIndex = c.Sv.IndexAt(n.MeasureTime)
		n.EndingSvIndex = c.Sv.IndexAt(n.MeasureEnd())
	}
}

// ScrollPositionOf returns the accumulated scroll distance for a
// note's head, used to place it on the scrolling timeline.
func (c *ChartData) ScrollPositionOf(n *NoteData) float64 {
	sv := c.Sv.Changes()[n.StartingSvIndex]
	return sv.Position + (n.MsTime-sv.MsTime)*sv.Multiplier
}

// NotesInLane returns the time-ordered notes of one lane. The backing
// notes are shared, not copied.
func (c *ChartData) NotesInLane(lane int) []*NoteData {
	notes := []*NoteData{}
	for _, n := range c.Notes {
		if n.Lane == lane {
			notes = append(notes, n)
		}
	}
	return notes
}

// Format sorts the notes and removes the ones that can never be
// judged: exact-time duplicates within a lane (the earlier note wins)
// and notes starting strictly inside a preceding hold's span.
func (c *ChartData) Format() {
	sort.SliceStable(c.Notes, func(i, j int) bool {
		if c.Notes[i].MeasureTime != c.Notes[j].MeasureTime {
			return c.Notes[i].MeasureTime < c.Notes[j].MeasureTime
		}
		return c.Notes[i].Lane < c.Notes[j].Lane
	})

	lastInLane := map[int]*NoteData{}
	kept := make([]*NoteData, 0, len(c.Notes))
	for _, n := range c.Notes {
		prev := lastInLane[n.Lane]
		if nil != prev {
			if n.MeasureTime == prev.MeasureTime {
				log.Printf("removing duplicate note at measure %v lane %v", n.MeasureTime, n.Lane)
				continue
			}
			if prev.IsHold() && n.MeasureTime > prev.MeasureTime && n.MeasureTime < prev.MeasureEnd() {
				log.Printf("removing note inside hold at measure %v lane %v", n.MeasureTime, n.Lane)
				continue
			}
		}
		lastInLane[n.Lane] = n
		kept = append(kept, n)
	}
	c.Notes = kept
}
