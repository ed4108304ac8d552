package judge

import (
	"math"

	"git.lost.host/meutraa/rubi/internal/chart"
)

type Judgment int

const (
	Perfect Judgment = iota
	Great
	Good
	Okay
	Bad
	Miss
)

var names = [...]string{"Perfect", "Great", "Good", "Okay", "Bad", "Miss"}

func (j Judgment) String() string {
	if j < Perfect || j > Miss {
		return "Unknown"
	}
	return names[j]
}

// BreaksCombo reports whether this rating resets the combo.
func (j Judgment) BreaksCombo() bool {
	return j >= Okay
}

// Windows are the five ascending hit thresholds in milliseconds,
// Perfect through Bad. Anything outside the last is a Miss.
type Windows [5]float64

func DefaultWindows() Windows {
	return Windows{16, 40, 73, 103, 139}
}

// Bad is the worst window, the judgeable range boundary.
func (w Windows) Bad() float64 {
	return w[4]
}

// Rate maps a signed millisecond distance to the smallest window that
// contains it. Boundaries are inclusive.
func (w Windows) Rate(distance float64) Judgment {
	d := math.Abs(distance)
	for i := 0; i < len(w); i++ {
		if d <= w[i] {
			return Judgment(i)
		}
	}
	return Miss
}

// RateTail judges a hold release against its tail. The tolerance is a
// full measure, not a millisecond window, and the boundary misses.
func RateTail(currentMeasure, noteEndMeasure float64) Judgment {
	if math.Abs(currentMeasure-noteEndMeasure) < 1.0 {
		return Perfect
	}
	return Miss
}

type HitKind int

const (
	Tap HitKind = iota
	Hold
	Tail
)

type ResultFlags uint8

const (
	SuppressHealth ResultFlags = 1 << iota
	SuppressScore
	SuppressSplash
	SuppressAnimation
)

func (f ResultFlags) Has(flag ResultFlags) bool {
	return f&flag != 0
}

// NoteResult is one judged hit. It is mutable so registered note-type
// modules can override the rating or flags before it is committed.
type NoteResult struct {
	Note     *chart.NoteData
	Distance float64
	Index    int
	Rating   Judgment
	Kind     HitKind
	Flags    ResultFlags
}
