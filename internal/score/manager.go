package score

import (
	"git.lost.host/meutraa/rubi/internal/judge"
)

var (
	// accuracy weight and base score per rating, Perfect..Miss
	weights = [...]float64{1.0, 0.95, 0.65, 0.3, 0.1, 0.0}
	bases   = [...]float64{350, 300, 200, 100, 50, 0}
	// health delta per rating
	gains = [...]float64{0.023, 0.015, 0.005, -0.02, -0.04, -0.08}
)

// Manager aggregates judged results for the player bar line. One call
// per result; counters only ever grow.
type Manager struct {
	Combo        int
	HighestCombo int
	Counts       [6]int
	Accuracy     float64
	Score        float64
	Health       float64

	totalJudged int
	weightSum   float64
}

func NewManager() *Manager {
	return &Manager{Health: 0.5}
}

// AddResult folds one judged note into the running totals.
func (m *Manager) AddResult(r *judge.NoteResult) {
	if !r.Flags.Has(judge.SuppressHealth) {
		m.Health += gains[r.Rating]
		if m.Health > 1 {
			m.Health = 1
		}
		if m.Health < 0 {
			m.Health = 0
		}
	}

	if r.Flags.Has(judge.SuppressScore) || !r.Note.CountsTowardScore {
		return
	}

	m.Counts[r.Rating]++
	m.totalJudged++
	m.weightSum += weights[r.Rating]
	m.Accuracy = 100.0 * m.weightSum / float64(m.totalJudged)

	if r.Rating.BreaksCombo() {
		m.Combo = 0
	} else {
		m.Combo++
		if m.Combo > m.HighestCombo {
			m.HighestCombo = m.Combo
		}
	}

	bonus := float64(m.Combo)
	if bonus > 100 {
		bonus = 100
	}
	m.Score += bases[r.Rating] * (1.0 + bonus/100.0)
}

func (m *Manager) TotalJudged() int {
	return m.totalJudged
}

func (m *Manager) Failed() bool {
	return m.Health <= 0
}

// Rank buckets the accuracy the usual way.
func (m *Manager) Rank() string {
	switch {
	case m.totalJudged == 0:
		return "-"
	case m.Accuracy >= 100:
		return "SS"
	case m.Accuracy >= 95:
		return "S"
	case m.Accuracy >= 90:
		return "A"
	case m.Accuracy >= 80:
		return "B"
	case m.Accuracy >= 70:
		return "C"
	default:
		return "D"
	}
}
