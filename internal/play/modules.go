package play

import (
	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/judge"
)

// MineModule gives "mine" notes their inverted semantics: letting one
// scroll past is free, striking one is penalised. Registered under
// the "mine" tag.
type MineModule struct{}

func (m *MineModule) OnInitialize(notes []*chart.NoteData) {
	// Mines are never autoplayed and never score on their own.
	for _, n := range notes {
		n.ShouldMiss = true
		n.CountsTowardScore = false
	}
}

func (m *MineModule) OnSpawn(note *chart.NoteData) {}

func (m *MineModule) OnHit(result *judge.NoteResult) {
	if result.Rating == judge.Miss {
		// Swept past untouched, exactly what the player wanted.
		result.Flags |= judge.SuppressHealth | judge.SuppressScore |
			judge.SuppressSplash | judge.SuppressAnimation
		return
	}
	// Struck. Health pays for it, the score ladder does not.
	result.Rating = judge.Miss
	result.Flags |= judge.SuppressScore | judge.SuppressSplash
}
