package oracle

import (
	"context"
	"fmt"
	"math/rand"
)

var fallbackNames = map[NameKind][]string{
	KindMonster: {
		"Gnashfang", "Murkspawn", "Hollow Oni", "Dustwraith", "Cindermaw",
		"Gloomtusk", "Rotclaw", "Palechitter", "Embergeist", "Sloggorath",
	},
	KindTraining: {
		"Morning Kata", "Iron Stance Drill", "Silent Repetition",
		"Thousand Strikes", "Breath of Focus", "Patient Blade",
	},
	KindMaster: {
		"Master Hoshino", "Elder Kagewara", "Sensei Mirumoto",
		"The Quiet Archivist", "Grandmother Willow",
	},
	KindAssassin: {
		"The Red Courier", "Nightglass", "Whisper of Noon", "Hour-Glass Adder",
		"The Patient Knife", "Deadline's Shadow",
	},
	KindBoss: {
		"Warden of the First Gate", "The Procrastinarch", "Clockjaw Tyrant",
		"Sovereign of Unfinished Things", "The Calendar Devourer",
	},
}

// Fallback is the deterministic-by-construction static content source used
// when the generative backend is unreachable or unconfigured.
type Fallback struct {
	rng *rand.Rand
}

func NewFallback(rng *rand.Rand) *Fallback {
	return &Fallback{rng: rng}
}

var _ Oracle = (*Fallback)(nil)

func (f *Fallback) GenerateName(_ context.Context, kind NameKind, _ string) string {
	pool := fallbackNames[kind]
	if len(pool) == 0 {
		pool = fallbackNames[KindMonster]
	}
	return pool[f.rng.Intn(len(pool))]
}

func (f *Fallback) GenerateImage(_ context.Context, _ string, _ NameKind) []byte {
	return nil
}

func (f *Fallback) GenerateNarrative(_ context.Context, chapter int, name string) string {
	return fmt.Sprintf("Chapter %d closes. %s falls, and the dojo grows quiet again.", chapter, name)
}

func (f *Fallback) AssessDifficulty(_ context.Context, _ string, _ string) string {
	return "normal"
}

func (f *Fallback) VerifyCompletion(_ context.Context, _, _, _ string, _ int) Verdict {
	return Verdict{Approved: true, Multiplier: 1.0}
}
