package engine

import (
	"testing"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

func TestRollUrgentCount(t *testing.T) {
	c := testCalculator(1, nil)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		n := c.RollUrgentCount()
		if n < 1 || n > 3 {
			t.Fatalf("RollUrgentCount() = %d, want 1..3", n)
		}
		seen[n] = true
	}
	for n := 1; n <= 3; n++ {
		if !seen[n] {
			t.Errorf("count %d never rolled over 1000 trials", n)
		}
	}
}

func TestRollUrgentExpiry(t *testing.T) {
	c := testCalculator(1, nil)
	for i := 0; i < 1000; i++ {
		ttl := c.RollUrgentExpiry()
		if ttl < time.Hour || ttl > 24*time.Hour {
			t.Fatalf("RollUrgentExpiry() = %v, want 1h..24h", ttl)
		}
	}
}

func TestRollUrgentDifficulty(t *testing.T) {
	c := testCalculator(5, nil)

	const trials = 40000
	counts := map[models.Difficulty]int{}
	for i := 0; i < trials; i++ {
		d := c.RollUrgentDifficulty()
		counts[d]++
	}

	if counts[models.DifficultyExtreme] != 0 {
		t.Errorf("extreme rolled %d times; the urgent table excludes it", counts[models.DifficultyExtreme])
	}

	// Loose distribution check against the 30/40/25/5 weights.
	expect := map[models.Difficulty]float64{
		models.DifficultyEasy:     0.30,
		models.DifficultyNormal:   0.40,
		models.DifficultyHard:     0.25,
		models.DifficultyVeryHard: 0.05,
	}
	for d, want := range expect {
		got := float64(counts[d]) / trials
		if got < want-0.02 || got > want+0.02 {
			t.Errorf("difficulty %s frequency = %.3f, want %.2f ± 0.02", d, got, want)
		}
	}
}
