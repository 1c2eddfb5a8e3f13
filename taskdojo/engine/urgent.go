package engine

import (
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// RollUrgentDifficulty draws from the weighted difficulty table used for
// daily urgent-task generation.
func (c *Calculator) RollUrgentDifficulty() models.Difficulty {
	order := []models.Difficulty{
		models.DifficultyEasy,
		models.DifficultyNormal,
		models.DifficultyHard,
		models.DifficultyVeryHard,
	}
	total := 0
	for _, d := range order {
		total += c.cfg.UrgentDifficultyWeights[d]
	}
	roll := c.rng.Intn(total)
	for _, d := range order {
		roll -= c.cfg.UrgentDifficultyWeights[d]
		if roll < 0 {
			return d
		}
	}
	return models.DifficultyNormal
}

// RollUrgentCount returns how many urgent tasks to spawn today.
func (c *Calculator) RollUrgentCount() int {
	span := c.cfg.UrgentMaxPerDay - c.cfg.UrgentMinPerDay + 1
	return c.cfg.UrgentMinPerDay + c.rng.Intn(span)
}

// RollUrgentExpiry returns a random time-to-live between 1 and 24 hours.
func (c *Calculator) RollUrgentExpiry() time.Duration {
	return time.Duration(1+c.rng.Intn(24)) * time.Hour
}
