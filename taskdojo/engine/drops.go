package engine

import (
	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// Drop is one rolled item drop. Bonus marks the gambler's independent
// second roll.
type Drop struct {
	Item     *models.Item
	Quantity int
	Bonus    bool
}

type DropInput struct {
	Difficulty models.Difficulty
	Job        models.Job
	Pool       []*models.Item // droppable items only
}

func rarityAtLeastRare(r models.Rarity) bool {
	return r == models.RarityRare || r == models.RarityEpic || r == models.RarityLegendary
}

func (c *Calculator) jobDropChanceBonus(job models.Job) int {
	if job == models.JobHunter {
		return c.cfg.HunterDropBonus
	}
	return 0
}

// PickRarity rolls the difficulty's rarity table. The hunter job doubles
// every rare-and-above weight before the roll.
func (c *Calculator) PickRarity(difficulty models.Difficulty, job models.Job) models.Rarity {
	base := c.cfg.Difficulties[difficulty].RarityWeights

	order := []models.Rarity{models.RarityCommon, models.RarityRare, models.RarityEpic, models.RarityLegendary}
	weights := make([]float64, len(order))
	total := 0.0
	for i, r := range order {
		w := base[r]
		if job == models.JobHunter && rarityAtLeastRare(r) {
			w *= 2
		}
		weights[i] = w
		total += w
	}

	roll := c.rng.Float64() * total
	for i, r := range order {
		roll -= weights[i]
		if roll < 0 {
			return r
		}
	}
	return models.RarityCommon
}

func (c *Calculator) itemWeight(item *models.Item, job models.Job) float64 {
	w := float64(item.DropRate)
	if job == models.JobHunter {
		if item.Slot == models.SlotWeapon {
			w += 5
		}
		if rarityAtLeastRare(item.Rarity) {
			w *= 1.1
		}
	}
	if w <= 0 {
		w = 1
	}
	return w
}

func (c *Calculator) pickItem(pool []*models.Item, rarity models.Rarity, job models.Job) *models.Item {
	candidates := make([]*models.Item, 0, len(pool))
	for _, it := range pool {
		if it.Rarity == rarity {
			candidates = append(candidates, it)
		}
	}
	// No item of the rolled rarity: fall back to the whole droppable pool.
	if len(candidates) == 0 {
		candidates = pool
	}
	if len(candidates) == 0 {
		return nil
	}

	total := 0.0
	for _, it := range candidates {
		total += c.itemWeight(it, job)
	}
	roll := c.rng.Float64() * total
	for _, it := range candidates {
		roll -= c.itemWeight(it, job)
		if roll < 0 {
			return it
		}
	}
	return candidates[len(candidates)-1]
}

func (c *Calculator) rollOne(in DropInput, bonus bool) *Drop {
	rarity := c.PickRarity(in.Difficulty, in.Job)
	item := c.pickItem(in.Pool, rarity, in.Job)
	if item == nil {
		return nil
	}
	qty := 1
	if item.Rarity == models.RarityCommon && c.rng.Float64() < c.cfg.CommonDoubleRate {
		qty = 2
	}
	return &Drop{Item: item, Quantity: qty, Bonus: bonus}
}

// RollDrops runs the single chance gate and, for gamblers, an independent
// flat-rate second roll.
func (c *Calculator) RollDrops(in DropInput) []Drop {
	var drops []Drop

	gate := c.cfg.Difficulties[in.Difficulty].DropChance + c.jobDropChanceBonus(in.Job)
	if c.rng.Intn(100) < gate {
		if d := c.rollOne(in, false); d != nil {
			drops = append(drops, *d)
		}
	}

	if in.Job == models.JobGambler && c.rng.Float64() < c.cfg.GamblerReroll {
		if d := c.rollOne(in, true); d != nil {
			drops = append(drops, *d)
		}
	}
	return drops
}
