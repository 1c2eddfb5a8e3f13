package engine

import (
	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// RewardBand is an inclusive [Min,Max] roll range.
type RewardBand struct {
	Min int
	Max int
}

type DifficultyConfig struct {
	Exp              RewardBand
	Coins            RewardBand
	DamageMultiplier float64
	DropChance       int // out of 100
	RarityWeights    map[models.Rarity]float64
}

type Config struct {
	Difficulties map[models.Difficulty]DifficultyConfig

	// Penalty tuning
	DodgeBase     float64
	DodgePerAgi   float64
	DodgeMax      float64
	MinStrike     int
	GoalOverdueHP int // flat damage per day overdue per hourly pass
	UrgentExpiry  int // flat one-shot damage on expiry

	// Bonus stacking
	EarlyBonus        float64
	HabitStreakStep   float64
	HabitStreakCap    float64
	LinkageCap        float64
	GoalBaseBonus     float64
	GoalProgressBonus float64
	JobExpShare       float64

	// Drop engine
	HunterDropBonus  int
	GamblerReroll    float64
	CommonDoubleRate float64

	// Boss tuning
	BossGraceDays    int
	BossRewardExp    int // per chapter number
	BossRewardCoins  int
	BossBaseHP       int
	BossHPPerNumber  int
	BossBaseAttack   int
	BossAtkPerNumber int

	// Urgent task generation
	UrgentDifficultyWeights map[models.Difficulty]int
	UrgentMinPerDay         int
	UrgentMaxPerDay         int

	// Habit decay
	HabitMissLimit     int
	HabitMissCoinShare float64
	HabitMissExpCap    int
}

func NewDefaultConfig() *Config {
	return &Config{
		Difficulties: map[models.Difficulty]DifficultyConfig{
			models.DifficultyEasy: {
				Exp:              RewardBand{20, 35},
				Coins:            RewardBand{30, 60},
				DamageMultiplier: 0.85,
				DropChance:       10,
				RarityWeights: map[models.Rarity]float64{
					models.RarityCommon:    80,
					models.RarityRare:      16,
					models.RarityEpic:      3.5,
					models.RarityLegendary: 0.5,
				},
			},
			models.DifficultyNormal: {
				Exp:              RewardBand{35, 55},
				Coins:            RewardBand{60, 100},
				DamageMultiplier: 1.0,
				DropChance:       15,
				RarityWeights: map[models.Rarity]float64{
					models.RarityCommon:    70,
					models.RarityRare:      22,
					models.RarityEpic:      6.5,
					models.RarityLegendary: 1.5,
				},
			},
			models.DifficultyHard: {
				Exp:              RewardBand{55, 80},
				Coins:            RewardBand{100, 160},
				DamageMultiplier: 1.2,
				DropChance:       22,
				RarityWeights: map[models.Rarity]float64{
					models.RarityCommon:    55,
					models.RarityRare:      30,
					models.RarityEpic:      11,
					models.RarityLegendary: 4,
				},
			},
			models.DifficultyVeryHard: {
				Exp:              RewardBand{80, 120},
				Coins:            RewardBand{160, 260},
				DamageMultiplier: 1.4,
				DropChance:       30,
				RarityWeights: map[models.Rarity]float64{
					models.RarityCommon:    40,
					models.RarityRare:      33,
					models.RarityEpic:      20,
					models.RarityLegendary: 7,
				},
			},
			models.DifficultyExtreme: {
				Exp:              RewardBand{120, 180},
				Coins:            RewardBand{260, 400},
				DamageMultiplier: 1.6,
				DropChance:       40,
				RarityWeights: map[models.Rarity]float64{
					models.RarityCommon:    30,
					models.RarityRare:      35,
					models.RarityEpic:      25,
					models.RarityLegendary: 10,
				},
			},
		},

		DodgeBase:     0.05,
		DodgePerAgi:   0.004,
		DodgeMax:      0.65,
		MinStrike:     3,
		GoalOverdueHP: 20,
		UrgentExpiry:  30,

		EarlyBonus:        1.2,
		HabitStreakStep:   0.1,
		HabitStreakCap:    0.4,
		LinkageCap:        1.6,
		GoalBaseBonus:     0.2,
		GoalProgressBonus: 0.15,
		JobExpShare:       0.5,

		HunterDropBonus:  8,
		GamblerReroll:    0.25,
		CommonDoubleRate: 0.3,

		BossGraceDays:    7,
		BossRewardExp:    500,
		BossRewardCoins:  200,
		BossBaseHP:       150,
		BossHPPerNumber:  120,
		BossBaseAttack:   12,
		BossAtkPerNumber: 5,

		UrgentDifficultyWeights: map[models.Difficulty]int{
			models.DifficultyEasy:     30,
			models.DifficultyNormal:   40,
			models.DifficultyHard:     25,
			models.DifficultyVeryHard: 5,
		},
		UrgentMinPerDay: 1,
		UrgentMaxPerDay: 3,

		HabitMissLimit:     5,
		HabitMissCoinShare: 0.1,
		HabitMissExpCap:    50,
	}
}
