package engine

import (
	"testing"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// fixedBands pins every roll range to a single value so the stacking
// pipeline can be asserted exactly.
func fixedBands(exp, coins int) func(*Config) {
	return func(cfg *Config) {
		for d, dc := range cfg.Difficulties {
			dc.Exp = RewardBand{exp, exp}
			dc.Coins = RewardBand{coins, coins}
			cfg.Difficulties[d] = dc
		}
	}
}

func TestHabitLinkageMultiplier(t *testing.T) {
	c := testCalculator(1, nil)
	tests := []struct {
		name             string
		streak           int
		totalCompletions int
		want             float64
	}{
		{name: "NoStreak", streak: 0, totalCompletions: 0, want: 1.0},
		{name: "StreakBelowStep", streak: 4, totalCompletions: 0, want: 1.0},
		{name: "OneStep", streak: 5, totalCompletions: 0, want: 1.1},
		{name: "StreakCapped", streak: 40, totalCompletions: 0, want: 1.4},
		{name: "LoyaltySixty", streak: 0, totalCompletions: 60, want: 1.05},
		{name: "LoyaltyHundredTwenty", streak: 0, totalCompletions: 120, want: 1.1},
		{name: "VeteranHabit", streak: 25, totalCompletions: 65, want: 1.45},
		{name: "MaxStreakPlusLoyalty", streak: 100, totalCompletions: 200, want: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.HabitLinkageMultiplier(tt.streak, tt.totalCompletions)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("HabitLinkageMultiplier(%d, %d) = %v, want %v",
					tt.streak, tt.totalCompletions, got, tt.want)
			}
		})
	}
}

func TestGoalLinkageMultiplier(t *testing.T) {
	c := testCalculator(1, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		progress float64
		target   time.Time
		want     float64
	}{
		{name: "BaseOnly", progress: 0, target: now.AddDate(0, 1, 0), want: 1.2},
		{name: "HalfProgressNoBonus", progress: 0.5, target: now.AddDate(0, 1, 0), want: 1.2},
		{name: "FullProgress", progress: 1.0, target: now.AddDate(0, 1, 0), want: 1.35},
		{name: "UrgencyWithinWeek", progress: 0, target: now.AddDate(0, 0, 6), want: 1.25},
		{name: "UrgencyWithinThreeDays", progress: 0, target: now.AddDate(0, 0, 2), want: 1.3},
		{name: "ProgressPlusUrgency", progress: 1.0, target: now.AddDate(0, 0, 2), want: 1.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.GoalLinkageMultiplier(tt.progress, tt.target, now)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("GoalLinkageMultiplier(%v, %v) = %v, want %v",
					tt.progress, tt.target, got, tt.want)
			}
		})
	}
}

// Completing one day before the deadline with no links and no report
// multiplies the raw rolls by the early bonus only, truncating once.
func TestCalculateRewardEarlyCompletion(t *testing.T) {
	c := testCalculator(1, fixedBands(45, 85))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got := c.CalculateReward(RewardInput{
		Difficulty:   models.DifficultyNormal,
		Job:          models.JobNovice,
		AIMultiplier: 1.0,
		Deadline:     now.AddDate(0, 0, 1),
		Now:          now,
	})

	if !got.Early {
		t.Fatal("Early = false, want true")
	}
	if want := int(45 * 1.2); got.Exp != want {
		t.Errorf("Exp = %d, want %d", got.Exp, want)
	}
	if want := int(85 * 1.2); got.Coins != want {
		t.Errorf("Coins = %d, want %d", got.Coins, want)
	}
	if want := int(float64(int(45*1.2)) * 0.5); got.JobExp != want {
		t.Errorf("JobExp = %d, want %d", got.JobExp, want)
	}
}

// All multipliers at identity yields exactly the base roll, and the rolls
// land inside the configured band.
func TestCalculateRewardIdentity(t *testing.T) {
	c := testCalculator(7, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	band := c.Config().Difficulties[models.DifficultyNormal]

	for i := 0; i < 200; i++ {
		got := c.CalculateReward(RewardInput{
			Difficulty:   models.DifficultyNormal,
			Job:          models.JobNovice,
			AIMultiplier: 1.0,
			Deadline:     now.AddDate(0, 0, -1), // already past: no early bonus
			Now:          now,
		})
		if got.Exp != got.BaseExp || got.Coins != got.BaseCoins {
			t.Fatalf("identity multipliers changed the roll: %+v", got)
		}
		if got.BaseExp < band.Exp.Min || got.BaseExp > band.Exp.Max {
			t.Fatalf("BaseExp %d outside band [%d,%d]", got.BaseExp, band.Exp.Min, band.Exp.Max)
		}
		if got.BaseCoins < band.Coins.Min || got.BaseCoins > band.Coins.Max {
			t.Fatalf("BaseCoins %d outside band [%d,%d]", got.BaseCoins, band.Coins.Min, band.Coins.Max)
		}
	}
}

func TestCalculateRewardZeroMultiplier(t *testing.T) {
	c := testCalculator(1, fixedBands(100, 100))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got := c.CalculateReward(RewardInput{
		Difficulty:   models.DifficultyHard,
		Job:          models.JobMerchant,
		Habit:        &HabitLink{Streak: 25, TotalCompletions: 65},
		AIMultiplier: 0,
		Deadline:     now.AddDate(0, 0, 2),
		Now:          now,
	})

	if got.Exp != 0 || got.Coins != 0 || got.JobExp != 0 {
		t.Errorf("zero multiplier: got exp=%d coins=%d jobExp=%d, want all 0",
			got.Exp, got.Coins, got.JobExp)
	}
}

func TestCalculateRewardStackingOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		in        RewardInput
		wantExp   int
		wantCoins int
	}{
		{
			name: "HabitLinkageThenEarly",
			in: RewardInput{
				Difficulty:   models.DifficultyNormal,
				Job:          models.JobNovice,
				Habit:        &HabitLink{Streak: 25, TotalCompletions: 65},
				AIMultiplier: 1.0,
				Deadline:     now.AddDate(0, 0, 1),
				Now:          now,
			},
			// 45*1.45=65.25→65, 65*1.2=78; 85*1.45=123.25→123, 123*1.2=147.6→147
			wantExp:   78,
			wantCoins: 147,
		},
		{
			name: "WarriorCombatExp",
			in: RewardInput{
				Difficulty:   models.DifficultyNormal,
				Genre:        "combat",
				Job:          models.JobWarrior,
				AIMultiplier: 1.0,
				Deadline:     now.AddDate(0, 0, -1),
				Now:          now,
			},
			// 45*1.2=54; coins untouched
			wantExp:   54,
			wantCoins: 85,
		},
		{
			name: "MerchantCoins",
			in: RewardInput{
				Difficulty:   models.DifficultyNormal,
				Job:          models.JobMerchant,
				AIMultiplier: 1.0,
				Deadline:     now.AddDate(0, 0, -1),
				Now:          now,
			},
			// 85*1.25=106.25→106
			wantExp:   45,
			wantCoins: 106,
		},
		{
			name: "AIBonusBeforeJob",
			in: RewardInput{
				Difficulty:   models.DifficultyNormal,
				Job:          models.JobMerchant,
				AIMultiplier: 1.3,
				Deadline:     now.AddDate(0, 0, -1),
				Now:          now,
			},
			// 45*1.3=58.5→58; 85*1.3=110.5→110, 110*1.25=137.5→137
			wantExp:   58,
			wantCoins: 137,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCalculator(1, fixedBands(45, 85))
			got := c.CalculateReward(tt.in)
			if got.Exp != tt.wantExp || got.Coins != tt.wantCoins {
				t.Errorf("CalculateReward() exp/coins = %d/%d, want %d/%d",
					got.Exp, got.Coins, tt.wantExp, tt.wantCoins)
			}
		})
	}
}
