package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

func testCalculator(seed int64, mutate func(*Config)) *Calculator {
	cfg := NewDefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewCalculator(cfg, rand.New(rand.NewSource(seed)))
}

func TestDodgeChanceBounds(t *testing.T) {
	c := testCalculator(1, nil)
	tests := []struct {
		name    string
		agility int
		want    float64
	}{
		{name: "ZeroAgility", agility: 0, want: 0.05},
		{name: "NegativeClampsToFloor", agility: -100, want: 0.05},
		{name: "MidRange", agility: 50, want: 0.25},
		{name: "HighClampsToCeiling", agility: 500, want: 0.65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.DodgeChance(tt.agility)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("DodgeChance(%d) = %v, want %v", tt.agility, got, tt.want)
			}
		})
	}
}

func TestDodgeChanceMonotonic(t *testing.T) {
	c := testCalculator(1, nil)
	prev := 0.0
	for agi := -10; agi <= 300; agi++ {
		got := c.DodgeChance(agi)
		if got < prev {
			t.Fatalf("DodgeChance(%d) = %v dropped below DodgeChance(%d) = %v", agi, got, agi-1, prev)
		}
		if got < 0.05 || got > 0.65 {
			t.Fatalf("DodgeChance(%d) = %v outside [0.05, 0.65]", agi, got)
		}
		prev = got
	}
}

func TestStrikeDamage(t *testing.T) {
	c := testCalculator(1, nil)
	tests := []struct {
		name       string
		level      int
		difficulty models.Difficulty
		agility    int
		want       int
	}{
		{name: "NormalLevel1", level: 1, difficulty: models.DifficultyNormal, agility: 0, want: 7},
		{name: "NormalLevel3", level: 3, difficulty: models.DifficultyNormal, agility: 0, want: 12},
		{name: "HardLevel10", level: 10, difficulty: models.DifficultyHard, agility: 0, want: 35},
		{name: "AgilityShavesDamage", level: 3, difficulty: models.DifficultyNormal, agility: 42, want: 9},
		{name: "FloorAtMinStrike", level: 1, difficulty: models.DifficultyEasy, agility: 60, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.StrikeDamage(tt.level, tt.difficulty, tt.agility); got != tt.want {
				t.Errorf("StrikeDamage(%d, %s, %d) = %v, want %v",
					tt.level, tt.difficulty, tt.agility, got, tt.want)
			}
		})
	}
}

func TestEscalationLevel(t *testing.T) {
	tests := []struct {
		name           string
		daysSinceStart int
		overdueDays    int
		want           int
	}{
		{name: "Fresh", daysSinceStart: 0, overdueDays: 0, want: 1},
		{name: "StaleNotOverdue", daysSinceStart: 8, overdueDays: 0, want: 3},
		{name: "OverdueCapContribution", daysSinceStart: 4, overdueDays: 10, want: 6},
		{name: "CeilingAtTen", daysSinceStart: 40, overdueDays: 10, want: 10},
		{name: "FloorAtOne", daysSinceStart: -5, overdueDays: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscalationLevel(tt.daysSinceStart, tt.overdueDays); got != tt.want {
				t.Errorf("EscalationLevel(%d, %d) = %v, want %v",
					tt.daysSinceStart, tt.overdueDays, got, tt.want)
			}
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	offset := 9 * time.Hour
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{
			name: "SameUTCDay",
			a:    time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "BoundaryCrossesAtOffset",
			a:    time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), // 23:00 local
			b:    time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), // 01:00 next local day
			want: false,
		},
		{
			name: "UTCDaysDifferButLocalSame",
			a:    time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), // 05:00 local on the 11th
			b:    time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),  // 11:00 local on the 11th
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameCalendarDay(tt.a, tt.b, offset); got != tt.want {
				t.Errorf("SameCalendarDay(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func neverDodge(cfg *Config) {
	cfg.DodgeBase = 0
	cfg.DodgePerAgi = 0
}

func alwaysDodge(cfg *Config) {
	cfg.DodgeBase = 1
	cfg.DodgeMax = 1
}

func TestOverduePenaltyNotOverdue(t *testing.T) {
	c := testCalculator(1, neverDodge)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		Kind:       models.TaskKindDeadline,
		Status:     models.TaskStatusActive,
		Difficulty: models.DifficultyNormal,
		StartDate:  now.AddDate(0, 0, -10),
		Deadline:   now.AddDate(0, 0, 1),
	}

	res := c.OverduePenalty(task, 10, now, 9*time.Hour)
	if res.Damage != 0 || res.Applied {
		t.Errorf("OverduePenalty() = %+v, want no damage and not applied", res)
	}
	// Escalation still tracks staleness before the deadline.
	if res.StrengthLevel != 3 {
		t.Errorf("StrengthLevel = %d, want 3", res.StrengthLevel)
	}
}

func TestOverduePenaltyAlreadyPenalizedToday(t *testing.T) {
	c := testCalculator(1, neverDodge)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		Kind:            models.TaskKindDeadline,
		Status:          models.TaskStatusActive,
		Difficulty:      models.DifficultyNormal,
		StartDate:       now.AddDate(0, 0, -8),
		Deadline:        now.AddDate(0, 0, -2),
		StrengthLevel:   1,
		LastPenaltyDate: now.Add(-2 * time.Hour),
	}

	res := c.OverduePenalty(task, 10, now, 9*time.Hour)
	if res.Damage != 0 || res.Applied {
		t.Errorf("second pass same day: got %+v, want no damage and not applied", res)
	}
	// 1 + 8/4 + 2 overdue days.
	if res.StrengthLevel != 5 {
		t.Errorf("StrengthLevel = %d, want 5", res.StrengthLevel)
	}
}

func TestOverduePenaltyStrikesPerOverdueDay(t *testing.T) {
	c := testCalculator(1, neverDodge)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		Kind:       models.TaskKindDeadline,
		Status:     models.TaskStatusActive,
		Difficulty: models.DifficultyNormal,
		StartDate:  now.AddDate(0, 0, -5),
		Deadline:   now.AddDate(0, 0, -3),
	}

	res := c.OverduePenalty(task, 0, now, 9*time.Hour)
	if !res.Applied {
		t.Fatal("expected penalty to apply")
	}
	// 1 + 5/4 + 3 = 5; strike = ceil((4+5*2.5)*1.0) = 17 per day.
	if res.StrengthLevel != 5 {
		t.Errorf("StrengthLevel = %d, want 5", res.StrengthLevel)
	}
	if res.StruckDays != 3 || res.DodgedDays != 0 {
		t.Errorf("StruckDays/DodgedDays = %d/%d, want 3/0", res.StruckDays, res.DodgedDays)
	}
	if want := 3 * 17; res.Damage != want {
		t.Errorf("Damage = %d, want %d", res.Damage, want)
	}
}

func TestOverduePenaltyFullDodge(t *testing.T) {
	c := testCalculator(1, alwaysDodge)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		Kind:       models.TaskKindDeadline,
		Status:     models.TaskStatusActive,
		Difficulty: models.DifficultyNormal,
		StartDate:  now.AddDate(0, 0, -4),
		Deadline:   now.AddDate(0, 0, -2),
	}

	res := c.OverduePenalty(task, 0, now, 9*time.Hour)
	if res.Damage != 0 || res.DodgedDays != 2 || res.StruckDays != 0 {
		t.Errorf("got %+v, want 2 dodged days and no damage", res)
	}
	// Dodging is still a pass: the day is consumed.
	if !res.Applied {
		t.Error("Applied = false, want true")
	}
}

func TestOverduePenaltyTerminalTask(t *testing.T) {
	c := testCalculator(1, neverDodge)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &models.Task{
		Kind:          models.TaskKindDeadline,
		Status:        models.TaskStatusCompleted,
		Difficulty:    models.DifficultyNormal,
		StartDate:     now.AddDate(0, 0, -30),
		Deadline:      now.AddDate(0, 0, -20),
		StrengthLevel: 4,
	}

	res := c.OverduePenalty(task, 0, now, 9*time.Hour)
	if res.Damage != 0 || res.Applied || res.StrengthLevel != 4 {
		t.Errorf("terminal task: got %+v, want untouched", res)
	}
}

func TestGoalOverdueDamage(t *testing.T) {
	c := testCalculator(1, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task *models.Task
		want int
	}{
		{
			name: "NotPastTarget",
			task: &models.Task{Kind: models.TaskKindGoal, Status: models.TaskStatusActive, TargetDate: now.AddDate(0, 0, 5)},
			want: 0,
		},
		{
			name: "JustPastTarget",
			task: &models.Task{Kind: models.TaskKindGoal, Status: models.TaskStatusActive, TargetDate: now.Add(-2 * time.Hour)},
			want: 20,
		},
		{
			name: "ThreeDaysOver",
			task: &models.Task{Kind: models.TaskKindGoal, Status: models.TaskStatusActive, TargetDate: now.AddDate(0, 0, -3)},
			want: 60,
		},
		{
			name: "AchievedGoalExempt",
			task: &models.Task{Kind: models.TaskKindGoal, Status: models.TaskStatusActive, Achieved: true, TargetDate: now.AddDate(0, 0, -3)},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.GoalOverdueDamage(tt.task, now); got != tt.want {
				t.Errorf("GoalOverdueDamage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUrgentExpired(t *testing.T) {
	c := testCalculator(1, nil)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		task        *models.Task
		wantDamage  int
		wantExpired bool
	}{
		{
			name:        "StillAlive",
			task:        &models.Task{Kind: models.TaskKindUrgent, Status: models.TaskStatusActive, ExpiresAt: now.Add(time.Hour)},
			wantDamage:  0,
			wantExpired: false,
		},
		{
			name:        "Expired",
			task:        &models.Task{Kind: models.TaskKindUrgent, Status: models.TaskStatusActive, ExpiresAt: now.Add(-time.Minute)},
			wantDamage:  30,
			wantExpired: true,
		},
		{
			name:        "CompletedNeverExpires",
			task:        &models.Task{Kind: models.TaskKindUrgent, Status: models.TaskStatusCompleted, ExpiresAt: now.Add(-time.Hour)},
			wantDamage:  0,
			wantExpired: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			damage, expired := c.UrgentExpired(tt.task, now)
			if damage != tt.wantDamage || expired != tt.wantExpired {
				t.Errorf("UrgentExpired() = (%d, %v), want (%d, %v)",
					damage, expired, tt.wantDamage, tt.wantExpired)
			}
		})
	}
}
