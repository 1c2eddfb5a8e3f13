package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories/memory"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

type fixture struct {
	players *memory.PlayerRepository
	tasks   *memory.TaskRepository
	items   *memory.ItemRepository
	drops   *memory.DropRepository
	bosses  *memory.BossRepository
	execLog *memory.ExecutionLogRepository

	orc *Orchestrator
}

func newFixture(t *testing.T, mutate func(*engine.Config)) *fixture {
	t.Helper()
	f := &fixture{
		players: memory.NewPlayerRepository(),
		tasks:   memory.NewTaskRepository(),
		items:   memory.NewItemRepository(),
		drops:   memory.NewDropRepository(),
		bosses:  memory.NewBossRepository(),
		execLog: memory.NewExecutionLogRepository(),
	}

	cfg := engine.NewDefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	calc := engine.NewCalculator(cfg, rand.New(rand.NewSource(1)))
	fallback := oracle.NewFallback(rand.New(rand.NewSource(1)))

	playerSvc := services.NewPlayerService(f.players, f.tasks, f.items)
	dropSvc := services.NewDropService(calc, f.items, f.drops)
	taskSvc := services.NewTaskService(calc, f.tasks, f.players, playerSvc, dropSvc, fallback, nil, 2, 9*time.Hour)
	bossSvc := services.NewBossService(calc, f.bosses, f.players, playerSvc, fallback, nil, 9*time.Hour)

	f.orc = New(calc, f.players, f.tasks, f.execLog, playerSvc, taskSvc, bossSvc, fallback, 9*time.Hour)
	return f
}

func neverDodge(cfg *engine.Config) {
	cfg.DodgeBase = 0
	cfg.DodgePerAgi = 0
}

func (f *fixture) addPlayer(p *models.Player) *models.Player {
	_ = f.players.Create(context.Background(), p)
	return p
}

func basePlayer() *models.Player {
	return &models.Player{
		Name: "Ren", Level: 1, HP: 100, MaxHP: 100, Coins: 100,
		Wisdom: 5, Strength: 5, Agility: 5, Vitality: 5, Luck: 5,
		Job: models.JobNovice, JobLevel: 1,
	}
}

func TestRunHourlyIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.addPlayer(basePlayer())
	ctx := context.Background()

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("first RunHourly() error = %v", err)
	}
	if err := f.orc.RunHourly(ctx); !errors.Is(err, ErrAlreadyRan) {
		t.Fatalf("second RunHourly() error = %v, want ErrAlreadyRan", err)
	}
}

func TestRunDailyIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.addPlayer(basePlayer())
	ctx := context.Background()

	if err := f.orc.RunDaily(ctx); err != nil {
		t.Fatalf("first RunDaily() error = %v", err)
	}
	if err := f.orc.RunDaily(ctx); !errors.Is(err, ErrAlreadyRan) {
		t.Fatalf("second RunDaily() error = %v, want ErrAlreadyRan", err)
	}
}

func TestRunDailyPass(t *testing.T) {
	f := newFixture(t, nil)
	player := f.addPlayer(basePlayer())
	ctx := context.Background()

	habit := &models.Task{
		ID: "h1", PlayerID: player.ID,
		Kind: models.TaskKindHabit, Status: models.TaskStatusActive,
		IntervalDays: 1, CompletedToday: true, LastCompletedAt: time.Now().Add(-2 * time.Hour),
	}
	_ = f.tasks.Create(ctx, habit)

	if err := f.orc.RunDaily(ctx); err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	// (a) habit day flag cleared.
	if habit.CompletedToday {
		t.Error("CompletedToday = true after daily reset")
	}

	// (b) 1 to 3 urgent tasks spawned.
	urgents, _ := f.tasks.ListActive(ctx, player.ID, models.TaskKindUrgent)
	if len(urgents) < 1 || len(urgents) > 3 {
		t.Errorf("spawned %d urgent tasks, want 1..3", len(urgents))
	}
	for _, u := range urgents {
		if u.Title == "" || u.ExpiresAt.IsZero() {
			t.Errorf("urgent task missing name or expiry: %+v", u)
		}
	}

	// (c) the chapter-one boss exists and retaliated.
	boss, _ := f.bosses.GetCurrent(ctx)
	if boss == nil || boss.Number != 1 {
		t.Fatalf("boss = %+v, want chapter one", boss)
	}
	// floor(17*0.85) - floor(5*0.65) = 14 - 3 = 11.
	if player.HP != 89 {
		t.Errorf("HP = %d, want 89 after retaliation", player.HP)
	}

	// Per-player and unscoped execution-log entries exist.
	if entry, _ := f.execLog.Latest(ctx, models.JobTypeDaily, player.ID); entry == nil || !entry.Success {
		t.Errorf("per-player log entry = %+v, want success", entry)
	}
	if entry, _ := f.execLog.Latest(ctx, models.JobTypeDaily, 0); entry == nil {
		t.Error("unscoped summary log entry missing")
	}
}

func TestRunDailyCreatesBossTrialAfterGrace(t *testing.T) {
	f := newFixture(t, nil)
	player := f.addPlayer(basePlayer())
	ctx := context.Background()

	_ = f.bosses.Create(ctx, &models.Boss{
		Name: "Warden", Number: 1, HP: 270, MaxHP: 270, AttackPower: 17,
		ChallengeStartDate: time.Now().AddDate(0, 0, -10),
	})

	if err := f.orc.RunDaily(ctx); err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	var trials int
	urgents, _ := f.tasks.ListActive(ctx, player.ID, models.TaskKindUrgent)
	for _, u := range urgents {
		if u.BossTrial {
			trials++
			if u.Difficulty != models.DifficultyEasy {
				t.Errorf("trial difficulty = %s, want easy", u.Difficulty)
			}
		}
	}
	if trials != 1 {
		t.Errorf("boss trials created = %d, want exactly 1", trials)
	}
}

// An expired urgent task is hard-deleted and its flat damage lands exactly
// once.
func TestRunHourlyUrgentExpiry(t *testing.T) {
	f := newFixture(t, nil)
	player := f.addPlayer(basePlayer())
	ctx := context.Background()

	expired := &models.Task{
		ID: "u1", PlayerID: player.ID,
		Kind: models.TaskKindUrgent, Status: models.TaskStatusActive,
		Difficulty: models.DifficultyEasy,
		ExpiresAt:  time.Now().Add(-10 * time.Minute),
	}
	alive := &models.Task{
		ID: "u2", PlayerID: player.ID,
		Kind: models.TaskKindUrgent, Status: models.TaskStatusActive,
		Difficulty: models.DifficultyEasy,
		ExpiresAt:  time.Now().Add(2 * time.Hour),
	}
	_ = f.tasks.Create(ctx, expired)
	_ = f.tasks.Create(ctx, alive)

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	if _, err := f.tasks.GetByID(ctx, "u1"); err == nil {
		t.Error("expired urgent task still exists, want hard delete")
	}
	if _, err := f.tasks.GetByID(ctx, "u2"); err != nil {
		t.Errorf("live urgent task disappeared: %v", err)
	}
	if player.HP != 70 {
		t.Errorf("HP = %d, want 70 after the one-shot 30 damage", player.HP)
	}
}

func TestRunHourlyDeadlinePenaltyDeath(t *testing.T) {
	f := newFixture(t, neverDodge)
	player := basePlayer()
	player.HP = 5
	player.Coins = 100
	player.JobLevel = 4
	f.addPlayer(player)
	ctx := context.Background()

	overdue := &models.Task{
		ID: "d1", PlayerID: player.ID,
		Kind: models.TaskKindDeadline, Status: models.TaskStatusActive,
		Difficulty: models.DifficultyNormal,
		StartDate:  time.Now().AddDate(0, 0, -5),
		Deadline:   time.Now().AddDate(0, 0, -1),
	}
	other := &models.Task{
		ID: "d2", PlayerID: player.ID,
		Kind: models.TaskKindDeadline, Status: models.TaskStatusActive,
		Difficulty: models.DifficultyNormal,
		StartDate:  time.Now(),
		Deadline:   time.Now().AddDate(0, 0, 7),
	}
	_ = f.tasks.Create(ctx, overdue)
	_ = f.tasks.Create(ctx, other)

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	if player.HP != player.MaxHP {
		t.Errorf("HP = %d, want death reset to %d", player.HP, player.MaxHP)
	}
	if player.Coins != 50 {
		t.Errorf("Coins = %d, want halved to 50", player.Coins)
	}
	if player.JobLevel != 1 {
		t.Errorf("JobLevel = %d, want 1", player.JobLevel)
	}
	if overdue.Status != models.TaskStatusCancelled || other.Status != models.TaskStatusCancelled {
		t.Errorf("deadline statuses = %s/%s, want both cancelled by the reset",
			overdue.Status, other.Status)
	}
}

func TestRunHourlyHabitDecay(t *testing.T) {
	f := newFixture(t, nil)
	player := f.addPlayer(basePlayer())
	ctx := context.Background()

	stale := &models.Task{
		ID: "h1", PlayerID: player.ID,
		Kind: models.TaskKindHabit, Status: models.TaskStatusActive,
		IntervalDays: 1, Streak: 7, TotalCompletions: 20,
		LastCompletedAt: time.Now().AddDate(0, 0, -3),
	}
	fresh := &models.Task{
		ID: "h2", PlayerID: player.ID,
		Kind: models.TaskKindHabit, Status: models.TaskStatusActive,
		IntervalDays: 1, Streak: 4,
		LastCompletedAt: time.Now().Add(-6 * time.Hour),
	}
	_ = f.tasks.Create(ctx, stale)
	_ = f.tasks.Create(ctx, fresh)

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	if stale.MissCount != 1 || stale.Streak != 0 {
		t.Errorf("stale habit miss/streak = %d/%d, want 1/0", stale.MissCount, stale.Streak)
	}
	if stale.TotalCompletions != 20 {
		t.Errorf("TotalCompletions = %d, want untouched 20", stale.TotalCompletions)
	}
	if fresh.MissCount != 0 || fresh.Streak != 4 {
		t.Errorf("fresh habit miss/streak = %d/%d, want 0/4", fresh.MissCount, fresh.Streak)
	}
}

func TestRunHourlyHabitDeletedAtMissLimit(t *testing.T) {
	f := newFixture(t, nil)
	player := basePlayer()
	player.Coins = 200
	player.Exp = 80
	f.addPlayer(player)
	ctx := context.Background()

	doomed := &models.Task{
		ID: "h1", PlayerID: player.ID,
		Kind: models.TaskKindHabit, Status: models.TaskStatusActive,
		IntervalDays: 1, MissCount: 4,
		LastCompletedAt: time.Now().AddDate(0, 0, -6),
	}
	_ = f.tasks.Create(ctx, doomed)

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	if _, err := f.tasks.GetByID(ctx, "h1"); err == nil {
		t.Error("habit at the miss limit still exists, want deletion")
	}
	if player.Coins != 180 {
		t.Errorf("Coins = %d, want 180 after the 10%% penalty", player.Coins)
	}
	if player.Exp != 30 {
		t.Errorf("Exp = %d, want 30 after the capped exp penalty", player.Exp)
	}
}

func TestRunHourlyProcessesEveryPlayer(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 9; i++ {
		p := f.addPlayer(basePlayer())
		ids = append(ids, p.ID)
		_ = f.tasks.Create(ctx, &models.Task{
			ID: fmt.Sprintf("h%d", i), PlayerID: p.ID,
			Kind: models.TaskKindHabit, Status: models.TaskStatusActive,
			IntervalDays:    1,
			LastCompletedAt: time.Now().AddDate(0, 0, -3),
		})
	}

	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	for _, id := range ids {
		entry, _ := f.execLog.Latest(ctx, models.JobTypeHourly, id)
		if entry == nil || !entry.Success {
			t.Errorf("player %d missing a successful hourly log entry", id)
		}
		habits, _ := f.tasks.ListActive(ctx, id, models.TaskKindHabit)
		if len(habits) != 1 || habits[0].MissCount != 1 {
			t.Errorf("player %d habit was not decayed", id)
		}
	}
}

func TestStatusReportsLastRuns(t *testing.T) {
	f := newFixture(t, nil)
	f.addPlayer(basePlayer())
	ctx := context.Background()

	status, err := f.orc.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.LastDaily != nil || status.LastHourly != nil {
		t.Errorf("fresh status = %+v, want no last runs", status)
	}

	if err := f.orc.RunDaily(ctx); err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}
	if err := f.orc.RunHourly(ctx); err != nil {
		t.Fatalf("RunHourly() error = %v", err)
	}

	status, err = f.orc.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.LastDaily == nil || status.LastHourly == nil {
		t.Errorf("status after runs = %+v, want both last-run timestamps", status)
	}
}
