package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/logger"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

type dailyDetails struct {
	HabitsReset   int      `json:"habits_reset"`
	UrgentCreated int      `json:"urgent_created"`
	BossDamage    int      `json:"boss_damage"`
	Died          bool     `json:"died"`
	TrialCreated  bool     `json:"trial_created"`
	Errors        []string `json:"errors,omitempty"`
}

// RunDaily executes the daily pass over every active player. Sub-steps are
// isolated: one player's failure never blocks another, and one sub-step's
// failure never blocks its siblings.
func (o *Orchestrator) RunDaily(ctx context.Context) error {
	v, err, _ := o.group.Do(string(models.JobTypeDaily), func() (interface{}, error) {
		return nil, o.runDaily(ctx)
	})
	_ = v
	return err
}

func (o *Orchestrator) runDaily(ctx context.Context) error {
	now := time.Now()
	started := now

	if ran, err := o.ranThisPeriod(ctx, models.JobTypeDaily, 0, now); err != nil {
		return err
	} else if ran {
		return ErrAlreadyRan
	}

	boss, err := o.boss.EnsureCurrent(ctx)
	if err != nil {
		// Without a boss only the boss sub-steps degrade; the rest of the
		// pass still runs.
		logger.LogError("Daily pass starting without a boss", err)
		boss = nil
	}

	players, err := o.playerRepo.GetActive(ctx)
	if err != nil {
		o.logRun(ctx, models.JobTypeDaily, 0, now, false, map[string]string{"error": err.Error()})
		return fmt.Errorf("failed to list players: %w", err)
	}

	processed := 0
	for _, player := range players {
		if ran, err := o.ranThisPeriod(ctx, models.JobTypeDaily, player.ID, now); err != nil || ran {
			continue
		}
		details := o.runDailyForPlayer(ctx, player, boss, now)
		o.logRun(ctx, models.JobTypeDaily, player.ID, now, len(details.Errors) == 0, details)
		processed++
	}

	o.logRun(ctx, models.JobTypeDaily, 0, now, true, map[string]int{"players": processed})
	logger.LogJob("daily", "full-pass", time.Since(started), nil)
	return nil
}

func (o *Orchestrator) runDailyForPlayer(ctx context.Context, player *models.Player, boss *models.Boss, now time.Time) *dailyDetails {
	details := &dailyDetails{}
	ctx = oracle.WithPlayerID(ctx, player.ID)

	// (a) reset per-habit daily-completion tracking
	if n, err := o.resetHabitDay(ctx, player.ID); err != nil {
		details.Errors = append(details.Errors, "habit reset: "+err.Error())
	} else {
		details.HabitsReset = n
	}

	// (b) spawn today's urgent tasks
	if n, err := o.spawnUrgentTasks(ctx, player.ID); err != nil {
		details.Errors = append(details.Errors, "urgent spawn: "+err.Error())
	} else {
		details.UrgentCreated = n
	}

	// (c) boss auto-exchange and overdue-chapter trial
	if boss != nil && !boss.Defeated {
		damage, died, err := o.boss.Retaliate(ctx, player, boss)
		if err != nil {
			details.Errors = append(details.Errors, "boss retaliation: "+err.Error())
		} else {
			details.BossDamage = damage
			details.Died = died
		}

		if now.Sub(boss.ChallengeStartDate) >= time.Duration(o.calc.Config().BossGraceDays)*24*time.Hour {
			created, err := o.maybeCreateBossTrial(ctx, player, boss, now)
			if err != nil {
				details.Errors = append(details.Errors, "boss trial: "+err.Error())
			}
			details.TrialCreated = created
		}
	}

	return details
}

func (o *Orchestrator) resetHabitDay(ctx context.Context, playerID int64) (int, error) {
	habits, err := o.taskRepo.ListActive(ctx, playerID, models.TaskKindHabit)
	if err != nil {
		return 0, err
	}
	reset := 0
	for _, habit := range habits {
		if !habit.CompletedToday {
			continue
		}
		habit.CompletedToday = false
		if err := o.taskRepo.Update(ctx, habit); err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}

func (o *Orchestrator) spawnUrgentTasks(ctx context.Context, playerID int64) (int, error) {
	count := o.calc.RollUrgentCount()
	created := 0
	var firstErr error
	for i := 0; i < count; i++ {
		name := o.oracle.GenerateName(ctx, oracle.KindAssassin, "a short-lived urgent task")
		_, _, err := o.tasks.Create(ctx, services.CreateTaskInput{
			PlayerID:   playerID,
			Kind:       models.TaskKindUrgent,
			Title:      name,
			Difficulty: o.calc.RollUrgentDifficulty(),
			ExpiresIn:  o.calc.RollUrgentExpiry(),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		created++
	}
	// A single failed spawn does not abort the batch; report it alongside
	// whatever was created.
	return created, firstErr
}

// maybeCreateBossTrial creates at most one low-stakes mini-task once the
// boss has been unresolved past the grace window. The repository enforces
// the 24h dedup window.
func (o *Orchestrator) maybeCreateBossTrial(ctx context.Context, player *models.Player, boss *models.Boss, now time.Time) (bool, error) {
	exists, err := o.taskRepo.HasActiveBossTrial(ctx, player.ID, now)
	if err != nil || exists {
		return false, err
	}

	name := o.oracle.GenerateName(ctx, oracle.KindTraining, fmt.Sprintf("a trial set by %s", boss.Name))
	task := &models.Task{
		PlayerID:   player.ID,
		Kind:       models.TaskKindUrgent,
		Status:     models.TaskStatusActive,
		Title:      name,
		Difficulty: models.DifficultyEasy,
		StartDate:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
		BossTrial:  true,
	}
	task.ID = uuid.NewString()
	if err := o.taskRepo.Create(ctx, task); err != nil {
		return false, err
	}
	return true, nil
}
