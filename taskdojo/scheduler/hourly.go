package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/logger"
)

// hourlyWorkers bounds the per-player fan-out; each player's state is owned
// by a single worker for the whole pass.
const hourlyWorkers = 4

type hourlyDetails struct {
	DeadlineDamage int      `json:"deadline_damage"`
	GoalDamage     int      `json:"goal_damage"`
	UrgentExpired  int      `json:"urgent_expired"`
	HabitsMissed   int      `json:"habits_missed"`
	HabitsDeleted  int      `json:"habits_deleted"`
	Died           bool     `json:"died"`
	Errors         []string `json:"errors,omitempty"`
}

// RunHourly executes the hourly pass: overdue penalties, urgent expiry and
// habit decay for every active player.
func (o *Orchestrator) RunHourly(ctx context.Context) error {
	v, err, _ := o.group.Do(string(models.JobTypeHourly), func() (interface{}, error) {
		return nil, o.runHourly(ctx)
	})
	_ = v
	return err
}

func (o *Orchestrator) runHourly(ctx context.Context) error {
	now := time.Now()
	started := now

	if ran, err := o.ranThisPeriod(ctx, models.JobTypeHourly, 0, now); err != nil {
		return err
	} else if ran {
		return ErrAlreadyRan
	}

	players, err := o.playerRepo.GetActive(ctx)
	if err != nil {
		o.logRun(ctx, models.JobTypeHourly, 0, now, false, map[string]string{"error": err.Error()})
		return fmt.Errorf("failed to list players: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(hourlyWorkers)
	var processed atomic.Int64
	for _, player := range players {
		player := player
		g.Go(func() error {
			if ran, err := o.ranThisPeriod(ctx, models.JobTypeHourly, player.ID, now); err != nil || ran {
				return nil
			}
			details := o.runHourlyForPlayer(ctx, player, now)
			o.logRun(ctx, models.JobTypeHourly, player.ID, now, len(details.Errors) == 0, details)
			processed.Add(1)
			return nil
		})
	}
	// Workers log their own failures; the pass itself never aborts mid-fleet.
	_ = g.Wait()

	o.logRun(ctx, models.JobTypeHourly, 0, now, true, map[string]int{"players": int(processed.Load())})
	logger.LogJob("hourly", "full-pass", time.Since(started), nil)
	return nil
}

func (o *Orchestrator) runHourlyForPlayer(ctx context.Context, player *models.Player, now time.Time) *hourlyDetails {
	details := &hourlyDetails{}

	agility, err := o.players.EffectiveStat(ctx, player, models.StatAgility)
	if err != nil {
		details.Errors = append(details.Errors, "agility lookup: "+err.Error())
		agility = player.Agility
	}

	if err := o.applyDeadlinePenalties(ctx, player, agility, now, details); err != nil {
		details.Errors = append(details.Errors, "deadline penalties: "+err.Error())
	}
	if !details.Died {
		if err := o.applyGoalPenalties(ctx, player, now, details); err != nil {
			details.Errors = append(details.Errors, "goal penalties: "+err.Error())
		}
	}
	if !details.Died {
		if err := o.expireUrgentTasks(ctx, player, now, details); err != nil {
			details.Errors = append(details.Errors, "urgent expiry: "+err.Error())
		}
	}
	if err := o.decayHabits(ctx, player, now, details); err != nil {
		details.Errors = append(details.Errors, "habit decay: "+err.Error())
	}

	return details
}

func (o *Orchestrator) applyDeadlinePenalties(ctx context.Context, player *models.Player, agility int, now time.Time, details *hourlyDetails) error {
	tasks, err := o.taskRepo.ListActive(ctx, player.ID, models.TaskKindDeadline)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		res := o.calc.OverduePenalty(task, agility, now, o.dayOffset)

		// The escalation level is written back even when no damage lands;
		// neglect compounds visibly before the deadline passes.
		task.StrengthLevel = res.StrengthLevel
		if res.Applied {
			task.LastPenaltyDate = now
		}
		if err := o.taskRepo.Update(ctx, task); err != nil {
			return err
		}

		if res.Damage > 0 {
			details.DeadlineDamage += res.Damage
			died, err := o.players.ApplyDamage(ctx, player, res.Damage)
			if err != nil {
				return err
			}
			if died {
				// The death reset cancelled the remaining deadline tasks.
				details.Died = true
				return nil
			}
		}
	}
	return nil
}

func (o *Orchestrator) applyGoalPenalties(ctx context.Context, player *models.Player, now time.Time, details *hourlyDetails) error {
	goals, err := o.taskRepo.ListActive(ctx, player.ID, models.TaskKindGoal)
	if err != nil {
		return err
	}
	for _, goal := range goals {
		damage := o.calc.GoalOverdueDamage(goal, now)
		if damage == 0 {
			continue
		}
		details.GoalDamage += damage
		died, err := o.players.ApplyDamage(ctx, player, damage)
		if err != nil {
			return err
		}
		if died {
			details.Died = true
			return nil
		}
	}
	return nil
}

func (o *Orchestrator) expireUrgentTasks(ctx context.Context, player *models.Player, now time.Time, details *hourlyDetails) error {
	urgents, err := o.taskRepo.ListActive(ctx, player.ID, models.TaskKindUrgent)
	if err != nil {
		return err
	}
	for _, task := range urgents {
		damage, expired := o.calc.UrgentExpired(task, now)
		if !expired {
			continue
		}
		// Damage first, then the hard delete; the task never gets a second
		// chance to expire.
		if err := o.taskRepo.Delete(ctx, task.ID); err != nil {
			return err
		}
		details.UrgentExpired++
		died, err := o.players.ApplyDamage(ctx, player, damage)
		if err != nil {
			return err
		}
		if died {
			details.Died = true
			return nil
		}
	}
	return nil
}

// decayHabits advances the miss counter of every habit past its interval.
// Five misses delete the habit with a coin/exp penalty; fewer reset the
// streak while the miss count persists.
func (o *Orchestrator) decayHabits(ctx context.Context, player *models.Player, now time.Time, details *hourlyDetails) error {
	habits, err := o.taskRepo.ListActive(ctx, player.ID, models.TaskKindHabit)
	if err != nil {
		return err
	}

	for _, habit := range habits {
		since := habit.LastCompletedAt
		if since.IsZero() {
			since = habit.StartDate
		}
		elapsedDays := int(now.Sub(since).Hours() / 24)
		// One miss per fully elapsed interval, so an hourly pass over the
		// same stale habit does not stack misses.
		if elapsedDays <= habit.IntervalDays*(habit.MissCount+1) {
			continue
		}

		habit.MissCount++
		details.HabitsMissed++

		if habit.MissCount >= o.calc.Config().HabitMissLimit {
			if err := o.taskRepo.Delete(ctx, habit.ID); err != nil {
				return err
			}
			details.HabitsDeleted++

			coinLoss := int(float64(player.Coins) * o.calc.Config().HabitMissCoinShare)
			expLoss := min(o.calc.Config().HabitMissExpCap, player.Exp)
			player.Coins -= coinLoss
			player.Exp -= expLoss
			if err := o.playerRepo.Update(ctx, player); err != nil {
				return err
			}
			continue
		}

		habit.Streak = 0
		if err := o.taskRepo.Update(ctx, habit); err != nil {
			return err
		}
	}
	return nil
}
