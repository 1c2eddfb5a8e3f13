package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

// ErrAlreadyRan is returned when the idempotency guard suppresses a run.
var ErrAlreadyRan = errors.New("job already ran in this period")

// hourlyWindow tolerates the trigger firing slightly early, e.g. after a
// process restart.
const hourlyWindow = 54 * time.Minute

// Orchestrator advances world state once per logical day and hour. Runs are
// guarded twice: a singleflight group rejects overlapping ticks of the same
// job type, and the execution log suppresses re-runs within a period.
type Orchestrator struct {
	calc       *engine.Calculator
	playerRepo repositories.PlayerRepository
	taskRepo   repositories.TaskRepository
	execLog    repositories.ExecutionLogRepository
	players    *services.PlayerService
	tasks      *services.TaskService
	boss       *services.BossService
	oracle     oracle.Oracle
	dayOffset  time.Duration

	group   singleflight.Group
	cron    *cron.Cron
	dailyID cron.EntryID
	hourID  cron.EntryID
}

func New(
	calc *engine.Calculator,
	playerRepo repositories.PlayerRepository,
	taskRepo repositories.TaskRepository,
	execLog repositories.ExecutionLogRepository,
	players *services.PlayerService,
	tasks *services.TaskService,
	boss *services.BossService,
	orc oracle.Oracle,
	dayOffset time.Duration,
) *Orchestrator {
	return &Orchestrator{
		calc:       calc,
		playerRepo: playerRepo,
		taskRepo:   taskRepo,
		execLog:    execLog,
		players:    players,
		tasks:      tasks,
		boss:       boss,
		oracle:     orc,
		dayOffset:  dayOffset,
	}
}

// Start wires both jobs into a cron runner.
func (o *Orchestrator) Start(dailySpec, hourlySpec string) error {
	o.cron = cron.New()

	var err error
	o.dailyID, err = o.cron.AddFunc(dailySpec, func() {
		if runErr := o.RunDaily(context.Background()); runErr != nil && !errors.Is(runErr, ErrAlreadyRan) {
			slog.Error("Daily job failed",
				slog.String("type", "job"),
				slog.Any("error", runErr))
		}
	})
	if err != nil {
		return err
	}

	o.hourID, err = o.cron.AddFunc(hourlySpec, func() {
		if runErr := o.RunHourly(context.Background()); runErr != nil && !errors.Is(runErr, ErrAlreadyRan) {
			slog.Error("Hourly job failed",
				slog.String("type", "job"),
				slog.Any("error", runErr))
		}
	})
	if err != nil {
		return err
	}

	o.cron.Start()
	slog.Info("Scheduler started",
		slog.String("type", "job"),
		slog.String("daily", dailySpec),
		slog.String("hourly", hourlySpec))
	return nil
}

func (o *Orchestrator) Stop() {
	if o.cron != nil {
		o.cron.Stop()
	}
}

// JobStatus reports the last and next run of both periodic jobs.
type JobStatus struct {
	LastDaily  *time.Time `json:"last_daily,omitempty"`
	NextDaily  *time.Time `json:"next_daily,omitempty"`
	LastHourly *time.Time `json:"last_hourly,omitempty"`
	NextHourly *time.Time `json:"next_hourly,omitempty"`
}

func (o *Orchestrator) Status(ctx context.Context) (*JobStatus, error) {
	status := &JobStatus{}

	if entry, err := o.execLog.Latest(ctx, models.JobTypeDaily, 0); err != nil {
		return nil, err
	} else if entry != nil {
		status.LastDaily = &entry.RanAt
	}
	if entry, err := o.execLog.Latest(ctx, models.JobTypeHourly, 0); err != nil {
		return nil, err
	} else if entry != nil {
		status.LastHourly = &entry.RanAt
	}

	if o.cron != nil {
		if next := o.cron.Entry(o.dailyID).Next; !next.IsZero() {
			status.NextDaily = &next
		}
		if next := o.cron.Entry(o.hourID).Next; !next.IsZero() {
			status.NextHourly = &next
		}
	}
	return status, nil
}

// ranThisPeriod implements the execution-log idempotency check for one
// (jobType, player) scope.
func (o *Orchestrator) ranThisPeriod(ctx context.Context, jobType models.JobType, playerID int64, now time.Time) (bool, error) {
	entry, err := o.execLog.Latest(ctx, jobType, playerID)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	switch jobType {
	case models.JobTypeDaily:
		return engine.SameCalendarDay(entry.RanAt, now, o.dayOffset), nil
	default:
		return now.Sub(entry.RanAt) < hourlyWindow, nil
	}
}

// logRun appends one execution-log entry; details marshalling failures are
// swallowed because the run itself already happened.
func (o *Orchestrator) logRun(ctx context.Context, jobType models.JobType, playerID int64, now time.Time, success bool, details any) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte(`{"error":"details not serializable"}`)
	}
	entry := &models.ExecutionLog{
		JobType:  jobType,
		PlayerID: playerID,
		RanAt:    now,
		Success:  success,
		Details:  string(raw),
	}
	if err := o.execLog.Append(ctx, entry); err != nil {
		slog.Error("Failed to append execution log",
			slog.String("type", "job"),
			slog.String("job", string(jobType)),
			slog.Any("error", err))
	}
}
