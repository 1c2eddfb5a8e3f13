package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
)

// TaskService implements the task lifecycle: creation of all four kinds,
// the completion reward pipeline, habit check-ins and goal resolution.
type TaskService struct {
	calc       *engine.Calculator
	taskRepo   repositories.TaskRepository
	playerRepo repositories.PlayerRepository
	players    *PlayerService
	drops      *DropService
	oracle     oracle.Oracle
	images     *ImageStore
	strictness int
	dayOffset  time.Duration
}

func NewTaskService(
	calc *engine.Calculator,
	taskRepo repositories.TaskRepository,
	playerRepo repositories.PlayerRepository,
	players *PlayerService,
	drops *DropService,
	orc oracle.Oracle,
	images *ImageStore,
	strictness int,
	dayOffset time.Duration,
) *TaskService {
	return &TaskService{
		calc:       calc,
		taskRepo:   taskRepo,
		playerRepo: playerRepo,
		players:    players,
		drops:      drops,
		oracle:     orc,
		images:     images,
		strictness: strictness,
		dayOffset:  dayOffset,
	}
}

// CompletionResult is returned by the completion operations. Warnings carry
// non-fatal collaborator failures so the caller can inform the user.
type CompletionResult struct {
	Task     *models.Task   `json:"task"`
	Reward   *engine.Reward `json:"reward,omitempty"`
	Drops    []engine.Drop  `json:"drops,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

type CreateTaskInput struct {
	PlayerID      int64
	Kind          models.TaskKind
	Title         string
	Genre         string
	Difficulty    models.Difficulty // empty: ask the oracle
	Deadline      time.Time         // deadline tasks
	LinkedHabitID string
	LinkedGoalID  string
	IntervalDays  int       // habit tasks
	TargetDate    time.Time // goal tasks
	ExpiresIn     time.Duration
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*models.Task, []string, error) {
	if in.LinkedHabitID != "" && in.LinkedGoalID != "" {
		return nil, nil, ErrLinkConflict
	}

	var warnings []string
	ctx = oracle.WithPlayerID(ctx, in.PlayerID)

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = models.Difficulty(s.oracle.AssessDifficulty(ctx, in.Title, in.Genre))
	}

	now := time.Now()
	task := &models.Task{
		ID:            uuid.NewString(),
		PlayerID:      in.PlayerID,
		Kind:          in.Kind,
		Status:        models.TaskStatusActive,
		Title:         in.Title,
		Genre:         in.Genre,
		Difficulty:    difficulty,
		StartDate:     now,
		Deadline:      in.Deadline,
		StrengthLevel: 1,
		LinkedHabitID: in.LinkedHabitID,
		LinkedGoalID:  in.LinkedGoalID,
		IntervalDays:  in.IntervalDays,
		TargetDate:    in.TargetDate,
	}
	if in.Kind == models.TaskKindUrgent {
		ttl := in.ExpiresIn
		if ttl <= 0 {
			ttl = s.calc.RollUrgentExpiry()
		}
		task.ExpiresAt = now.Add(ttl)
	}

	if url, warn := s.generateImage(ctx, task); warn != "" {
		warnings = append(warnings, warn)
	} else {
		task.ImageURL = url
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, warnings, nil
}

func imageKindFor(kind models.TaskKind) oracle.NameKind {
	switch kind {
	case models.TaskKindHabit:
		return oracle.KindTraining
	case models.TaskKindGoal:
		return oracle.KindMaster
	case models.TaskKindUrgent:
		return oracle.KindAssassin
	default:
		return oracle.KindMonster
	}
}

func (s *TaskService) generateImage(ctx context.Context, task *models.Task) (string, string) {
	data := s.oracle.GenerateImage(ctx, task.Title, imageKindFor(task.Kind))
	if len(data) == 0 {
		return "", ""
	}
	url, err := s.images.Store(ctx, string(task.Kind), task.ID, data)
	if err != nil {
		slog.Warn("Image upload failed",
			slog.String("task_id", task.ID),
			slog.Any("error", err))
		return "", "image generation succeeded but upload failed"
	}
	return url, ""
}

// Complete resolves a task by kind. Deadline tasks run the full reward
// pipeline; urgent tasks get base rewards and drops; goals resolve through
// CompleteGoal. Habit tasks must go through CheckInHabit.
func (s *TaskService) Complete(ctx context.Context, taskID, report string) (*CompletionResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Terminal() {
		return nil, ErrTaskTerminal
	}

	switch task.Kind {
	case models.TaskKindDeadline:
		return s.completeDeadline(ctx, task, report)
	case models.TaskKindUrgent:
		return s.completeUrgent(ctx, task)
	case models.TaskKindGoal:
		return s.CompleteGoal(ctx, task.ID)
	default:
		return nil, ErrWrongKind
	}
}

func (s *TaskService) completeDeadline(ctx context.Context, task *models.Task, report string) (*CompletionResult, error) {
	player, err := s.playerRepo.GetByID(ctx, task.PlayerID)
	if err != nil {
		return nil, err
	}
	ctx = oracle.WithPlayerID(ctx, player.ID)

	res := &CompletionResult{Task: task}
	now := time.Now()

	aiMultiplier := 1.0
	if report != "" {
		verdict := s.oracle.VerifyCompletion(ctx, task.Title, string(task.Difficulty), report, s.strictness)
		if !verdict.Approved {
			return nil, &VerificationRejected{Feedback: verdict.Feedback}
		}
		aiMultiplier = verdict.Multiplier
		res.Feedback = verdict.Feedback
	}

	input := engine.RewardInput{
		Difficulty:   task.Difficulty,
		Genre:        task.Genre,
		Job:          player.Job,
		AIMultiplier: aiMultiplier,
		Deadline:     task.Deadline,
		Now:          now,
	}
	if warn := s.resolveLinkage(ctx, task, now, &input); warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	reward := s.calc.CalculateReward(input)
	res.Reward = &reward

	task.Status = models.TaskStatusCompleted
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if err := s.players.GrantReward(ctx, player, reward.Exp, reward.Coins, reward.JobExp); err != nil {
		return nil, err
	}

	drops, err := s.drops.RollForCompletion(ctx, player, task)
	if err != nil {
		// The completion already stuck; a drop failure downgrades to a
		// warning rather than unwinding the reward.
		res.Warnings = append(res.Warnings, "item drop could not be processed")
		slog.Error("Drop processing failed",
			slog.String("task_id", task.ID),
			slog.Any("error", err))
	}
	res.Drops = drops

	slog.Info("Task completed",
		slog.Int64("player_id", player.ID),
		slog.String("task_id", task.ID),
		slog.Int("exp", reward.Exp),
		slog.Int("coins", reward.Coins))
	return res, nil
}

// resolveLinkage fills the habit or goal linkage input from the linked
// task's current state. A broken link degrades to no bonus with a warning.
func (s *TaskService) resolveLinkage(ctx context.Context, task *models.Task, now time.Time, input *engine.RewardInput) string {
	switch {
	case task.LinkedHabitID != "":
		habit, err := s.taskRepo.GetByID(ctx, task.LinkedHabitID)
		if err != nil || habit.Kind != models.TaskKindHabit {
			return "linked habit no longer exists"
		}
		input.Habit = &engine.HabitLink{
			Streak:           habit.Streak,
			TotalCompletions: habit.TotalCompletions,
		}
	case task.LinkedGoalID != "":
		goal, err := s.taskRepo.GetByID(ctx, task.LinkedGoalID)
		if err != nil || goal.Kind != models.TaskKindGoal {
			return "linked goal no longer exists"
		}
		completed, total, err := s.taskRepo.LinkedDeadlineProgress(ctx, goal.ID)
		if err != nil {
			return "linked goal progress unavailable"
		}
		progress := 0.0
		if total > 0 {
			progress = float64(completed) / float64(total)
		}
		input.Goal = &engine.GoalLink{
			Progress:   progress,
			TargetDate: goal.TargetDate,
		}
	}
	return ""
}

func (s *TaskService) completeUrgent(ctx context.Context, task *models.Task) (*CompletionResult, error) {
	player, err := s.playerRepo.GetByID(ctx, task.PlayerID)
	if err != nil {
		return nil, err
	}

	reward := s.calc.CalculateReward(engine.RewardInput{
		Difficulty:   task.Difficulty,
		Genre:        task.Genre,
		Job:          player.Job,
		AIMultiplier: 1.0,
		Now:          time.Now(),
	})

	task.Status = models.TaskStatusCompleted
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete urgent task: %w", err)
	}
	if err := s.players.GrantReward(ctx, player, reward.Exp, reward.Coins, reward.JobExp); err != nil {
		return nil, err
	}

	res := &CompletionResult{Task: task, Reward: &reward}
	drops, err := s.drops.RollForCompletion(ctx, player, task)
	if err != nil {
		res.Warnings = append(res.Warnings, "item drop could not be processed")
	}
	res.Drops = drops
	return res, nil
}

// Cancel marks any active task cancelled.
func (s *TaskService) Cancel(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Terminal() {
		return nil, ErrTaskTerminal
	}
	task.Status = models.TaskStatusCancelled
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to cancel task: %w", err)
	}
	return task, nil
}

// CheckInHabit records one on-schedule habit completion: streak and total
// advance, the day is marked, and a small streak-scaled reward is granted.
// At most one check-in counts per logical day.
func (s *TaskService) CheckInHabit(ctx context.Context, taskID string) (*CompletionResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Kind != models.TaskKindHabit {
		return nil, ErrWrongKind
	}
	if task.Terminal() {
		return nil, ErrTaskTerminal
	}

	now := time.Now()
	if task.CompletedToday ||
		(!task.LastCompletedAt.IsZero() && engine.SameCalendarDay(task.LastCompletedAt, now, s.dayOffset)) {
		return nil, ErrAlreadyCheckedIn
	}

	player, err := s.playerRepo.GetByID(ctx, task.PlayerID)
	if err != nil {
		return nil, err
	}

	task.Streak++
	task.TotalCompletions++
	task.MissCount = 0
	task.LastCompletedAt = now
	task.CompletedToday = true
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	exp := 10 + min(15, task.Streak)
	coins := 5 + min(10, task.Streak/2)
	player.Streak++
	if err := s.players.GrantReward(ctx, player, exp, coins, exp/2); err != nil {
		return nil, err
	}

	reward := engine.Reward{Exp: exp, Coins: coins, JobExp: exp / 2}
	return &CompletionResult{Task: task, Reward: &reward}, nil
}

// CompleteGoal resolves a long-term goal, with the early bonus when the
// target date has not passed.
func (s *TaskService) CompleteGoal(ctx context.Context, taskID string) (*CompletionResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Kind != models.TaskKindGoal {
		return nil, ErrWrongKind
	}
	if task.Terminal() {
		return nil, ErrTaskTerminal
	}

	player, err := s.playerRepo.GetByID(ctx, task.PlayerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exp, coins := 150, 200
	if !task.TargetDate.IsZero() && now.Before(task.TargetDate) {
		exp = int(float64(exp) * s.calc.Config().EarlyBonus)
		coins = int(float64(coins) * s.calc.Config().EarlyBonus)
	}

	task.Status = models.TaskStatusCompleted
	task.Achieved = true
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete goal: %w", err)
	}
	if err := s.players.GrantReward(ctx, player, exp, coins, exp/2); err != nil {
		return nil, err
	}

	reward := engine.Reward{Exp: exp, Coins: coins, JobExp: exp / 2}
	return &CompletionResult{Task: task, Reward: &reward}, nil
}

// GoalProgress derives a goal's completion fraction from its linked
// deadline tasks.
func (s *TaskService) GoalProgress(ctx context.Context, goalID string) (completed, total int, err error) {
	return s.taskRepo.LinkedDeadlineProgress(ctx, goalID)
}
