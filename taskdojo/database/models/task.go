package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TaskKind string

const (
	TaskKindDeadline TaskKind = "deadline"
	TaskKindHabit    TaskKind = "habit"
	TaskKindGoal     TaskKind = "goal"
	TaskKindUrgent   TaskKind = "urgent"
)

type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyNormal   Difficulty = "normal"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
	DifficultyExtreme  Difficulty = "extreme"
)

// Task is the single-table representation of all four task kinds. Only the
// columns for the task's own kind are meaningful; the rest stay at their
// zero values.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID       string     `bun:"id,pk"`
	PlayerID int64      `bun:"player_id,notnull"`
	Kind     TaskKind   `bun:"kind,notnull"`
	Status   TaskStatus `bun:"status,notnull,default:'active'"`

	Title      string     `bun:"title,notnull"`
	Genre      string     `bun:"genre"`
	Difficulty Difficulty `bun:"difficulty,notnull,default:'normal'"`
	ImageURL   string     `bun:"image_url"`

	// Deadline tasks
	StartDate       time.Time `bun:"start_date,nullzero"`
	Deadline        time.Time `bun:"deadline,nullzero"`
	StrengthLevel   int       `bun:"strength_level,notnull,default:1"`
	LastPenaltyDate time.Time `bun:"last_penalty_date,nullzero"`
	LinkedHabitID   string    `bun:"linked_habit_id,nullzero"`
	LinkedGoalID    string    `bun:"linked_goal_id,nullzero"`

	// Habit tasks
	IntervalDays     int       `bun:"interval_days,notnull,default:0"`
	Streak           int       `bun:"streak,notnull,default:0"`
	TotalCompletions int       `bun:"total_completions,notnull,default:0"`
	MissCount        int       `bun:"miss_count,notnull,default:0"`
	LastCompletedAt  time.Time `bun:"last_completed_at,nullzero"`
	CompletedToday   bool      `bun:"completed_today,notnull,default:false"`

	// Goal tasks
	TargetDate time.Time `bun:"target_date,nullzero"`
	Achieved   bool      `bun:"achieved,notnull,default:false"`

	// Urgent tasks
	ExpiresAt time.Time `bun:"expires_at,nullzero"`
	BossTrial bool      `bun:"boss_trial,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Terminal reports whether the task reached a state that accepts no further
// penalty, reward or linkage mutation.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}
