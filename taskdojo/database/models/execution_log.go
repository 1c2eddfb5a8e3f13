package models

import (
	"time"

	"github.com/uptrace/bun"
)

type JobType string

const (
	JobTypeDaily  JobType = "daily"
	JobTypeHourly JobType = "hourly"
)

// ExecutionLog is the append-only record of periodic job runs and the sole
// source of truth for whether a job already ran in the current period.
type ExecutionLog struct {
	bun.BaseModel `bun:"table:execution_logs,alias:el"`

	ID       int64     `bun:"id,pk,autoincrement"`
	JobType  JobType   `bun:"job_type,notnull"`
	PlayerID int64     `bun:"player_id,nullzero"`
	RanAt    time.Time `bun:"ran_at,notnull"`
	Success  bool      `bun:"success,notnull"`
	Details  string    `bun:"details"`
}
