package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

type ExecutionLogRepository interface {
	// Append writes one run record; entries are never mutated.
	Append(ctx context.Context, entry *models.ExecutionLog) error
	// Latest returns the most recent entry for (jobType, playerID), or nil
	// if the job never ran. playerID 0 matches the unscoped entry.
	Latest(ctx context.Context, jobType models.JobType, playerID int64) (*models.ExecutionLog, error)
}

type executionLogRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewExecutionLogRepository(db *bun.DB) ExecutionLogRepository {
	return &executionLogRepository{BaseRepository: NewBaseRepository(db), db: db}
}

func (r *executionLogRepository) Append(ctx context.Context, entry *models.ExecutionLog) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if entry.RanAt.IsZero() {
		entry.RanAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(entry).Exec(ctx)
	return r.HandleError("create", "execution_log", entry.JobType, err)
}

func (r *executionLogRepository) Latest(ctx context.Context, jobType models.JobType, playerID int64) (*models.ExecutionLog, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.db.NewSelect().
		Model((*models.ExecutionLog)(nil)).
		Where("job_type = ?", jobType).
		Order("ran_at DESC").
		Limit(1)
	if playerID != 0 {
		q = q.Where("player_id = ?", playerID)
	} else {
		q = q.Where("player_id IS NULL")
	}

	var entry models.ExecutionLog
	err := q.Scan(ctx, &entry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.HandleError("get", "execution_log", jobType, err)
	}
	return &entry, nil
}
