package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context, playerID int64, kind models.TaskKind) ([]*models.Task, error)
	CancelActiveDeadlines(ctx context.Context, playerID int64) (int, error)
	LinkedDeadlineProgress(ctx context.Context, goalID string) (completed, total int, err error)
	HasActiveBossTrial(ctx context.Context, playerID int64, now time.Time) (bool, error)
}

type taskRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewTaskRepository(db *bun.DB) TaskRepository {
	return &taskRepository{BaseRepository: NewBaseRepository(db), db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var task models.Task
	err := r.db.NewSelect().
		Model(&task).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get", "task", id, err)
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	_, err := r.db.NewInsert().Model(task).Exec(ctx)
	return r.HandleError("create", "task", task.ID, err)
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	task.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(task).
		WherePK().
		Exec(ctx)
	return r.HandleError("update", "task", task.ID, err)
}

// Delete hard-deletes; only urgent-task expiry and habit decay use it.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewDelete().
		Model((*models.Task)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return r.HandleError("delete", "task", id, err)
}

func (r *taskRepository) ListActive(ctx context.Context, playerID int64, kind models.TaskKind) ([]*models.Task, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var tasks []*models.Task
	q := r.db.NewSelect().
		Model(&tasks).
		Where("player_id = ?", playerID).
		Where("status = ?", models.TaskStatusActive).
		Order("created_at ASC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "task", playerID, err)
	}
	return tasks, nil
}

// CancelActiveDeadlines marks every active deadline task cancelled and
// returns how many rows changed. Used by the death reset.
func (r *taskRepository) CancelActiveDeadlines(ctx context.Context, playerID int64) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Task)(nil)).
		Where("player_id = ?", playerID).
		Where("kind = ?", models.TaskKindDeadline).
		Where("status = ?", models.TaskStatusActive).
		Set("status = ?", models.TaskStatusCancelled).
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("update", "task", playerID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// LinkedDeadlineProgress counts deadline tasks linked to a goal; goal
// progress is derived from these counts, never stored.
func (r *taskRepository) LinkedDeadlineProgress(ctx context.Context, goalID string) (int, int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	total, err := r.db.NewSelect().
		Model((*models.Task)(nil)).
		Where("linked_goal_id = ?", goalID).
		Count(ctx)
	if err != nil {
		return 0, 0, r.HandleError("count", "task", goalID, err)
	}

	completed, err := r.db.NewSelect().
		Model((*models.Task)(nil)).
		Where("linked_goal_id = ?", goalID).
		Where("status = ?", models.TaskStatusCompleted).
		Count(ctx)
	if err != nil {
		return 0, 0, r.HandleError("count", "task", goalID, err)
	}
	return completed, total, nil
}

// HasActiveBossTrial applies the dedup window for boss-trial mini-tasks:
// any unexpired one, or any created within the last 24 hours, blocks a new
// one.
func (r *taskRepository) HasActiveBossTrial(ctx context.Context, playerID int64, now time.Time) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Task)(nil)).
		Where("player_id = ?", playerID).
		Where("kind = ?", models.TaskKindUrgent).
		Where("boss_trial = true").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("expires_at > ?", now).
				WhereOr("created_at > ?", now.Add(-24*time.Hour))
		}).
		Count(ctx)
	if err != nil {
		return false, r.HandleError("count", "task", playerID, err)
	}
	return count > 0, nil
}
