package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

type BossRepository interface {
	// GetCurrent returns the highest-numbered undefeated boss, or nil when
	// none exists yet.
	GetCurrent(ctx context.Context) (*models.Boss, error)
	Create(ctx context.Context, boss *models.Boss) error
	Update(ctx context.Context, boss *models.Boss) error
}

type bossRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewBossRepository(db *bun.DB) BossRepository {
	return &bossRepository{BaseRepository: NewBaseRepository(db), db: db}
}

func (r *bossRepository) GetCurrent(ctx context.Context) (*models.Boss, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var boss models.Boss
	err := r.db.NewSelect().
		Model(&boss).
		Where("defeated = false").
		Order("number DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.HandleError("get", "boss", nil, err)
	}
	return &boss, nil
}

func (r *bossRepository) Create(ctx context.Context, boss *models.Boss) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	boss.CreatedAt = now
	boss.UpdatedAt = now
	_, err := r.db.NewInsert().Model(boss).Exec(ctx)
	return r.HandleError("create", "boss", boss.ID, err)
}

func (r *bossRepository) Update(ctx context.Context, boss *models.Boss) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	boss.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(boss).
		WherePK().
		Exec(ctx)
	return r.HandleError("update", "boss", boss.ID, err)
}
