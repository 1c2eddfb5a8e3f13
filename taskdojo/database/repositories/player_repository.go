package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

type PlayerRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Player, error)
	GetActive(ctx context.Context) ([]*models.Player, error)
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	RecordUsage(ctx context.Context, id int64, calls int, costUSD float64) error
}

type playerRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewPlayerRepository(db *bun.DB) PlayerRepository {
	return &playerRepository{BaseRepository: NewBaseRepository(db), db: db}
}

func (r *playerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var player models.Player
	err := r.db.NewSelect().
		Model(&player).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get", "player", id, err)
	}
	return &player, nil
}

func (r *playerRepository) GetActive(ctx context.Context) ([]*models.Player, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var players []*models.Player
	err := r.db.NewSelect().
		Model(&players).
		Where("suspended = false").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "player", nil, err)
	}
	return players, nil
}

func (r *playerRepository) Create(ctx context.Context, player *models.Player) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	player.CreatedAt = now
	player.UpdatedAt = now
	_, err := r.db.NewInsert().Model(player).Exec(ctx)
	return r.HandleError("create", "player", player.ID, err)
}

func (r *playerRepository) Update(ctx context.Context, player *models.Player) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	player.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(player).
		WherePK().
		Exec(ctx)
	return r.HandleError("update", "player", player.ID, err)
}

// UpdateFields applies a partial update without reading the row first.
func (r *playerRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.db.NewUpdate().
		Model((*models.Player)(nil)).
		Where("id = ?", id).
		Set("updated_at = CURRENT_TIMESTAMP")
	for col, val := range fields {
		q = q.Set("? = ?", bun.Ident(col), val)
	}
	_, err := q.Exec(ctx)
	return r.HandleError("update", "player", id, err)
}

func (r *playerRepository) RecordUsage(ctx context.Context, id int64, calls int, costUSD float64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Player)(nil)).
		Where("id = ?", id).
		Set("api_calls = api_calls + ?", calls).
		Set("api_cost_usd = api_cost_usd + ?", costUSD).
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return r.HandleError("update", "player", id, err)
}
