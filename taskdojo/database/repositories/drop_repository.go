package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

// DropStats aggregates a player's drop history by rarity.
type DropStats struct {
	Total      int                   `json:"total"`
	BonusRolls int                   `json:"bonus_rolls"`
	ByRarity   map[models.Rarity]int `json:"by_rarity"`
}

type DropRepository interface {
	// Create appends an immutable drop fact; records are never updated.
	Create(ctx context.Context, record *models.DropRecord) error
	Stats(ctx context.Context, playerID int64) (*DropStats, error)
	Recent(ctx context.Context, playerID int64, limit int) ([]*models.DropRecord, error)
}

type dropRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewDropRepository(db *bun.DB) DropRepository {
	return &dropRepository{BaseRepository: NewBaseRepository(db), db: db}
}

func (r *dropRepository) Create(ctx context.Context, record *models.DropRecord) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	return r.HandleError("create", "drop_record", record.ID, err)
}

func (r *dropRepository) Stats(ctx context.Context, playerID int64) (*DropStats, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []struct {
		Rarity models.Rarity `bun:"rarity"`
		Count  int           `bun:"count"`
		Bonus  int           `bun:"bonus"`
	}
	err := r.db.NewSelect().
		Model((*models.DropRecord)(nil)).
		Column("rarity").
		ColumnExpr("count(*) AS count").
		ColumnExpr("count(*) FILTER (WHERE bonus) AS bonus").
		Where("player_id = ?", playerID).
		Group("rarity").
		Scan(ctx, &rows)
	if err != nil {
		return nil, r.HandleError("list", "drop_record", playerID, err)
	}

	stats := &DropStats{ByRarity: make(map[models.Rarity]int)}
	for _, row := range rows {
		stats.ByRarity[row.Rarity] = row.Count
		stats.Total += row.Count
		stats.BonusRolls += row.Bonus
	}
	return stats, nil
}

func (r *dropRepository) Recent(ctx context.Context, playerID int64, limit int) ([]*models.DropRecord, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var records []*models.DropRecord
	err := r.db.NewSelect().
		Model(&records).
		Where("player_id = ?", playerID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "drop_record", playerID, err)
	}
	return records, nil
}
