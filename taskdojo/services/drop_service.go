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
)

// DropService rolls item drops on task completion and persists them: the
// immutable DropRecord first, then the inventory merge.
type DropService struct {
	calc     *engine.Calculator
	itemRepo repositories.ItemRepository
	dropRepo repositories.DropRepository
}

func NewDropService(
	calc *engine.Calculator,
	itemRepo repositories.ItemRepository,
	dropRepo repositories.DropRepository,
) *DropService {
	return &DropService{calc: calc, itemRepo: itemRepo, dropRepo: dropRepo}
}

// RollForCompletion runs the drop engine for a completed task and returns
// the landed drops.
func (s *DropService) RollForCompletion(ctx context.Context, player *models.Player, task *models.Task) ([]engine.Drop, error) {
	pool, err := s.itemRepo.GetDroppable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load droppable pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	drops := s.calc.RollDrops(engine.DropInput{
		Difficulty: task.Difficulty,
		Job:        player.Job,
		Pool:       pool,
	})

	for _, d := range drops {
		record := &models.DropRecord{
			ID:        uuid.NewString(),
			PlayerID:  player.ID,
			ItemID:    d.Item.ID,
			TaskID:    task.ID,
			Quantity:  d.Quantity,
			Rarity:    d.Item.Rarity,
			Bonus:     d.Bonus,
			CreatedAt: time.Now(),
		}
		if err := s.dropRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to record drop: %w", err)
		}
		if err := s.itemRepo.AddToInventory(ctx, player.ID, d.Item.ID, d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to add drop to inventory: %w", err)
		}
		slog.Info("Item dropped",
			slog.Int64("player_id", player.ID),
			slog.String("item", d.Item.Name),
			slog.String("rarity", string(d.Item.Rarity)),
			slog.Int("quantity", d.Quantity),
			slog.Bool("bonus", d.Bonus))
	}
	return drops, nil
}
