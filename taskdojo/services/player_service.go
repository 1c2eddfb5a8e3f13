package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
)

// PlayerService owns every mutation of player state: damage, rewards,
// progression and the death reset.
type PlayerService struct {
	playerRepo repositories.PlayerRepository
	taskRepo   repositories.TaskRepository
	itemRepo   repositories.ItemRepository
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	taskRepo repositories.TaskRepository,
	itemRepo repositories.ItemRepository,
) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		taskRepo:   taskRepo,
		itemRepo:   itemRepo,
	}
}

// EffectiveStat resolves a player attribute including equipped-item boosts.
func (s *PlayerService) EffectiveStat(ctx context.Context, player *models.Player, stat string) (int, error) {
	equipped, err := s.itemRepo.GetEquipped(ctx, player.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load equipped items: %w", err)
	}
	return player.EffectiveStat(stat, equipped), nil
}

// RecordUsage satisfies the oracle's UsageRecorder.
func (s *PlayerService) RecordUsage(ctx context.Context, playerID int64, calls int, costUSD float64) error {
	return s.playerRepo.RecordUsage(ctx, playerID, calls, costUSD)
}

// ApplyDamage reduces HP and fires the death reset at zero. It returns true
// when the player died.
func (s *PlayerService) ApplyDamage(ctx context.Context, player *models.Player, damage int) (bool, error) {
	if damage <= 0 {
		return false, nil
	}
	player.HP -= damage
	if player.HP > 0 {
		return false, s.playerRepo.Update(ctx, player)
	}
	player.HP = 0
	if err := s.DeathReset(ctx, player); err != nil {
		return true, err
	}
	return true, nil
}

// DeathReset restores HP to max, halves coins, resets job progression and
// streak, and cancels every active deadline task. Habits and goals are
// untouched.
func (s *PlayerService) DeathReset(ctx context.Context, player *models.Player) error {
	player.HP = player.MaxHP
	player.Coins /= 2
	player.JobLevel = 1
	player.JobExp = 0
	player.Streak = 0
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return fmt.Errorf("failed to apply death reset: %w", err)
	}

	cancelled, err := s.taskRepo.CancelActiveDeadlines(ctx, player.ID)
	if err != nil {
		return fmt.Errorf("failed to cancel deadline tasks on death: %w", err)
	}

	slog.Warn("Player died, reset applied",
		slog.Int64("player_id", player.ID),
		slog.Int("coins_left", player.Coins),
		slog.Int("tasks_cancelled", cancelled))
	return nil
}

// GrantReward applies exp, coins and job exp through the progression
// ledger and persists the player.
func (s *PlayerService) GrantReward(ctx context.Context, player *models.Player, exp, coins, jobExp int) error {
	player.Level, player.Exp = engine.ApplyExp(player.Level, player.Exp, exp)
	player.JobLevel, player.JobExp = engine.ApplyJobExp(player.JobLevel, player.JobExp, jobExp)
	player.Coins += coins
	if player.Coins < 0 {
		player.Coins = 0
	}
	return s.playerRepo.Update(ctx, player)
}
