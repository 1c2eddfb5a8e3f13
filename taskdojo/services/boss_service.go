package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
)

// BossService resolves combat exchanges with the current chapter boss.
type BossService struct {
	calc       *engine.Calculator
	bossRepo   repositories.BossRepository
	playerRepo repositories.PlayerRepository
	players    *PlayerService
	oracle     oracle.Oracle
	images     *ImageStore
	dayOffset  time.Duration
}

func NewBossService(
	calc *engine.Calculator,
	bossRepo repositories.BossRepository,
	playerRepo repositories.PlayerRepository,
	players *PlayerService,
	orc oracle.Oracle,
	images *ImageStore,
	dayOffset time.Duration,
) *BossService {
	return &BossService{
		calc:       calc,
		bossRepo:   bossRepo,
		playerRepo: playerRepo,
		players:    players,
		oracle:     orc,
		images:     images,
		dayOffset:  dayOffset,
	}
}

// AttackResult describes one player-initiated exchange.
type AttackResult struct {
	Boss      *models.Boss `json:"boss"`
	Damage    int          `json:"damage"`
	Defeated  bool         `json:"defeated"`
	Exp       int          `json:"exp,omitempty"`
	Coins     int          `json:"coins,omitempty"`
	Narrative string       `json:"narrative,omitempty"`
	NextBoss  *models.Boss `json:"next_boss,omitempty"`
}

// EnsureCurrent returns the active boss, creating chapter one if the world
// has none yet.
func (s *BossService) EnsureCurrent(ctx context.Context) (*models.Boss, error) {
	boss, err := s.bossRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if boss != nil {
		return boss, nil
	}

	name := s.oracle.GenerateName(ctx, oracle.KindBoss, "chapter 1")
	boss = &models.Boss{
		Name:               name,
		Number:             1,
		HP:                 s.calc.Config().BossBaseHP + s.calc.Config().BossHPPerNumber,
		MaxHP:              s.calc.Config().BossBaseHP + s.calc.Config().BossHPPerNumber,
		AttackPower:        s.calc.Config().BossBaseAttack + s.calc.Config().BossAtkPerNumber,
		ChallengeStartDate: time.Now(),
	}
	boss.ImageURL = s.bossImage(ctx, boss.Name, boss.Number)
	if err := s.bossRepo.Create(ctx, boss); err != nil {
		return nil, fmt.Errorf("failed to create first boss: %w", err)
	}
	return boss, nil
}

// bossImage generates and uploads chapter art, keyed by chapter number.
// Any failure degrades to an empty URL; a boss without art is still
// fightable.
func (s *BossService) bossImage(ctx context.Context, name string, number int) string {
	data := s.oracle.GenerateImage(ctx, name, oracle.KindBoss)
	if len(data) == 0 {
		return ""
	}
	url, err := s.images.Store(ctx, "boss", fmt.Sprintf("chapter-%d", number), data)
	if err != nil {
		slog.Warn("Boss image upload failed",
			slog.Int("chapter", number),
			slog.Any("error", err))
		return ""
	}
	return url
}

// Attack performs the player's once-per-day strike and, on a kill, the
// chapter transition.
func (s *BossService) Attack(ctx context.Context, playerID int64) (*AttackResult, error) {
	boss, err := s.EnsureCurrent(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !boss.LastAttackDate.IsZero() && engine.SameCalendarDay(boss.LastAttackDate, now, s.dayOffset) {
		return nil, ErrAlreadyAttacked
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	strength, err := s.players.EffectiveStat(ctx, player, models.StatStrength)
	if err != nil {
		return nil, err
	}

	damage := s.calc.PlayerAttackDamage(strength, player.Level, boss.Number)
	boss.HP -= damage
	boss.LastAttackDate = now

	res := &AttackResult{Boss: boss, Damage: damage}
	if boss.HP > 0 {
		if err := s.bossRepo.Update(ctx, boss); err != nil {
			return nil, err
		}
		return res, nil
	}

	boss.HP = 0
	boss.Defeated = true
	ctx = oracle.WithPlayerID(ctx, playerID)
	boss.Narrative = s.oracle.GenerateNarrative(ctx, boss.Number, boss.Name)
	if err := s.bossRepo.Update(ctx, boss); err != nil {
		return nil, err
	}

	exp, coins := s.calc.DefeatReward(boss.Number)
	if err := s.players.GrantReward(ctx, player, exp, coins, exp/2); err != nil {
		return nil, err
	}

	nextName := s.oracle.GenerateName(ctx, oracle.KindBoss, fmt.Sprintf("chapter %d", boss.Number+1))
	next := s.calc.NextBoss(boss, nextName, now)
	next.ImageURL = s.bossImage(ctx, next.Name, next.Number)
	if err := s.bossRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create next boss: %w", err)
	}

	slog.Info("Boss defeated",
		slog.Int64("player_id", playerID),
		slog.Int("chapter", boss.Number),
		slog.String("next_boss", next.Name))

	res.Defeated = true
	res.Exp = exp
	res.Coins = coins
	res.Narrative = boss.Narrative
	res.NextBoss = next
	return res, nil
}

// Retaliate applies the boss's daily automatic strike against a player and
// reports whether it killed them.
func (s *BossService) Retaliate(ctx context.Context, player *models.Player, boss *models.Boss) (int, bool, error) {
	vitality, err := s.players.EffectiveStat(ctx, player, models.StatVitality)
	if err != nil {
		return 0, false, err
	}
	damage := s.calc.BossRetaliationDamage(boss.AttackPower, vitality)
	died, err := s.players.ApplyDamage(ctx, player, damage)
	return damage, died, err
}
