package taskdojo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/taskdojo-app/taskdojo/taskdojo/database"
	"github.com/taskdojo-app/taskdojo/taskdojo/database/repositories"
	"github.com/taskdojo-app/taskdojo/taskdojo/engine"
	"github.com/taskdojo-app/taskdojo/taskdojo/oracle"
	"github.com/taskdojo-app/taskdojo/taskdojo/scheduler"
	"github.com/taskdojo-app/taskdojo/taskdojo/services"
)

// App wires the engine, repositories, services and orchestrator together.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB   *database.DB
	Calc *engine.Calculator

	PlayerRepository repositories.PlayerRepository
	TaskRepository   repositories.TaskRepository
	BossRepository   repositories.BossRepository
	ItemRepository   repositories.ItemRepository
	DropRepository   repositories.DropRepository
	ExecutionLog     repositories.ExecutionLogRepository

	Oracle oracle.Oracle
	Images *services.ImageStore

	Players *services.PlayerService
	Tasks   *services.TaskService
	Drops   *services.DropService
	Boss    *services.BossService
	Shop    *services.ShopService

	Orchestrator *scheduler.Orchestrator
}

func New(cfg Config, version, commit string) *App {
	return &App{Cfg: cfg, Version: version, Commit: commit}
}

// Setup builds every component on top of an open database handle.
func (a *App) Setup(ctx context.Context, db *database.DB) error {
	a.DB = db
	a.Calc = engine.NewCalculator(engine.NewDefaultConfig(), rand.New(rand.NewSource(time.Now().UnixNano())))

	bunDB := db.BunDB()
	a.PlayerRepository = repositories.NewPlayerRepository(bunDB)
	a.TaskRepository = repositories.NewTaskRepository(bunDB)
	a.BossRepository = repositories.NewBossRepository(bunDB)
	a.ItemRepository = repositories.NewItemRepository(bunDB)
	a.DropRepository = repositories.NewDropRepository(bunDB)
	a.ExecutionLog = repositories.NewExecutionLogRepository(bunDB)

	a.Players = services.NewPlayerService(a.PlayerRepository, a.TaskRepository, a.ItemRepository)

	images, err := services.NewImageStore(
		a.Cfg.Spaces.Key,
		a.Cfg.Spaces.Secret,
		a.Cfg.Spaces.Region,
		a.Cfg.Spaces.Bucket,
		a.Cfg.Spaces.ImageRoot,
	)
	if err != nil {
		return fmt.Errorf("failed to set up image store: %w", err)
	}
	a.Images = images

	fallback := oracle.NewFallback(rand.New(rand.NewSource(time.Now().UnixNano())))
	a.Oracle = oracle.NewClient(oracle.ClientConfig{
		APIKey:     a.Cfg.Oracle.APIKey,
		ChatModel:  a.Cfg.Oracle.ChatModel,
		ImageModel: a.Cfg.Oracle.ImageModel,
	}, fallback, a.Players)

	dayOffset := a.Cfg.Scheduler.DayOffset()
	a.Drops = services.NewDropService(a.Calc, a.ItemRepository, a.DropRepository)
	a.Tasks = services.NewTaskService(
		a.Calc, a.TaskRepository, a.PlayerRepository, a.Players, a.Drops,
		a.Oracle, a.Images, a.Cfg.Oracle.Strictness, dayOffset,
	)
	a.Boss = services.NewBossService(
		a.Calc, a.BossRepository, a.PlayerRepository, a.Players,
		a.Oracle, a.Images, dayOffset,
	)
	a.Shop = services.NewShopService(a.ItemRepository, a.PlayerRepository)

	a.Orchestrator = scheduler.New(
		a.Calc, a.PlayerRepository, a.TaskRepository, a.ExecutionLog,
		a.Players, a.Tasks, a.Boss, a.Oracle, dayOffset,
	)

	if err := database.EnsureDefaultItems(ctx, a.ItemRepository); err != nil {
		return fmt.Errorf("failed to seed item catalog: %w", err)
	}
	return nil
}
