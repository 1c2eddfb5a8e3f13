package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/taskdojo-app/taskdojo/taskdojo/database/models"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
	SSLMode  string `toml:"ssl_mode"`
}

func (cfg DBConfig) dsn() string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode)
}

// DB owns both handles: a pgx pool for health checks and raw statements,
// and a bun.DB for model-based queries.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	poolConfig.ConnConfig.ConnectTimeout = defaultConnTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; ; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		if i >= defaultMaxRetries {
			pool.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", defaultMaxRetries, err)
		}
		time.Sleep(defaultRetryInterval)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.dsn())))
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	return &DB{pool: pool, bunDB: bunDB}, nil
}

func (db *DB) Pool() *pgxpool.Pool { return db.pool }

func (db *DB) BunDB() *bun.DB { return db.bunDB }

func (db *DB) Close() {
	if db.bunDB != nil {
		db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitializeSchema creates all tables and indexes if they do not exist yet.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Player)(nil),
		(*models.Task)(nil),
		(*models.Boss)(nil),
		(*models.Item)(nil),
		(*models.InventoryEntry)(nil),
		(*models.DropRecord)(nil),
		(*models.ExecutionLog)(nil),
	}

	for _, table := range tables {
		if _, err := db.bunDB.NewCreateTable().
			Model(table).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", table, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_player_kind_status ON tasks (player_id, kind, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_linked_habit ON tasks (linked_habit_id) WHERE linked_habit_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_linked_goal ON tasks (linked_goal_id) WHERE linked_goal_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_player_item ON inventory (player_id, item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_drop_records_player ON drop_records (player_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_execution_logs_job_player ON execution_logs (job_type, player_id, ran_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.Int("tables", len(tables)))
	return nil
}
