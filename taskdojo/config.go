package taskdojo

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/taskdojo-app/taskdojo/taskdojo/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}
	return &cfg, nil
}

type Config struct {
	Log       LogConfig         `toml:"log"`
	Server    ServerConfig      `toml:"server"`
	DB        database.DBConfig `toml:"db"`
	Oracle    OracleConfig      `toml:"oracle"`
	Scheduler SchedulerConfig   `toml:"scheduler"`
	Spaces    SpacesConfig      `toml:"spaces"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type OracleConfig struct {
	APIKey     string `toml:"api_key"`
	ChatModel  string `toml:"chat_model"`
	ImageModel string `toml:"image_model"`
	Strictness int    `toml:"strictness"`
}

type SchedulerConfig struct {
	DailySpec  string `toml:"daily_spec"`
	HourlySpec string `toml:"hourly_spec"`
	// DayOffsetHours fixes the logical-day boundary as a UTC offset; the
	// idempotency checks must not depend on host locale.
	DayOffsetHours int `toml:"day_offset_hours"`
}

// DayOffset returns the configured day boundary offset as a duration.
func (sc SchedulerConfig) DayOffset() time.Duration {
	return time.Duration(sc.DayOffsetHours) * time.Hour
}

type SpacesConfig struct {
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	ImageRoot string `toml:"image_root"`
}

func defaultConfig() Config {
	return Config{
		Log:    LogConfig{Level: slog.LevelInfo},
		Server: ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{
			DailySpec:      "5 0 * * *",
			HourlySpec:     "0 * * * *",
			DayOffsetHours: 9,
		},
	}
}
