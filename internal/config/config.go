package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/peovukea-bbd/laser-tag/internal/engine"
)

type Config struct {
	Addr      string `env:"ADDR" envDefault:":3001" validate:"required"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`

	MaxPlayers          int     `env:"MAX_PLAYERS" envDefault:"10" validate:"min=1,max=1000"`
	MaxSpectators       int     `env:"MAX_SPECTATORS" envDefault:"50" validate:"min=1,max=10000"`
	RespawnSeconds      float64 `env:"RESPAWN_SECONDS" envDefault:"5" validate:"gte=0,lte=3600"`
	StartingHealth      int     `env:"STARTING_HEALTH" envDefault:"100" validate:"min=1"`
	StartingPoints      int     `env:"STARTING_POINTS" envDefault:"100" validate:"min=0"`
	GameDurationMinutes int     `env:"GAME_DURATION_MINUTES" envDefault:"10" validate:"min=1"`
	WeaponSpawnRate     float64 `env:"WEAPON_SPAWN_RATE" envDefault:"0.1" validate:"gte=0,lte=1"`
	PowerUpSpawnRate    float64 `env:"POWERUP_SPAWN_RATE" envDefault:"0.05" validate:"gte=0,lte=1"`
	EventHistory        int     `env:"EVENT_HISTORY" envDefault:"100" validate:"min=1"`

	OutboxSize     int           `env:"OUTBOX_SIZE" envDefault:"64" validate:"min=1"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s" validate:"gt=0"`
	PingInterval   time.Duration `env:"PING_INTERVAL" envDefault:"30s" validate:"gte=0"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Empty keeps the event archive in memory.
	DatabaseURL        string `env:"DATABASE_URL"`
	ArchiveMemoryLimit int    `env:"ARCHIVE_MEMORY_LIMIT" envDefault:"10000" validate:"min=0"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the given dotenv files (".env" when none are named; missing files
// are skipped), then the process environment, and validates the result.
// Variables already set in the environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Settings is the per-lobby game configuration every new lobby starts with.
func (c Config) Settings() engine.Settings {
	return engine.Settings{
		GameDuration:     c.GameDurationMinutes,
		RespawnTime:      c.RespawnSeconds,
		StartingHealth:   c.StartingHealth,
		StartingPoints:   c.StartingPoints,
		WeaponSpawnRate:  c.WeaponSpawnRate,
		PowerUpSpawnRate: c.PowerUpSpawnRate,
	}
}
