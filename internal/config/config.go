package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/dodgeball.db"`
	RedisURL string     `env:"REDIS_URL"`
	WebDir   string     `env:"WEB_DIR"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	SnapshotDebounce   time.Duration `env:"SNAPSHOT_DEBOUNCE" envDefault:"2s"`
	BadgeSweepInterval time.Duration `env:"BADGE_SWEEP_INTERVAL" envDefault:"10m"`

	Quick    Preset `envPrefix:"QUICK_"`
	Detailed Preset `envPrefix:"DETAILED_"`
}

// Preset holds the defaults used until custom settings are saved.
type Preset struct {
	Duration      time.Duration `env:"DURATION"`
	InitialLives  int           `env:"INITIAL_LIVES"`
	InitialBalls  int           `env:"INITIAL_BALLS"`
	BallAdditions []int         `env:"BALL_ADDITIONS" envSeparator:","`
}

func (p Preset) toDomain() dodgeball.Preset {
	out := dodgeball.Preset{
		Duration:      int(p.Duration / time.Second),
		InitialLives:  p.InitialLives,
		InitialBalls:  p.InitialBalls,
		BallAdditions: make([]dodgeball.BallAddition, 0, len(p.BallAdditions)),
	}
	for _, m := range p.BallAdditions {
		out.BallAdditions = append(out.BallAdditions, dodgeball.BallAddition{MinutesBefore: m})
	}
	return out
}

// Settings returns the default match presets.
func (c *Config) Settings() dodgeball.Settings {
	return dodgeball.Settings{
		Quick:    c.Quick.toDomain(),
		Detailed: c.Detailed.toDomain(),
	}
}

func defaults() Config {
	return Config{
		Quick: Preset{
			Duration:     7 * time.Minute,
			InitialLives: 1,
			InitialBalls: 1,
		},
		Detailed: Preset{
			Duration:      10 * time.Minute,
			InitialLives:  2,
			InitialBalls:  2,
			BallAdditions: []int{5, 2},
		},
	}
}

// Load reads the environment, after filling it from a .env file in the
// working directory when one exists. Variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg := defaults()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
