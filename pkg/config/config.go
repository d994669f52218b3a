package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Game   GameConfig   `mapstructure:"game"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig points at the postgres database that archives finished games.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
}

type GameConfig struct {
	TotalRounds     int     `mapstructure:"total_rounds"`
	RoundSeconds    int     `mapstructure:"round_seconds"`
	MaxPlayers      int     `mapstructure:"max_players"`
	WordsFile       string  `mapstructure:"words_file"`
	EventsPerSecond float64 `mapstructure:"events_per_second"`
	EventBurst      int     `mapstructure:"event_burst"`
}

// RoundDuration converts RoundSeconds to a duration.
func (g GameConfig) RoundDuration() time.Duration {
	return time.Duration(g.RoundSeconds) * time.Second
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// EnvPrefix prefixes environment overrides, e.g. DOODLE_GAME_TOTAL_ROUNDS.
const EnvPrefix = "DOODLE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "doodle")
	v.SetDefault("db.port", 5432)

	v.SetDefault("game.total_rounds", 5)
	v.SetDefault("game.round_seconds", 90)
	v.SetDefault("game.max_players", 12)
	v.SetDefault("game.words_file", "")
	v.SetDefault("game.events_per_second", 20)
	v.SetDefault("game.event_burst", 40)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads config.yaml from the given directories, or from ./pkg/config and
// the working directory when none are given. A missing file is not an error:
// defaults and DOODLE_* environment variables (optionally from .env) fill in.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./pkg/config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &config, nil
}
