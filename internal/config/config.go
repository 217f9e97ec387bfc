package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env               string    `mapstructure:"env"`                 // current application environment (local, dev, production)
	TelegramAPIToken  string    `mapstructure:"-"`                   // Telegram API token loaded from environment
	QuestionsJSONPath string    `mapstructure:"questions_json_path"` // bundled question dataset
	MetricsAddr       string    `mapstructure:"metrics_addr"`        // listen address of the /metrics endpoint, empty disables it
	DefaultTimezone   string    `mapstructure:"default_timezone"`    // timezone assigned to new players
	DB                DB        `mapstructure:"database"`
	Redis             Redis     `mapstructure:"redis"`
	Quiz              Quiz      `mapstructure:"quiz"`
	Reminders         Reminders `mapstructure:"reminders"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Redis configures the leaderboard cache.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Quiz tunes session timing.
type Quiz struct {
	SecondsPerQuestion int           `mapstructure:"seconds_per_question"`
	AdvanceDelay       time.Duration `mapstructure:"advance_delay"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
}

// QuestionTimeout is the per-question countdown.
func (q Quiz) QuestionTimeout() time.Duration {
	return time.Duration(q.SecondsPerQuestion) * time.Second
}

// Reminders configures the streak reminder job.
type Reminders struct {
	Schedule    string `mapstructure:"schedule"`    // cron spec
	Concurrency int    `mapstructure:"concurrency"` // parallel sends per run
	LocalHour   int    `mapstructure:"local_hour"`  // earliest local hour a reminder may be sent
}

// Load reads configuration from an optional .env file, config files and
// environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("questions_json_path", "assets/data/questions.json")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("default_timezone", "UTC")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("quiz.seconds_per_question", 30)
	v.SetDefault("quiz.advance_delay", "1500ms")
	v.SetDefault("quiz.tick_interval", "100ms")
	v.SetDefault("reminders.schedule", "0 * * * *")
	v.SetDefault("reminders.concurrency", 10)
	v.SetDefault("reminders.local_hour", 18)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Quiz.SecondsPerQuestion <= 0 {
		return fmt.Errorf("%w: quiz.seconds_per_question must be positive", ErrInvalidConfig)
	}
	if c.Quiz.TickInterval <= 0 || c.Quiz.AdvanceDelay < 0 {
		return fmt.Errorf("%w: quiz timings", ErrInvalidConfig)
	}
	if c.Reminders.LocalHour < 0 || c.Reminders.LocalHour > 23 {
		return fmt.Errorf("%w: reminders.local_hour must be 0-23", ErrInvalidConfig)
	}
	if c.Reminders.Concurrency <= 0 {
		c.Reminders.Concurrency = 1
	}
	return nil
}
