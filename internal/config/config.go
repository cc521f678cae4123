package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	AppEnv   string
	LogLevel string
	Debug    bool

	HTTPPort           string
	CORSAllowedOrigins []string

	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string
	SeedCurriculum bool

	TelegramToken      string
	WordsInRow         int
	AutoAdvance        bool
	RateLimitPerMinute int

	AdminPassHash  string
	AdminJWTSecret string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	ReportEmail  string
}

// ErrMissingTelegramToken is returned by RequireBot when no bot token is configured.
var ErrMissingTelegramToken = errors.New("TELEGRAM_TOKEN is not set")

// Load reads configuration from the environment, an optional .env file and an
// optional config.yaml, falling back to sensible defaults.
func Load() (*Config, error) {
	envPath := os.Getenv("ENV_PATH")
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("config file not found, using environment and defaults")
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
	v.SetDefault("HTTP_PORT", "5000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DATABASE_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./phrasebot.db")
	v.SetDefault("MIGRATIONS_PATH", "./migrations")
	v.SetDefault("SEED_CURRICULUM", true)
	v.SetDefault("WORDS_IN_ROW", 4)
	v.SetDefault("AUTO_ADVANCE", false)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_NAME", "Phrasebot")
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		AppEnv:             v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Debug:              v.GetBool("DEBUG"),
		HTTPPort:           v.GetString("HTTP_PORT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DatabaseType:       v.GetString("DATABASE_TYPE"),
		DatabasePath:       v.GetString("DB_PATH"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		SeedCurriculum:     v.GetBool("SEED_CURRICULUM"),
		TelegramToken:      v.GetString("TELEGRAM_TOKEN"),
		WordsInRow:         v.GetInt("WORDS_IN_ROW"),
		AutoAdvance:        v.GetBool("AUTO_ADVANCE"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		AdminPassHash:      v.GetString("ADMIN_PASS_HASH"),
		AdminJWTSecret:     v.GetString("ADMIN_JWT_SECRET"),
		AWSRegion:          v.GetString("AWS_REGION"),
		SESFromEmail:       v.GetString("SES_FROM_EMAIL"),
		SESFromName:        v.GetString("SES_FROM_NAME"),
		ReportEmail:        v.GetString("REPORT_EMAIL"),
	}
	if cfg.WordsInRow <= 0 {
		cfg.WordsInRow = 4
	}
	return cfg
}

// RequireBot checks the settings needed to talk to Telegram.
func (c *Config) RequireBot() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return ErrMissingTelegramToken
	}
	return nil
}

// IsDev reports whether the process runs in a development environment.
func (c *Config) IsDev() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "dev" || env == "development"
}

// AdminEnabled reports whether the admin API has credentials configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminPassHash != "" && c.AdminJWTSecret != ""
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
