package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ContractInline   = "inline"
	ContractPrecheck = "precheck"

	BotModePolling = "polling"
	BotModeWebhook = "webhook"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Bot      BotConfig      `yaml:"bot"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Admin    AdminConfig    `yaml:"admin"`
	Feed     FeedConfig     `yaml:"feed"`
	Limits   LimitsConfig   `yaml:"limits"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type APIConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Timeout            time.Duration `yaml:"timeout"`
	ModerationContract string        `yaml:"moderation_contract"`
	APIKey             string        `yaml:"api_key"`
}

type BotConfig struct {
	Token       string `yaml:"token"`
	Mode        string `yaml:"mode"`
	PollTimeout int    `yaml:"poll_timeout"`
	Workers     int    `yaml:"workers"`
	OwnerTGID   int64  `yaml:"owner_tg_id"`
	WebhookPath string `yaml:"webhook_path"`
	WebhookURL  string `yaml:"webhook_url"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	DraftTTL   time.Duration `yaml:"draft_ttl"`
}

type S3Config struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	UseSSL    bool          `yaml:"use_ssl"`
	URLTTL    time.Duration `yaml:"url_ttl"`

	// Photos older than Retention are removed by the cleanup job.
	Retention       time.Duration `yaml:"retention"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type AlertsConfig struct {
	AllowSuspensionDismiss bool `yaml:"allow_suspension_dismiss"`
}

type AdminConfig struct {
	Usernames []string `yaml:"usernames"`
}

type FeedConfig struct {
	PageSize int `yaml:"page_size"`
}

// LimitsConfig caps how fast one user may act through the bot. Zero disables a window.
type LimitsConfig struct {
	LikesPerMinute int `yaml:"likes_per_minute"`
	LikesPer10Sec  int `yaml:"likes_per_10s"`
	PostsPerMinute int `yaml:"posts_per_minute"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8081",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		API: APIConfig{
			BaseURL:            "http://localhost:5000/api",
			Timeout:            10 * time.Second,
			ModerationContract: ContractInline,
		},
		Bot: BotConfig{
			Mode:        BotModePolling,
			PollTimeout: 30,
			Workers:     8,
			WebhookPath: "/telegram/webhook",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			SessionTTL: 30 * 24 * time.Hour,
			DraftTTL:   24 * time.Hour,
		},
		S3: S3Config{
			Bucket:          "feedbot-media",
			URLTTL:          7 * 24 * time.Hour,
			Retention:       8 * 24 * time.Hour,
			CleanupInterval: 6 * time.Hour,
		},
		Feed: FeedConfig{PageSize: 20},
		Limits: LimitsConfig{
			LikesPerMinute: 30,
			LikesPer10Sec:  8,
			PostsPerMinute: 5,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.API.ModerationContract {
	case ContractInline, ContractPrecheck:
	default:
		return fmt.Errorf("unknown api.moderation_contract %q", c.API.ModerationContract)
	}
	switch c.Bot.Mode {
	case BotModePolling, BotModeWebhook:
	default:
		return fmt.Errorf("unknown bot.mode %q", c.Bot.Mode)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	return nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if err := overrideDuration("API_TIMEOUT", &cfg.API.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("API_MODERATION_CONTRACT"); v != "" {
		cfg.API.ModerationContract = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.API.APIKey = v
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("BOT_MODE"); v != "" {
		cfg.Bot.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if err := overrideInt("BOT_POLL_TIMEOUT", &cfg.Bot.PollTimeout); err != nil {
		return err
	}
	if err := overrideInt("BOT_WORKERS", &cfg.Bot.Workers); err != nil {
		return err
	}
	if err := overrideInt64("BOT_OWNER_TG_ID", &cfg.Bot.OwnerTGID); err != nil {
		return err
	}
	if v := os.Getenv("BOT_WEBHOOK_URL"); v != "" {
		cfg.Bot.WebhookURL = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if err := overrideDuration("REDIS_SESSION_TTL", &cfg.Redis.SessionTTL); err != nil {
		return err
	}
	if err := overrideDuration("REDIS_DRAFT_TTL", &cfg.Redis.DraftTTL); err != nil {
		return err
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}
	if err := overrideDuration("S3_RETENTION", &cfg.S3.Retention); err != nil {
		return err
	}
	if err := overrideDuration("S3_CLEANUP_INTERVAL", &cfg.S3.CleanupInterval); err != nil {
		return err
	}
	if err := overrideDuration("S3_URL_TTL", &cfg.S3.URLTTL); err != nil {
		return err
	}

	if err := overrideBool("ALERTS_ALLOW_SUSPENSION_DISMISS", &cfg.Alerts.AllowSuspensionDismiss); err != nil {
		return err
	}

	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		cfg.Admin.Usernames = splitList(v)
	}

	if err := overrideInt("FEED_PAGE_SIZE", &cfg.Feed.PageSize); err != nil {
		return err
	}

	if err := overrideInt("LIMITS_LIKES_PER_MINUTE", &cfg.Limits.LikesPerMinute); err != nil {
		return err
	}
	if err := overrideInt("LIMITS_LIKES_PER_10S", &cfg.Limits.LikesPer10Sec); err != nil {
		return err
	}
	if err := overrideInt("LIMITS_POSTS_PER_MINUTE", &cfg.Limits.PostsPerMinute); err != nil {
		return err
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideInt64(key string, target *int64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s int64: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
