// Package config loads the service configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Telegram   TelegramConfig
	Cloudinary CloudinaryConfig
	Admin      AdminConfig
	Seed       SeedConfig
	Log        LogConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name   string
	Env    string
	Port   string
	Source string // shop_source tag written onto every order
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the cart persistence store settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// KafkaConfig holds the change-feed broker settings.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// TelegramConfig holds the order notification settings.
type TelegramConfig struct {
	BotToken       string
	OperatorChatID string
}

// CloudinaryConfig holds the image upload settings. An empty URL disables
// the upload endpoint.
type CloudinaryConfig struct {
	URL    string
	Folder string
}

// AdminConfig holds the admin surface settings.
type AdminConfig struct {
	DefaultToken string
}

// SeedConfig holds the seed endpoint settings.
type SeedConfig struct {
	Token string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Load reads configuration from config.toml and environment variables with
// the STORE_ prefix. Env vars win over the file; defaults fill the rest.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:   v.GetString("app.name"),
			Env:    v.GetString("app.env"),
			Port:   v.GetString("app.port"),
			Source: v.GetString("app.source"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers:       v.GetStringSlice("kafka.brokers"),
			ConsumerGroup: v.GetString("kafka.consumer_group"),
		},
		Telegram: TelegramConfig{
			BotToken:       v.GetString("telegram.bot_token"),
			OperatorChatID: v.GetString("telegram.operator_chat_id"),
		},
		Cloudinary: CloudinaryConfig{
			URL:    v.GetString("cloudinary.url"),
			Folder: v.GetString("cloudinary.folder"),
		},
		Admin: AdminConfig{
			DefaultToken: v.GetString("admin.default_token"),
		},
		Seed: SeedConfig{
			Token: v.GetString("seed.token"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Source == "" {
		cfg.App.Source = "storefront"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = "storefront-mirror"
	}
	if cfg.Cloudinary.Folder == "" {
		cfg.Cloudinary.Folder = "storefront"
	}
	if cfg.Seed.Token == "" {
		cfg.Seed.Token = "demo-seed-key"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func (c *Config) validate() error {
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Admin.DefaultToken == "" {
			return fmt.Errorf("admin.default_token is required in production")
		}
		if c.Seed.Token == "demo-seed-key" {
			return fmt.Errorf("seed.token must be changed from the default in production")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis host:port pair.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
