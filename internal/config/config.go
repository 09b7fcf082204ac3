package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the bot reads at start-up. It is never reloaded.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Port        string `yaml:"port" validate:"required,numeric"`

	// Telegram
	BotToken        string   `yaml:"bot_token" validate:"required"`
	TelegramAPIBase string   `yaml:"telegram_api_base" validate:"omitempty,url"`
	WebhookURL      string   `yaml:"webhook_url" validate:"omitempty,url"`
	WebhookSecret   string   `yaml:"webhook_secret"`
	SendRate        float64  `yaml:"send_rate_per_second" validate:"gt=0"`
	AdminID         int64    `yaml:"admin_id" validate:"gt=0"`
	AdminUsername   string   `yaml:"admin_username" validate:"required"`
	Channels        []string `yaml:"channels" validate:"dive,required"`

	// Storage
	StorageDriver string `yaml:"storage_driver" validate:"oneof=file mongo redis"`
	DBPath        string `yaml:"db_path" validate:"required_if=StorageDriver file"`
	MongoURI      string `yaml:"mongodb_uri" validate:"required_if=StorageDriver mongo"`
	MongoDatabase string `yaml:"mongodb_database"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=StorageDriver redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	MetadataAPIBase string `yaml:"metadata_api_base" validate:"omitempty,url"`
}

func defaults() *Config {
	return &Config{
		Environment:   "development",
		LogLevel:      "info",
		Port:          "8080",
		SendRate:      25,
		StorageDriver: "file",
		DBPath:        "db.json",
		MongoDatabase: "kinotut",
		RedisAddr:     "localhost:6379",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then environment variables, and validates the result.
func Load() (*Config, error) {
	return load()
}

// LoadStorage is Load for tools that only open the catalog: Telegram
// settings are read but not required.
func LoadStorage() (*Config, error) {
	return load(storageFields...)
}

var storageFields = []string{"StorageDriver", "DBPath", "MongoURI", "MongoDatabase", "RedisAddr", "RedisPassword", "RedisDB"}

func load(fields ...string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(fields...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Port, "PORT")
	setString(&c.BotToken, "BOT_TOKEN")
	setString(&c.TelegramAPIBase, "TELEGRAM_API_BASE")
	setString(&c.WebhookURL, "WEBHOOK_URL")
	setString(&c.WebhookSecret, "WEBHOOK_SECRET")
	setString(&c.AdminUsername, "ADMIN_USERNAME")
	setString(&c.StorageDriver, "STORAGE_DRIVER")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.MongoURI, "MONGODB_URI")
	setString(&c.MongoDatabase, "MONGODB_DATABASE")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.MetadataAPIBase, "METADATA_API_BASE")

	if v := env("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_ID: %w", err)
		}
		c.AdminID = id
	}
	if v := env("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.RedisDB = n
	}
	if v := env("SEND_RATE_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SEND_RATE_PER_SECOND: %w", err)
		}
		c.SendRate = f
	}
	if v := env("CHANNELS"); v != "" {
		c.Channels = SplitList(v)
	}
	// allow PORT=:8080 style
	c.Port = strings.TrimPrefix(c.Port, ":")
	return nil
}

// Validate checks struct rules.
func (c *Config) Validate() error {
	return c.validate()
}

// validate checks only the named fields when any are given.
func (c *Config) validate(fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = validator.New().StructPartial(c, fields...)
	} else {
		err = validator.New().Struct(c)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
