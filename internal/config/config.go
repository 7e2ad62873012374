package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTPPort string `yaml:"http_port"`
	GRPCPort string `yaml:"grpc_port"`
	LogLevel string `yaml:"log_level"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Outbox   OutboxConfig   `yaml:"outbox"`

	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	Lease        time.Duration `yaml:"lease"`
}

func Default() Config {
	return Config{
		HTTPPort: "9000",
		GRPCPort: "9001",
		LogLevel: "debug",
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 5432,
			User: "postgres",
			Name: "rentwear",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:   "page_revalidation",
			GroupID: "page-revalidation-consumer-group",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Outbox: OutboxConfig{
			PollInterval: 2 * time.Second,
			BatchSize:    10,
			MaxAttempts:  5,
			Lease:        5 * time.Minute,
		},
		CORSOrigins: []string{"*"},
	}
}

// Load reads defaults, then the YAML file named by CONFIG_FILE, then
// environment variables. A .env file found next to the binary or up to two
// levels above it is loaded into the environment first.
func Load() (Config, error) {
	loadEnv()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func (c Config) DSN() string {
	d := c.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", d.Host, d.Port, d.User, d.Password, d.Name)
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Error getting working directory: %v", err)
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTPPort, "HTTP_PORT")
	setString(&c.GRPCPort, "GRPC_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "POSTGRES_USER")
	setString(&c.Database.Password, "POSTGRES_PASSWORD")
	setString(&c.Database.Name, "POSTGRES_DB")
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if err := setDuration(&c.Auth.TokenTTL, "JWT_TTL"); err != nil {
		return err
	}

	setList(&c.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Kafka.GroupID, "KAFKA_GROUP_ID")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	if err := setDuration(&c.Outbox.PollInterval, "OUTBOX_POLL_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&c.Outbox.BatchSize, "OUTBOX_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Outbox.MaxAttempts, "OUTBOX_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setDuration(&c.Outbox.Lease, "OUTBOX_LEASE"); err != nil {
		return err
	}

	setList(&c.CORSOrigins, "CORS_ORIGINS")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
