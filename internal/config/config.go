// Package config loads coordinator settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/zerosrv/internal/models"
)

// Config holds all configuration values.
type Config struct {
	// HTTP
	Port int `yaml:"port"`

	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Networks
	NetworkDir      string `yaml:"network_dir"`
	BestNetworkPath string `yaml:"best_network_path"`

	// Auth
	AdminKey           string `yaml:"admin_key"`
	AdminKeyFile       string `yaml:"admin_key_file"`
	VerificationSecret string `yaml:"verification_secret"`

	// Worker requirements
	ClientVersion string `yaml:"client_version"`
	LeelazVersion string `yaml:"leelaz_version"`

	// Self-play tasks
	SelfPlay            models.MatchOptions `yaml:"self_play"`
	NoResignProbability float64             `yaml:"no_resign_probability"`

	// Match defaults
	Match MatchConfig `yaml:"match"`

	// Scheduling
	RequestExpiry      time.Duration `yaml:"request_expiry"`
	PessimisticRate    float64       `yaml:"pessimistic_rate"`
	QueueBuffer        int           `yaml:"queue_buffer"`
	FastClientInterval time.Duration `yaml:"fast_client_interval"`
	FastClientWindow   time.Duration `yaml:"fast_client_window"`
	FastClientSamples  int           `yaml:"fast_client_min_samples"`
	QueueCheckInterval time.Duration `yaml:"queue_check_interval"`
	EmptyQueueCooldown time.Duration `yaml:"empty_queue_cooldown"`

	// Listing
	ListingLimit int           `yaml:"listing_limit"`
	ListingTTL   time.Duration `yaml:"listing_ttl"`

	// Notifications
	DiscordWebhookURL string `yaml:"discord_webhook_url"`

	// Logging
	LogFile      string     `yaml:"log_file"`
	LogLevelName string     `yaml:"log_level"`
	LogLevel     slog.Level `yaml:"-"`
}

// MatchConfig holds defaults for requested matches.
type MatchConfig struct {
	Visits             int     `yaml:"visits"`
	ResignationPercent float64 `yaml:"resignation_percent"`
	NumberToPlay       int     `yaml:"number_to_play"`
}

// Load reads configuration from environment variables. If ZEROSRV_CONFIG
// names a YAML file, keys present in it override the environment.
func Load() (Config, error) {
	cfg := fromEnv()

	if path := os.Getenv("ZEROSRV_CONFIG"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return Config{}, err
		}
	}

	if cfg.AdminKey == "" && cfg.AdminKeyFile != "" {
		key, err := os.ReadFile(cfg.AdminKeyFile)
		if err != nil {
			return Config{}, fmt.Errorf("read admin key file: %w", err)
		}
		cfg.AdminKey = strings.TrimSpace(string(key))
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg, nil
}

func fromEnv() Config {
	return Config{
		Port: getInt("ZEROSRV_PORT", 8080),

		// SurrealDB
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "zero"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "coordinator"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		NetworkDir:      getEnv("ZEROSRV_NETWORK_DIR", "network"),
		BestNetworkPath: getEnv("ZEROSRV_BEST_NETWORK", "network/best-network.gz"),

		AdminKey:           getEnv("ZEROSRV_ADMIN_KEY", ""),
		AdminKeyFile:       getEnv("ZEROSRV_ADMIN_KEY_FILE", ""),
		VerificationSecret: getEnv("ZEROSRV_VERIFICATION_SECRET", ""),

		ClientVersion: getEnv("ZEROSRV_CLIENT_VERSION", "16"),
		LeelazVersion: getEnv("ZEROSRV_LEELAZ_VERSION", "0.16"),

		SelfPlay: models.MatchOptions{
			Visits:             getInt("ZEROSRV_SELFPLAY_VISITS", 3200),
			ResignationPercent: getFloat("ZEROSRV_SELFPLAY_RESIGN", 10),
			Noise:              getEnv("ZEROSRV_SELFPLAY_NOISE", "true") == "true",
			RandomCnt:          getInt("ZEROSRV_SELFPLAY_RANDOMCNT", 30),
		},
		NoResignProbability: getFloat("ZEROSRV_NO_RESIGN_PROBABILITY", 0.1),

		Match: MatchConfig{
			Visits:             getInt("ZEROSRV_MATCH_VISITS", 3200),
			ResignationPercent: getFloat("ZEROSRV_MATCH_RESIGN", 10),
			NumberToPlay:       getInt("ZEROSRV_MATCH_GAMES", 400),
		},

		RequestExpiry:      getDuration("ZEROSRV_REQUEST_EXPIRY", 30*time.Minute),
		PessimisticRate:    getFloat("ZEROSRV_PESSIMISTIC_RATE", 0.2),
		QueueBuffer:        getInt("ZEROSRV_QUEUE_BUFFER", 25),
		FastClientInterval: getDuration("ZEROSRV_FAST_CLIENT_INTERVAL", 10*time.Minute),
		FastClientWindow:   getDuration("ZEROSRV_FAST_CLIENT_WINDOW", time.Hour),
		FastClientSamples:  getInt("ZEROSRV_FAST_CLIENT_MIN_SAMPLES", 3),
		QueueCheckInterval: getDuration("ZEROSRV_QUEUE_CHECK_INTERVAL", time.Minute),
		EmptyQueueCooldown: getDuration("ZEROSRV_EMPTY_QUEUE_COOLDOWN", 30*time.Minute),

		ListingLimit: getInt("ZEROSRV_LISTING_LIMIT", 100),
		ListingTTL:   getDuration("ZEROSRV_LISTING_TTL", 24*time.Hour),

		DiscordWebhookURL: getEnv("ZEROSRV_DISCORD_WEBHOOK", ""),

		LogFile:      getEnv("ZEROSRV_LOG_FILE", "/tmp/zerosrv.log"),
		LogLevelName: getEnv("ZEROSRV_LOG_LEVEL", "INFO"),
	}
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
