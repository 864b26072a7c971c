package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Config holds environment-based settings
type Config struct {
	ServerAddress  string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress   string
	RedisUsername  string
	RedisPassword  string
	DeviceCacheTTL time.Duration

	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	CommitMode          string
	MaxContentLength    int
	DefaultWidth        int
	DefaultHeight       int
	ExpirySweepInterval time.Duration

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
	UploadDir       string

	LogLevel  string
	LogFormat string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:    getenv("MQTT_CLIENT_ID", "marquee"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix: getenv("MQTT_TOPIC_PREFIX", "led"),

		CommitMode: getenv("COMMIT_MODE", "confirmed"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.MaxContentLength, err = getInt("MAX_CONTENT_LENGTH", 1000); err != nil {
		return nil, err
	}
	if cfg.DefaultWidth, err = getInt("DEFAULT_WIDTH", 1920); err != nil {
		return nil, err
	}
	if cfg.DefaultHeight, err = getInt("DEFAULT_HEIGHT", 1080); err != nil {
		return nil, err
	}
	if cfg.DefaultWidth > model.MaxDimension || cfg.DefaultHeight > model.MaxDimension {
		return nil, fmt.Errorf("DEFAULT_WIDTH and DEFAULT_HEIGHT must not exceed %d", model.MaxDimension)
	}
	if cfg.ExpirySweepInterval, err = getDuration("EXPIRY_SWEEP_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DeviceCacheTTL, err = getDuration("DEVICE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	switch cfg.CommitMode {
	case "confirmed", "optimistic":
	default:
		return nil, fmt.Errorf("COMMIT_MODE must be confirmed or optimistic, got %q", cfg.CommitMode)
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}
	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, errors.New("USE_SPACES requires SPACES_ENDPOINT and SPACES_BUCKET")
	}
	return cfg, nil
}
