package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	S3        S3Config
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Replicate ReplicateConfig
	Batch     BatchConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Env            string
	AllowedOrigins []string
	LongPollWait   time.Duration
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	PresignExpiry   time.Duration
	GetURLExpiry    time.Duration
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	CacheDuration time.Duration
}

type RabbitMQConfig struct {
	URL               string
	CaptionQueue      string
	NotificationQueue string
	WorkerCount       int
}

type ReplicateConfig struct {
	APIURL       string
	Token        string
	ModelVersion string
	PollInterval time.Duration
	MaxWait      time.Duration
}

type BatchConfig struct {
	MaxBatchSize      int
	MaxFileSize       int64
	AllowedTypes      []string
	SessionTTL        time.Duration
	NotificationLimit int
}

// salesforce/blip image captioning
const defaultModelVersion = "2e1dddc8621f72155f24cf2e0adbde548458d3cab9f00c0139eea840d0ac4746"

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
			Env:            getEnv("APP_ENV", "prod"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			LongPollWait:   getDuration("LONG_POLL_WAIT", 20*time.Second),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET_NAME", ""),
			UseSSL:          getEnvAsBool("S3_USE_SSL", true),
			PresignExpiry:   getDuration("S3_PRESIGN_EXPIRY", 60*time.Second),
			GetURLExpiry:    getDuration("S3_GET_URL_EXPIRY", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			CacheDuration: getDuration("CACHE_DURATION", 24*time.Hour),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			CaptionQueue:      getEnv("CAPTION_QUEUE", "caption_jobs"),
			NotificationQueue: getEnv("NOTIFICATION_QUEUE", "batch_notifications"),
			WorkerCount:       getEnvAsInt("WORKER_COUNT", 2),
		},
		Replicate: ReplicateConfig{
			APIURL:       getEnv("REPLICATE_API_URL", "https://api.replicate.com/v1"),
			Token:        getEnv("REPLICATE_API_TOKEN", ""),
			ModelVersion: getEnv("REPLICATE_MODEL_VERSION", defaultModelVersion),
			PollInterval: getDuration("POLL_INTERVAL", time.Second),
			MaxWait:      getDuration("POLL_MAX_WAIT", 2*time.Minute),
		},
		Batch: BatchConfig{
			MaxBatchSize:      getEnvAsInt("MAX_BATCH_SIZE", 5),
			MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 4*1024*1024), // 4MB
			AllowedTypes:      getEnvAsList("ALLOWED_FILE_TYPES", []string{"image/jpeg", "image/jpg", "image/png"}),
			SessionTTL:        getDuration("SESSION_TTL", time.Hour),
			NotificationLimit: getEnvAsInt("NOTIFICATION_LIMIT", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values the tracker and poller cannot run without.
func (c *Config) Validate() error {
	if c.Batch.MaxBatchSize <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", c.Batch.MaxBatchSize)
	}
	if c.Batch.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Batch.MaxFileSize)
	}
	if len(c.Batch.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_FILE_TYPES must not be empty")
	}
	if c.Replicate.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Replicate.PollInterval)
	}
	if c.Replicate.MaxWait < c.Replicate.PollInterval {
		return fmt.Errorf("POLL_MAX_WAIT (%s) must be at least POLL_INTERVAL (%s)", c.Replicate.MaxWait, c.Replicate.PollInterval)
	}
	if c.Server.LongPollWait >= c.Server.WriteTimeout {
		return fmt.Errorf("LONG_POLL_WAIT (%s) must be below WRITE_TIMEOUT (%s)", c.Server.LongPollWait, c.Server.WriteTimeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, strings.ToLower(item))
		}
	}
	return list
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
