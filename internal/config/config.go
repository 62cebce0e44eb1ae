package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	DynamoDB DynamoDBConfig
	Redis    RedisConfig
	Media    MediaConfig
	SMTP     SMTPConfig
	JWT      JWTConfig
	OTP      OTPConfig

	// AdminEmail is the bootstrap admin address. A user created with
	// this email receives the admin role; everyone else defaults to
	// the regular user role.
	AdminEmail string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type MediaConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

type JWTConfig struct {
	SecretKey     string
	SessionExpiry time.Duration
}

type OTPConfig struct {
	Length int
	Expiry time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "ShopmateTable"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Media: MediaConfig{
			Bucket:    getEnv("MEDIA_BUCKET", ""),
			Region:    getEnv("MEDIA_REGION", "us-east-1"),
			Endpoint:  getEnv("MEDIA_ENDPOINT", ""),
			PublicURL: getEnv("MEDIA_PUBLIC_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USER", ""),
			Password:    getEnv("SMTP_PASS", ""),
			From:        getEnv("SMTP_FROM", ""),
			SendTimeout: getEnvAsDuration("SMTP_SEND_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SecretKey:     getEnv("JWT_SECRET_KEY", ""),
			SessionExpiry: getEnvAsDuration("JWT_SESSION_EXPIRY", 15*24*time.Hour),
		},
		OTP: OTPConfig{
			Length: getEnvAsInt("OTP_LENGTH", 6),
			Expiry: getEnvAsDuration("OTP_EXPIRY", 5*time.Minute),
		},
		AdminEmail: getEnv("ADMIN_EMAIL", ""),
	}

	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(cfg.JWT.SecretKey) < 32 {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST environment variable is required")
	}

	if cfg.Media.Bucket == "" {
		return nil, fmt.Errorf("MEDIA_BUCKET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
