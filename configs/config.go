package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	PostgresURI string
	RedisURI    string
	FrontendURL string

	// Bridge endpoints for the external collaborators.
	PublisherURL        string
	CaptionGeneratorURL string

	R2 R2

	SecretKey  string
	CookieName string

	// Upper bound on a single publisher call.
	PublishTimeout time.Duration
	// A post observed in sending longer than this is treated as a
	// crashed dispatch and failed by the reconciliation job.
	StuckSendingAfter time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		PublisherURL:        getEnv("PUBLISHER_URL", ""),
		CaptionGeneratorURL: getEnv("CAPTION_GENERATOR_URL", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "socialdesk_session"),
		PublishTimeout:    getEnvDuration("PUBLISH_TIMEOUT_SECONDS", 30*time.Second),
		StuckSendingAfter: getEnvDuration("STUCK_SENDING_SECONDS", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
