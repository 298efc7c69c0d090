package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Instagram struct {
	AccessToken       string
	BusinessAccountID string
	GraphURL          string
	RefreshURL        string
	RatePerSecond     float64
}

type Config struct {
	Port                 string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	JWTSecret            string
	CronSecret           string
	SweepSchedule        string
	TokenRefreshSchedule string
	Instagram            Instagram
	R2                   R2
}

func LoadConfig() *Config {
	return &Config{
		Port:                 getEnv("PORT", "3000"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		JWTSecret:            getEnv("SUPABASE_JWT_SECRET", ""),
		CronSecret:           getEnv("CRON_SECRET", ""),
		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "@every 00h05m00s"),
		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 12h00m00s"),
		Instagram: Instagram{
			AccessToken:       getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			BusinessAccountID: getEnv("INSTAGRAM_BUSINESS_ACCOUNT_ID", ""),
			GraphURL:          getEnv("INSTAGRAM_GRAPH_URL", "https://graph.facebook.com/v21.0"),
			RefreshURL:        getEnv("INSTAGRAM_REFRESH_URL", "https://graph.instagram.com/refresh_access_token"),
			RatePerSecond:     getEnvFloat("INSTAGRAM_RATE_PER_SECOND", 5),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
