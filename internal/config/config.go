package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from the environment.
type Config struct {
	Port          string
	MongoURI      string
	DBName        string
	CORSOrigin    string
	JWTSecret     string
	RefreshSecret string
	TokenExpiry   time.Duration
	RefreshExpiry time.Duration

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

// LoadConfig reads the .env file (if present) and environment variables.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "foodbridge"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),
		TokenExpiry:   getEnvDuration("TOKEN_EXPIRY_MINUTES", 15) * time.Minute,
		RefreshExpiry: getEnvDuration("REFRESH_EXPIRY_HOURS", 240) * time.Hour,
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Bucket:      getEnv("S3_BUCKET", "foodbridge-images"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.RefreshSecret == "" {
		log.Fatal("REFRESH_SECRET must be set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
