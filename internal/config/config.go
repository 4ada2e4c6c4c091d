package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort           string // Application port
	DBUser            string // Database user
	DBPassword        string // Database password
	DBHost            string // Database host
	DBPort            string // Database port
	DBName            string // Database name
	DBConnectAttempts int    // Startup connection attempts before giving up
	RedisAddr         string // Redis server address; empty disables the stats cache
	RedisPass         string // Redis password
	RedisDB           int    // Redis database number
	IsProd            bool   // Is production environment

	FloorPrice       int64  // Price of one floor in currency units
	ReferrerBonus    int64  // Bonus credited to the referrer per attribution
	ReferredBonus    int64  // Bonus credited to the referred user per attribution
	ReferralLinkTmpl string // fmt template embedding the referral code
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:           getEnv("APP_PORT", "5000"),
		DBUser:            getEnv("DB_USER", "root"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBName:            getEnv("DB_NAME", "tower"),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPass:         getEnv("REDIS_PASS", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		IsProd:            getEnv("IS_PROD", "") == "true",
		FloorPrice:        getEnvInt64("FLOOR_PRICE", 500),
		ReferrerBonus:     getEnvInt64("REFERRER_BONUS", 100),
		ReferredBonus:     getEnvInt64("REFERRED_BONUS", 50),
		ReferralLinkTmpl:  getEnv("REFERRAL_LINK_TEMPLATE", "https://t.me/BuildYourTowerBot?start=ref%s"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}
