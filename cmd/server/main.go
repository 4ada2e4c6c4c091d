package main

import (
	"context"                       // context package is needed for Redis operations
	"log"                           // log package is needed for logging
	"tower_backend/internal/api"    // Custom package for API handlers
	"tower_backend/internal/config" // Custom package for configuration
	"tower_backend/internal/db"     // Custom package for the store
	"tower_backend/internal/ledger" // Ledger service

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database, bounded retry before refusing to serve
	gdb, err := db.Connect(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client; an empty REDIS_ADDR runs without the stats cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Info("REDIS_ADDR not set, stats cache disabled")
	}

	svc := ledger.NewService(gdb, cfg) // Ledger service over the store

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	r.GET("/", api.HomeHandler) // Liveness banner

	// Game API routes
	apiGroup := r.Group("/api")
	apiGroup.GET("/test", api.TestHandler)
	apiGroup.POST("/test", api.TestHandler)
	apiGroup.POST("/stats", api.StatsHandler(svc, redisClient))        // User ledger state
	apiGroup.POST("/payment", api.PaymentHandler(svc, redisClient))    // Balance credit
	apiGroup.POST("/buy_floor", api.BuyFloorHandler(svc, redisClient)) // Sequential floor purchase
	apiGroup.POST("/referral", api.ReferralHandler(svc, redisClient))  // Referral attribution
	apiGroup.GET("/debug", api.DebugHandler(gdb))                      // Table counters
	apiGroup.GET("/health", api.HealthHandler(gdb, redisClient))       // Liveness + store reachability

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
