package api

import (
	"net/http"
	"time"

	"tower_backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// HomeHandler answers the bare root with a liveness banner.
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "🚀 Сервер работает! API доступен по /api/")
}

// TestHandler is the client-side connectivity probe.
func TestHandler(c *gin.Context) {
	respondSuccess(c, gin.H{
		"message":   "API работает отлично!",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// DebugHandler reports row counts for the three tables and the table
// list the migrator sees. Unauthenticated on purpose: the deployment
// has no auth model and the data is not sensitive.
func DebugHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users, payments, referrals int64
		if err := db.Model(&domain.User{}).Count(&users).Error; err != nil {
			respondError(c, errorMessage(domain.ErrStoreUnavailable))
			return
		}
		if err := db.Model(&domain.Payment{}).Count(&payments).Error; err != nil {
			respondError(c, errorMessage(domain.ErrStoreUnavailable))
			return
		}
		if err := db.Model(&domain.Referral{}).Count(&referrals).Error; err != nil {
			respondError(c, errorMessage(domain.ErrStoreUnavailable))
			return
		}
		tables, err := db.Migrator().GetTables()
		if err != nil {
			tables = []string{}
		}
		respondSuccess(c, gin.H{
			"users":     users,
			"payments":  payments,
			"referrals": referrals,
			"tables":    tables,
		})
	}
}

// HealthHandler reports process liveness plus store reachability.
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		database := "ok"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			database = "unavailable"
		}
		redisState := "disabled"
		if rdb != nil {
			redisState = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisState = "unavailable"
			}
		}
		payload := gin.H{
			"database":  database,
			"redis":     redisState,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if database != "ok" {
			payload["status"] = "error"
			c.JSON(http.StatusOK, payload)
			return
		}
		respondSuccess(c, payload)
	}
}
