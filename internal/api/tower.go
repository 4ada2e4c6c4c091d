package api

import (
	"encoding/json"
	"fmt"

	"tower_backend/internal/cache"  // Stats cache helpers
	"tower_backend/internal/ledger" // Ledger service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// userStats is the /api/stats payload, the user row plus the derived
// referral link.
type userStats struct {
	Balance             int64  `json:"balance"`
	Referrals           int    `json:"referrals"`
	Floors              int    `json:"floors"`
	TotalReferralIncome int64  `json:"total_referral_income"`
	ReferralCode        string `json:"referral_code"`
	ReferralLink        string `json:"referral_link"`
}

type statsRequest struct {
	UserID   flexInt `json:"user_id"`
	Username string  `json:"username"`
}

// StatsHandler returns the user's ledger state, lazily creating the
// user on first contact. Responses are cached per user for a minute
// and invalidated by every mutating endpoint.
func StatsHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statsRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
			respondError(c, "Не указан user_id")
			return
		}
		ctx := c.Request.Context()
		cacheKey := cache.StatsKey(int64(req.UserID))
		var stats userStats
		if found, err := cache.Get(ctx, rdb, cacheKey, &stats); err == nil && found {
			respondSuccess(c, gin.H{"data": stats})
			return
		}
		user, err := svc.GetStats(ctx, int64(req.UserID), req.Username)
		if err != nil {
			respondError(c, errorMessage(err))
			return
		}
		stats = userStats{
			Balance:             user.Balance,
			Referrals:           user.Referrals,
			Floors:              user.Floors,
			TotalReferralIncome: user.TotalReferralIncome,
			ReferralCode:        user.ReferralCode,
			ReferralLink:        svc.ReferralLink(user),
		}
		_ = cache.Set(ctx, rdb, cacheKey, stats, cache.StatsTTL)
		respondSuccess(c, gin.H{"data": stats})
	}
}

type paymentRequest struct {
	UserID flexInt         `json:"user_id"`
	Amount json.RawMessage `json:"amount"`
	Method string          `json:"method"`
}

// PaymentHandler credits the balance by the caller-supplied amount.
// Amounts are trusted: this is a direct ledger credit, not a gateway
// callback.
func PaymentHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 || len(req.Amount) == 0 || string(req.Amount) == "null" {
			respondError(c, "Не указан user_id или amount")
			return
		}
		var amount flexInt
		if err := amount.UnmarshalJSON(req.Amount); err != nil {
			respondError(c, "Неверный формат суммы")
			return
		}
		if amount <= 0 {
			respondError(c, "Сумма должна быть положительной")
			return
		}
		ctx := c.Request.Context()
		newBalance, err := svc.RecordPayment(ctx, int64(req.UserID), int64(amount), req.Method)
		if err != nil {
			respondError(c, errorMessage(err))
			return
		}
		if err := cache.Invalidate(ctx, rdb, int64(req.UserID)); err != nil {
			logrus.WithField("user_id", req.UserID).Warn("Stats cache invalidation failed")
		}
		respondSuccess(c, gin.H{
			"new_balance": newBalance,
			"message":     fmt.Sprintf("Баланс пополнен на %d руб.!", int64(amount)),
		})
	}
}

type buyFloorRequest struct {
	UserID      flexInt `json:"user_id"`
	FloorNumber flexInt `json:"floor_number"`
}

// BuyFloorHandler purchases the next sequential floor for the fixed
// price. Unlike the other endpoints it does not lazily create the
// user: buying a floor for an unknown id is an error.
func BuyFloorHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req buyFloorRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 || req.FloorNumber <= 0 {
			respondError(c, "Не указан user_id или floor_number")
			return
		}
		ctx := c.Request.Context()
		newBalance, newFloors, err := svc.PurchaseFloor(ctx, int64(req.UserID), int(req.FloorNumber))
		if err != nil {
			respondError(c, errorMessage(err))
			return
		}
		if err := cache.Invalidate(ctx, rdb, int64(req.UserID)); err != nil {
			logrus.WithField("user_id", req.UserID).Warn("Stats cache invalidation failed")
		}
		respondSuccess(c, gin.H{
			"new_balance": newBalance,
			"new_floors":  newFloors,
			"message":     fmt.Sprintf("Этаж %d построен!", newFloors),
		})
	}
}
