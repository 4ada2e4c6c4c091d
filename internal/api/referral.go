package api

import (
	"tower_backend/internal/cache"  // Stats cache helpers
	"tower_backend/internal/ledger" // Ledger service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

type referralRequest struct {
	ReferrerCode string  `json:"referrer_code"`
	ReferredID   flexInt `json:"referred_id"`
}

// ReferralHandler attributes a referral to the owner of the supplied
// code. Attribution failures (unknown code, repeat, self-referral,
// even store errors) are never surfaced to the caller: the referred
// user's client always sees success. Only missing fields are rejected.
func ReferralHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req referralRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ReferrerCode == "" || req.ReferredID <= 0 {
			respondError(c, "Не указаны данные реферала")
			return
		}
		ctx := c.Request.Context()
		ref, err := svc.AttributeReferral(ctx, req.ReferrerCode, int64(req.ReferredID))
		if err != nil {
			// Swallowed by design, the service already logged it
			logrus.WithFields(logrus.Fields{
				"referrer_code": req.ReferrerCode,
				"referred_id":   req.ReferredID,
			}).Warn("Referral attribution error suppressed")
		}
		if ref != nil {
			_ = cache.Invalidate(ctx, rdb, ref.ReferrerID)
			_ = cache.Invalidate(ctx, rdb, ref.ReferredID)
		}
		respondSuccess(c, gin.H{"message": "Реферал зарегистрирован"})
	}
}
