package ledger

import (
	"context"
	"errors"

	"tower_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// errAlreadyAttributed marks a repeat attribution inside the
// transaction closure; it never leaves AttributeReferral.
var errAlreadyAttributed = errors.New("already attributed")

// AttributeReferral credits a referral to the owner of referrerCode.
// The policy is deliberately permissive: an unknown or stale code, a
// self-referral and a repeat attribution are all silent no-ops that
// return nil, so a referred user's client never sees an error for a
// bad link. On the happy path one transaction inserts the Referral
// row, bumps the referrer's counters and pays both bonuses. The
// created Referral is returned, nil when the call was a no-op.
func (s *Service) AttributeReferral(ctx context.Context, referrerCode string, referredID int64) (*domain.Referral, error) {
	if referrerCode == "" || referredID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var referrer domain.User
	err := s.db.WithContext(ctx).First(&referrer, "referral_code = ?", referrerCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithField("referrer_code", referrerCode).Info("Referral ignored: unknown code")
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if referrer.UserID == referredID {
		logrus.WithField("user_id", referredID).Info("Referral ignored: self-referral")
		return nil, nil
	}
	// The referred user may not exist yet; the bonus needs a row to land on
	if _, err := s.GetOrCreateUser(ctx, referredID, ""); err != nil {
		return nil, err
	}
	ref := domain.Referral{
		ReferrerID: referrer.UserID,
		ReferredID: referredID,
		Bonus:      s.referrerBonus,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Referral{}).Where("referred_id = ?", referredID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errAlreadyAttributed
		}
		if err := tx.Create(&ref).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.User{}).Where("user_id = ?", referrer.UserID).
			Updates(map[string]interface{}{
				"referrals":             gorm.Expr("referrals + 1"),
				"balance":               gorm.Expr("balance + ?", s.referrerBonus),
				"total_referral_income": gorm.Expr("total_referral_income + ?", s.referrerBonus),
			}).Error; err != nil {
			return err
		}
		if s.referredBonus > 0 {
			if err := tx.Model(&domain.User{}).Where("user_id = ?", referredID).
				Update("balance", gorm.Expr("balance + ?", s.referredBonus)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyAttributed) || errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost races land here via the unique index on referred_id
		logrus.WithField("referred_id", referredID).Info("Referral ignored: already attributed")
		return nil, nil
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"referrer_id": referrer.UserID,
			"referred_id": referredID,
			"error":       err.Error(),
		}).Error("Referral attribution failed")
		return nil, storeErr(err)
	}
	logrus.WithFields(logrus.Fields{
		"referrer_id": referrer.UserID,
		"referred_id": referredID,
		"bonus":       s.referrerBonus,
	}).Info("Referral attributed")
	return &ref, nil
}
