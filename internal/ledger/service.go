package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tower_backend/internal/config" // App configuration
	"tower_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// codeAttempts bounds referral-code generation: a collision on the
// unique index is treated as a fallible outcome, not an impossibility.
const codeAttempts = 5

// Service implements the user ledger: balance, floor progression and
// referral attribution. Every compound mutation runs inside a single
// store transaction so concurrent requests cannot interleave a
// read-modify-write.
type Service struct {
	db            *gorm.DB
	floorPrice    int64
	referrerBonus int64
	referredBonus int64
	linkTmpl      string
}

// NewService wires the ledger over the given store with the configured
// game constants.
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:            db,
		floorPrice:    cfg.FloorPrice,
		referrerBonus: cfg.ReferrerBonus,
		referredBonus: cfg.ReferredBonus,
		linkTmpl:      cfg.ReferralLinkTmpl,
	}
}

// FloorPrice returns the configured price of one floor.
func (s *Service) FloorPrice() int64 { return s.floorPrice }

// ReferralLink builds the shareable link embedding the user's referral code.
func (s *Service) ReferralLink(u *domain.User) string {
	return fmt.Sprintf(s.linkTmpl, u.ReferralCode)
}

// generateReferralCode returns an 8-hex-char opaque token.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// storeErr tags unexpected store failures so the API boundary can map
// them to a single "store unavailable" outcome.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// GetOrCreateUser resolves a user by external id, lazily creating the
// row with balance 0, one floor and a fresh unique referral code.
// Creation is retried on duplicate-key: either a concurrent caller won
// the insert (their row is reused) or the generated code collided (a
// new code is tried).
func (s *Service) GetOrCreateUser(ctx context.Context, userID int64, username string) (*domain.User, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, storeErr(err)
		}
		user = domain.User{
			UserID:       userID,
			Username:     username,
			Balance:      0,
			Floors:       1,
			ReferralCode: code,
		}
		err = s.db.WithContext(ctx).Create(&user).Error
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"user_id":       userID,
				"referral_code": code,
			}).Info("User created")
			return &user, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing domain.User
			if e := s.db.WithContext(ctx).First(&existing, "user_id = ?", userID).Error; e == nil {
				// Concurrent creation, reuse the winner's row
				return &existing, nil
			}
			// Referral code collision, try a new one
			continue
		}
		return nil, storeErr(err)
	}
	return nil, storeErr(fmt.Errorf("referral code collision after %d attempts", codeAttempts))
}

// GetStats returns the user's current ledger state. It is a pure read
// apart from the lazy-creation side effect shared by every operation.
func (s *Service) GetStats(ctx context.Context, userID int64, username string) (*domain.User, error) {
	return s.GetOrCreateUser(ctx, userID, username)
}

// RecordPayment credits the balance by amount and appends a completed
// Payment row, both in one transaction. Returns the post-credit balance.
func (s *Service) RecordPayment(ctx context.Context, userID, amount int64, method string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidInput
	}
	if method == "" {
		method = "unknown"
	}
	if _, err := s.GetOrCreateUser(ctx, userID, ""); err != nil {
		return 0, err
	}
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).Where("user_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		p := domain.Payment{UserID: userID, Amount: amount, Method: method, Status: domain.PaymentCompleted}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		var u domain.User
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			return err
		}
		newBalance = u.Balance
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount,
			"error":   err.Error(),
		}).Error("Payment failed")
		return 0, storeErr(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    amount,
		"method":    method,
		"balance":   newBalance,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("Payment recorded")
	return newBalance, nil
}

// floorCheck returns the sentinel for the first failing purchase
// precondition, in the fixed order funds then floor number, or nil
// when the purchase may proceed.
func (s *Service) floorCheck(u *domain.User, floorNumber int) error {
	if u.Balance < s.floorPrice {
		return domain.ErrInsufficientFunds
	}
	if floorNumber != u.Floors+1 {
		return domain.ErrInvalidFloorNumber
	}
	return nil
}

// PurchaseFloor buys the next sequential floor for the fixed price.
// Checks run in a fixed order: user exists, funds cover the price, the
// requested floor is exactly floors+1. The debit and the floor
// increment are one guarded UPDATE, so a concurrent purchase cannot
// double-spend the same balance.
func (s *Service) PurchaseFloor(ctx context.Context, userID int64, floorNumber int) (int64, int, error) {
	if userID <= 0 || floorNumber <= 0 {
		return 0, 0, domain.ErrInvalidInput
	}
	var newBalance int64
	var newFloors int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		if err := s.floorCheck(&u, floorNumber); err != nil {
			return err
		}
		res := tx.Model(&domain.User{}).
			Where("user_id = ? AND balance >= ? AND floors = ?", userID, s.floorPrice, u.Floors).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance - ?", s.floorPrice),
				"floors":  gorm.Expr("floors + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent request changed the row between the read and
			// the guarded update; re-read to report the precise cause
			if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrUserNotFound
				}
				return err
			}
			if err := s.floorCheck(&u, floorNumber); err != nil {
				return err
			}
			return domain.ErrInvalidFloorNumber
		}
		newBalance = u.Balance - s.floorPrice
		newFloors = u.Floors + 1
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound),
			errors.Is(err, domain.ErrInsufficientFunds),
			errors.Is(err, domain.ErrInvalidFloorNumber):
			return 0, 0, err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"floor":   floorNumber,
			"error":   err.Error(),
		}).Error("Floor purchase failed")
		return 0, 0, storeErr(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"floor":   newFloors,
		"balance": newBalance,
	}).Info("Floor purchased")
	return newBalance, newFloors, nil
}
