package domain

import "time"

// User Model. UserID is the caller-supplied external identifier
// (e.g. a Telegram account id), not an auto-increment key.
type User struct {
	UserID              int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username            string    `gorm:"size:255" json:"username"`
	Balance             int64     `gorm:"not null;default:0" json:"balance"`               // Currency units, application keeps it >= 0
	Floors              int       `gorm:"not null;default:1" json:"floors"`                // Constructed levels, starts at 1, never decreases
	ReferralCode        string    `gorm:"size:32;uniqueIndex;not null" json:"referral_code"`
	Referrals           int       `gorm:"not null;default:0" json:"referrals"`             // Successful attributions as referrer
	TotalReferralIncome int64     `gorm:"not null;default:0" json:"total_referral_income"` // Cumulative referral bonus earned
	CreatedAt           time.Time `json:"-"`
	UpdatedAt           time.Time `json:"-"`
}
