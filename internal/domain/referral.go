package domain

import "time"

// Referral Model. Append-only attribution record; the unique index on
// ReferredID enforces "a user can be referred at most once" at the
// store level, so a lost race surfaces as a duplicate-key error rather
// than a second row.
type Referral struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReferrerID int64     `gorm:"not null;index" json:"referrer_id"`
	ReferredID int64     `gorm:"not null;uniqueIndex" json:"referred_id"`
	Bonus      int64     `gorm:"not null;default:0" json:"bonus"` // Amount credited to the referrer for this attribution
	CreatedAt  time.Time `json:"created_at"`
}
