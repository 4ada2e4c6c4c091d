package domain

import "time"

// PaymentCompleted is the only payment status the service records:
// payments are direct ledger credits, there is no pending/failed lifecycle.
const PaymentCompleted = "completed"

// Payment Model. Append-only: rows are never updated or deleted.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Method    string    `gorm:"size:64" json:"method"` // Free-text tag supplied by the caller
	Status    string    `gorm:"size:32;default:'completed'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
