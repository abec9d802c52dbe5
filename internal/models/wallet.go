package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the cached current balance for one provider. The balance is
// denormalized from the transaction ledger and may only be changed by the
// ledger append path, never written directly. Wallets are never deleted.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"size:3;not null;default:'ZAR'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
