package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
)

// WalletTransaction is one immutable ledger entry. The amount is always
// positive; the kind carries the sign (CREDIT/REFUND add, DEBIT/WITHDRAWAL
// subtract). Rows are append-only: no updates, no soft delete. Corrections
// are made by appending an offsetting entry.
type WalletTransaction struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	WalletID    uint                   `gorm:"not null;index" json:"wallet_id"`
	Amount      decimal.Decimal        `gorm:"type:decimal(14,2);not null" json:"amount"`
	Kind        domain.TransactionKind `gorm:"size:20;not null;index" json:"kind"`
	Description string                 `gorm:"size:255" json:"description"`
	Reference   string                 `gorm:"size:128" json:"reference"` // e.g. booking id, withdrawal order id
	CreatedAt   time.Time              `json:"created_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount is the amount with the kind's sign applied.
func (t WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Kind.Sign() < 0 {
		return t.Amount.Neg()
	}
	return t.Amount
}
