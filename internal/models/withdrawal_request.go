package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
)

// WithdrawalRequest tracks one payout from request through admin approval to
// bank transfer. Status changes go through the compare-and-set transition in
// the repository; once a terminal status is reached the row is immutable.
type WithdrawalRequest struct {
	ID              uint                    `gorm:"primaryKey" json:"id"`
	UserID          uint                    `gorm:"not null;index" json:"user_id"`
	OrderID         string                  `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	Amount          decimal.Decimal         `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status          domain.WithdrawalStatus `gorm:"size:20;not null;index" json:"status"`
	BankName        string                  `gorm:"size:128;not null" json:"bank_name"`
	AccountNumber   string                  `gorm:"size:34;not null" json:"account_number"`
	AccountHolder   string                  `gorm:"size:128;not null" json:"account_holder"`
	BranchCode      string                  `gorm:"size:16" json:"branch_code,omitempty"`
	Reference       string                  `gorm:"size:128" json:"reference,omitempty"`
	RejectionReason string                  `gorm:"size:255" json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time              `json:"processed_at"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
