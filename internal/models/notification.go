package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
)

// Notification is an outbox row. It is written after a financial transition
// commits and delivered out-of-band by the dispatcher; delivery state lives
// here, never in the financial tables.
type Notification struct {
	ID          uint                    `gorm:"primaryKey" json:"id"`
	UserID      uint                    `gorm:"not null;index" json:"user_id"`
	Kind        domain.NotificationKind `gorm:"size:50;not null;index" json:"kind"`
	Title       string                  `gorm:"size:255" json:"title"`
	Body        string                  `gorm:"type:text" json:"body"`
	Payload     string                  `gorm:"type:text" json:"payload"`
	Delivery    string                  `gorm:"size:20;not null;default:'PENDING';index" json:"delivery"`
	Attempts    int                     `gorm:"not null;default:0" json:"attempts"`
	LastError   string                  `gorm:"size:255" json:"-"`
	ReadAt      *time.Time              `json:"read_at"`
	DeliveredAt *time.Time              `json:"delivered_at"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	DeletedAt   gorm.DeletedAt          `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationPayload is the closed set of notice payloads. Each kind carries
// only the fields it needs; there is no free-form metadata map.
type NotificationPayload interface {
	Kind() domain.NotificationKind
}

type WithdrawalRequestedPayload struct {
	WithdrawalID uint            `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
}

func (WithdrawalRequestedPayload) Kind() domain.NotificationKind {
	return domain.NotifyWithdrawalRequested
}

type WithdrawalApprovedPayload struct {
	WithdrawalID uint            `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
}

func (WithdrawalApprovedPayload) Kind() domain.NotificationKind {
	return domain.NotifyWithdrawalApproved
}

type WithdrawalRejectedPayload struct {
	WithdrawalID uint            `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
}

func (WithdrawalRejectedPayload) Kind() domain.NotificationKind {
	return domain.NotifyWithdrawalRejected
}

type WithdrawalCompletedPayload struct {
	WithdrawalID uint            `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
	Reference    string          `json:"reference"`
}

func (WithdrawalCompletedPayload) Kind() domain.NotificationKind {
	return domain.NotifyWithdrawalCompleted
}

type AccountWarningPayload struct {
	Message string `json:"message"`
}

func (AccountWarningPayload) Kind() domain.NotificationKind {
	return domain.NotifyAccountWarning
}

// EncodePayload serializes a typed payload for storage.
func EncodePayload(p NotificationPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
