package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/repository"
)

// Storage contracts consumed by the services. The gorm repositories implement
// them in production; tests substitute in-memory fakes.

// LedgerStore is the append-only transaction log and the only path by which a
// wallet balance may change.
type LedgerStore interface {
	Append(ctx context.Context, userID uint, amount decimal.Decimal, kind domain.TransactionKind, description, reference string) (*models.WalletTransaction, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	History(ctx context.Context, userID uint, page, limit int) ([]models.WalletTransaction, int64, error)
	SumEntries(ctx context.Context, userID uint) (decimal.Decimal, error)
}

// WithdrawalStore persists withdrawal requests. CreateLocked and Complete are
// transactional units of work; TransitionStatus is a guarded compare-and-set.
type WithdrawalStore interface {
	CreateLocked(ctx context.Context, req *models.WithdrawalRequest) error
	TransitionStatus(ctx context.Context, id uint, from, to domain.WithdrawalStatus, updates map[string]interface{}) error
	Complete(ctx context.Context, id uint, reference string) (*models.WithdrawalRequest, error)
	GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error)
	ListByStatus(ctx context.Context, status domain.WithdrawalStatus, page, limit int) ([]models.WithdrawalRequest, int64, error)
	StatusSummary(ctx context.Context) ([]repository.StatusAggregate, error)
	SumLocked(ctx context.Context, userID uint) (decimal.Decimal, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
	NextPending(ctx context.Context, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id uint) error
	RecordFailure(ctx context.Context, id uint, deliveryErr error, maxAttempts int) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authorizer is the single admin-capability check injected into the admin
// action processor.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}
