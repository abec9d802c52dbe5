package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// StatusAggregate is one row of the admin per-status summary.
type StatusAggregate struct {
	Status domain.WithdrawalStatus `json:"status"`
	Count  int64                   `json:"count"`
	Total  decimal.Decimal         `json:"total"`
}

func lockedStatuses() []domain.WithdrawalStatus {
	return []domain.WithdrawalStatus{domain.WithdrawalPending, domain.WithdrawalApproved}
}

func sumLocked(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status IN ?", userID, lockedStatuses()).
		Scan(&sum).Error
	return sum, err
}

// CreateLocked validates available balance and inserts the PENDING request in
// one transaction. The wallet row lock serializes concurrent requests for the
// same user, so two requests can never both pass validation against the same
// available balance.
func (r *WithdrawalRepository) CreateLocked(ctx context.Context, req *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, req.UserID)
		if err != nil {
			return err
		}
		locked, err := sumLocked(tx, req.UserID)
		if err != nil {
			return err
		}
		available := wallet.Balance.Sub(locked)
		if req.Amount.GreaterThan(available) {
			return domain.ErrInsufficientAvailableBalance
		}
		req.Status = domain.WithdrawalPending
		return tx.Create(req).Error
	})
}

// TransitionStatus is the guarded compare-and-set: the UPDATE only matches
// when the stored status equals from, so exactly one of two racing admins
// wins and the loser gets ErrInvalidStateTransition.
func (r *WithdrawalRepository) TransitionStatus(ctx context.Context, id uint, from, to domain.WithdrawalStatus, updates map[string]interface{}) error {
	vals := map[string]interface{}{"status": to}
	for k, v := range updates {
		vals[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(vals)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// Complete finalizes an APPROVED request: re-checks the wallet can still fund
// it, appends the WITHDRAWAL ledger entry, debits the balance and flips the
// status, all in one transaction. If the balance re-check fails the
// transaction aborts and the request stays APPROVED for manual follow-up.
func (r *WithdrawalRepository) Complete(ctx context.Context, id uint, reference string) (*models.WithdrawalRequest, error) {
	var out models.WithdrawalRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.WithdrawalRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if req.Status != domain.WithdrawalApproved {
			return domain.ErrInvalidStateTransition
		}
		wallet, err := lockWallet(tx, req.UserID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(req.Amount) {
			return domain.ErrInsufficientBalance
		}
		now := time.Now()
		res := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", id, domain.WithdrawalApproved).
			Updates(map[string]interface{}{
				"status":       domain.WithdrawalCompleted,
				"reference":    reference,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidStateTransition
		}
		entry := models.WalletTransaction{
			WalletID:    wallet.ID,
			Amount:      req.Amount,
			Kind:        domain.TxKindWithdrawal,
			Description: fmt.Sprintf("Withdrawal %s to %s", req.OrderID, req.BankName),
			Reference:   reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
			Update("balance", wallet.Balance.Sub(req.Amount)).Error; err != nil {
			return err
		}
		out = req
		out.Status = domain.WithdrawalCompleted
		out.Reference = reference
		out.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListByStatus lists requests for the admin console; status may be empty for
// all statuses.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// StatusSummary returns count and amount totals per status.
func (r *WithdrawalRepository) StatusSummary(ctx context.Context) ([]StatusAggregate, error) {
	var rows []StatusAggregate
	err := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// SumLocked returns the total amount held by the user's PENDING and APPROVED
// requests.
func (r *WithdrawalRepository) SumLocked(ctx context.Context, userID uint) (decimal.Decimal, error) {
	return sumLocked(r.db.WithContext(ctx), userID)
}
