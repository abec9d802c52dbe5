package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

// LedgerRepository is the single write path for wallet balances. Every
// balance change is an appended wallet_transactions row plus the balance
// update, committed in one database transaction under a wallet row lock.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// lockWallet selects the user's wallet FOR UPDATE inside tx, creating it
// lazily on first use. The row lock (or the insert) serializes all
// balance-affecting work for this user until tx commits.
func lockWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: domain.DefaultCurrency}
	if err := tx.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Append records one ledger entry and adjusts the cached balance by the
// signed amount in the same unit of work. Debiting kinds that would drive
// the balance negative fail with ErrInsufficientBalance before any write.
func (r *LedgerRepository) Append(ctx context.Context, userID uint, amount decimal.Decimal, kind domain.TransactionKind, description, reference string) (*models.WalletTransaction, error) {
	if !kind.Valid() {
		return nil, domain.ErrUnknownTransactionKind
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}
		signed := amount
		if kind.Sign() < 0 {
			signed = amount.Neg()
		}
		newBalance := wallet.Balance.Add(signed)
		if newBalance.IsNegative() {
			return domain.ErrInsufficientBalance
		}
		entry = models.WalletTransaction{
			WalletID:    wallet.ID,
			Amount:      amount,
			Kind:        kind,
			Description: description,
			Reference:   reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
			Update("balance", newBalance).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetWallet returns the user's wallet or ErrNotFound.
func (r *LedgerRepository) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on
// first access.
func (r *LedgerRepository) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := r.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	created := models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: domain.DefaultCurrency}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		// lost a create race; the existing row wins
		if w, getErr := r.GetWallet(ctx, userID); getErr == nil {
			return w, nil
		}
		return nil, err
	}
	return &created, nil
}

// History lists the wallet's ledger entries newest first.
func (r *LedgerRepository) History(ctx context.Context, userID uint, page, limit int) ([]models.WalletTransaction, int64, error) {
	wallet, err := r.GetWallet(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	q := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("wallet_id = ?", wallet.ID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WalletTransaction
	err = q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// SumEntries returns the signed sum of all ledger entries for the user's
// wallet. Must always equal the cached balance.
func (r *LedgerRepository) SumEntries(ctx context.Context, userID uint) (decimal.Decimal, error) {
	wallet, err := r.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	err = r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Select(fmt.Sprintf("COALESCE(SUM(CASE WHEN kind IN ('%s','%s') THEN amount ELSE -amount END), 0)",
			domain.TxKindCredit, domain.TxKindRefund)).
		Where("wallet_id = ?", wallet.ID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
