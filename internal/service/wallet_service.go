package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

// WalletService is the read path plus the collaborator-facing credit entry
// points. It never touches the balance itself; every mutation goes through
// the ledger append.
type WalletService struct {
	ledger      LedgerStore
	withdrawals WithdrawalStore
}

func NewWalletService(ledger LedgerStore, withdrawals WithdrawalStore) *WalletService {
	return &WalletService{ledger: ledger, withdrawals: withdrawals}
}

type WalletOverview struct {
	Balance   decimal.Decimal            `json:"balance"`
	Available decimal.Decimal            `json:"available"`
	Currency  string                     `json:"currency"`
	History   []models.WalletTransaction `json:"history"`
	Total     int64                      `json:"total"`
	Page      int                        `json:"page"`
	Limit     int                        `json:"limit"`
}

// Overview returns balance, available balance and paginated history.
// Available is recomputed on every read: it depends on mutable withdrawal
// state, so caching it would risk overspending.
func (s *WalletService) Overview(ctx context.Context, userID uint, page, limit int) (*WalletOverview, error) {
	wallet, err := s.ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	locked, err := s.withdrawals.SumLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, total, err := s.ledger.History(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return &WalletOverview{
		Balance:   wallet.Balance,
		Available: wallet.Balance.Sub(locked),
		Currency:  wallet.Currency,
		History:   history,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

// Available returns balance minus amounts locked by non-terminal withdrawal
// requests.
func (s *WalletService) Available(ctx context.Context, userID uint) (decimal.Decimal, error) {
	wallet, err := s.ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	locked, err := s.withdrawals.SumLocked(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance.Sub(locked), nil
}

// Credit records provider earnings, e.g. when a booking completes.
func (s *WalletService) Credit(ctx context.Context, userID uint, amount decimal.Decimal, description, reference string) (*models.WalletTransaction, error) {
	return s.ledger.Append(ctx, userID, amount, domain.TxKindCredit, description, reference)
}

// Refund reverses a prior debit by appending an offsetting entry.
func (s *WalletService) Refund(ctx context.Context, userID uint, amount decimal.Decimal, description, reference string) (*models.WalletTransaction, error) {
	return s.ledger.Append(ctx, userID, amount, domain.TxKindRefund, description, reference)
}

// Adjust appends an arbitrary-kind entry; used by the admin correction
// endpoint. Corrections to past entries are made by appending offsetting
// entries (REFUND), never by editing the ledger.
func (s *WalletService) Adjust(ctx context.Context, userID uint, amount decimal.Decimal, kind domain.TransactionKind, description, reference string) (*models.WalletTransaction, error) {
	if !kind.Valid() {
		return nil, domain.ErrUnknownTransactionKind
	}
	return s.ledger.Append(ctx, userID, amount, kind, description, reference)
}

type WalletAudit struct {
	UserID     uint            `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Consistent bool            `json:"consistent"`
}

// Audit compares the cached balance against the signed sum of ledger entries.
func (s *WalletService) Audit(ctx context.Context, userID uint) (*WalletAudit, error) {
	wallet, err := s.ledger.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledger.SumEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletAudit{
		UserID:     userID,
		Balance:    wallet.Balance,
		LedgerSum:  sum,
		Consistent: wallet.Balance.Equal(sum),
	}, nil
}
