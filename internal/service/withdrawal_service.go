package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/repository"
)

// BankDetails is the payout destination captured at request time.
type BankDetails struct {
	BankName      string
	AccountNumber string
	AccountHolder string
	BranchCode    string
}

// WithdrawalService drives the withdrawal lifecycle. Transition legality
// comes from the domain status table; atomicity and race safety come from the
// store's compare-and-set and row locking.
type WithdrawalService struct {
	ledger    LedgerStore
	store     WithdrawalStore
	minAmount decimal.Decimal
}

func NewWithdrawalService(ledger LedgerStore, store WithdrawalStore, minAmount decimal.Decimal) *WithdrawalService {
	return &WithdrawalService{ledger: ledger, store: store, minAmount: minAmount}
}

// Request validates the amount against the floor and the available balance,
// then creates a PENDING request. The available-balance check and the insert
// run in one store transaction under the wallet row lock, so concurrent
// requests for the same user serialize.
func (s *WithdrawalService) Request(ctx context.Context, userID uint, amount decimal.Decimal, bank BankDetails) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if amount.LessThan(s.minAmount) {
		return nil, domain.ErrBelowMinimumAmount
	}
	// Wallets are created lazily on first credit or first withdrawal attempt.
	if _, err := s.ledger.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}
	req := &models.WithdrawalRequest{
		UserID:        userID,
		OrderID:       fmt.Sprintf("wd-%s", uuid.New().String()),
		Amount:        amount,
		BankName:      bank.BankName,
		AccountNumber: bank.AccountNumber,
		AccountHolder: bank.AccountHolder,
		BranchCode:    bank.BranchCode,
	}
	if err := s.store.CreateLocked(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve moves PENDING -> APPROVED. No ledger effect; the amount was already
// counted against available balance when the request was created.
func (s *WithdrawalService) Approve(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	if err := s.store.TransitionStatus(ctx, id, domain.WithdrawalPending, domain.WithdrawalApproved, nil); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// Reject moves PENDING or APPROVED -> REJECTED and records the reason. Funds
// were never moved, so there is no ledger effect.
func (s *WithdrawalService) Reject(ctx context.Context, id uint, reason string) (*models.WithdrawalRequest, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Status.Transition(domain.WithdrawalRejected); err != nil {
		return nil, err
	}
	err = s.store.TransitionStatus(ctx, id, req.Status, domain.WithdrawalRejected,
		map[string]interface{}{"rejection_reason": reason})
	if err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// Complete finalizes an APPROVED request: the store re-verifies the wallet
// can still fund it, appends the WITHDRAWAL ledger entry and flips the status
// in one transaction. On ErrInsufficientBalance the request stays APPROVED
// and is surfaced for manual admin follow-up.
func (s *WithdrawalService) Complete(ctx context.Context, id uint, reference string) (*models.WithdrawalRequest, error) {
	return s.store.Complete(ctx, id, reference)
}

// Cancel lets the requesting user withdraw a PENDING request.
func (s *WithdrawalService) Cancel(ctx context.Context, id, byUserID uint) (*models.WithdrawalRequest, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != byUserID {
		return nil, domain.ErrForbidden
	}
	if err := s.store.TransitionStatus(ctx, id, domain.WithdrawalPending, domain.WithdrawalCancelled, nil); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *WithdrawalService) Get(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return s.store.GetByID(ctx, id)
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	return s.store.ListByUser(ctx, userID, page, limit)
}

func (s *WithdrawalService) ListByStatus(ctx context.Context, status domain.WithdrawalStatus, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	return s.store.ListByStatus(ctx, status, page, limit)
}

func (s *WithdrawalService) StatusSummary(ctx context.Context) ([]repository.StatusAggregate, error) {
	return s.store.StatusSummary(ctx)
}
