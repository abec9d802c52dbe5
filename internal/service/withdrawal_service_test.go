package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/storetest"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var testBank = BankDetails{
	BankName:      "Standard Bank",
	AccountNumber: "62000000001",
	AccountHolder: "Thandi Mokoena",
	BranchCode:    "051001",
}

func newWithdrawalFixture(t *testing.T) (*storetest.Memory, *WalletService, *WithdrawalService) {
	t.Helper()
	mem := storetest.NewMemory()
	wallets := NewWalletService(mem.Ledger(), mem.Withdrawals())
	withdrawals := NewWithdrawalService(mem.Ledger(), mem.Withdrawals(), dec("50"))
	return mem, wallets, withdrawals
}

// assertLedgerInvariant checks balance == signed sum of entries and balance >= 0.
func assertLedgerInvariant(t *testing.T, mem *storetest.Memory, userID uint) {
	t.Helper()
	ctx := context.Background()
	wallet, err := mem.Ledger().GetWallet(ctx, userID)
	require.NoError(t, err)
	sum, err := mem.Ledger().SumEntries(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(sum), "balance %s != ledger sum %s", wallet.Balance, sum)
	assert.False(t, wallet.Balance.IsNegative(), "balance went negative: %s", wallet.Balance)
	locked, err := mem.Withdrawals().SumLocked(ctx, userID)
	require.NoError(t, err)
	assert.True(t, locked.LessThanOrEqual(wallet.Balance),
		"locked %s exceeds balance %s", locked, wallet.Balance)
}

func TestRequest_AvailableBalance(t *testing.T) {
	mem, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(7)

	_, err := wallets.Credit(ctx, userID, dec("500"), "booking completed", "booking-41")
	require.NoError(t, err)

	first, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, first.Status)
	assert.NotEmpty(t, first.OrderID)

	available, err := wallets.Available(ctx, userID)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec("400")), "available = %s", available)

	_, err = withdrawals.Request(ctx, userID, dec("450"), testBank)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)

	assertLedgerInvariant(t, mem, userID)
}

func TestRequest_BelowMinimum(t *testing.T) {
	_, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(3)

	_, err := wallets.Credit(ctx, userID, dec("200"), "booking completed", "")
	require.NoError(t, err)

	_, err = withdrawals.Request(ctx, userID, dec("30"), testBank)
	assert.ErrorIs(t, err, domain.ErrBelowMinimumAmount)

	_, err = withdrawals.Request(ctx, userID, dec("-10"), testBank)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApproveCompleteFlow(t *testing.T) {
	mem, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(11)

	_, err := wallets.Credit(ctx, userID, dec("100"), "booking completed", "")
	require.NoError(t, err)

	req, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)

	approved, err := withdrawals.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, approved.Status)

	done, err := withdrawals.Complete(ctx, req.ID, "WD-001")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalCompleted, done.Status)
	assert.Equal(t, "WD-001", done.Reference)
	require.NotNil(t, done.ProcessedAt)

	wallet, err := mem.Ledger().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero(), "balance = %s", wallet.Balance)

	history, _, err := mem.Ledger().History(ctx, userID, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TxKindWithdrawal, history[0].Kind)
	assert.Equal(t, "WD-001", history[0].Reference)
	assert.True(t, history[0].Amount.Equal(dec("100")))

	assertLedgerInvariant(t, mem, userID)
}

func TestComplete_Idempotence(t *testing.T) {
	mem, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(5)

	_, err := wallets.Credit(ctx, userID, dec("300"), "booking completed", "")
	require.NoError(t, err)
	req, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)
	_, err = withdrawals.Approve(ctx, req.ID)
	require.NoError(t, err)

	_, err = withdrawals.Complete(ctx, req.ID, "WD-002")
	require.NoError(t, err)

	_, err = withdrawals.Complete(ctx, req.ID, "WD-002")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	assert.Equal(t, 1, mem.Ledger().EntryCount(userID, domain.TxKindWithdrawal))
	wallet, err := mem.Ledger().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("200")), "balance = %s", wallet.Balance)
}

func TestConcurrentApprove_ExactlyOneWins(t *testing.T) {
	_, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(2)

	_, err := wallets.Credit(ctx, userID, dec("150"), "booking completed", "")
	require.NoError(t, err)
	req, err := withdrawals.Request(ctx, userID, dec("150"), testBank)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = withdrawals.Approve(ctx, req.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		}
	}
	assert.Equal(t, 1, wins)

	final, err := withdrawals.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, final.Status)
}

func TestConcurrentRequests_NeverOverdraw(t *testing.T) {
	mem, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(9)

	_, err := wallets.Credit(ctx, userID, dec("500"), "booking completed", "")
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = withdrawals.Request(ctx, userID, dec("100"), testBank)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)
		}
	}
	assert.Equal(t, 5, succeeded, "only the balance-covered requests may pass")

	locked, err := mem.Withdrawals().SumLocked(ctx, userID)
	require.NoError(t, err)
	assert.True(t, locked.Equal(dec("500")), "locked = %s", locked)
	assertLedgerInvariant(t, mem, userID)
}

func TestComplete_BalanceRecheck(t *testing.T) {
	mem, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(4)

	_, err := wallets.Credit(ctx, userID, dec("100"), "booking completed", "")
	require.NoError(t, err)
	req, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)
	_, err = withdrawals.Approve(ctx, req.ID)
	require.NoError(t, err)

	// Unrelated debit drains the wallet between approve and complete.
	_, err = wallets.Adjust(ctx, userID, dec("50"), domain.TxKindDebit, "chargeback", "")
	require.NoError(t, err)

	_, err = withdrawals.Complete(ctx, req.ID, "WD-003")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The request stays APPROVED for manual follow-up; no ledger entry was written.
	after, err := withdrawals.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, after.Status)
	assert.Equal(t, 0, mem.Ledger().EntryCount(userID, domain.TxKindWithdrawal))
}

func TestReject(t *testing.T) {
	_, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const userID = uint(6)

	_, err := wallets.Credit(ctx, userID, dec("400"), "booking completed", "")
	require.NoError(t, err)

	// from PENDING
	pending, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)
	rejected, err := withdrawals.Reject(ctx, pending.ID, "bank details do not match")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, rejected.Status)
	assert.Equal(t, "bank details do not match", rejected.RejectionReason)

	// rejecting frees the locked amount
	available, err := wallets.Available(ctx, userID)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec("400")), "available = %s", available)

	// from APPROVED
	second, err := withdrawals.Request(ctx, userID, dec("100"), testBank)
	require.NoError(t, err)
	_, err = withdrawals.Approve(ctx, second.ID)
	require.NoError(t, err)
	rejected, err = withdrawals.Reject(ctx, second.ID, "payout provider declined")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, rejected.Status)

	// terminal states are immutable
	_, err = withdrawals.Reject(ctx, second.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = withdrawals.Approve(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestCancel(t *testing.T) {
	_, wallets, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()
	const owner = uint(8)
	const stranger = uint(99)

	_, err := wallets.Credit(ctx, owner, dec("250"), "booking completed", "")
	require.NoError(t, err)
	req, err := withdrawals.Request(ctx, owner, dec("100"), testBank)
	require.NoError(t, err)

	_, err = withdrawals.Cancel(ctx, req.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := withdrawals.Cancel(ctx, req.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalCancelled, cancelled.Status)

	// cancel is PENDING-only
	second, err := withdrawals.Request(ctx, owner, dec("100"), testBank)
	require.NoError(t, err)
	_, err = withdrawals.Approve(ctx, second.ID)
	require.NoError(t, err)
	_, err = withdrawals.Cancel(ctx, second.ID, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestRequest_UnknownRequest(t *testing.T) {
	_, _, withdrawals := newWithdrawalFixture(t)
	ctx := context.Background()

	_, err := withdrawals.Approve(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = withdrawals.Complete(ctx, 12345, "WD-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = withdrawals.Cancel(ctx, 12345, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
