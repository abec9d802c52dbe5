package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

func walletRow(id, userID uint, balance string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "balance", "currency", "created_at", "updated_at"}).
		AddRow(id, userID, balance, "ZAR", now, now)
}

func TestGetWallet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT .+ FROM `wallets` WHERE user_id = .+").
		WithArgs(7).
		WillReturnRows(walletRow(3, 7, "150.00"))

	w, err := repo.GetWallet(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), w.ID)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("150")), "balance = %s", w.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWallet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT .+ FROM `wallets`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetWallet(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_CreditCommitsEntryAndBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM `wallets` .+ FOR UPDATE").
		WillReturnRows(walletRow(3, 7, "100.00"))
	mock.ExpectExec("INSERT INTO `wallet_transactions`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repo.Append(context.Background(), 7, decimal.RequireFromString("50"),
		domain.TxKindCredit, "booking completed", "booking-12")
	require.NoError(t, err)
	assert.Equal(t, uint(3), entry.WalletID)
	assert.Equal(t, domain.TxKindCredit, entry.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_DebitPastBalanceRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM `wallets` .+ FOR UPDATE").
		WillReturnRows(walletRow(3, 7, "10.00"))
	mock.ExpectRollback()

	_, err := repo.Append(context.Background(), 7, decimal.RequireFromString("50"),
		domain.TxKindDebit, "platform fee", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_RejectsBadInputBeforeTouchingDB(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	_, err := repo.Append(ctx, 7, decimal.RequireFromString("50"), domain.TransactionKind("TRANSFER"), "x", "")
	assert.ErrorIs(t, err, domain.ErrUnknownTransactionKind)

	_, err = repo.Append(ctx, 7, decimal.RequireFromString("-5"), domain.TxKindCredit, "x", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = repo.Append(ctx, 7, decimal.Zero, domain.TxKindCredit, "x", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT .+ FROM `wallets`").
		WillReturnRows(walletRow(3, 7, "100.00"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `wallet_transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .+ FROM `wallet_transactions` .+ ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "wallet_id", "amount", "kind"}).
			AddRow(2, 3, "40.00", "CREDIT").
			AddRow(1, 3, "60.00", "CREDIT"))

	list, total, err := repo.History(context.Background(), 7, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumEntries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT .+ FROM `wallets`").
		WillReturnRows(walletRow(3, 7, "100.00"))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(CASE WHEN kind IN").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("100.00"))

	sum, err := repo.SumEntries(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("100")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
