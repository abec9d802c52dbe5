// Package storetest provides in-memory implementations of the service
// storage interfaces. The semantics mirror the gorm repositories: the
// compare-and-set transition, the wallet lock serialization and the atomic
// complete are reproduced under a single mutex so concurrency scenarios
// behave the same way in tests.
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/repository"
)

// Memory is the shared state backing the per-interface facades below.
type Memory struct {
	mu sync.Mutex

	wallets       map[uint]*models.Wallet // keyed by user id
	entries       []*models.WalletTransaction
	withdrawals   map[uint]*models.WithdrawalRequest
	notifications map[uint]*models.Notification
	users         map[uint]*models.User

	nextWalletID       uint
	nextEntryID        uint
	nextWithdrawalID   uint
	nextNotificationID uint
	nextUserID         uint

	// FailNotificationCreate makes the notification store's Create fail,
	// for exercising the non-fatal warning path.
	FailNotificationCreate bool
}

func NewMemory() *Memory {
	return &Memory{
		wallets:       make(map[uint]*models.Wallet),
		withdrawals:   make(map[uint]*models.WithdrawalRequest),
		notifications: make(map[uint]*models.Notification),
		users:         make(map[uint]*models.User),
	}
}

func (m *Memory) Ledger() *LedgerMem              { return &LedgerMem{m} }
func (m *Memory) Withdrawals() *WithdrawalMem     { return &WithdrawalMem{m} }
func (m *Memory) Notifications() *NotificationMem { return &NotificationMem{m} }
func (m *Memory) Users() *UserMem                 { return &UserMem{m} }

func paginate[T any](all []T, page, limit int) ([]T, int64) {
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total
}

// --- LedgerStore ---

type LedgerMem struct{ m *Memory }

func (m *Memory) getOrCreateWalletLocked(userID uint) *models.Wallet {
	if w, ok := m.wallets[userID]; ok {
		return w
	}
	m.nextWalletID++
	w := &models.Wallet{
		ID:        m.nextWalletID,
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  domain.DefaultCurrency,
		CreatedAt: time.Now(),
	}
	m.wallets[userID] = w
	return w
}

func (l *LedgerMem) GetOrCreateWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	cp := *l.m.getOrCreateWalletLocked(userID)
	return &cp, nil
}

func (l *LedgerMem) GetWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	w, ok := l.m.wallets[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (l *LedgerMem) Append(_ context.Context, userID uint, amount decimal.Decimal, kind domain.TransactionKind, description, reference string) (*models.WalletTransaction, error) {
	if !kind.Valid() {
		return nil, domain.ErrUnknownTransactionKind
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	w := l.m.getOrCreateWalletLocked(userID)
	signed := amount
	if kind.Sign() < 0 {
		signed = amount.Neg()
	}
	newBalance := w.Balance.Add(signed)
	if newBalance.IsNegative() {
		return nil, domain.ErrInsufficientBalance
	}
	l.m.nextEntryID++
	entry := &models.WalletTransaction{
		ID:          l.m.nextEntryID,
		WalletID:    w.ID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Reference:   reference,
		CreatedAt:   time.Now(),
	}
	l.m.entries = append(l.m.entries, entry)
	w.Balance = newBalance
	cp := *entry
	return &cp, nil
}

func (l *LedgerMem) History(_ context.Context, userID uint, page, limit int) ([]models.WalletTransaction, int64, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	w, ok := l.m.wallets[userID]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	var all []models.WalletTransaction
	for _, e := range l.m.entries {
		if e.WalletID == w.ID {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	list, total := paginate(all, page, limit)
	return list, total, nil
}

func (l *LedgerMem) SumEntries(_ context.Context, userID uint) (decimal.Decimal, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	w, ok := l.m.wallets[userID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	sum := decimal.Zero
	for _, e := range l.m.entries {
		if e.WalletID == w.ID {
			sum = sum.Add(e.SignedAmount())
		}
	}
	return sum, nil
}

// EntryCount reports how many ledger entries of the given kind exist for the
// user's wallet, for assertions.
func (l *LedgerMem) EntryCount(userID uint, kind domain.TransactionKind) int {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	w, ok := l.m.wallets[userID]
	if !ok {
		return 0
	}
	count := 0
	for _, e := range l.m.entries {
		if e.WalletID == w.ID && e.Kind == kind {
			count++
		}
	}
	return count
}

// --- WithdrawalStore ---

type WithdrawalMem struct{ m *Memory }

func (m *Memory) sumLockedLocked(userID uint) decimal.Decimal {
	sum := decimal.Zero
	for _, w := range m.withdrawals {
		if w.UserID == userID &&
			(w.Status == domain.WithdrawalPending || w.Status == domain.WithdrawalApproved) {
			sum = sum.Add(w.Amount)
		}
	}
	return sum
}

func (s *WithdrawalMem) CreateLocked(_ context.Context, req *models.WithdrawalRequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	w := s.m.getOrCreateWalletLocked(req.UserID)
	locked := s.m.sumLockedLocked(req.UserID)
	if req.Amount.GreaterThan(w.Balance.Sub(locked)) {
		return domain.ErrInsufficientAvailableBalance
	}
	s.m.nextWithdrawalID++
	req.ID = s.m.nextWithdrawalID
	req.Status = domain.WithdrawalPending
	req.CreatedAt = time.Now()
	cp := *req
	s.m.withdrawals[req.ID] = &cp
	return nil
}

func (s *WithdrawalMem) TransitionStatus(_ context.Context, id uint, from, to domain.WithdrawalStatus, updates map[string]interface{}) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	w, ok := s.m.withdrawals[id]
	if !ok {
		return domain.ErrNotFound
	}
	if w.Status != from {
		return domain.ErrInvalidStateTransition
	}
	w.Status = to
	w.UpdatedAt = time.Now()
	if reason, ok := updates["rejection_reason"].(string); ok {
		w.RejectionReason = reason
	}
	return nil
}

func (s *WithdrawalMem) Complete(_ context.Context, id uint, reference string) (*models.WithdrawalRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	req, ok := s.m.withdrawals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Status != domain.WithdrawalApproved {
		return nil, domain.ErrInvalidStateTransition
	}
	wallet, ok := s.m.wallets[req.UserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if wallet.Balance.LessThan(req.Amount) {
		return nil, domain.ErrInsufficientBalance
	}
	now := time.Now()
	s.m.nextEntryID++
	s.m.entries = append(s.m.entries, &models.WalletTransaction{
		ID:          s.m.nextEntryID,
		WalletID:    wallet.ID,
		Amount:      req.Amount,
		Kind:        domain.TxKindWithdrawal,
		Description: "Withdrawal " + req.OrderID,
		Reference:   reference,
		CreatedAt:   now,
	})
	wallet.Balance = wallet.Balance.Sub(req.Amount)
	req.Status = domain.WithdrawalCompleted
	req.Reference = reference
	req.ProcessedAt = &now
	req.UpdatedAt = now
	cp := *req
	return &cp, nil
}

func (s *WithdrawalMem) GetByID(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	w, ok := s.m.withdrawals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *WithdrawalMem) list(filter func(*models.WithdrawalRequest) bool, page, limit int) ([]models.WithdrawalRequest, int64) {
	var all []models.WithdrawalRequest
	for _, w := range s.m.withdrawals {
		if filter(w) {
			all = append(all, *w)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, limit)
}

func (s *WithdrawalMem) ListByUser(_ context.Context, userID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	list, total := s.list(func(w *models.WithdrawalRequest) bool { return w.UserID == userID }, page, limit)
	return list, total, nil
}

func (s *WithdrawalMem) ListByStatus(_ context.Context, status domain.WithdrawalStatus, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	list, total := s.list(func(w *models.WithdrawalRequest) bool {
		return status == "" || w.Status == status
	}, page, limit)
	return list, total, nil
}

func (s *WithdrawalMem) StatusSummary(_ context.Context) ([]repository.StatusAggregate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	byStatus := make(map[domain.WithdrawalStatus]*repository.StatusAggregate)
	for _, w := range s.m.withdrawals {
		agg, ok := byStatus[w.Status]
		if !ok {
			agg = &repository.StatusAggregate{Status: w.Status, Total: decimal.Zero}
			byStatus[w.Status] = agg
		}
		agg.Count++
		agg.Total = agg.Total.Add(w.Amount)
	}
	var out []repository.StatusAggregate
	for _, agg := range byStatus {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *WithdrawalMem) SumLocked(_ context.Context, userID uint) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.sumLockedLocked(userID), nil
}

// --- NotificationStore ---

type NotificationMem struct{ m *Memory }

func (n *NotificationMem) Create(_ context.Context, row *models.Notification) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	if n.m.FailNotificationCreate {
		return errors.New("notification store unavailable")
	}
	n.m.nextNotificationID++
	row.ID = n.m.nextNotificationID
	if row.Delivery == "" {
		row.Delivery = domain.DeliveryPending
	}
	row.CreatedAt = time.Now()
	cp := *row
	n.m.notifications[row.ID] = &cp
	return nil
}

func (n *NotificationMem) ListByUser(_ context.Context, userID uint, page, limit int) ([]models.Notification, int64, error) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	var all []models.Notification
	for _, row := range n.m.notifications {
		if row.UserID == userID {
			all = append(all, *row)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	list, total := paginate(all, page, limit)
	return list, total, nil
}

func (n *NotificationMem) MarkRead(_ context.Context, id, userID uint) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	row, ok := n.m.notifications[id]
	if !ok || row.UserID != userID {
		return domain.ErrNotFound
	}
	now := time.Now()
	row.ReadAt = &now
	return nil
}

func (n *NotificationMem) NextPending(_ context.Context, limit int) ([]models.Notification, error) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	var ids []uint
	for id, row := range n.m.notifications {
		if row.Delivery == domain.DeliveryPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []models.Notification
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		out = append(out, *n.m.notifications[id])
	}
	return out, nil
}

func (n *NotificationMem) MarkSent(_ context.Context, id uint) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	row, ok := n.m.notifications[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	row.Delivery = domain.DeliverySent
	row.DeliveredAt = &now
	row.LastError = ""
	return nil
}

func (n *NotificationMem) RecordFailure(_ context.Context, id uint, deliveryErr error, maxAttempts int) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	row, ok := n.m.notifications[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Attempts++
	if deliveryErr != nil {
		row.LastError = deliveryErr.Error()
	}
	if row.Attempts >= maxAttempts {
		row.Delivery = domain.DeliveryFailed
	}
	return nil
}

// Get returns a copy of the stored notification, for assertions.
func (n *NotificationMem) Get(id uint) (models.Notification, bool) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	row, ok := n.m.notifications[id]
	if !ok {
		return models.Notification{}, false
	}
	return *row, true
}

// --- UserStore / Authorizer ---

type UserMem struct{ m *Memory }

func (u *UserMem) Create(_ context.Context, row *models.User) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.nextUserID++
	row.ID = u.m.nextUserID
	cp := *row
	u.m.users[row.ID] = &cp
	return nil
}

func (u *UserMem) GetByID(_ context.Context, id uint) (*models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	row, ok := u.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (u *UserMem) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	for _, row := range u.m.users {
		if row.Email == email {
			cp := *row
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (u *UserMem) IsAdmin(_ context.Context, userID uint) (bool, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	row, ok := u.m.users[userID]
	if !ok {
		return false, nil
	}
	return row.Role == domain.RoleAdmin, nil
}

// SeedUser inserts a user with the given role and returns its id.
func (m *Memory) SeedUser(role string) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	m.users[m.nextUserID] = &models.User{
		ID:   m.nextUserID,
		Role: role,
	}
	return m.nextUserID
}
