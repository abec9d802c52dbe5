package service

import (
	"context"
	"fmt"
	"log"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

// NotificationService writes outbox rows after financial transitions commit.
// Enqueue failures are reported with ErrNotificationDelivery so callers can
// surface them as warnings; they never roll back the transition that
// triggered them.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) enqueue(ctx context.Context, userID uint, title, body string, payload models.NotificationPayload) error {
	data, err := models.EncodePayload(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", domain.ErrNotificationDelivery, err)
	}
	n := &models.Notification{
		UserID:   userID,
		Kind:     payload.Kind(),
		Title:    title,
		Body:     body,
		Payload:  data,
		Delivery: domain.DeliveryPending,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationDelivery, err)
	}
	return nil
}

func (s *NotificationService) NotifyWithdrawalRequested(ctx context.Context, req *models.WithdrawalRequest) error {
	return s.enqueue(ctx, req.UserID, "Withdrawal requested",
		fmt.Sprintf("Your withdrawal request for %s %s was received and is pending review.", domain.DefaultCurrency, req.Amount.StringFixed(2)),
		models.WithdrawalRequestedPayload{WithdrawalID: req.ID, Amount: req.Amount})
}

func (s *NotificationService) NotifyWithdrawalApproved(ctx context.Context, req *models.WithdrawalRequest) error {
	return s.enqueue(ctx, req.UserID, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %s %s was approved and will be paid out shortly.", domain.DefaultCurrency, req.Amount.StringFixed(2)),
		models.WithdrawalApprovedPayload{WithdrawalID: req.ID, Amount: req.Amount})
}

func (s *NotificationService) NotifyWithdrawalRejected(ctx context.Context, req *models.WithdrawalRequest) error {
	return s.enqueue(ctx, req.UserID, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal of %s %s was rejected: %s", domain.DefaultCurrency, req.Amount.StringFixed(2), req.RejectionReason),
		models.WithdrawalRejectedPayload{WithdrawalID: req.ID, Amount: req.Amount, Reason: req.RejectionReason})
}

func (s *NotificationService) NotifyWithdrawalCompleted(ctx context.Context, req *models.WithdrawalRequest) error {
	return s.enqueue(ctx, req.UserID, "Withdrawal paid",
		fmt.Sprintf("Your withdrawal of %s %s was paid out. Reference: %s", domain.DefaultCurrency, req.Amount.StringFixed(2), req.Reference),
		models.WithdrawalCompletedPayload{WithdrawalID: req.ID, Amount: req.Amount, Reference: req.Reference})
}

func (s *NotificationService) NotifyAccountWarning(ctx context.Context, userID uint, message string) error {
	return s.enqueue(ctx, userID, "Account warning", message,
		models.AccountWarningPayload{Message: message})
}

func (s *NotificationService) ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.Notification, int64, error) {
	return s.store.ListByUser(ctx, userID, page, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.store.MarkRead(ctx, id, userID)
}

// Deliverer pushes one committed notification to the outside world (email,
// push). Best effort: the dispatcher retries failures up to a cap.
type Deliverer interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// LogDeliverer is the default sink when no external channel is configured.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(_ context.Context, n models.Notification) error {
	log.Printf("[Notify] user=%d kind=%s title=%q", n.UserID, n.Kind, n.Title)
	return nil
}
