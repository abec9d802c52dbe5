package service

import (
	"context"
	"errors"
	"log"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

// AdminAction is a privileged withdrawal transition.
type AdminAction string

const (
	ActionApprove  AdminAction = "approve"
	ActionReject   AdminAction = "reject"
	ActionComplete AdminAction = "complete"
)

func (a AdminAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionComplete:
		return true
	}
	return false
}

// ActionPayload carries the per-action fields.
type ActionPayload struct {
	RejectionReason string
	Reference       string
}

// ActionResult reports the committed request plus a non-fatal warning when the
// follow-up notification could not be enqueued.
type ActionResult struct {
	Request *models.WithdrawalRequest
	Warning string
}

// AdminActionProcessor is the privileged entry point for withdrawal
// transitions. The admin check runs before any state is touched; the
// notification hand-off runs after the transition commits and its failure is
// downgraded to a warning, never a rollback.
type AdminActionProcessor struct {
	authz       Authorizer
	withdrawals *WithdrawalService
	notifier    *NotificationService
}

func NewAdminActionProcessor(authz Authorizer, withdrawals *WithdrawalService, notifier *NotificationService) *AdminActionProcessor {
	return &AdminActionProcessor{authz: authz, withdrawals: withdrawals, notifier: notifier}
}

func (p *AdminActionProcessor) Process(ctx context.Context, adminID, requestID uint, action AdminAction, payload ActionPayload) (*ActionResult, error) {
	ok, err := p.authz.IsAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	var req *models.WithdrawalRequest
	switch action {
	case ActionApprove:
		req, err = p.withdrawals.Approve(ctx, requestID)
	case ActionReject:
		req, err = p.withdrawals.Reject(ctx, requestID, payload.RejectionReason)
	case ActionComplete:
		req, err = p.withdrawals.Complete(ctx, requestID, payload.Reference)
	default:
		return nil, domain.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, err
	}

	result := &ActionResult{Request: req}
	if notifyErr := p.notify(ctx, action, req); notifyErr != nil {
		// The financial transition is already durably committed; surface the
		// delivery problem without undoing it.
		log.Printf("[Admin] notification enqueue failed for withdrawal %d: %v", req.ID, notifyErr)
		result.Warning = domain.ErrNotificationDelivery.Error()
	}
	return result, nil
}

func (p *AdminActionProcessor) notify(ctx context.Context, action AdminAction, req *models.WithdrawalRequest) error {
	if p.notifier == nil {
		return nil
	}
	switch action {
	case ActionApprove:
		return p.notifier.NotifyWithdrawalApproved(ctx, req)
	case ActionReject:
		return p.notifier.NotifyWithdrawalRejected(ctx, req)
	case ActionComplete:
		return p.notifier.NotifyWithdrawalCompleted(ctx, req)
	}
	return errors.New("unknown admin action")
}
