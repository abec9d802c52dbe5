package domain

// WithdrawalStatus is the finite set of withdrawal lifecycle states.
// The transition table below is the single place legality is decided;
// everything else (services, repositories) only enforces it.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
	WithdrawalCancelled WithdrawalStatus = "CANCELLED"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected, WithdrawalCancelled},
	WithdrawalApproved: {WithdrawalCompleted, WithdrawalRejected},
}

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalCompleted, WithdrawalRejected, WithdrawalCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is legal from s.
func (s WithdrawalStatus) Terminal() bool {
	return s.Valid() && len(withdrawalTransitions[s]) == 0
}

// CanTransition reports whether s -> to is a legal edge.
func (s WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	for _, next := range withdrawalTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns ErrInvalidStateTransition unless s -> to is legal.
func (s WithdrawalStatus) Transition(to WithdrawalStatus) error {
	if !s.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	return nil
}

// NotificationKind is the closed set of user-facing notices this service emits.
type NotificationKind string

const (
	NotifyWithdrawalRequested NotificationKind = "WITHDRAWAL_REQUESTED"
	NotifyWithdrawalApproved  NotificationKind = "WITHDRAWAL_APPROVED"
	NotifyWithdrawalRejected  NotificationKind = "WITHDRAWAL_REJECTED"
	NotifyWithdrawalCompleted NotificationKind = "WITHDRAWAL_COMPLETED"
	NotifyAccountWarning      NotificationKind = "ACCOUNT_WARNING"
)

// Notification delivery states for the outbox.
const (
	DeliveryPending = "PENDING"
	DeliverySent    = "SENT"
	DeliveryFailed  = "FAILED"
)
