package domain

import "errors"

var (
	// ErrInsufficientBalance: a debit or withdrawal would drive the wallet
	// balance negative. Rejected before any write.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrInsufficientAvailableBalance: the requested withdrawal exceeds
	// balance minus amounts already locked by pending/approved requests.
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")

	// ErrBelowMinimumAmount: requested withdrawal under the configured floor.
	ErrBelowMinimumAmount = errors.New("withdrawal amount below minimum")

	// ErrInvalidStateTransition: the request's stored status does not match
	// the transition's expected status (stale read, double submit, race).
	ErrInvalidStateTransition = errors.New("invalid withdrawal state transition")

	// ErrForbidden: caller lacks the required role or does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: unknown wallet, user or withdrawal id.
	ErrNotFound = errors.New("not found")

	// ErrNotificationDelivery is non-fatal: logged and surfaced as a warning,
	// never reverses a committed transition.
	ErrNotificationDelivery = errors.New("notification delivery failed")

	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownTransactionKind = errors.New("unknown transaction kind")
)
