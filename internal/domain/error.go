package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction executor")

	// Validation errors surfaced to clients as 4xx.
	ErrMissingField        = errors.New("required field missing")
	ErrInvalidPhone        = errors.New("invalid rwandan phone number")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrAmountTooLow        = errors.New("amount below minimum charge")
	ErrMinWithdrawal       = errors.New("amount below minimum withdrawal")
	ErrContentMissing      = errors.New("content not found")
	ErrPaymentMissing      = errors.New("payment not found")
	ErrNotOwner            = errors.New("caller does not own this resource")
	ErrNotVerified         = errors.New("filmmaker account is not verified")

	// Gateway errors
	ErrMisconfigured      = errors.New("payment gateway credentials not configured")
	ErrGatewayRejected    = errors.New("gateway rejected the charge")
	ErrGatewayUnreachable = errors.New("gateway unreachable")
	ErrPayoutUnavailable  = errors.New("payout endpoint unavailable")

	// State errors
	ErrAlreadyTerminal = errors.New("payment is already in a terminal state")
	ErrStaleStatus     = errors.New("stale status notification for resolved payment")

	// Invariant violations. Programming errors; fail loud, never recover silently.
	ErrSplitMismatch   = errors.New("share split does not sum to the charged amount")
	ErrNegativeBalance = errors.New("filmmaker balance would go negative")
)
