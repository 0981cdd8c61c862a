package treasury

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by engine operations and store backends.
// Callers should match them with errors.Is or the classifier helpers.
var (
	// Not-found conditions.
	ErrAccountNotFound      = errors.New("treasury: account not found")
	ErrTransactionNotFound  = errors.New("treasury: transaction not found")
	ErrSessionNotFound      = errors.New("treasury: mining session not found")
	ErrNotificationNotFound = errors.New("treasury: notification not found")
	ErrPassNotFound         = errors.New("treasury: pass not found")
	ErrNFTNotFound          = errors.New("treasury: nft not found")

	// Balance and transfer conditions.
	ErrInsufficientFunds   = errors.New("treasury: insufficient funds")
	ErrInvalidAmount       = errors.New("treasury: amount must be positive")
	ErrSameAccount         = errors.New("treasury: sender and recipient are the same account")
	ErrUnsupportedCurrency = errors.New("treasury: unsupported currency")

	// Deposit conditions.
	ErrDepositNotPending = errors.New("treasury: deposit is not pending")

	// Entitlement conditions.
	ErrPassExpired   = errors.New("treasury: pass expired")
	ErrPassExhausted = errors.New("treasury: pass allowance exhausted")
	ErrNoUsablePass  = errors.New("treasury: no usable pass")

	// Mining conditions.
	ErrCooldownActive = errors.New("treasury: mining cooldown active")
	ErrSessionActive  = errors.New("treasury: mining session already active")
	ErrSessionRunning = errors.New("treasury: mining session has not ended")
	ErrAlreadyClaimed = errors.New("treasury: session reward already claimed")

	// Authorization.
	ErrForbidden = errors.New("treasury: operation not permitted for caller")

	// Lifecycle.
	ErrClosed = errors.New("treasury: engine is closed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("treasury: validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, ErrPassNotFound) ||
		errors.Is(err, ErrNFTNotFound)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInsufficientFunds reports whether err indicates a balance shortfall.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsCooldown reports whether err indicates an active mining cooldown.
func IsCooldown(err error) bool {
	return errors.Is(err, ErrCooldownActive)
}

// IsStateConflict reports whether err indicates the operation arrived in
// a state it cannot act on (already confirmed, already claimed, still
// running). Retrying without a state change will fail the same way.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrDepositNotPending) ||
		errors.Is(err, ErrSessionActive) ||
		errors.Is(err, ErrSessionRunning) ||
		errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrSameAccount)
}
