package types

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentityFormat is returned when an input is neither an address nor a name.
	ErrInvalidIdentityFormat = errors.New("invalid identity format")
	// ErrIdentityUnresolved is returned when a name has no address record.
	ErrIdentityUnresolved = errors.New("identity unresolved")
	// ErrEmptyPayload is returned when an upload has no content.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrContractNotFound is returned when no code is deployed at the contract address.
	ErrContractNotFound = errors.New("contract not found")
	// ErrUserRejected is returned when the wallet owner dismisses a request.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrInsufficientFunds is returned when the account cannot pay for the transaction.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransientNetwork wraps node and provider failures that may succeed on retry.
	ErrTransientNetwork = errors.New("transient network error")
	// ErrWalletUnavailable is returned when no wallet is present.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrConfirmationTimeout is returned when a submitted transaction is not mined in time.
	// The transaction fate is unknown, state must be re-queried.
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	// ErrNotConnected is returned by operations that need a connected session.
	ErrNotConnected = errors.New("wallet not connected")
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("validation error: %s", e.Field)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Msg)
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ContractRejectedError is a revert surfaced by simulation, estimation or execution.
type ContractRejectedError struct {
	Reason string
}

func (e *ContractRejectedError) Error() string {
	if e.Reason == "" {
		return "contract rejected the call"
	}
	return fmt.Sprintf("contract rejected the call: %s", e.Reason)
}

// UploadFailedError wraps a storage failure.
type UploadFailedError struct {
	Err error
}

func (e *UploadFailedError) Error() string { return fmt.Sprintf("upload failed: %v", e.Err) }
func (e *UploadFailedError) Unwrap() error { return e.Err }

// GasEstimationFailedError wraps a gas estimation failure that is neither a revert nor a
// lack of funds.
type GasEstimationFailedError struct {
	Err error
}

func (e *GasEstimationFailedError) Error() string {
	return fmt.Sprintf("gas estimation failed: %v", e.Err)
}
func (e *GasEstimationFailedError) Unwrap() error { return e.Err }

// Error kinds, stable identifiers surfaced to the presentation layer.
const (
	KindInvalidIdentityFormat = "InvalidIdentityFormat"
	KindIdentityUnresolved    = "IdentityUnresolved"
	KindEmptyPayload          = "EmptyPayload"
	KindUploadFailed          = "UploadFailed"
	KindValidationError       = "ValidationError"
	KindContractNotFound      = "ContractNotFound"
	KindGasEstimationFailed   = "GasEstimationFailed"
	KindUserRejected          = "UserRejected"
	KindInsufficientFunds     = "InsufficientFunds"
	KindContractRejected      = "ContractRejected"
	KindTransientNetworkError = "TransientNetworkError"
	KindWalletUnavailable     = "WalletUnavailable"
	KindConfirmationTimeout   = "ConfirmationTimeout"
	KindNotConnected          = "NotConnected"
	KindUnknown               = "Unknown"
)

// Kind returns the taxonomy kind of err, or KindUnknown.
func Kind(err error) string {
	var (
		verr *ValidationError
		rerr *ContractRejectedError
		uerr *UploadFailedError
		gerr *GasEstimationFailedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return KindValidationError
	case errors.As(err, &rerr):
		return KindContractRejected
	// the wrapping types go first, their cause may be a sentinel too
	case errors.As(err, &uerr):
		return KindUploadFailed
	case errors.As(err, &gerr):
		return KindGasEstimationFailed
	case errors.Is(err, ErrInvalidIdentityFormat):
		return KindInvalidIdentityFormat
	case errors.Is(err, ErrIdentityUnresolved):
		return KindIdentityUnresolved
	case errors.Is(err, ErrEmptyPayload):
		return KindEmptyPayload
	case errors.Is(err, ErrContractNotFound):
		return KindContractNotFound
	case errors.Is(err, ErrUserRejected):
		return KindUserRejected
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrWalletUnavailable):
		return KindWalletUnavailable
	case errors.Is(err, ErrConfirmationTimeout):
		return KindConfirmationTimeout
	case errors.Is(err, ErrNotConnected):
		return KindNotConnected
	case errors.Is(err, ErrTransientNetwork),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransientNetworkError
	}
	return KindUnknown
}

// IsUserError reports whether err was caused by the user input or decision rather than
// by the network or the node.
func IsUserError(err error) bool {
	switch Kind(err) {
	case KindInvalidIdentityFormat, KindIdentityUnresolved, KindEmptyPayload,
		KindValidationError, KindUserRejected, KindInsufficientFunds,
		KindContractRejected, KindWalletUnavailable, KindNotConnected:
		return true
	}
	return false
}
