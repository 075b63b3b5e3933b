package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTierNotFound         = errors.New("severity tier not found")
	ErrRechargeNotFound     = errors.New("recharge not found")
	ErrSplitNotFound        = errors.New("split not found")

	// Configuration errors: fail fast, no gateway call is attempted.
	ErrDispatcherWalletNotConfigured = errors.New("dispatcher has no wallet configured")
	ErrPartnerWalletUnresolved       = errors.New("partner wallet could not be resolved")

	ErrAmountNotPositive  = errors.New("amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("insufficient prepaid balance")
	ErrInvalidSeverity    = errors.New("invalid severity")
	ErrRechargeNotPending = errors.New("recharge is not pending")
)

// MinimumAmountError rejects a payment total below the tier minimum and
// carries the exact minimum so the caller can re-quote.
type MinimumAmountError struct {
	Total   decimal.Decimal
	Minimum decimal.Decimal
}

func (e *MinimumAmountError) Error() string {
	return fmt.Sprintf("payment total %s is below the minimum %s for this severity",
		e.Total.StringFixed(2), e.Minimum.StringFixed(2))
}

// ReconciliationError marks a payment that exists at the gateway but could
// not be persisted locally. It must never be swallowed: the payment id is
// the key for manual reconciliation.
type ReconciliationError struct {
	PaymentID string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment %s created at gateway but split persistence failed: %v", e.PaymentID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
