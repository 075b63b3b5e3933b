package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	LedgerEntryCredit LedgerEntryType = "credit"
	LedgerEntryDebit  LedgerEntryType = "debit"
)

// LedgerEntry is one immutable row of an organization's prepaid balance
// history. Balance is the running balance after applying this entry, so
// the current balance of an organization is the balance of its most
// recent entry (zero if none exists).
type LedgerEntry struct {
	ID             int64           `json:"id"`
	OrganizationID int32           `json:"organizationId"`
	Type           LedgerEntryType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Balance        decimal.Decimal `json:"balance"`
	Description    string          `json:"description"`
	ServiceRef     *string         `json:"serviceRef,omitempty"`
	RechargeID     *int64          `json:"rechargeId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// LedgerFilter narrows statement queries.
type LedgerFilter struct {
	From *time.Time
	To   *time.Time
}

type LedgerRepository interface {
	// Append writes entry with its running balance computed inside a
	// per-organization critical section. A debit that would drive the
	// balance negative fails with ErrInsufficientFunds and writes nothing.
	// Implementations must serialize concurrent appends for the same
	// organization while leaving unrelated organizations concurrent.
	Append(ctx context.Context, entry *LedgerEntry) (*LedgerEntry, error)
	GetBalance(ctx context.Context, organizationID int32) (decimal.Decimal, error)
	ListByOrganization(ctx context.Context, organizationID int32, filter *LedgerFilter) ([]*LedgerEntry, error)
}
