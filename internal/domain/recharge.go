package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type RechargeStatus string

const (
	RechargeStatusPending   RechargeStatus = "pending"
	RechargeStatusPaid      RechargeStatus = "paid"
	RechargeStatusCancelled RechargeStatus = "cancelled"
	RechargeStatusExpired   RechargeStatus = "expired"
)

// Recharge is a prepaid wallet top-up request. It is created pending
// alongside a gateway PIX charge and moves one-way into a terminal state.
// LedgerEntryID links the credit written when the charge was confirmed.
type Recharge struct {
	ID               int64           `json:"id"`
	OrganizationID   int32           `json:"organizationId"`
	Amount           decimal.Decimal `json:"amount"`
	GatewayPaymentID string          `json:"gatewayPaymentId"`
	Status           RechargeStatus  `json:"status"`
	PixPayload       *string         `json:"pixPayload,omitempty"`
	PixQRCodePath    *string         `json:"pixQrCodePath,omitempty"`
	InvoiceURL       *string         `json:"invoiceUrl,omitempty"`
	LedgerEntryID    *int64          `json:"ledgerEntryId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type RechargeRepository interface {
	Create(ctx context.Context, recharge *Recharge) (*Recharge, error)
	GetByID(ctx context.Context, id int64) (*Recharge, error)
	// GetPendingByGatewayPaymentID returns ErrRechargeNotFound when no
	// pending recharge matches, which callers treat as a safe no-op.
	GetPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Recharge, error)
	// ClaimPendingByGatewayPaymentID atomically transitions the pending
	// recharge of a gateway payment to paid and returns it. Exactly one
	// caller wins the claim; every other caller gets ErrRechargeNotFound,
	// so concurrent confirmation deliveries credit at most once.
	ClaimPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Recharge, error)
	// SetLedgerEntry links the ledger entry that credited a paid recharge.
	SetLedgerEntry(ctx context.Context, id int64, ledgerEntryID int64) error
	// MarkStatus moves a pending recharge into cancelled or expired.
	MarkStatus(ctx context.Context, id int64, status RechargeStatus) (*Recharge, error)
	ListByOrganization(ctx context.Context, organizationID int32) ([]*Recharge, error)
}
