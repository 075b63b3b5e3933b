package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BeneficiaryRole identifies who a split row pays.
type BeneficiaryRole string

const (
	RolePlatform   BeneficiaryRole = "platform"
	RolePartner    BeneficiaryRole = "partner"
	RoleDispatcher BeneficiaryRole = "dispatcher"
)

type SplitStatus string

const (
	SplitStatusPending   SplitStatus = "pending"
	SplitStatusProcessed SplitStatus = "processed"
	SplitStatusFailed    SplitStatus = "failed"
)

// Split is one beneficiary's share of a gateway payment. All rows of one
// payment are created pending in a single batch and finalized together;
// they are never deleted.
//
// Invariants per payment id: sum of Amount equals the payment total within
// one cent, sum of Percentage equals 100 within 0.01.
type Split struct {
	ID             int64           `json:"id"`
	PaymentID      string          `json:"paymentId"`
	Role           BeneficiaryRole `json:"role"`
	OrganizationID *int32          `json:"organizationId,omitempty"`
	WalletID       string          `json:"walletId"`
	Percentage     decimal.Decimal `json:"percentage"`
	Amount         decimal.Decimal `json:"amount"`
	Status         SplitStatus     `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// WalletSet holds the payout destinations resolved for one checkout.
// Partner is nil when neither the parent link nor the heuristic search
// produced a wallet; a default is never substituted.
type WalletSet struct {
	Dispatcher      string
	DispatcherOrgID int32
	Partner         *string
	PartnerOrgID    *int32
	Platform        string
}

type SplitRepository interface {
	// CreateBatch persists all rows for one payment atomically.
	CreateBatch(ctx context.Context, splits []*Split) error
	GetByPaymentID(ctx context.Context, paymentID string) ([]*Split, error)
	// FinalizeByPaymentID flips every pending row of the payment to status
	// as one unit and returns the number of rows updated. Zero means the
	// payment was unknown or already finalized.
	FinalizeByPaymentID(ctx context.Context, paymentID string, status SplitStatus) (int64, error)
}
