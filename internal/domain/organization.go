package domain

import (
	"context"
	"time"
)

type OrganizationType string

const (
	OrganizationTypeDispatcher OrganizationType = "dispatcher"
	OrganizationTypePartner    OrganizationType = "partner"
)

// Organization is a company node managed by the CRUD layer. The billing
// core reads it to resolve payout wallets; the only field it ever writes
// is the gateway customer id mapping.
type Organization struct {
	ID                int32            `json:"id"`
	Name              string           `json:"name"`
	Type              OrganizationType `json:"type"`
	ParentID          *int32           `json:"parentId,omitempty"`
	WalletID          *string          `json:"walletId,omitempty"`
	GatewayCustomerID *string          `json:"gatewayCustomerId,omitempty"`
	Auth0ID           *string          `json:"-"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type OrganizationRepository interface {
	GetByID(ctx context.Context, id int32) (*Organization, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*Organization, error)
	// FindPartnerCandidate returns the first active organization flagged as
	// a partner, or whose name matches the partner naming convention.
	// Returns ErrOrganizationNotFound when no candidate exists.
	FindPartnerCandidate(ctx context.Context) (*Organization, error)
	SetGatewayCustomerID(ctx context.Context, id int32, customerID string) error
}
