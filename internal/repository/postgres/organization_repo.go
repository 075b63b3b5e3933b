package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recorra/recorra-backend/internal/domain"
)

// OrganizationRepository implements domain.OrganizationRepository using PostgreSQL
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

const organizationColumns = `id, name, type, parent_id, wallet_id, gateway_customer_id, auth0_id, active, created_at, updated_at`

// GetByID retrieves an organization by its ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

// GetByAuth0ID retrieves the organization owned by the given Auth0 subject
func (r *OrganizationRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE auth0_id = $1 AND active = true`, auth0ID)
	return scanOrganization(row)
}

// FindPartnerCandidate returns the first active organization flagged as a
// partner, or whose name matches the partner naming convention. Used as
// the heuristic fallback when a dispatcher has no parent wallet.
func (r *OrganizationRepository) FindPartnerCandidate(ctx context.Context) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations
		 WHERE active = true
		   AND wallet_id IS NOT NULL
		   AND wallet_id <> ''
		   AND (type = $1 OR name ILIKE '%associa%')
		 ORDER BY id
		 LIMIT 1`, string(domain.OrganizationTypePartner))
	return scanOrganization(row)
}

// SetGatewayCustomerID stores the gateway customer mapping for an organization
func (r *OrganizationRepository) SetGatewayCustomerID(ctx context.Context, id int32, customerID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET gateway_customer_id = $2, updated_at = now() WHERE id = $1`,
		id, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var (
		org               domain.Organization
		orgType           string
		parentID          pgtype.Int4
		walletID          pgtype.Text
		gatewayCustomerID pgtype.Text
		auth0ID           pgtype.Text
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
	)
	err := row.Scan(&org.ID, &org.Name, &orgType, &parentID, &walletID,
		&gatewayCustomerID, &auth0ID, &org.Active, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}

	org.Type = domain.OrganizationType(orgType)
	org.ParentID = int4OrNil(parentID)
	org.WalletID = textOrNil(walletID)
	org.GatewayCustomerID = textOrNil(gatewayCustomerID)
	org.Auth0ID = textOrNil(auth0ID)
	org.CreatedAt = createdAt.Time
	org.UpdatedAt = updatedAt.Time
	return &org, nil
}
