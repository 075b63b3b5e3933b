package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recorra/recorra-backend/internal/domain"
)

// SeverityTierRepository implements domain.SeverityTierRepository using PostgreSQL
type SeverityTierRepository struct {
	pool *pgxpool.Pool
}

// NewSeverityTierRepository creates a new SeverityTierRepository
func NewSeverityTierRepository(pool *pgxpool.Pool) *SeverityTierRepository {
	return &SeverityTierRepository{pool: pool}
}

// GetBySeverity retrieves the pricing tier for a severity label
func (r *SeverityTierRepository) GetBySeverity(ctx context.Context, severity domain.Severity) (*domain.SeverityTier, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT severity, platform_cost, partner_cost, processing_fee
		 FROM severity_tiers WHERE severity = $1`, string(severity))
	return scanSeverityTier(row)
}

// GetAll retrieves every pricing tier
func (r *SeverityTierRepository) GetAll(ctx context.Context) ([]*domain.SeverityTier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT severity, platform_cost, partner_cost, processing_fee
		 FROM severity_tiers ORDER BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []*domain.SeverityTier
	for rows.Next() {
		tier, err := scanSeverityTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

func scanSeverityTier(row pgx.Row) (*domain.SeverityTier, error) {
	var (
		tier          domain.SeverityTier
		severity      string
		platformCost  pgtype.Numeric
		partnerCost   pgtype.Numeric
		processingFee pgtype.Numeric
	)
	err := row.Scan(&severity, &platformCost, &partnerCost, &processingFee)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}

	tier.Severity = domain.Severity(severity)
	tier.PlatformCost = pgNumericToDecimal(platformCost)
	tier.PartnerCost = pgNumericToDecimal(partnerCost)
	tier.ProcessingFee = pgNumericToDecimal(processingFee)
	return &tier, nil
}
