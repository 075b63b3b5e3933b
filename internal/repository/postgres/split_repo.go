package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recorra/recorra-backend/internal/domain"
)

// SplitRepository implements domain.SplitRepository using PostgreSQL
type SplitRepository struct {
	pool *pgxpool.Pool
}

// NewSplitRepository creates a new SplitRepository
func NewSplitRepository(pool *pgxpool.Pool) *SplitRepository {
	return &SplitRepository{pool: pool}
}

// CreateBatch persists all rows for one payment atomically. Either every
// beneficiary row exists or none does.
func (r *SplitRepository) CreateBatch(ctx context.Context, splits []*domain.Split) error {
	if len(splits) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, split := range splits {
		amount, err := decimalToPgNumeric(split.Amount)
		if err != nil {
			return err
		}
		percentage, err := decimalToPgNumeric(split.Percentage)
		if err != nil {
			return err
		}

		var orgID pgtype.Int4
		if split.OrganizationID != nil {
			orgID.Int32 = *split.OrganizationID
			orgID.Valid = true
		}

		var createdAt, updatedAt pgtype.Timestamptz
		err = tx.QueryRow(ctx,
			`INSERT INTO splits (payment_id, role, organization_id, wallet_id, percentage, amount, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at, updated_at`,
			split.PaymentID, string(split.Role), orgID, split.WalletID,
			percentage, amount, string(split.Status),
		).Scan(&split.ID, &createdAt, &updatedAt)
		if err != nil {
			return err
		}
		split.CreatedAt = createdAt.Time
		split.UpdatedAt = updatedAt.Time
	}

	return tx.Commit(ctx)
}

// GetByPaymentID retrieves every split row of a payment
func (r *SplitRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*domain.Split, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, payment_id, role, organization_id, wallet_id, percentage, amount, status, created_at, updated_at
		 FROM splits WHERE payment_id = $1 ORDER BY id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var splits []*domain.Split
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}

// FinalizeByPaymentID flips every pending row of the payment to status as
// one unit. The pending guard makes re-invocation on an already-finalized
// payment a no-op; the returned count is zero in that case.
func (r *SplitRepository) FinalizeByPaymentID(ctx context.Context, paymentID string, status domain.SplitStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE splits SET status = $2, updated_at = now()
		 WHERE payment_id = $1 AND status = $3`,
		paymentID, string(status), string(domain.SplitStatusPending))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSplit(row pgx.Row) (*domain.Split, error) {
	var (
		split      domain.Split
		role       string
		orgID      pgtype.Int4
		percentage pgtype.Numeric
		amount     pgtype.Numeric
		status     string
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(&split.ID, &split.PaymentID, &role, &orgID, &split.WalletID,
		&percentage, &amount, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSplitNotFound
		}
		return nil, err
	}

	split.Role = domain.BeneficiaryRole(role)
	split.OrganizationID = int4OrNil(orgID)
	split.Percentage = pgNumericToDecimal(percentage)
	split.Amount = pgNumericToDecimal(amount)
	split.Status = domain.SplitStatus(status)
	split.CreatedAt = createdAt.Time
	split.UpdatedAt = updatedAt.Time
	return &split, nil
}
