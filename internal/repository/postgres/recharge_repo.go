package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recorra/recorra-backend/internal/domain"
)

// RechargeRepository implements domain.RechargeRepository using PostgreSQL
type RechargeRepository struct {
	pool *pgxpool.Pool
}

// NewRechargeRepository creates a new RechargeRepository
func NewRechargeRepository(pool *pgxpool.Pool) *RechargeRepository {
	return &RechargeRepository{pool: pool}
}

const rechargeColumns = `id, organization_id, amount, gateway_payment_id, status, pix_payload, pix_qr_code_path, invoice_url, ledger_entry_id, created_at, updated_at`

// Create persists a new pending recharge
func (r *RechargeRepository) Create(ctx context.Context, recharge *domain.Recharge) (*domain.Recharge, error) {
	amount, err := decimalToPgNumeric(recharge.Amount)
	if err != nil {
		return nil, err
	}

	var pixPayload, pixQRCodePath, invoiceURL pgtype.Text
	if recharge.PixPayload != nil {
		pixPayload.String = *recharge.PixPayload
		pixPayload.Valid = true
	}
	if recharge.PixQRCodePath != nil {
		pixQRCodePath.String = *recharge.PixQRCodePath
		pixQRCodePath.Valid = true
	}
	if recharge.InvoiceURL != nil {
		invoiceURL.String = *recharge.InvoiceURL
		invoiceURL.Valid = true
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO recharges (organization_id, amount, gateway_payment_id, status, pix_payload, pix_qr_code_path, invoice_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+rechargeColumns,
		recharge.OrganizationID, amount, recharge.GatewayPaymentID,
		string(recharge.Status), pixPayload, pixQRCodePath, invoiceURL)
	return scanRecharge(row)
}

// GetByID retrieves a recharge by its ID
func (r *RechargeRepository) GetByID(ctx context.Context, id int64) (*domain.Recharge, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+rechargeColumns+` FROM recharges WHERE id = $1`, id)
	return scanRecharge(row)
}

// GetPendingByGatewayPaymentID retrieves the pending recharge matching a
// gateway payment id. Duplicate confirmation deliveries find nothing here
// and are treated as a safe no-op by the caller.
func (r *RechargeRepository) GetPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+rechargeColumns+` FROM recharges
		 WHERE gateway_payment_id = $1 AND status = $2`,
		gatewayPaymentID, string(domain.RechargeStatusPending))
	return scanRecharge(row)
}

// ClaimPendingByGatewayPaymentID atomically flips the pending recharge of
// a gateway payment to paid and returns it. The pending guard on the
// UPDATE admits one winner; concurrent confirmations of the same payment
// get ErrRechargeNotFound.
func (r *RechargeRepository) ClaimPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE recharges SET status = $2, updated_at = now()
		 WHERE gateway_payment_id = $1 AND status = $3
		 RETURNING `+rechargeColumns,
		gatewayPaymentID, string(domain.RechargeStatusPaid), string(domain.RechargeStatusPending))
	return scanRecharge(row)
}

// SetLedgerEntry links the ledger entry that credited a paid recharge
func (r *RechargeRepository) SetLedgerEntry(ctx context.Context, id int64, ledgerEntryID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE recharges SET ledger_entry_id = $2, updated_at = now() WHERE id = $1`,
		id, ledgerEntryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRechargeNotFound
	}
	return nil
}

// MarkStatus moves a pending recharge into cancelled or expired
func (r *RechargeRepository) MarkStatus(ctx context.Context, id int64, status domain.RechargeStatus) (*domain.Recharge, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE recharges SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3
		 RETURNING `+rechargeColumns,
		id, string(status), string(domain.RechargeStatusPending))
	return scanRecharge(row)
}

// ListByOrganization retrieves an organization's recharges, newest first
func (r *RechargeRepository) ListByOrganization(ctx context.Context, organizationID int32) ([]*domain.Recharge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rechargeColumns+` FROM recharges
		 WHERE organization_id = $1 ORDER BY id DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recharges []*domain.Recharge
	for rows.Next() {
		recharge, err := scanRecharge(rows)
		if err != nil {
			return nil, err
		}
		recharges = append(recharges, recharge)
	}
	return recharges, rows.Err()
}

func scanRecharge(row pgx.Row) (*domain.Recharge, error) {
	var (
		recharge      domain.Recharge
		amount        pgtype.Numeric
		status        string
		pixPayload    pgtype.Text
		pixQRCodePath pgtype.Text
		invoiceURL    pgtype.Text
		ledgerEntryID pgtype.Int8
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	err := row.Scan(&recharge.ID, &recharge.OrganizationID, &amount, &recharge.GatewayPaymentID,
		&status, &pixPayload, &pixQRCodePath, &invoiceURL, &ledgerEntryID, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRechargeNotFound
		}
		return nil, err
	}

	recharge.Amount = pgNumericToDecimal(amount)
	recharge.Status = domain.RechargeStatus(status)
	recharge.PixPayload = textOrNil(pixPayload)
	recharge.PixQRCodePath = textOrNil(pixQRCodePath)
	recharge.InvoiceURL = textOrNil(invoiceURL)
	recharge.LedgerEntryID = int8OrNil(ledgerEntryID)
	recharge.CreatedAt = createdAt.Time
	recharge.UpdatedAt = updatedAt.Time
	return &recharge, nil
}
