package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ledgerLockClass namespaces the advisory locks used to serialize ledger
// appends so they cannot collide with other advisory lock users.
const ledgerLockClass = 4201

// LedgerRepository implements domain.LedgerRepository using PostgreSQL.
// Appends run inside a transaction holding a per-organization advisory
// lock, so two concurrent debits can never both observe the same balance.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append writes entry with its running balance computed inside the
// per-organization critical section. A debit exceeding the current
// balance fails with domain.ErrInsufficientFunds and writes nothing.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Serializes appends for this organization only; unrelated
	// organizations proceed concurrently. Released on commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, ledgerLockClass, entry.OrganizationID); err != nil {
		return nil, err
	}

	current, err := latestBalance(ctx, tx, entry.OrganizationID)
	if err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	switch entry.Type {
	case domain.LedgerEntryCredit:
		balance = current.Add(entry.Amount)
	case domain.LedgerEntryDebit:
		if current.LessThan(entry.Amount) {
			return nil, domain.ErrInsufficientFunds
		}
		balance = current.Sub(entry.Amount)
	default:
		return nil, fmt.Errorf("unknown ledger entry type %q", entry.Type)
	}

	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, err
	}
	balanceNum, err := decimalToPgNumeric(balance)
	if err != nil {
		return nil, err
	}

	var serviceRef pgtype.Text
	if entry.ServiceRef != nil {
		serviceRef.String = *entry.ServiceRef
		serviceRef.Valid = true
	}
	var rechargeID pgtype.Int8
	if entry.RechargeID != nil {
		rechargeID.Int64 = *entry.RechargeID
		rechargeID.Valid = true
	}

	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(ctx,
		`INSERT INTO ledger_entries (organization_id, type, amount, balance, description, service_ref, recharge_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		entry.OrganizationID, string(entry.Type), amount, balanceNum,
		entry.Description, serviceRef, rechargeID,
	).Scan(&entry.ID, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	entry.Balance = balance
	entry.CreatedAt = createdAt.Time
	return entry, nil
}

// GetBalance returns the balance of the most recent entry, or zero
func (r *LedgerRepository) GetBalance(ctx context.Context, organizationID int32) (decimal.Decimal, error) {
	return latestBalance(ctx, r.pool, organizationID)
}

// ListByOrganization retrieves entries for an organization, newest first
func (r *LedgerRepository) ListByOrganization(ctx context.Context, organizationID int32, filter *domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	query := `SELECT id, organization_id, type, amount, balance, description, service_ref, recharge_id, created_at
	          FROM ledger_entries WHERE organization_id = $1`
	args := []interface{}{organizationID}

	if filter != nil {
		if filter.From != nil {
			args = append(args, *filter.From)
			query += ` AND created_at >= $2`
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			if filter.From != nil {
				query += ` AND created_at < $3`
			} else {
				query += ` AND created_at < $2`
			}
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func latestBalance(ctx context.Context, q queryRower, organizationID int32) (decimal.Decimal, error) {
	var balance pgtype.Numeric
	err := q.QueryRow(ctx,
		`SELECT balance FROM ledger_entries
		 WHERE organization_id = $1 ORDER BY id DESC LIMIT 1`, organizationID,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return pgNumericToDecimal(balance), nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry      domain.LedgerEntry
		entryType  string
		amount     pgtype.Numeric
		balance    pgtype.Numeric
		serviceRef pgtype.Text
		rechargeID pgtype.Int8
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&entry.ID, &entry.OrganizationID, &entryType, &amount, &balance,
		&entry.Description, &serviceRef, &rechargeID, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Type = domain.LedgerEntryType(entryType)
	entry.Amount = pgNumericToDecimal(amount)
	entry.Balance = pgNumericToDecimal(balance)
	entry.ServiceRef = textOrNil(serviceRef)
	entry.RechargeID = int8OrNil(rechargeID)
	entry.CreatedAt = createdAt.Time
	return &entry, nil
}
