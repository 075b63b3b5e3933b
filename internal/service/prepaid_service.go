package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/util"
	"github.com/recorra/recorra-backend/internal/websocket"
)

// PrepaidService manages the prepaid balance of an organization as an
// append-only ledger. Ordering and overdraft protection live in the
// ledger repository's critical section; this layer validates inputs and
// emits events.
type PrepaidService struct {
	ledgerRepo domain.LedgerRepository
	publisher  websocket.EventPublisher
}

// NewPrepaidService creates a new PrepaidService
func NewPrepaidService(ledgerRepo domain.LedgerRepository, publisher websocket.EventPublisher) *PrepaidService {
	return &PrepaidService{
		ledgerRepo: ledgerRepo,
		publisher:  publisher,
	}
}

// GetBalance returns the organization's current prepaid balance.
func (s *PrepaidService) GetBalance(ctx context.Context, organizationID int32) (decimal.Decimal, error) {
	return s.ledgerRepo.GetBalance(ctx, organizationID)
}

// AddFunds credits the organization's balance. The recharge id links the
// credit back to its origin when the money came in through a recharge.
func (s *PrepaidService) AddFunds(ctx context.Context, organizationID int32, amount decimal.Decimal, description string, rechargeID *int64) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	entry, err := s.ledgerRepo.Append(ctx, &domain.LedgerEntry{
		OrganizationID: organizationID,
		Type:           domain.LedgerEntryCredit,
		Amount:         amount,
		Description:    description,
		RechargeID:     rechargeID,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organizationID, websocket.LedgerCredited(entry))
	return entry, nil
}

// DebitForService debits the organization's balance to pay for a
// consumed service, identified by serviceRef. A debit exceeding the
// balance fails with ErrInsufficientFunds and leaves the ledger intact.
func (s *PrepaidService) DebitForService(ctx context.Context, organizationID int32, amount decimal.Decimal, serviceRef, description string) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	entry := &domain.LedgerEntry{
		OrganizationID: organizationID,
		Type:           domain.LedgerEntryDebit,
		Amount:         amount,
		Description:    description,
	}
	if serviceRef != "" {
		entry.ServiceRef = &serviceRef
	}

	entry, err := s.ledgerRepo.Append(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organizationID, websocket.LedgerDebited(entry))
	return entry, nil
}

// GetStatement returns the organization's ledger entries, newest first.
// With year and month set the statement covers that month; zero values
// return the full history.
func (s *PrepaidService) GetStatement(ctx context.Context, organizationID int32, year, month int) ([]*domain.LedgerEntry, error) {
	var filter *domain.LedgerFilter
	if year != 0 && month != 0 {
		from, to := util.MonthBounds(year, month)
		filter = &domain.LedgerFilter{From: &from, To: &to}
	}
	return s.ledgerRepo.ListByOrganization(ctx, organizationID, filter)
}
