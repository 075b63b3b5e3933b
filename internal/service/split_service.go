package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/websocket"
)

// SplitService computes the multi-party partition of an appeal payment
// and drives it through the gateway.
type SplitService struct {
	tierRepo  domain.SeverityTierRepository
	splitRepo domain.SplitRepository
	resolver  *WalletResolverService
	gateway   PaymentGateway
	publisher websocket.EventPublisher
}

// NewSplitService creates a new SplitService
func NewSplitService(
	tierRepo domain.SeverityTierRepository,
	splitRepo domain.SplitRepository,
	resolver *WalletResolverService,
	gateway PaymentGateway,
	publisher websocket.EventPublisher,
) *SplitService {
	return &SplitService{
		tierRepo:  tierRepo,
		splitRepo: splitRepo,
		resolver:  resolver,
		gateway:   gateway,
		publisher: publisher,
	}
}

// CreatePaymentInput describes one appeal checkout.
type CreatePaymentInput struct {
	DispatcherOrgID int32
	CustomerID      string
	Severity        domain.Severity
	TotalAmount     decimal.Decimal
	Description     string
	DueDate         string
	// ExternalReference keys the payment for idempotent retries by the
	// caller. A fresh UUID is generated when empty.
	ExternalReference string
}

// ComputeSplit partitions total among the beneficiaries of a tier.
//
// Platform and partner receive the fixed costs of the tier; the
// dispatcher keeps the residual, so the amounts always sum to total
// exactly. Beneficiaries with a zero amount get no row. Percentages are
// derived from the amounts at two decimals, which keeps their sum within
// 0.01 of 100.
//
// A total below the tier minimum (fixed costs plus processing fee) is
// rejected with a MinimumAmountError before any network call.
func ComputeSplit(total decimal.Decimal, tier *domain.SeverityTier, wallets *domain.WalletSet) ([]*domain.Split, error) {
	minimum := tier.MinimumTotal()
	if total.LessThan(minimum) {
		return nil, &domain.MinimumAmountError{Total: total, Minimum: minimum}
	}

	if tier.PartnerCost.IsPositive() && wallets.Partner == nil {
		return nil, domain.ErrPartnerWalletUnresolved
	}

	dispatcherAmount := total.Sub(tier.PlatformCost).Sub(tier.PartnerCost)

	var splits []*domain.Split

	if tier.PlatformCost.IsPositive() {
		splits = append(splits, &domain.Split{
			Role:       domain.RolePlatform,
			WalletID:   wallets.Platform,
			Amount:     tier.PlatformCost,
			Percentage: percentageOf(tier.PlatformCost, total),
			Status:     domain.SplitStatusPending,
		})
	}

	if tier.PartnerCost.IsPositive() {
		splits = append(splits, &domain.Split{
			Role:           domain.RolePartner,
			OrganizationID: wallets.PartnerOrgID,
			WalletID:       *wallets.Partner,
			Amount:         tier.PartnerCost,
			Percentage:     percentageOf(tier.PartnerCost, total),
			Status:         domain.SplitStatusPending,
		})
	}

	if dispatcherAmount.IsPositive() {
		dispatcherOrgID := wallets.DispatcherOrgID
		splits = append(splits, &domain.Split{
			Role:           domain.RoleDispatcher,
			OrganizationID: &dispatcherOrgID,
			WalletID:       wallets.Dispatcher,
			Amount:         dispatcherAmount,
			Percentage:     percentageOf(dispatcherAmount, total),
			Status:         domain.SplitStatusPending,
		})
	}

	return splits, nil
}

func percentageOf(amount, total decimal.Decimal) decimal.Decimal {
	return amount.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// PreviewSplit computes the partition for a checkout without touching
// the gateway, for quoting.
func (s *SplitService) PreviewSplit(ctx context.Context, dispatcherOrgID int32, severity domain.Severity, total decimal.Decimal) ([]*domain.Split, error) {
	if !domain.ValidSeverity(severity) {
		return nil, domain.ErrInvalidSeverity
	}
	if !total.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	tier, err := s.tierRepo.GetBySeverity(ctx, severity)
	if err != nil {
		return nil, err
	}

	wallets, err := s.resolver.Resolve(ctx, dispatcherOrgID)
	if err != nil {
		return nil, err
	}

	return ComputeSplit(total, tier, wallets)
}

// CreatePaymentWithSplit creates the gateway charge carrying the split
// partition and persists the pending split rows.
//
// The gateway call happens after every local validation passed, so a
// rejected checkout never leaves a dangling charge. If persisting the
// rows fails after the charge was created, the write is retried once and
// then surfaced as a ReconciliationError carrying the payment id.
func (s *SplitService) CreatePaymentWithSplit(ctx context.Context, input CreatePaymentInput) (*asaas.Payment, []*domain.Split, error) {
	if !domain.ValidSeverity(input.Severity) {
		return nil, nil, domain.ErrInvalidSeverity
	}
	if !input.TotalAmount.IsPositive() {
		return nil, nil, domain.ErrAmountNotPositive
	}

	tier, err := s.tierRepo.GetBySeverity(ctx, input.Severity)
	if err != nil {
		return nil, nil, err
	}

	wallets, err := s.resolver.Resolve(ctx, input.DispatcherOrgID)
	if err != nil {
		return nil, nil, err
	}

	splits, err := ComputeSplit(input.TotalAmount, tier, wallets)
	if err != nil {
		return nil, nil, err
	}

	externalReference := input.ExternalReference
	if externalReference == "" {
		externalReference = uuid.New().String()
	}

	dueDate := input.DueDate
	if dueDate == "" {
		dueDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}

	req := asaas.PaymentRequest{
		Customer:          input.CustomerID,
		BillingType:       asaas.BillingTypePix,
		Value:             input.TotalAmount.InexactFloat64(),
		DueDate:           dueDate,
		Description:       input.Description,
		ExternalReference: externalReference,
		Split:             gatewaySplits(splits, wallets.Dispatcher),
	}

	payment, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	for _, split := range splits {
		split.PaymentID = payment.ID
	}

	if err := s.splitRepo.CreateBatch(ctx, splits); err != nil {
		log.Warn().
			Err(err).
			Str("payment_id", payment.ID).
			Msg("Split persistence failed after gateway call, retrying once")
		if err := s.splitRepo.CreateBatch(ctx, splits); err != nil {
			return nil, nil, &domain.ReconciliationError{PaymentID: payment.ID, Err: err}
		}
	}

	s.publisher.Publish(input.DispatcherOrgID, websocket.PaymentCreated(payment))

	return payment, splits, nil
}

// gatewaySplits builds the wire partition. The dispatcher's residual is
// not sent: the gateway pays the charge owner whatever the explicit
// splits leave over, which keeps cent-level rounding on its side.
func gatewaySplits(splits []*domain.Split, dispatcherWalletID string) []asaas.PaymentSplit {
	var out []asaas.PaymentSplit
	for _, split := range splits {
		if split.WalletID == dispatcherWalletID && split.Role == domain.RoleDispatcher {
			continue
		}
		value := split.Amount.InexactFloat64()
		out = append(out, asaas.PaymentSplit{
			WalletID:   split.WalletID,
			FixedValue: &value,
		})
	}
	return out
}

// ListTiers returns the severity tier table, for quoting.
func (s *SplitService) ListTiers(ctx context.Context) ([]*domain.SeverityTier, error) {
	return s.tierRepo.GetAll(ctx)
}

// GetPayment returns the gateway payment together with its local split
// rows.
func (s *SplitService) GetPayment(ctx context.Context, paymentID string) (*asaas.Payment, []*domain.Split, error) {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	splits, err := s.splitRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	return payment, splits, nil
}

// ListPayments passes a filtered payment listing through to the gateway.
func (s *SplitService) ListPayments(ctx context.Context, opts asaas.PaymentListOptions) (*asaas.PaymentList, error) {
	return s.gateway.ListPayments(ctx, opts)
}

// GetSplits returns all split rows of a payment.
func (s *SplitService) GetSplits(ctx context.Context, paymentID string) ([]*domain.Split, error) {
	return s.splitRepo.GetByPaymentID(ctx, paymentID)
}

// FinalizeSplits transitions every pending row of a payment to status as
// one unit. Finalizing an unknown or already finalized payment updates
// nothing and is not an error, so webhook redeliveries stay harmless.
func (s *SplitService) FinalizeSplits(ctx context.Context, paymentID string, status domain.SplitStatus) (int64, error) {
	updated, err := s.splitRepo.FinalizeByPaymentID(ctx, paymentID, status)
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, nil
	}

	splits, err := s.splitRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Could not load splits for finalization event")
		return updated, nil
	}
	for _, split := range splits {
		if split.Role == domain.RoleDispatcher && split.OrganizationID != nil {
			s.publisher.Publish(*split.OrganizationID, websocket.SplitFinalized(map[string]interface{}{
				"paymentId": paymentID,
				"status":    string(status),
			}))
			break
		}
	}
	return updated, nil
}
