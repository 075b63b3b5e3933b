package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/testutil"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testWalletSet() *domain.WalletSet {
	partnerOrgID := int32(2)
	return &domain.WalletSet{
		Dispatcher:      "wallet-dispatcher",
		DispatcherOrgID: 1,
		Partner:         strPtr("wallet-partner"),
		PartnerOrgID:    &partnerOrgID,
		Platform:        "wallet-platform",
	}
}

func testTier() *domain.SeverityTier {
	return &domain.SeverityTier{
		Severity:      domain.SeveritySerious,
		PlatformCost:  dec("20.00"),
		PartnerCost:   dec("30.00"),
		ProcessingFee: dec("5.00"),
	}
}

func TestComputeSplit_AmountsAndPercentages(t *testing.T) {
	splits, err := ComputeSplit(dec("90.00"), testTier(), testWalletSet())
	if err != nil {
		t.Fatalf("ComputeSplit failed: %v", err)
	}
	if len(splits) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(splits))
	}

	byRole := make(map[domain.BeneficiaryRole]*domain.Split)
	for _, split := range splits {
		byRole[split.Role] = split
	}

	cases := []struct {
		role       domain.BeneficiaryRole
		amount     string
		percentage string
		walletID   string
	}{
		{domain.RolePlatform, "20", "22.22", "wallet-platform"},
		{domain.RolePartner, "30", "33.33", "wallet-partner"},
		{domain.RoleDispatcher, "40", "44.44", "wallet-dispatcher"},
	}
	for _, tc := range cases {
		split, ok := byRole[tc.role]
		if !ok {
			t.Fatalf("missing %s split", tc.role)
		}
		if !split.Amount.Equal(dec(tc.amount)) {
			t.Errorf("%s amount = %s, want %s", tc.role, split.Amount, tc.amount)
		}
		if !split.Percentage.Equal(dec(tc.percentage)) {
			t.Errorf("%s percentage = %s, want %s", tc.role, split.Percentage, tc.percentage)
		}
		if split.WalletID != tc.walletID {
			t.Errorf("%s wallet = %q, want %q", tc.role, split.WalletID, tc.walletID)
		}
		if split.Status != domain.SplitStatusPending {
			t.Errorf("%s status = %q, want pending", tc.role, split.Status)
		}
	}

	sumAmount := decimal.Zero
	sumPercentage := decimal.Zero
	for _, split := range splits {
		sumAmount = sumAmount.Add(split.Amount)
		sumPercentage = sumPercentage.Add(split.Percentage)
	}
	if !sumAmount.Equal(dec("90.00")) {
		t.Errorf("amounts sum to %s, want 90.00", sumAmount)
	}
	if sumPercentage.Sub(dec("100")).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("percentages sum to %s, want 100 within 0.01", sumPercentage)
	}
}

func TestComputeSplit_BelowMinimumRejected(t *testing.T) {
	// Minimum is 20 + 30 + 5 = 55; 55.00 itself must pass
	if _, err := ComputeSplit(dec("55.00"), testTier(), testWalletSet()); err != nil {
		t.Fatalf("total equal to the minimum should pass, got %v", err)
	}

	_, err := ComputeSplit(dec("54.99"), testTier(), testWalletSet())
	var minErr *domain.MinimumAmountError
	if !errors.As(err, &minErr) {
		t.Fatalf("expected MinimumAmountError, got %v", err)
	}
	if !minErr.Minimum.Equal(dec("55.00")) {
		t.Errorf("minimum = %s, want 55.00", minErr.Minimum)
	}
	if !minErr.Total.Equal(dec("54.99")) {
		t.Errorf("total = %s, want 54.99", minErr.Total)
	}
}

func TestComputeSplit_PartnerUnresolvedWithPartnerCost(t *testing.T) {
	wallets := testWalletSet()
	wallets.Partner = nil
	wallets.PartnerOrgID = nil

	_, err := ComputeSplit(dec("90.00"), testTier(), wallets)
	if !errors.Is(err, domain.ErrPartnerWalletUnresolved) {
		t.Fatalf("expected ErrPartnerWalletUnresolved, got %v", err)
	}
}

func TestComputeSplit_ZeroPartnerCostSkipsPartnerRow(t *testing.T) {
	tier := testTier()
	tier.PartnerCost = decimal.Zero
	wallets := testWalletSet()
	wallets.Partner = nil
	wallets.PartnerOrgID = nil

	splits, err := ComputeSplit(dec("90.00"), tier, wallets)
	if err != nil {
		t.Fatalf("ComputeSplit failed: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits without partner, got %d", len(splits))
	}
	for _, split := range splits {
		if split.Role == domain.RolePartner {
			t.Error("unexpected partner split with zero partner cost")
		}
	}
}

func TestComputeSplit_ZeroPlatformCostSkipsPlatformRow(t *testing.T) {
	tier := testTier()
	tier.PlatformCost = decimal.Zero

	splits, err := ComputeSplit(dec("90.00"), tier, testWalletSet())
	if err != nil {
		t.Fatalf("ComputeSplit failed: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits without platform, got %d", len(splits))
	}
	for _, split := range splits {
		if split.Role == domain.RolePlatform {
			t.Error("unexpected platform split with zero platform cost")
		}
	}
}

func TestComputeSplit_ZeroResidualSkipsDispatcherRow(t *testing.T) {
	tier := testTier()
	tier.ProcessingFee = decimal.Zero

	// Total equals the fixed costs, so the dispatcher residual is zero
	splits, err := ComputeSplit(dec("50.00"), tier, testWalletSet())
	if err != nil {
		t.Fatalf("ComputeSplit failed: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits without dispatcher, got %d", len(splits))
	}
	for _, split := range splits {
		if split.Role == domain.RoleDispatcher {
			t.Error("unexpected dispatcher split with zero residual")
		}
	}
}

func newTestSplitService() (*SplitService, *testutil.MockSplitRepository, *testutil.MockGateway, *testutil.RecordingPublisher) {
	orgRepo := testutil.NewMockOrganizationRepository()
	parent := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Associacao Central",
		Type:     domain.OrganizationTypePartner,
		WalletID: strPtr("wallet-partner"),
		Active:   true,
	})
	orgRepo.AddOrganization(&domain.Organization{
		ID:       7,
		Name:     "Despachante Silva",
		Type:     domain.OrganizationTypeDispatcher,
		ParentID: &parent.ID,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	tierRepo := testutil.NewMockSeverityTierRepository()
	tierRepo.AddTier(testTier())

	splitRepo := testutil.NewMockSplitRepository()
	gateway := testutil.NewMockGateway()
	publisher := testutil.NewRecordingPublisher()

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	svc := NewSplitService(tierRepo, splitRepo, resolver, gateway, publisher)
	return svc, splitRepo, gateway, publisher
}

func TestSplitService_CreatePaymentWithSplit(t *testing.T) {
	svc, splitRepo, gateway, publisher := newTestSplitService()

	payment, splits, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		CustomerID:      "cus_000001",
		Severity:        domain.SeveritySerious,
		TotalAmount:     dec("90.00"),
		Description:     "Recurso de multa",
	})
	if err != nil {
		t.Fatalf("CreatePaymentWithSplit failed: %v", err)
	}
	if payment.ID == "" {
		t.Fatal("expected payment id")
	}
	if len(splits) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(splits))
	}
	for _, split := range splits {
		if split.PaymentID != payment.ID {
			t.Errorf("split payment id = %q, want %q", split.PaymentID, payment.ID)
		}
		if split.ID == 0 {
			t.Error("split was not persisted")
		}
	}

	// The dispatcher keeps the residual at the gateway, so only the
	// platform and partner wallets travel in the request
	if len(gateway.PaymentRequests) != 1 {
		t.Fatalf("expected 1 gateway payment request, got %d", len(gateway.PaymentRequests))
	}
	req := gateway.PaymentRequests[0]
	if len(req.Split) != 2 {
		t.Fatalf("expected 2 wire splits, got %d", len(req.Split))
	}
	if req.ExternalReference == "" {
		t.Error("expected a generated external reference")
	}

	events := publisher.EventTypes(7)
	if len(events) != 1 || events[0] != "payment.created" {
		t.Errorf("expected payment.created event, got %v", events)
	}

	persisted, _ := splitRepo.GetByPaymentID(context.Background(), payment.ID)
	if len(persisted) != 3 {
		t.Errorf("expected 3 persisted splits, got %d", len(persisted))
	}
}

func TestSplitService_CreatePayment_InvalidSeverity(t *testing.T) {
	svc, _, gateway, _ := newTestSplitService()

	_, _, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		Severity:        domain.Severity("extreme"),
		TotalAmount:     dec("90.00"),
	})
	if !errors.Is(err, domain.ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity, got %v", err)
	}
	if len(gateway.PaymentRequests) != 0 {
		t.Error("gateway must not be called for an invalid severity")
	}
}

func TestSplitService_CreatePayment_BelowMinimumNoGatewayCall(t *testing.T) {
	svc, _, gateway, _ := newTestSplitService()

	_, _, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		Severity:        domain.SeveritySerious,
		TotalAmount:     dec("40.00"),
	})
	var minErr *domain.MinimumAmountError
	if !errors.As(err, &minErr) {
		t.Fatalf("expected MinimumAmountError, got %v", err)
	}
	if len(gateway.PaymentRequests) != 0 {
		t.Error("gateway must not be called for a rejected total")
	}
}

func TestSplitService_PersistFailureRetriesOnce(t *testing.T) {
	svc, splitRepo, _, _ := newTestSplitService()
	splitRepo.FailNextCreates = 1

	payment, _, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		CustomerID:      "cus_000001",
		Severity:        domain.SeveritySerious,
		TotalAmount:     dec("90.00"),
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if splitRepo.CreateCalls != 2 {
		t.Errorf("expected 2 create attempts, got %d", splitRepo.CreateCalls)
	}
	persisted, _ := splitRepo.GetByPaymentID(context.Background(), payment.ID)
	if len(persisted) != 3 {
		t.Errorf("expected 3 persisted splits after retry, got %d", len(persisted))
	}
}

func TestSplitService_PersistFailureSurfacesReconciliationError(t *testing.T) {
	svc, splitRepo, gateway, _ := newTestSplitService()
	splitRepo.FailNextCreates = 2

	_, _, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		CustomerID:      "cus_000001",
		Severity:        domain.SeveritySerious,
		TotalAmount:     dec("90.00"),
	})
	var recErr *domain.ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	if recErr.PaymentID == "" {
		t.Error("reconciliation error must carry the gateway payment id")
	}
	if len(gateway.PaymentRequests) != 1 {
		t.Errorf("expected exactly 1 gateway call, got %d", len(gateway.PaymentRequests))
	}
}

func TestSplitService_FinalizeSplitsIdempotent(t *testing.T) {
	svc, _, _, publisher := newTestSplitService()

	payment, _, err := svc.CreatePaymentWithSplit(context.Background(), CreatePaymentInput{
		DispatcherOrgID: 7,
		CustomerID:      "cus_000001",
		Severity:        domain.SeveritySerious,
		TotalAmount:     dec("90.00"),
	})
	if err != nil {
		t.Fatalf("CreatePaymentWithSplit failed: %v", err)
	}

	updated, err := svc.FinalizeSplits(context.Background(), payment.ID, domain.SplitStatusProcessed)
	if err != nil {
		t.Fatalf("FinalizeSplits failed: %v", err)
	}
	if updated != 3 {
		t.Errorf("expected 3 finalized rows, got %d", updated)
	}

	// A second delivery of the same confirmation finds nothing pending
	updated, err = svc.FinalizeSplits(context.Background(), payment.ID, domain.SplitStatusProcessed)
	if err != nil {
		t.Fatalf("second FinalizeSplits failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 rows on redelivery, got %d", updated)
	}

	splits, _ := svc.GetSplits(context.Background(), payment.ID)
	for _, split := range splits {
		if split.Status != domain.SplitStatusProcessed {
			t.Errorf("split %d status = %q, want processed", split.ID, split.Status)
		}
	}

	finalized := 0
	for _, evt := range publisher.EventTypes(7) {
		if evt == "split.finalized" {
			finalized++
		}
	}
	if finalized != 1 {
		t.Errorf("expected exactly 1 split.finalized event, got %d", finalized)
	}
}

func TestSplitService_FinalizeUnknownPaymentIsNoOp(t *testing.T) {
	svc, _, _, _ := newTestSplitService()

	updated, err := svc.FinalizeSplits(context.Background(), "pay_unknown", domain.SplitStatusProcessed)
	if err != nil {
		t.Fatalf("FinalizeSplits failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 rows, got %d", updated)
	}
}
