package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/testutil"
)

type rechargeFixture struct {
	svc       *RechargeService
	prepaid   *PrepaidService
	orgRepo   *testutil.MockOrganizationRepository
	ledger    *testutil.MockLedgerRepository
	gateway   *testutil.MockGateway
	artifacts *testutil.MockArtifactRepository
	publisher *testutil.RecordingPublisher
	orgID     int32
}

func newRechargeFixture() *rechargeFixture {
	orgRepo := testutil.NewMockOrganizationRepository()
	org := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Silva",
		Type:     domain.OrganizationTypeDispatcher,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	ledger := testutil.NewMockLedgerRepository()
	publisher := testutil.NewRecordingPublisher()
	prepaid := NewPrepaidService(ledger, publisher)

	rechargeRepo := testutil.NewMockRechargeRepository()
	gateway := testutil.NewMockGateway()
	artifacts := testutil.NewMockArtifactRepository()

	svc := NewRechargeService(rechargeRepo, orgRepo, prepaid, gateway, artifacts, publisher)
	return &rechargeFixture{
		svc:       svc,
		prepaid:   prepaid,
		orgRepo:   orgRepo,
		ledger:    ledger,
		gateway:   gateway,
		artifacts: artifacts,
		publisher: publisher,
		orgID:     org.ID,
	}
}

func TestRechargeService_CreateRecharge(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	if recharge.Status != domain.RechargeStatusPending {
		t.Errorf("status = %q, want pending", recharge.Status)
	}
	if recharge.GatewayPaymentID == "" {
		t.Error("expected gateway payment id")
	}
	if recharge.PixPayload == nil {
		t.Error("expected PIX payload")
	}
	if recharge.InvoiceURL == nil {
		t.Error("expected invoice url")
	}

	// First recharge registers the organization as a gateway customer
	if len(f.gateway.CustomerRequests) != 1 {
		t.Fatalf("expected 1 customer request, got %d", len(f.gateway.CustomerRequests))
	}
	org, _ := f.orgRepo.GetByID(ctx, f.orgID)
	if org.GatewayCustomerID == nil {
		t.Error("gateway customer id was not stored")
	}

	// QR image and thumbnail were stored
	if recharge.PixQRCodePath == nil {
		t.Fatal("expected stored QR code path")
	}
	if len(f.artifacts.Objects) != 2 {
		t.Errorf("expected 2 stored artifacts, got %d", len(f.artifacts.Objects))
	}
	if !strings.Contains(*recharge.PixQRCodePath, "qrcodes") {
		t.Errorf("unexpected QR code path %q", *recharge.PixQRCodePath)
	}

	// No credit before confirmation
	balance, _ := f.prepaid.GetBalance(ctx, f.orgID)
	if !balance.IsZero() {
		t.Errorf("balance = %s, want 0 before confirmation", balance)
	}

	events := f.publisher.EventTypes(f.orgID)
	if len(events) != 1 || events[0] != "recharge.created" {
		t.Errorf("unexpected events %v", events)
	}
}

func TestRechargeService_SecondRechargeReusesCustomer(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateRecharge(ctx, f.orgID, dec("50.00")); err != nil {
		t.Fatalf("first CreateRecharge failed: %v", err)
	}
	if _, err := f.svc.CreateRecharge(ctx, f.orgID, dec("75.00")); err != nil {
		t.Fatalf("second CreateRecharge failed: %v", err)
	}

	if len(f.gateway.CustomerRequests) != 1 {
		t.Errorf("expected customer to be created once, got %d requests", len(f.gateway.CustomerRequests))
	}
}

func TestRechargeService_ConfirmPaymentCreditsOnce(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	confirmed, err := f.svc.ConfirmPayment(ctx, recharge.GatewayPaymentID)
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if confirmed == nil {
		t.Fatal("expected confirmed recharge")
	}
	if confirmed.Status != domain.RechargeStatusPaid {
		t.Errorf("status = %q, want paid", confirmed.Status)
	}
	if confirmed.LedgerEntryID == nil {
		t.Error("expected ledger entry link")
	}

	balance, _ := f.prepaid.GetBalance(ctx, f.orgID)
	if !balance.Equal(dec("150.00")) {
		t.Errorf("balance = %s, want 150.00", balance)
	}

	// Duplicate webhook delivery finds no pending recharge and is a no-op
	again, err := f.svc.ConfirmPayment(ctx, recharge.GatewayPaymentID)
	if err != nil {
		t.Fatalf("duplicate ConfirmPayment failed: %v", err)
	}
	if again != nil {
		t.Error("duplicate confirmation must be a no-op")
	}
	balance, _ = f.prepaid.GetBalance(ctx, f.orgID)
	if !balance.Equal(dec("150.00")) {
		t.Errorf("balance after duplicate = %s, want 150.00", balance)
	}
	if len(f.ledger.Entries) != 1 {
		t.Errorf("expected exactly 1 ledger entry, got %d", len(f.ledger.Entries))
	}
}

func TestRechargeService_ConcurrentConfirmationsCreditOnce(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("100.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	// The gateway delivers PAYMENT_RECEIVED and PAYMENT_CONFIRMED for the
	// same charge, so confirmations race in practice
	const deliveries = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	confirmed := make([]*domain.Recharge, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			confirmed[i], errs[i] = f.svc.ConfirmPayment(ctx, recharge.GatewayPaymentID)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i := 0; i < deliveries; i++ {
		if errs[i] != nil {
			t.Fatalf("ConfirmPayment %d failed: %v", i, errs[i])
		}
		if confirmed[i] != nil {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winning confirmation, got %d", winners)
	}
	if len(f.ledger.Entries) != 1 {
		t.Errorf("expected exactly 1 ledger entry, got %d", len(f.ledger.Entries))
	}
	balance, _ := f.prepaid.GetBalance(ctx, f.orgID)
	if !balance.Equal(dec("100.00")) {
		t.Errorf("balance = %s, want 100.00", balance)
	}
}

func TestRechargeService_ConfirmUnknownPaymentIsNoOp(t *testing.T) {
	f := newRechargeFixture()

	recharge, err := f.svc.ConfirmPayment(context.Background(), "pay_unknown")
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if recharge != nil {
		t.Error("expected nil recharge for unknown payment")
	}
}

func TestRechargeService_ExpirePayment(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	expired, err := f.svc.ExpirePayment(ctx, recharge.GatewayPaymentID)
	if err != nil {
		t.Fatalf("ExpirePayment failed: %v", err)
	}
	if expired == nil || expired.Status != domain.RechargeStatusExpired {
		t.Fatalf("expected expired recharge, got %+v", expired)
	}

	// Expiry never credits the wallet
	balance, _ := f.prepaid.GetBalance(ctx, f.orgID)
	if !balance.IsZero() {
		t.Errorf("balance = %s, want 0", balance)
	}

	// A late confirmation after expiry is a no-op
	confirmed, err := f.svc.ConfirmPayment(ctx, recharge.GatewayPaymentID)
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if confirmed != nil {
		t.Error("confirmation after expiry must be a no-op")
	}
}

func TestRechargeService_Cancel(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, recharge.ID, f.orgID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != domain.RechargeStatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}

	// Cancelling again is rejected: the recharge is no longer pending
	if _, err := f.svc.Cancel(ctx, recharge.ID, f.orgID); !errors.Is(err, domain.ErrRechargeNotPending) {
		t.Errorf("expected ErrRechargeNotPending, got %v", err)
	}
}

func TestRechargeService_CancelScopedToOrganization(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, recharge.ID, f.orgID+1); !errors.Is(err, domain.ErrRechargeNotFound) {
		t.Errorf("expected ErrRechargeNotFound for foreign organization, got %v", err)
	}
}

func TestRechargeService_RejectsNonPositiveAmount(t *testing.T) {
	f := newRechargeFixture()

	if _, err := f.svc.CreateRecharge(context.Background(), f.orgID, dec("0")); !errors.Is(err, domain.ErrAmountNotPositive) {
		t.Fatalf("expected ErrAmountNotPositive, got %v", err)
	}
	if len(f.gateway.PaymentRequests) != 0 {
		t.Error("gateway must not be called for an invalid amount")
	}
}

func TestRechargeService_QRCodeFetchFailureDoesNotFailRecharge(t *testing.T) {
	f := newRechargeFixture()
	f.gateway.GetPixQRCodeFn = func(ctx context.Context, paymentID string) (*asaas.PixQRCode, error) {
		return nil, errors.New("gateway unavailable")
	}

	recharge, err := f.svc.CreateRecharge(context.Background(), f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}
	if recharge.PixQRCodePath != nil {
		t.Error("expected no QR code path when fetch failed")
	}
	if recharge.Status != domain.RechargeStatusPending {
		t.Errorf("status = %q, want pending", recharge.Status)
	}
}

func TestRechargeService_GetQRCodeURL(t *testing.T) {
	f := newRechargeFixture()
	ctx := context.Background()

	recharge, err := f.svc.CreateRecharge(ctx, f.orgID, dec("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}

	url, err := f.svc.GetQRCodeURL(ctx, recharge)
	if err != nil {
		t.Fatalf("GetQRCodeURL failed: %v", err)
	}
	if url == "" {
		t.Error("expected presigned URL")
	}
}
