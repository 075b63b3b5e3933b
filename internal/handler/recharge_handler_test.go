package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/service"
	"github.com/recorra/recorra-backend/internal/testutil"
)

type rechargeHandlerFixture struct {
	handler         *RechargeHandler
	rechargeService *service.RechargeService
	prepaid         *service.PrepaidService
	gateway         *testutil.MockGateway
	orgID           int32
}

func newRechargeHandlerFixture(t *testing.T) *rechargeHandlerFixture {
	t.Helper()

	orgRepo := testutil.NewMockOrganizationRepository()
	wallet := "wal-dispatcher"
	org := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Silva",
		Type:     domain.OrganizationTypeDispatcher,
		WalletID: &wallet,
		Active:   true,
	})

	publisher := testutil.NewRecordingPublisher()
	prepaid := service.NewPrepaidService(testutil.NewMockLedgerRepository(), publisher)
	gateway := testutil.NewMockGateway()
	rechargeService := service.NewRechargeService(
		testutil.NewMockRechargeRepository(),
		orgRepo,
		prepaid,
		gateway,
		testutil.NewMockArtifactRepository(),
		publisher,
	)

	return &rechargeHandlerFixture{
		handler:         NewRechargeHandler(rechargeService),
		rechargeService: rechargeService,
		prepaid:         prepaid,
		gateway:         gateway,
		orgID:           org.ID,
	}
}

func (f *rechargeHandlerFixture) createRecharge(t *testing.T) *domain.Recharge {
	t.Helper()
	recharge, err := f.rechargeService.CreateRecharge(context.Background(), f.orgID, decimal.RequireFromString("150.00"))
	if err != nil {
		t.Fatalf("CreateRecharge failed: %v", err)
	}
	return recharge
}

func TestCreateRecharge_Handler(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)

	reqBody := `{"amount": "150.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recharges", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOrganizationContext(c, f.orgID)

	if err := f.handler.CreateRecharge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response RechargeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Status != "pending" {
		t.Errorf("Expected status 'pending', got %s", response.Status)
	}
	if response.Amount != "150.00" {
		t.Errorf("Expected amount '150.00', got %s", response.Amount)
	}
	if response.GatewayPaymentID == "" {
		t.Error("Expected a gateway payment id")
	}
	if response.PixPayload == nil || *response.PixPayload == "" {
		t.Error("Expected a PIX payload")
	}
	if !strings.Contains(response.PixQRCodeURL, "qrcodes") {
		t.Errorf("Expected a presigned QR code URL, got %q", response.PixQRCodeURL)
	}
}

func TestCreateRecharge_InvalidAmount(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)

	for _, body := range []string{`{"amount": "-10.00"}`, `{"amount": "abc"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recharges", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		setupOrganizationContext(c, f.orgID)

		if err := f.handler.CreateRecharge(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected status 400, got %d", body, rec.Code)
		}
	}

	if len(f.gateway.PaymentRequests) != 0 {
		t.Errorf("Expected no gateway calls, got %d", len(f.gateway.PaymentRequests))
	}
}

func TestGetRecharges_Handler(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)
	f.createRecharge(t)
	f.createRecharge(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recharges", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupOrganizationContext(c, f.orgID)

	if err := f.handler.GetRecharges(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []RechargeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("Expected 2 recharges, got %d", len(response))
	}
}

func TestGetRecharge_NotFound(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recharges/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	setupOrganizationContext(c, f.orgID)

	if err := f.handler.GetRecharge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetRecharge_OtherOrganization(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)
	recharge := f.createRecharge(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recharges/"+strconv.FormatInt(recharge.ID, 10), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(recharge.ID, 10))
	setupOrganizationContext(c, f.orgID+1)

	if err := f.handler.GetRecharge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestCancelRecharge_Handler(t *testing.T) {
	e := echo.New()
	f := newRechargeHandlerFixture(t)
	recharge := f.createRecharge(t)
	id := strconv.FormatInt(recharge.ID, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recharges/"+id+"/cancel", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	setupOrganizationContext(c, f.orgID)

	if err := f.handler.CancelRecharge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response RechargeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "cancelled" {
		t.Errorf("Expected status 'cancelled', got %s", response.Status)
	}

	// Cancelling again conflicts
	req = httptest.NewRequest(http.MethodPost, "/api/v1/recharges/"+id+"/cancel", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	setupOrganizationContext(c, f.orgID)

	if err := f.handler.CancelRecharge(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}
