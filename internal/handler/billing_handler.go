package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/middleware"
	"github.com/recorra/recorra-backend/internal/service"
)

// BillingHandler handles payment and split-related HTTP requests
type BillingHandler struct {
	splitService *service.SplitService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(splitService *service.SplitService) *BillingHandler {
	return &BillingHandler{splitService: splitService}
}

// SplitPreviewRequest represents the split preview request body
type SplitPreviewRequest struct {
	Severity    string `json:"severity"`
	TotalAmount string `json:"totalAmount"`
}

// CreatePaymentRequest represents the create payment request body
type CreatePaymentRequest struct {
	CustomerID        string `json:"customerId"`
	Severity          string `json:"severity"`
	TotalAmount       string `json:"totalAmount"`
	Description       string `json:"description,omitempty"`
	DueDate           string `json:"dueDate,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// SplitEntryResponse represents one split row in API responses
type SplitEntryResponse struct {
	ID             int64  `json:"id,omitempty"`
	PaymentID      string `json:"paymentId,omitempty"`
	Role           string `json:"role"`
	OrganizationID *int32 `json:"organizationId,omitempty"`
	WalletID       string `json:"walletId"`
	Amount         string `json:"amount"`
	Percentage     string `json:"percentage"`
	Status         string `json:"status"`
}

// SplitPreviewResponse represents the split preview API response
type SplitPreviewResponse struct {
	TotalAmount string               `json:"totalAmount"`
	Splits      []SplitEntryResponse `json:"splits"`
}

// PaymentResponse represents a created payment in API responses
type PaymentResponse struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	Value             float64              `json:"value"`
	DueDate           string               `json:"dueDate"`
	InvoiceURL        string               `json:"invoiceUrl,omitempty"`
	ExternalReference string               `json:"externalReference,omitempty"`
	Splits            []SplitEntryResponse `json:"splits,omitempty"`
}

// PaymentListResponse represents a paginated payment listing
type PaymentListResponse struct {
	HasMore    bool              `json:"hasMore"`
	TotalCount int               `json:"totalCount"`
	Payments   []PaymentResponse `json:"payments"`
}

// TierResponse represents a severity tier in API responses
type TierResponse struct {
	Severity      string `json:"severity"`
	PlatformCost  string `json:"platformCost"`
	PartnerCost   string `json:"partnerCost"`
	ProcessingFee string `json:"processingFee"`
	MinimumTotal  string `json:"minimumTotal"`
}

// PreviewSplit handles POST /api/v1/billing/split-preview
func (h *BillingHandler) PreviewSplit(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	var req SplitPreviewRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid total amount", []ValidationError{
			{Field: "totalAmount", Message: "Must be a valid decimal number"},
		})
	}

	splits, err := h.splitService.PreviewSplit(c.Request().Context(), organizationID, domain.Severity(req.Severity), total)
	if err != nil {
		return h.splitError(c, organizationID, err)
	}

	return c.JSON(http.StatusOK, SplitPreviewResponse{
		TotalAmount: total.StringFixed(2),
		Splits:      toSplitEntries(splits),
	})
}

// CreatePayment handles POST /api/v1/billing/payments
func (h *BillingHandler) CreatePayment(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.CustomerID == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "customerId", Message: "Customer is required"},
		})
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid total amount", []ValidationError{
			{Field: "totalAmount", Message: "Must be a valid decimal number"},
		})
	}

	payment, splits, err := h.splitService.CreatePaymentWithSplit(c.Request().Context(), service.CreatePaymentInput{
		DispatcherOrgID:   organizationID,
		CustomerID:        req.CustomerID,
		Severity:          domain.Severity(req.Severity),
		TotalAmount:       total,
		Description:       req.Description,
		DueDate:           req.DueDate,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		return h.splitError(c, organizationID, err)
	}

	return c.JSON(http.StatusCreated, PaymentResponse{
		ID:                payment.ID,
		Status:            payment.Status,
		Value:             payment.Value,
		DueDate:           payment.DueDate,
		InvoiceURL:        payment.InvoiceURL,
		ExternalReference: payment.ExternalReference,
		Splits:            toSplitEntries(splits),
	})
}

// GetPayment handles GET /api/v1/billing/payments/:paymentId
func (h *BillingHandler) GetPayment(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	paymentID := c.Param("paymentId")
	payment, splits, err := h.splitService.GetPayment(c.Request().Context(), paymentID)
	if err != nil {
		var apiErr *asaas.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return NewNotFoundError(c, "Payment not found")
		}
		return h.splitError(c, organizationID, err)
	}

	return c.JSON(http.StatusOK, PaymentResponse{
		ID:                payment.ID,
		Status:            payment.Status,
		Value:             payment.Value,
		DueDate:           payment.DueDate,
		InvoiceURL:        payment.InvoiceURL,
		ExternalReference: payment.ExternalReference,
		Splits:            toSplitEntries(splits),
	})
}

// ListPayments handles GET /api/v1/billing/payments
func (h *BillingHandler) ListPayments(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	opts := asaas.PaymentListOptions{
		Customer:          c.QueryParam("customer"),
		Status:            c.QueryParam("status"),
		ExternalReference: c.QueryParam("externalReference"),
	}
	if offset := c.QueryParam("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return NewValidationError(c, "Invalid offset", []ValidationError{
				{Field: "offset", Message: "Must be a non-negative number"},
			})
		}
		opts.Offset = n
	}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 100 {
			return NewValidationError(c, "Invalid limit", []ValidationError{
				{Field: "limit", Message: "Must be a number between 1 and 100"},
			})
		}
		opts.Limit = n
	}

	list, err := h.splitService.ListPayments(c.Request().Context(), opts)
	if err != nil {
		return h.splitError(c, organizationID, err)
	}

	out := PaymentListResponse{
		HasMore:    list.HasMore,
		TotalCount: list.TotalCount,
		Payments:   make([]PaymentResponse, 0, len(list.Data)),
	}
	for _, payment := range list.Data {
		out.Payments = append(out.Payments, PaymentResponse{
			ID:                payment.ID,
			Status:            payment.Status,
			Value:             payment.Value,
			DueDate:           payment.DueDate,
			InvoiceURL:        payment.InvoiceURL,
			ExternalReference: payment.ExternalReference,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetPaymentSplits handles GET /api/v1/billing/payments/:paymentId/splits
func (h *BillingHandler) GetPaymentSplits(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	paymentID := c.Param("paymentId")
	splits, err := h.splitService.GetSplits(c.Request().Context(), paymentID)
	if err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to load splits")
		return NewInternalError(c, "Failed to load splits")
	}
	if len(splits) == 0 {
		return NewNotFoundError(c, "No splits found for this payment")
	}

	return c.JSON(http.StatusOK, toSplitEntries(splits))
}

// GetTiers handles GET /api/v1/billing/tiers
func (h *BillingHandler) GetTiers(c echo.Context) error {
	tiers, err := h.splitService.ListTiers(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load severity tiers")
		return NewInternalError(c, "Failed to load severity tiers")
	}

	out := make([]TierResponse, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, TierResponse{
			Severity:      string(tier.Severity),
			PlatformCost:  tier.PlatformCost.StringFixed(2),
			PartnerCost:   tier.PartnerCost.StringFixed(2),
			ProcessingFee: tier.ProcessingFee.StringFixed(2),
			MinimumTotal:  tier.MinimumTotal().StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// splitError maps split computation and gateway failures to problem responses
func (h *BillingHandler) splitError(c echo.Context, organizationID int32, err error) error {
	var minErr *domain.MinimumAmountError
	if errors.As(err, &minErr) {
		return NewValidationError(c, "Total amount is below the minimum for this severity", []ValidationError{
			{Field: "totalAmount", Message: "Must be at least " + minErr.Minimum.StringFixed(2)},
		})
	}
	if errors.Is(err, domain.ErrInvalidSeverity) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "severity", Message: "Severity must be one of: light, medium, serious, very_serious"},
		})
	}
	if errors.Is(err, domain.ErrAmountNotPositive) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "totalAmount", Message: "Must be greater than zero"},
		})
	}
	if errors.Is(err, domain.ErrTierNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "severity", Message: "No tier configured for this severity"},
		})
	}
	if errors.Is(err, domain.ErrOrganizationNotFound) {
		return NewNotFoundError(c, "Organization not found")
	}
	if errors.Is(err, domain.ErrDispatcherWalletNotConfigured) {
		return NewConflictError(c, "Organization has no payout wallet configured")
	}
	if errors.Is(err, domain.ErrPartnerWalletUnresolved) {
		return NewConflictError(c, "No partner wallet could be resolved for this organization")
	}

	var reconErr *domain.ReconciliationError
	if errors.As(err, &reconErr) {
		log.Error().
			Err(reconErr).
			Str("payment_id", reconErr.PaymentID).
			Int32("organization_id", organizationID).
			Msg("Payment requires manual reconciliation")
		return NewInternalError(c, "Payment was created but could not be recorded; support has been notified")
	}

	var apiErr *asaas.APIError
	if errors.As(err, &apiErr) {
		log.Warn().Err(apiErr).Int32("organization_id", organizationID).Msg("Gateway rejected payment request")
		return NewBadGatewayError(c, "Payment gateway rejected the request")
	}
	var transportErr *asaas.TransportError
	if errors.As(err, &transportErr) {
		log.Error().Err(transportErr).Int32("organization_id", organizationID).Msg("Gateway unreachable")
		return NewBadGatewayError(c, "Payment gateway is unreachable")
	}

	log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to create payment split")
	return NewInternalError(c, "Failed to process payment")
}

func toSplitEntries(splits []*domain.Split) []SplitEntryResponse {
	out := make([]SplitEntryResponse, 0, len(splits))
	for _, split := range splits {
		out = append(out, SplitEntryResponse{
			ID:             split.ID,
			PaymentID:      split.PaymentID,
			Role:           string(split.Role),
			OrganizationID: split.OrganizationID,
			WalletID:       split.WalletID,
			Amount:         split.Amount.StringFixed(2),
			Percentage:     split.Percentage.StringFixed(2),
			Status:         string(split.Status),
		})
	}
	return out
}
