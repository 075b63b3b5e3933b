package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/middleware"
	"github.com/recorra/recorra-backend/internal/service"
)

// RechargeHandler handles prepaid recharge HTTP requests
type RechargeHandler struct {
	rechargeService *service.RechargeService
}

// NewRechargeHandler creates a new RechargeHandler
func NewRechargeHandler(rechargeService *service.RechargeService) *RechargeHandler {
	return &RechargeHandler{rechargeService: rechargeService}
}

// CreateRechargeRequest represents the create recharge request body
type CreateRechargeRequest struct {
	Amount string `json:"amount"`
}

// RechargeResponse represents a recharge in API responses
type RechargeResponse struct {
	ID               int64   `json:"id"`
	OrganizationID   int32   `json:"organizationId"`
	Amount           string  `json:"amount"`
	GatewayPaymentID string  `json:"gatewayPaymentId"`
	Status           string  `json:"status"`
	PixPayload       *string `json:"pixPayload,omitempty"`
	PixQRCodeURL     string  `json:"pixQrCodeUrl,omitempty"`
	InvoiceURL       *string `json:"invoiceUrl,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

// CreateRecharge handles POST /api/v1/recharges
func (h *RechargeHandler) CreateRecharge(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	var req CreateRechargeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	recharge, err := h.rechargeService.CreateRecharge(c.Request().Context(), organizationID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrAmountNotPositive) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Must be greater than zero"},
			})
		}
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return NewNotFoundError(c, "Organization not found")
		}

		var reconErr *domain.ReconciliationError
		if errors.As(err, &reconErr) {
			log.Error().
				Err(reconErr).
				Str("payment_id", reconErr.PaymentID).
				Int32("organization_id", organizationID).
				Msg("Recharge requires manual reconciliation")
			return NewInternalError(c, "Recharge was created but could not be recorded; support has been notified")
		}

		var apiErr *asaas.APIError
		if errors.As(err, &apiErr) {
			log.Warn().Err(apiErr).Int32("organization_id", organizationID).Msg("Gateway rejected recharge request")
			return NewBadGatewayError(c, "Payment gateway rejected the request")
		}
		var transportErr *asaas.TransportError
		if errors.As(err, &transportErr) {
			log.Error().Err(transportErr).Int32("organization_id", organizationID).Msg("Gateway unreachable")
			return NewBadGatewayError(c, "Payment gateway is unreachable")
		}

		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to create recharge")
		return NewInternalError(c, "Failed to create recharge")
	}

	return c.JSON(http.StatusCreated, h.toRechargeResponse(c, recharge))
}

// GetRecharges handles GET /api/v1/recharges
func (h *RechargeHandler) GetRecharges(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	recharges, err := h.rechargeService.ListRecharges(c.Request().Context(), organizationID)
	if err != nil {
		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to list recharges")
		return NewInternalError(c, "Failed to list recharges")
	}

	out := make([]RechargeResponse, 0, len(recharges))
	for _, recharge := range recharges {
		out = append(out, h.toRechargeResponse(c, recharge))
	}
	return c.JSON(http.StatusOK, out)
}

// GetRecharge handles GET /api/v1/recharges/:id
func (h *RechargeHandler) GetRecharge(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return NewValidationError(c, "Invalid recharge ID", nil)
	}

	recharge, err := h.rechargeService.GetRecharge(c.Request().Context(), id, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return NewNotFoundError(c, "Recharge not found")
		}
		log.Error().Err(err).Int64("recharge_id", id).Msg("Failed to load recharge")
		return NewInternalError(c, "Failed to load recharge")
	}

	return c.JSON(http.StatusOK, h.toRechargeResponse(c, recharge))
}

// CancelRecharge handles POST /api/v1/recharges/:id/cancel
func (h *RechargeHandler) CancelRecharge(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return NewValidationError(c, "Invalid recharge ID", nil)
	}

	recharge, err := h.rechargeService.Cancel(c.Request().Context(), id, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return NewNotFoundError(c, "Recharge not found")
		}
		if errors.Is(err, domain.ErrRechargeNotPending) {
			return NewConflictError(c, "Recharge is no longer pending")
		}
		log.Error().Err(err).Int64("recharge_id", id).Msg("Failed to cancel recharge")
		return NewInternalError(c, "Failed to cancel recharge")
	}

	return c.JSON(http.StatusOK, h.toRechargeResponse(c, recharge))
}

// toRechargeResponse builds the API shape, resolving the stored QR code
// image to a short-lived presigned URL when one exists.
func (h *RechargeHandler) toRechargeResponse(c echo.Context, recharge *domain.Recharge) RechargeResponse {
	resp := RechargeResponse{
		ID:               recharge.ID,
		OrganizationID:   recharge.OrganizationID,
		Amount:           recharge.Amount.StringFixed(2),
		GatewayPaymentID: recharge.GatewayPaymentID,
		Status:           string(recharge.Status),
		PixPayload:       recharge.PixPayload,
		InvoiceURL:       recharge.InvoiceURL,
		CreatedAt:        recharge.CreatedAt.Format(time.RFC3339),
	}

	if url, err := h.rechargeService.GetQRCodeURL(c.Request().Context(), recharge); err != nil {
		log.Warn().Err(err).Int64("recharge_id", recharge.ID).Msg("Could not presign QR code URL")
	} else {
		resp.PixQRCodeURL = url
	}

	return resp
}
