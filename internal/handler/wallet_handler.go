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
	"github.com/recorra/recorra-backend/internal/middleware"
	"github.com/recorra/recorra-backend/internal/service"
)

// WalletHandler handles prepaid wallet HTTP requests
type WalletHandler struct {
	prepaidService *service.PrepaidService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(prepaidService *service.PrepaidService) *WalletHandler {
	return &WalletHandler{prepaidService: prepaidService}
}

// AddFundsRequest represents the manual credit request body
type AddFundsRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// DebitRequest represents the service debit request body
type DebitRequest struct {
	Amount      string `json:"amount"`
	ServiceRef  string `json:"serviceRef,omitempty"`
	Description string `json:"description,omitempty"`
}

// BalanceResponse represents the wallet balance API response
type BalanceResponse struct {
	OrganizationID int32  `json:"organizationId"`
	Balance        string `json:"balance"`
}

// LedgerEntryResponse represents one ledger entry in API responses
type LedgerEntryResponse struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	Balance     string  `json:"balance"`
	Description string  `json:"description"`
	ServiceRef  *string `json:"serviceRef,omitempty"`
	RechargeID  *int64  `json:"rechargeId,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// GetBalance handles GET /api/v1/wallet/balance
func (h *WalletHandler) GetBalance(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	balance, err := h.prepaidService.GetBalance(c.Request().Context(), organizationID)
	if err != nil {
		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to load balance")
		return NewInternalError(c, "Failed to load balance")
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		OrganizationID: organizationID,
		Balance:        balance.StringFixed(2),
	})
}

// GetStatement handles GET /api/v1/wallet/statement
//
// Optional year and month query parameters narrow the statement to one
// month; without them the full history is returned, newest first.
func (h *WalletHandler) GetStatement(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	year, month := 0, 0
	if y := c.QueryParam("year"); y != "" {
		var err error
		year, err = strconv.Atoi(y)
		if err != nil {
			return NewValidationError(c, "Invalid year", []ValidationError{
				{Field: "year", Message: "Must be a number"},
			})
		}
	}
	if m := c.QueryParam("month"); m != "" {
		var err error
		month, err = strconv.Atoi(m)
		if err != nil || month < 1 || month > 12 {
			return NewValidationError(c, "Invalid month", []ValidationError{
				{Field: "month", Message: "Must be a number between 1 and 12"},
			})
		}
	}
	if (year == 0) != (month == 0) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "year", Message: "Year and month must be provided together"},
		})
	}

	entries, err := h.prepaidService.GetStatement(c.Request().Context(), organizationID, year, month)
	if err != nil {
		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to load statement")
		return NewInternalError(c, "Failed to load statement")
	}

	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toLedgerEntryResponse(entry))
	}
	return c.JSON(http.StatusOK, out)
}

// AddFunds handles POST /api/v1/wallet/funds
func (h *WalletHandler) AddFunds(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	var req AddFundsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	entry, err := h.prepaidService.AddFunds(c.Request().Context(), organizationID, amount, req.Description, nil)
	if err != nil {
		if errors.Is(err, domain.ErrAmountNotPositive) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Must be greater than zero"},
			})
		}
		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to credit wallet")
		return NewInternalError(c, "Failed to credit wallet")
	}

	return c.JSON(http.StatusCreated, toLedgerEntryResponse(entry))
}

// Debit handles POST /api/v1/wallet/debits
func (h *WalletHandler) Debit(c echo.Context) error {
	organizationID := middleware.GetOrganizationID(c)
	if organizationID == 0 {
		return NewUnauthorizedError(c, "Organization required")
	}

	var req DebitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	entry, err := h.prepaidService.DebitForService(c.Request().Context(), organizationID, amount, req.ServiceRef, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrAmountNotPositive) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Must be greater than zero"},
			})
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return NewConflictError(c, "Insufficient prepaid balance")
		}
		log.Error().Err(err).Int32("organization_id", organizationID).Msg("Failed to debit wallet")
		return NewInternalError(c, "Failed to debit wallet")
	}

	return c.JSON(http.StatusCreated, toLedgerEntryResponse(entry))
}

func toLedgerEntryResponse(entry *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          entry.ID,
		Type:        string(entry.Type),
		Amount:      entry.Amount.StringFixed(2),
		Balance:     entry.Balance.StringFixed(2),
		Description: entry.Description,
		ServiceRef:  entry.ServiceRef,
		RechargeID:  entry.RechargeID,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
}
