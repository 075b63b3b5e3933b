package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/service"
)

// webhookAuthHeader carries the shared token the gateway sends with
// every webhook delivery.
const webhookAuthHeader = "asaas-access-token"

// WebhookHandler receives payment lifecycle notifications from the
// gateway. Handlers must be idempotent: the gateway redelivers events
// until it sees a 200.
type WebhookHandler struct {
	rechargeService *service.RechargeService
	splitService    *service.SplitService
	authToken       string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(rechargeService *service.RechargeService, splitService *service.SplitService, authToken string) *WebhookHandler {
	return &WebhookHandler{
		rechargeService: rechargeService,
		splitService:    splitService,
		authToken:       authToken,
	}
}

// WebhookResponse acknowledges a processed event
type WebhookResponse struct {
	Received bool `json:"received"`
}

// HandleAsaasWebhook handles POST /api/v1/webhooks/asaas
func (h *WebhookHandler) HandleAsaasWebhook(c echo.Context) error {
	if h.authToken != "" {
		token := c.Request().Header.Get(webhookAuthHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) != 1 {
			log.Warn().Msg("Webhook rejected: invalid access token")
			return NewUnauthorizedError(c, "Invalid webhook token")
		}
	}

	var event asaas.WebhookEvent
	if err := c.Bind(&event); err != nil {
		return NewValidationError(c, "Invalid webhook payload", nil)
	}
	if event.Payment.ID == "" {
		return NewValidationError(c, "Webhook payload has no payment", nil)
	}

	ctx := c.Request().Context()

	switch event.Event {
	case asaas.EventPaymentReceived, asaas.EventPaymentConfirmed:
		recharge, err := h.rechargeService.ConfirmPayment(ctx, event.Payment.ID)
		if err != nil {
			log.Error().Err(err).Str("payment_id", event.Payment.ID).Msg("Failed to confirm recharge payment")
			return NewInternalError(c, "Failed to process webhook")
		}
		if recharge != nil {
			log.Info().
				Str("payment_id", event.Payment.ID).
				Int64("recharge_id", recharge.ID).
				Msg("Recharge payment confirmed")
		}

		if _, err := h.splitService.FinalizeSplits(ctx, event.Payment.ID, domain.SplitStatusProcessed); err != nil {
			log.Error().Err(err).Str("payment_id", event.Payment.ID).Msg("Failed to finalize splits")
			return NewInternalError(c, "Failed to process webhook")
		}

	case asaas.EventPaymentRefunded:
		if _, err := h.splitService.FinalizeSplits(ctx, event.Payment.ID, domain.SplitStatusFailed); err != nil {
			log.Error().Err(err).Str("payment_id", event.Payment.ID).Msg("Failed to fail splits after refund")
			return NewInternalError(c, "Failed to process webhook")
		}

	case asaas.EventPaymentOverdue:
		if _, err := h.rechargeService.ExpirePayment(ctx, event.Payment.ID); err != nil {
			log.Error().Err(err).Str("payment_id", event.Payment.ID).Msg("Failed to expire recharge")
			return NewInternalError(c, "Failed to process webhook")
		}

	default:
		// Unknown events are acknowledged so the gateway stops redelivering
		log.Debug().Str("event", event.Event).Msg("Ignoring unhandled webhook event")
	}

	return c.JSON(http.StatusOK, WebhookResponse{Received: true})
}
