package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/recorra/recorra-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, billingHandler *BillingHandler, walletHandler *WalletHandler, rechargeHandler *RechargeHandler, webhookHandler *WebhookHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Billing routes (protected)
	billing := api.Group("/billing")
	billing.Use(authMiddleware.Authenticate())
	billing.Use(middleware.RateLimitMiddleware(rateLimiter))
	billing.GET("/tiers", billingHandler.GetTiers)
	billing.POST("/split-preview", billingHandler.PreviewSplit)
	billing.POST("/payments", billingHandler.CreatePayment)
	billing.GET("/payments", billingHandler.ListPayments)
	billing.GET("/payments/:paymentId", billingHandler.GetPayment)
	billing.GET("/payments/:paymentId/splits", billingHandler.GetPaymentSplits)

	// Wallet routes (protected)
	wallet := api.Group("/wallet")
	wallet.Use(authMiddleware.Authenticate())
	wallet.Use(middleware.RateLimitMiddleware(rateLimiter))
	wallet.GET("/balance", walletHandler.GetBalance)
	wallet.GET("/statement", walletHandler.GetStatement)
	wallet.POST("/funds", walletHandler.AddFunds)
	wallet.POST("/debits", walletHandler.Debit)

	// Recharge routes (protected)
	recharges := api.Group("/recharges")
	recharges.Use(authMiddleware.Authenticate())
	recharges.Use(middleware.RateLimitMiddleware(rateLimiter))
	recharges.POST("", rechargeHandler.CreateRecharge)
	recharges.GET("", rechargeHandler.GetRecharges)
	recharges.GET("/:id", rechargeHandler.GetRecharge)
	recharges.POST("/:id/cancel", rechargeHandler.CancelRecharge)

	// Webhook routes (token-authenticated by the handler itself)
	webhooks := api.Group("/webhooks")
	webhooks.POST("/asaas", webhookHandler.HandleAsaasWebhook)

	// WebSocket endpoint (token passed as query parameter)
	e.GET("/ws", wsHandler.HandleWS)

	// OpenAPI spec
	e.GET("/openapi.json", ServeOpenAPI3Spec)
}
