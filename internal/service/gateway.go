package service

import (
	"context"

	"github.com/recorra/recorra-backend/internal/gateway/asaas"
)

// PaymentGateway is the slice of the gateway client the billing services
// depend on. *asaas.Client satisfies it.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, req asaas.CustomerRequest) (*asaas.Customer, error)
	CreatePayment(ctx context.Context, req asaas.PaymentRequest) (*asaas.Payment, error)
	GetPayment(ctx context.Context, id string) (*asaas.Payment, error)
	ListPayments(ctx context.Context, opts asaas.PaymentListOptions) (*asaas.PaymentList, error)
	GetPixQRCode(ctx context.Context, paymentID string) (*asaas.PixQRCode, error)
}
