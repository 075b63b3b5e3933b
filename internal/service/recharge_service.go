package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/repository/storage"
	"github.com/recorra/recorra-backend/internal/websocket"
)

// qrThumbnailWidth is the width of the stored QR code thumbnail
const qrThumbnailWidth = 256

// qrURLExpiry bounds presigned access to stored QR code images
const qrURLExpiry = 15 * time.Minute

// RechargeService orchestrates prepaid wallet top-ups: it creates the
// PIX charge at the gateway, stores the QR code artifacts, and credits
// the wallet exactly once when the gateway confirms payment.
type RechargeService struct {
	rechargeRepo domain.RechargeRepository
	orgRepo      domain.OrganizationRepository
	prepaid      *PrepaidService
	gateway      PaymentGateway
	artifacts    storage.ArtifactRepository
	publisher    websocket.EventPublisher
}

// NewRechargeService creates a new RechargeService
func NewRechargeService(
	rechargeRepo domain.RechargeRepository,
	orgRepo domain.OrganizationRepository,
	prepaid *PrepaidService,
	gateway PaymentGateway,
	artifacts storage.ArtifactRepository,
	publisher websocket.EventPublisher,
) *RechargeService {
	return &RechargeService{
		rechargeRepo: rechargeRepo,
		orgRepo:      orgRepo,
		prepaid:      prepaid,
		gateway:      gateway,
		artifacts:    artifacts,
		publisher:    publisher,
	}
}

// CreateRecharge creates a pending recharge backed by a PIX charge at
// the gateway. The wallet is not credited here; credit happens only on
// payment confirmation.
func (s *RechargeService) CreateRecharge(ctx context.Context, organizationID int32, amount decimal.Decimal) (*domain.Recharge, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, org)
	if err != nil {
		return nil, err
	}

	payment, err := s.gateway.CreatePayment(ctx, asaas.PaymentRequest{
		Customer:          customerID,
		BillingType:       asaas.BillingTypePix,
		Value:             amount.InexactFloat64(),
		DueDate:           time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		Description:       fmt.Sprintf("Recarga de saldo - %s", org.Name),
		ExternalReference: uuid.New().String(),
	})
	if err != nil {
		return nil, err
	}

	recharge := &domain.Recharge{
		OrganizationID:   organizationID,
		Amount:           amount,
		GatewayPaymentID: payment.ID,
		Status:           domain.RechargeStatusPending,
	}
	if payment.InvoiceURL != "" {
		invoiceURL := payment.InvoiceURL
		recharge.InvoiceURL = &invoiceURL
	}

	// QR artifacts are a convenience on top of the invoice URL; failing
	// to fetch or store them must not fail the recharge
	if qr, err := s.gateway.GetPixQRCode(ctx, payment.ID); err != nil {
		log.Warn().Err(err).Str("payment_id", payment.ID).Msg("Could not fetch PIX QR code")
	} else {
		if qr.Payload != "" {
			payload := qr.Payload
			recharge.PixPayload = &payload
		}
		if path := s.storeQRCode(ctx, organizationID, payment.ID, qr.EncodedImage); path != "" {
			recharge.PixQRCodePath = &path
		}
	}

	recharge, err = s.rechargeRepo.Create(ctx, recharge)
	if err != nil {
		// The charge exists at the gateway but has no local row; one
		// retry before flagging it for reconciliation
		log.Warn().
			Err(err).
			Str("payment_id", payment.ID).
			Msg("Recharge persistence failed after gateway call, retrying once")
		recharge, err = s.rechargeRepo.Create(ctx, &domain.Recharge{
			OrganizationID:   organizationID,
			Amount:           amount,
			GatewayPaymentID: payment.ID,
			Status:           domain.RechargeStatusPending,
		})
		if err != nil {
			return nil, &domain.ReconciliationError{PaymentID: payment.ID, Err: err}
		}
	}

	s.publisher.Publish(organizationID, websocket.RechargeCreated(recharge))
	return recharge, nil
}

// ensureCustomer returns the organization's gateway customer id,
// registering the organization at the gateway on first use.
func (s *RechargeService) ensureCustomer(ctx context.Context, org *domain.Organization) (string, error) {
	if org.GatewayCustomerID != nil && *org.GatewayCustomerID != "" {
		return *org.GatewayCustomerID, nil
	}

	customer, err := s.gateway.CreateCustomer(ctx, asaas.CustomerRequest{
		Name:              org.Name,
		ExternalReference: fmt.Sprintf("org-%d", org.ID),
	})
	if err != nil {
		return "", err
	}

	if err := s.orgRepo.SetGatewayCustomerID(ctx, org.ID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// storeQRCode persists the base64 QR image plus a thumbnail and returns
// the object path of the full-size image, or empty on failure.
func (s *RechargeService) storeQRCode(ctx context.Context, organizationID int32, paymentID, encodedImage string) string {
	if encodedImage == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(encodedImage)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Gateway QR code image is not valid base64")
		return ""
	}

	objectPath := storage.ArtifactObjectPath(organizationID, "qrcodes", "full", ".png")
	if _, err := s.artifacts.Upload(ctx, objectPath, bytes.NewReader(raw), "image/png", int64(len(raw))); err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Could not store QR code image")
		return ""
	}

	if img, err := imaging.Decode(bytes.NewReader(raw)); err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Could not decode QR code image for thumbnail")
	} else {
		thumb := imaging.Resize(img, qrThumbnailWidth, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, thumb, imaging.PNG); err == nil {
			thumbPath := storage.ArtifactObjectPath(organizationID, "qrcodes", "thumb", ".png")
			if _, err := s.artifacts.Upload(ctx, thumbPath, &buf, "image/png", int64(buf.Len())); err != nil {
				log.Warn().Err(err).Str("payment_id", paymentID).Msg("Could not store QR code thumbnail")
			}
		}
	}

	return objectPath
}

// ConfirmPayment credits the wallet for the recharge matching a
// confirmed gateway payment.
//
// The recharge is claimed before any money moves: the pending-guarded
// transition to paid admits exactly one winner, so concurrent or
// redelivered confirmations of the same payment credit at most once.
// Losers find nothing to claim and return (nil, nil).
func (s *RechargeService) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	recharge, err := s.rechargeRepo.ClaimPendingByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	description := fmt.Sprintf("Recarga PIX confirmada (%s)", gatewayPaymentID)
	entry, err := s.prepaid.AddFunds(ctx, recharge.OrganizationID, recharge.Amount, description, &recharge.ID)
	if err != nil {
		// The claim already moved the recharge to paid, so a failed
		// credit here means money is owed; one retry before flagging it
		// for reconciliation
		log.Warn().
			Err(err).
			Str("payment_id", gatewayPaymentID).
			Msg("Wallet credit failed after claiming recharge, retrying once")
		entry, err = s.prepaid.AddFunds(ctx, recharge.OrganizationID, recharge.Amount, description, &recharge.ID)
		if err != nil {
			return nil, &domain.ReconciliationError{PaymentID: gatewayPaymentID, Err: err}
		}
	}

	if err := s.rechargeRepo.SetLedgerEntry(ctx, recharge.ID, entry.ID); err != nil {
		log.Warn().Err(err).Int64("recharge_id", recharge.ID).Msg("Could not link ledger entry to recharge")
	} else {
		recharge.LedgerEntryID = &entry.ID
	}

	s.publisher.Publish(recharge.OrganizationID, websocket.RechargePaid(recharge))
	return recharge, nil
}

// ExpirePayment marks the pending recharge of an overdue gateway payment
// as expired. Unknown or already finalized payments are a no-op.
func (s *RechargeService) ExpirePayment(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	recharge, err := s.rechargeRepo.GetPendingByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	recharge, err = s.rechargeRepo.MarkStatus(ctx, recharge.ID, domain.RechargeStatusExpired)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.publisher.Publish(recharge.OrganizationID, websocket.RechargeExpired(recharge))
	return recharge, nil
}

// Cancel cancels a pending recharge on behalf of its organization.
func (s *RechargeService) Cancel(ctx context.Context, id int64, organizationID int32) (*domain.Recharge, error) {
	recharge, err := s.rechargeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recharge.OrganizationID != organizationID {
		return nil, domain.ErrRechargeNotFound
	}
	if recharge.Status != domain.RechargeStatusPending {
		return nil, domain.ErrRechargeNotPending
	}

	recharge, err = s.rechargeRepo.MarkStatus(ctx, id, domain.RechargeStatusCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrRechargeNotFound) {
			return nil, domain.ErrRechargeNotPending
		}
		return nil, err
	}

	s.publisher.Publish(organizationID, websocket.RechargeCancelled(recharge))
	return recharge, nil
}

// GetRecharge returns a recharge scoped to its organization.
func (s *RechargeService) GetRecharge(ctx context.Context, id int64, organizationID int32) (*domain.Recharge, error) {
	recharge, err := s.rechargeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recharge.OrganizationID != organizationID {
		return nil, domain.ErrRechargeNotFound
	}
	return recharge, nil
}

// ListRecharges returns an organization's recharges, newest first.
func (s *RechargeService) ListRecharges(ctx context.Context, organizationID int32) ([]*domain.Recharge, error) {
	return s.rechargeRepo.ListByOrganization(ctx, organizationID)
}

// GetQRCodeURL returns a presigned URL for a recharge's stored QR code
// image, or empty when no image was stored.
func (s *RechargeService) GetQRCodeURL(ctx context.Context, recharge *domain.Recharge) (string, error) {
	if recharge.PixQRCodePath == nil {
		return "", nil
	}
	return s.artifacts.GeneratePresignedURL(ctx, *recharge.PixQRCodePath, qrURLExpiry)
}
