package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/recorra/recorra-backend/internal/domain"
)

// WalletResolverService resolves the payout wallet of every beneficiary
// of a checkout from the organization hierarchy.
//
// The dispatcher's own wallet is mandatory. The partner wallet comes from
// the dispatcher's parent organization when that link exists; otherwise a
// partner candidate is searched among active organizations. A missing
// partner wallet is reported as nil, never replaced by a default.
type WalletResolverService struct {
	orgRepo          domain.OrganizationRepository
	platformWalletID string
}

// NewWalletResolverService creates a new WalletResolverService. The
// platform wallet is process-wide configuration, not hierarchy data.
func NewWalletResolverService(orgRepo domain.OrganizationRepository, platformWalletID string) *WalletResolverService {
	return &WalletResolverService{
		orgRepo:          orgRepo,
		platformWalletID: platformWalletID,
	}
}

// Resolve returns the wallet set for a checkout initiated by the given
// dispatcher organization.
func (s *WalletResolverService) Resolve(ctx context.Context, dispatcherOrgID int32) (*domain.WalletSet, error) {
	org, err := s.orgRepo.GetByID(ctx, dispatcherOrgID)
	if err != nil {
		return nil, err
	}

	if org.WalletID == nil || *org.WalletID == "" {
		return nil, domain.ErrDispatcherWalletNotConfigured
	}

	wallets := &domain.WalletSet{
		Dispatcher:      *org.WalletID,
		DispatcherOrgID: org.ID,
		Platform:        s.platformWalletID,
	}

	partner, err := s.resolvePartner(ctx, org)
	if err != nil {
		return nil, err
	}
	if partner != nil {
		wallets.Partner = partner.WalletID
		wallets.PartnerOrgID = &partner.ID
	}

	return wallets, nil
}

// resolvePartner prefers the dispatcher's parent organization, falling
// back to a heuristic search. Returns nil when no partner has a wallet.
func (s *WalletResolverService) resolvePartner(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	if org.ParentID != nil {
		parent, err := s.orgRepo.GetByID(ctx, *org.ParentID)
		if err != nil && !errors.Is(err, domain.ErrOrganizationNotFound) {
			return nil, err
		}
		if err == nil && parent.Active && parent.WalletID != nil && *parent.WalletID != "" {
			return parent, nil
		}
		log.Warn().
			Int32("organization_id", org.ID).
			Int32("parent_id", *org.ParentID).
			Msg("Parent organization has no usable wallet, falling back to partner search")
	}

	candidate, err := s.orgRepo.FindPartnerCandidate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if candidate.WalletID == nil || *candidate.WalletID == "" {
		return nil, nil
	}
	return candidate, nil
}
