package service

import (
	"context"
	"errors"
	"testing"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestWalletResolver_UsesParentOrganizationWallet(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	parent := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Associacao Central",
		Type:     domain.OrganizationTypePartner,
		WalletID: strPtr("wallet-parent"),
		Active:   true,
	})
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Silva",
		Type:     domain.OrganizationTypeDispatcher,
		ParentID: &parent.ID,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	wallets, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if wallets.Dispatcher != "wallet-dispatcher" {
		t.Errorf("expected dispatcher wallet, got %q", wallets.Dispatcher)
	}
	if wallets.Platform != "wallet-platform" {
		t.Errorf("expected platform wallet, got %q", wallets.Platform)
	}
	if wallets.Partner == nil || *wallets.Partner != "wallet-parent" {
		t.Errorf("expected partner wallet from parent, got %v", wallets.Partner)
	}
	if wallets.PartnerOrgID == nil || *wallets.PartnerOrgID != parent.ID {
		t.Errorf("expected partner org id %d, got %v", parent.ID, wallets.PartnerOrgID)
	}
}

func TestWalletResolver_FallsBackToPartnerSearch(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	partner := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Associacao dos Despachantes",
		Type:     domain.OrganizationTypePartner,
		WalletID: strPtr("wallet-partner"),
		Active:   true,
	})
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Sem Vinculo",
		Type:     domain.OrganizationTypeDispatcher,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	wallets, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if wallets.Partner == nil || *wallets.Partner != "wallet-partner" {
		t.Errorf("expected partner wallet from search, got %v", wallets.Partner)
	}
	if wallets.PartnerOrgID == nil || *wallets.PartnerOrgID != partner.ID {
		t.Errorf("expected partner org id %d, got %v", partner.ID, wallets.PartnerOrgID)
	}
}

func TestWalletResolver_ParentWithoutWalletFallsBack(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	parent := orgRepo.AddOrganization(&domain.Organization{
		Name:   "Matriz Sem Carteira",
		Type:   domain.OrganizationTypePartner,
		Active: true,
	})
	orgRepo.AddOrganization(&domain.Organization{
		Name:     "Associacao Regional",
		Type:     domain.OrganizationTypePartner,
		WalletID: strPtr("wallet-partner"),
		Active:   true,
	})
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Filial",
		Type:     domain.OrganizationTypeDispatcher,
		ParentID: &parent.ID,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	wallets, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if wallets.Partner == nil || *wallets.Partner != "wallet-partner" {
		t.Errorf("expected fallback partner wallet, got %v", wallets.Partner)
	}
}

func TestWalletResolver_EmptyCandidateWalletLeavesNil(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	orgRepo.AddOrganization(&domain.Organization{
		Name:     "Associacao Sem Carteira",
		Type:     domain.OrganizationTypePartner,
		WalletID: strPtr(""),
		Active:   true,
	})
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Silva",
		Type:     domain.OrganizationTypeDispatcher,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	wallets, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// An empty wallet id must never be sent to the gateway
	if wallets.Partner != nil {
		t.Errorf("expected nil partner wallet, got %q", *wallets.Partner)
	}
}

func TestWalletResolver_NoPartnerLeavesNil(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:     "Despachante Isolado",
		Type:     domain.OrganizationTypeDispatcher,
		WalletID: strPtr("wallet-dispatcher"),
		Active:   true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	wallets, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if wallets.Partner != nil {
		t.Errorf("expected nil partner wallet, got %q", *wallets.Partner)
	}
}

func TestWalletResolver_DispatcherWithoutWalletFails(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()
	dispatcher := orgRepo.AddOrganization(&domain.Organization{
		Name:   "Despachante Sem Carteira",
		Type:   domain.OrganizationTypeDispatcher,
		Active: true,
	})

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	_, err := resolver.Resolve(context.Background(), dispatcher.ID)
	if !errors.Is(err, domain.ErrDispatcherWalletNotConfigured) {
		t.Fatalf("expected ErrDispatcherWalletNotConfigured, got %v", err)
	}
}

func TestWalletResolver_UnknownOrganization(t *testing.T) {
	orgRepo := testutil.NewMockOrganizationRepository()

	resolver := NewWalletResolverService(orgRepo, "wallet-platform")
	_, err := resolver.Resolve(context.Background(), 999)
	if !errors.Is(err, domain.ErrOrganizationNotFound) {
		t.Fatalf("expected ErrOrganizationNotFound, got %v", err)
	}
}
