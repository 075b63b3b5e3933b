package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/recorra/recorra-backend/internal/domain"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockOrganizationRepository is a mock implementation of domain.OrganizationRepository
type MockOrganizationRepository struct {
	Organizations map[int32]*domain.Organization
	nextID        int32
	mu            sync.Mutex
}

// NewMockOrganizationRepository creates a new MockOrganizationRepository
func NewMockOrganizationRepository() *MockOrganizationRepository {
	return &MockOrganizationRepository{
		Organizations: make(map[int32]*domain.Organization),
		nextID:        1,
	}
}

// AddOrganization inserts an organization and assigns it an ID
func (m *MockOrganizationRepository) AddOrganization(org *domain.Organization) *domain.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	if org.ID == 0 {
		org.ID = m.nextID
		m.nextID++
	} else if org.ID >= m.nextID {
		m.nextID = org.ID + 1
	}
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	m.Organizations[org.ID] = org
	return org
}

// GetByID retrieves an organization by ID
func (m *MockOrganizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if org, ok := m.Organizations[id]; ok {
		return org, nil
	}
	return nil, domain.ErrOrganizationNotFound
}

// GetByAuth0ID retrieves an active organization by Auth0 ID
func (m *MockOrganizationRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.Organizations {
		if org.Auth0ID != nil && *org.Auth0ID == auth0ID && org.Active {
			return org, nil
		}
	}
	return nil, domain.ErrOrganizationNotFound
}

// FindPartnerCandidate returns the first active partner organization with
// a non-empty wallet
func (m *MockOrganizationRepository) FindPartnerCandidate(ctx context.Context) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidate *domain.Organization
	for _, org := range m.Organizations {
		if !org.Active || org.WalletID == nil || *org.WalletID == "" {
			continue
		}
		if org.Type != domain.OrganizationTypePartner && !strings.Contains(strings.ToLower(org.Name), "associa") {
			continue
		}
		if candidate == nil || org.ID < candidate.ID {
			candidate = org
		}
	}
	if candidate == nil {
		return nil, domain.ErrOrganizationNotFound
	}
	return candidate, nil
}

// SetGatewayCustomerID stores the gateway customer mapping for an organization
func (m *MockOrganizationRepository) SetGatewayCustomerID(ctx context.Context, id int32, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.Organizations[id]
	if !ok {
		return domain.ErrOrganizationNotFound
	}
	org.GatewayCustomerID = &customerID
	org.UpdatedAt = time.Now()
	return nil
}

// MockSeverityTierRepository is a mock implementation of domain.SeverityTierRepository
type MockSeverityTierRepository struct {
	Tiers map[domain.Severity]*domain.SeverityTier
}

// NewMockSeverityTierRepository creates a new MockSeverityTierRepository
func NewMockSeverityTierRepository() *MockSeverityTierRepository {
	return &MockSeverityTierRepository{
		Tiers: make(map[domain.Severity]*domain.SeverityTier),
	}
}

// AddTier inserts a severity tier
func (m *MockSeverityTierRepository) AddTier(tier *domain.SeverityTier) *domain.SeverityTier {
	m.Tiers[tier.Severity] = tier
	return tier
}

// GetBySeverity retrieves the tier for a severity
func (m *MockSeverityTierRepository) GetBySeverity(ctx context.Context, severity domain.Severity) (*domain.SeverityTier, error) {
	if tier, ok := m.Tiers[severity]; ok {
		return tier, nil
	}
	return nil, domain.ErrTierNotFound
}

// GetAll retrieves all tiers
func (m *MockSeverityTierRepository) GetAll(ctx context.Context) ([]*domain.SeverityTier, error) {
	tiers := make([]*domain.SeverityTier, 0, len(m.Tiers))
	for _, tier := range m.Tiers {
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// MockSplitRepository is a mock implementation of domain.SplitRepository.
// Set FailNextCreates to make the next N CreateBatch calls fail, which
// exercises the persist-retry path after a successful gateway call.
type MockSplitRepository struct {
	Splits          []*domain.Split
	FailNextCreates int
	CreateCalls     int
	nextID          int64
	mu              sync.Mutex
}

// NewMockSplitRepository creates a new MockSplitRepository
func NewMockSplitRepository() *MockSplitRepository {
	return &MockSplitRepository{nextID: 1}
}

// CreateBatch persists all rows of one payment atomically
func (m *MockSplitRepository) CreateBatch(ctx context.Context, splits []*domain.Split) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailNextCreates > 0 {
		m.FailNextCreates--
		return fmt.Errorf("simulated split persistence failure")
	}
	now := time.Now()
	for _, split := range splits {
		split.ID = m.nextID
		m.nextID++
		split.CreatedAt = now
		split.UpdatedAt = now
		m.Splits = append(m.Splits, split)
	}
	return nil
}

// GetByPaymentID retrieves all splits of a payment
func (m *MockSplitRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*domain.Split, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Split
	for _, split := range m.Splits {
		if split.PaymentID == paymentID {
			result = append(result, split)
		}
	}
	return result, nil
}

// FinalizeByPaymentID flips all pending rows of a payment to status
func (m *MockSplitRepository) FinalizeByPaymentID(ctx context.Context, paymentID string, status domain.SplitStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	now := time.Now()
	for _, split := range m.Splits {
		if split.PaymentID == paymentID && split.Status == domain.SplitStatusPending {
			split.Status = status
			split.UpdatedAt = now
			updated++
		}
	}
	return updated, nil
}

// MockLedgerRepository is a mock implementation of domain.LedgerRepository.
// Appends are serialized by a mutex, mirroring the per-organization
// critical section of the PostgreSQL implementation.
type MockLedgerRepository struct {
	Entries []*domain.LedgerEntry
	nextID  int64
	mu      sync.Mutex
}

// NewMockLedgerRepository creates a new MockLedgerRepository
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{nextID: 1}
}

// Append writes an entry with its running balance, rejecting overdrafts
func (m *MockLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.balanceLocked(entry.OrganizationID)
	switch entry.Type {
	case domain.LedgerEntryCredit:
		entry.Balance = current.Add(entry.Amount)
	case domain.LedgerEntryDebit:
		if current.LessThan(entry.Amount) {
			return nil, domain.ErrInsufficientFunds
		}
		entry.Balance = current.Sub(entry.Amount)
	default:
		return nil, fmt.Errorf("unknown ledger entry type %q", entry.Type)
	}

	entry.ID = m.nextID
	m.nextID++
	entry.CreatedAt = time.Now()
	m.Entries = append(m.Entries, entry)
	return entry, nil
}

// GetBalance returns the balance of the most recent entry, or zero
func (m *MockLedgerRepository) GetBalance(ctx context.Context, organizationID int32) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(organizationID), nil
}

func (m *MockLedgerRepository) balanceLocked(organizationID int32) decimal.Decimal {
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].OrganizationID == organizationID {
			return m.Entries[i].Balance
		}
	}
	return decimal.Zero
}

// ListByOrganization retrieves entries for an organization, newest first
func (m *MockLedgerRepository) ListByOrganization(ctx context.Context, organizationID int32, filter *domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.LedgerEntry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		entry := m.Entries[i]
		if entry.OrganizationID != organizationID {
			continue
		}
		if filter != nil {
			if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !entry.CreatedAt.Before(*filter.To) {
				continue
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

// MockRechargeRepository is a mock implementation of domain.RechargeRepository
type MockRechargeRepository struct {
	Recharges map[int64]*domain.Recharge
	nextID    int64
	mu        sync.Mutex
}

// NewMockRechargeRepository creates a new MockRechargeRepository
func NewMockRechargeRepository() *MockRechargeRepository {
	return &MockRechargeRepository{
		Recharges: make(map[int64]*domain.Recharge),
		nextID:    1,
	}
}

// Create persists a new pending recharge
func (m *MockRechargeRepository) Create(ctx context.Context, recharge *domain.Recharge) (*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recharge.ID = m.nextID
	m.nextID++
	recharge.CreatedAt = time.Now()
	recharge.UpdatedAt = recharge.CreatedAt
	m.Recharges[recharge.ID] = recharge
	return recharge, nil
}

// GetByID retrieves a recharge by ID
func (m *MockRechargeRepository) GetByID(ctx context.Context, id int64) (*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recharge, ok := m.Recharges[id]; ok {
		return recharge, nil
	}
	return nil, domain.ErrRechargeNotFound
}

// GetPendingByGatewayPaymentID retrieves the pending recharge for a gateway payment
func (m *MockRechargeRepository) GetPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recharge := range m.Recharges {
		if recharge.GatewayPaymentID == gatewayPaymentID && recharge.Status == domain.RechargeStatusPending {
			return recharge, nil
		}
	}
	return nil, domain.ErrRechargeNotFound
}

// ClaimPendingByGatewayPaymentID atomically claims the pending recharge
// of a gateway payment by flipping it to paid under the mutex
func (m *MockRechargeRepository) ClaimPendingByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recharge := range m.Recharges {
		if recharge.GatewayPaymentID == gatewayPaymentID && recharge.Status == domain.RechargeStatusPending {
			recharge.Status = domain.RechargeStatusPaid
			recharge.UpdatedAt = time.Now()
			return recharge, nil
		}
	}
	return nil, domain.ErrRechargeNotFound
}

// SetLedgerEntry links the credit entry to a recharge
func (m *MockRechargeRepository) SetLedgerEntry(ctx context.Context, id int64, ledgerEntryID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recharge, ok := m.Recharges[id]
	if !ok {
		return domain.ErrRechargeNotFound
	}
	recharge.LedgerEntryID = &ledgerEntryID
	recharge.UpdatedAt = time.Now()
	return nil
}

// MarkStatus moves a pending recharge into cancelled or expired
func (m *MockRechargeRepository) MarkStatus(ctx context.Context, id int64, status domain.RechargeStatus) (*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recharge, ok := m.Recharges[id]
	if !ok || recharge.Status != domain.RechargeStatusPending {
		return nil, domain.ErrRechargeNotFound
	}
	recharge.Status = status
	recharge.UpdatedAt = time.Now()
	return recharge, nil
}

// ListByOrganization retrieves an organization's recharges, newest first
func (m *MockRechargeRepository) ListByOrganization(ctx context.Context, organizationID int32) ([]*domain.Recharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Recharge
	for id := m.nextID - 1; id >= 1; id-- {
		if recharge, ok := m.Recharges[id]; ok && recharge.OrganizationID == organizationID {
			result = append(result, recharge)
		}
	}
	return result, nil
}

// MockGateway is a mock payment gateway. Each operation delegates to an
// optional function hook; without a hook a plausible default response is
// returned and the request recorded.
type MockGateway struct {
	CreateCustomerFn func(ctx context.Context, req asaas.CustomerRequest) (*asaas.Customer, error)
	CreatePaymentFn  func(ctx context.Context, req asaas.PaymentRequest) (*asaas.Payment, error)
	GetPaymentFn     func(ctx context.Context, id string) (*asaas.Payment, error)
	ListPaymentsFn   func(ctx context.Context, opts asaas.PaymentListOptions) (*asaas.PaymentList, error)
	GetPixQRCodeFn   func(ctx context.Context, paymentID string) (*asaas.PixQRCode, error)

	CustomerRequests []asaas.CustomerRequest
	PaymentRequests  []asaas.PaymentRequest
	mu               sync.Mutex
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateCustomer registers a customer
func (m *MockGateway) CreateCustomer(ctx context.Context, req asaas.CustomerRequest) (*asaas.Customer, error) {
	m.mu.Lock()
	m.CustomerRequests = append(m.CustomerRequests, req)
	n := len(m.CustomerRequests)
	m.mu.Unlock()

	if m.CreateCustomerFn != nil {
		return m.CreateCustomerFn(ctx, req)
	}
	return &asaas.Customer{
		ID:   fmt.Sprintf("cus_%06d", n),
		Name: req.Name,
	}, nil
}

// CreatePayment creates a charge
func (m *MockGateway) CreatePayment(ctx context.Context, req asaas.PaymentRequest) (*asaas.Payment, error) {
	m.mu.Lock()
	m.PaymentRequests = append(m.PaymentRequests, req)
	n := len(m.PaymentRequests)
	m.mu.Unlock()

	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, req)
	}
	return &asaas.Payment{
		ID:                fmt.Sprintf("pay_%06d", n),
		Customer:          req.Customer,
		Value:             req.Value,
		BillingType:       req.BillingType,
		Status:            asaas.PaymentStatusPending,
		DueDate:           req.DueDate,
		ExternalReference: req.ExternalReference,
		InvoiceURL:        fmt.Sprintf("https://sandbox.asaas.com/i/%06d", n),
	}, nil
}

// GetPayment returns the recorded charge matching id, or a minimal
// pending payment when the id was never created through this mock
func (m *MockGateway) GetPayment(ctx context.Context, id string) (*asaas.Payment, error) {
	if m.GetPaymentFn != nil {
		return m.GetPaymentFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, req := range m.PaymentRequests {
		paymentID := fmt.Sprintf("pay_%06d", i+1)
		if paymentID == id {
			return &asaas.Payment{
				ID:                paymentID,
				Customer:          req.Customer,
				Value:             req.Value,
				BillingType:       req.BillingType,
				Status:            asaas.PaymentStatusPending,
				DueDate:           req.DueDate,
				ExternalReference: req.ExternalReference,
			}, nil
		}
	}
	return nil, &asaas.APIError{StatusCode: 404}
}

// ListPayments returns every charge created through this mock
func (m *MockGateway) ListPayments(ctx context.Context, opts asaas.PaymentListOptions) (*asaas.PaymentList, error) {
	if m.ListPaymentsFn != nil {
		return m.ListPaymentsFn(ctx, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	list := &asaas.PaymentList{TotalCount: len(m.PaymentRequests), Limit: opts.Limit}
	for i, req := range m.PaymentRequests {
		list.Data = append(list.Data, asaas.Payment{
			ID:                fmt.Sprintf("pay_%06d", i+1),
			Customer:          req.Customer,
			Value:             req.Value,
			Status:            asaas.PaymentStatusPending,
			ExternalReference: req.ExternalReference,
		})
	}
	return list, nil
}

// GetPixQRCode fetches the PIX artifacts of a charge
func (m *MockGateway) GetPixQRCode(ctx context.Context, paymentID string) (*asaas.PixQRCode, error) {
	if m.GetPixQRCodeFn != nil {
		return m.GetPixQRCodeFn(ctx, paymentID)
	}
	return &asaas.PixQRCode{
		Success:      true,
		EncodedImage: TinyPNGBase64,
		Payload:      "00020101021226890014br.gov.bcb.pix" + paymentID,
	}, nil
}

// MockArtifactRepository is an in-memory mock of storage.ArtifactRepository
type MockArtifactRepository struct {
	Objects map[string][]byte
	mu      sync.Mutex
}

// NewMockArtifactRepository creates a new MockArtifactRepository
func NewMockArtifactRepository() *MockArtifactRepository {
	return &MockArtifactRepository{Objects: make(map[string][]byte)}
}

// Upload stores the object in memory
func (m *MockArtifactRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes the object
func (m *MockArtifactRepository) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockArtifactRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath, nil
}

// RecordingPublisher records published WebSocket events per organization
type RecordingPublisher struct {
	Events map[int32][]websocket.Event
	mu     sync.Mutex
}

// NewRecordingPublisher creates a new RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{Events: make(map[int32][]websocket.Event)}
}

// Publish records the event
func (p *RecordingPublisher) Publish(organizationID int32, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events[organizationID] = append(p.Events[organizationID], event)
}

// EventTypes returns the recorded event type strings for an organization
func (p *RecordingPublisher) EventTypes(organizationID int32) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events[organizationID]))
	for _, event := range p.Events[organizationID] {
		types = append(types, event.Type)
	}
	return types
}
