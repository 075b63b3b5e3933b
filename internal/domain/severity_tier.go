package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Severity classifies a traffic fine and drives the fixed costs of an appeal.
type Severity string

const (
	SeverityLight       Severity = "light"
	SeverityMedium      Severity = "medium"
	SeveritySerious     Severity = "serious"
	SeverityVerySerious Severity = "very_serious"
)

// ValidSeverity reports whether s is a known severity label.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLight, SeverityMedium, SeveritySerious, SeverityVerySerious:
		return true
	}
	return false
}

// SeverityTier is static reference data mapping a severity to the fixed
// cost owed to each beneficiary plus the processing fee.
type SeverityTier struct {
	Severity      Severity        `json:"severity"`
	PlatformCost  decimal.Decimal `json:"platformCost"`
	PartnerCost   decimal.Decimal `json:"partnerCost"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
}

// MinimumTotal is the smallest payment total a tier admits.
func (t SeverityTier) MinimumTotal() decimal.Decimal {
	return t.PlatformCost.Add(t.PartnerCost).Add(t.ProcessingFee)
}

type SeverityTierRepository interface {
	GetBySeverity(ctx context.Context, severity Severity) (*SeverityTier, error)
	GetAll(ctx context.Context) ([]*SeverityTier, error)
}
