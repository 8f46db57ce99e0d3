// Package models defines the shared domain types for counterparty
// screening and credit-risk scoring.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType classifies a trade-finance counterparty.
type EntityType string

const (
	EntityTypeBuyer  EntityType = "Buyer"
	EntityTypeSeller EntityType = "Seller"
	EntityTypeBank   EntityType = "Bank"
)

// Valid reports whether t is one of the known counterparty types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeBuyer, EntityTypeSeller, EntityTypeBank:
		return true
	}
	return false
}

// Counterparty returns the opposite side of a trade instrument. Banks
// have no single counterparty type.
func (t EntityType) Counterparty() (EntityType, bool) {
	switch t {
	case EntityTypeBuyer:
		return EntityTypeSeller, true
	case EntityTypeSeller:
		return EntityTypeBuyer, true
	}
	return "", false
}

// Entity is an identity under evaluation. Identity is owned by the
// relationship store; the engine only references entities by name.
type Entity struct {
	Name    string     `json:"name" validate:"required"`
	Country string     `json:"country" validate:"required,len=2"`
	Type    EntityType `json:"type" validate:"required"`
}

// Recommendation is a terminal screening or scoring outcome.
type Recommendation string

const (
	RecommendationApprove           Recommendation = "APPROVE"
	RecommendationReview            Recommendation = "REVIEW"
	RecommendationBlock             Recommendation = "BLOCK"
	RecommendationApproveConditions Recommendation = "APPROVE_WITH_CONDITIONS"
	RecommendationCollateral        Recommendation = "REQUIRE_COLLATERAL"
	RecommendationError             Recommendation = "ERROR"
)

// RiskLevel buckets a numeric risk signal.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// MatchType identifies how a sanctions hit was found.
type MatchType string

const (
	MatchTypeNone  MatchType = "none"
	MatchTypeExact MatchType = "exact"
	MatchTypeFuzzy MatchType = "fuzzy"
)

// SanctionRecord is one entry of the restricted-party reference feed.
// Records are immutable once loaded; the engine never mutates them.
type SanctionRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	ListType string   `json:"list_type"`
	Program  string   `json:"program,omitempty"`
	Country  string   `json:"country,omitempty"`
}

// ScreeningResult is the outcome of screening a single entity. Results
// are produced fresh on every call; any caching is a caller concern.
type ScreeningResult struct {
	EntityName    string     `json:"entity_name"`
	EntityCountry string     `json:"entity_country"`
	EntityType    EntityType `json:"entity_type"`

	SanctionsMatch bool      `json:"sanctions_match"`
	MatchType      MatchType `json:"match_type"`
	MatchedEntity  string    `json:"matched_entity,omitempty"`
	MatchScore     float64   `json:"match_score"`
	SanctionsList  string    `json:"sanctions_list,omitempty"`
	Program        string    `json:"program,omitempty"`

	NetworkExposure bool `json:"network_exposure"`

	CountryRiskLevel RiskLevel `json:"country_risk_level"`
	CountryRiskScore int       `json:"country_risk_score"`
	CountryKnown     bool      `json:"country_known"`

	Recommendation  Recommendation `json:"recommendation"`
	ScreeningTimeMs int64          `json:"screening_time_ms"`
}

// NumFeatures is the dimensionality of the classifier contract.
const NumFeatures = 12

// FeatureNames lists the classifier features in contract order. The
// order is part of the model artifact contract and must never change
// without retraining.
func FeatureNames() [NumFeatures]string {
	return [NumFeatures]string{
		"transaction_count",
		"total_exposure",
		"avg_lc_amount",
		"discrepancy_rate",
		"late_shipment_rate",
		"payment_delay_avg",
		"counterparty_diversity",
		"high_risk_country_exposure",
		"sanctions_exposure",
		"doc_completeness",
		"amendment_rate",
		"fraud_flags",
	}
}

// RiskFeatureVector is the fixed-schema behavioral profile of an entity
// over a lookback window. Rates are bounded to [0,1]; counts and
// monetary totals are non-negative. Vectors are recomputed per request,
// never persisted.
type RiskFeatureVector struct {
	TransactionCount        float64 `json:"transaction_count"`
	TotalExposure           float64 `json:"total_exposure"`
	AvgLCAmount             float64 `json:"avg_lc_amount"`
	DiscrepancyRate         float64 `json:"discrepancy_rate"`
	LateShipmentRate        float64 `json:"late_shipment_rate"`
	PaymentDelayAvg         float64 `json:"payment_delay_avg"`
	CounterpartyDiversity   float64 `json:"counterparty_diversity"`
	HighRiskCountryExposure float64 `json:"high_risk_country_exposure"`
	SanctionsExposure       float64 `json:"sanctions_exposure"`
	DocCompleteness         float64 `json:"doc_completeness"`
	AmendmentRate           float64 `json:"amendment_rate"`
	FraudFlags              float64 `json:"fraud_flags"`
}

// Values returns the vector in contract order, matching FeatureNames.
func (v RiskFeatureVector) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{
		v.TransactionCount,
		v.TotalExposure,
		v.AvgLCAmount,
		v.DiscrepancyRate,
		v.LateShipmentRate,
		v.PaymentDelayAvg,
		v.CounterpartyDiversity,
		v.HighRiskCountryExposure,
		v.SanctionsExposure,
		v.DocCompleteness,
		v.AmendmentRate,
		v.FraudFlags,
	}
}

// RiskScore is the credit-risk verdict for an entity. The feature
// vector it was computed from is carried for auditability.
type RiskScore struct {
	EntityName     string            `json:"entity_name"`
	EntityType     EntityType        `json:"entity_type"`
	Probability    float64           `json:"probability"`
	Category       RiskLevel         `json:"category"`
	CreditLimitUSD decimal.Decimal   `json:"credit_limit_usd"`
	Recommendation Recommendation    `json:"recommendation"`
	RiskFactors    []string          `json:"risk_factors,omitempty"`
	Features       RiskFeatureVector `json:"features"`
	LookbackDays   int               `json:"lookback_days"`
	ScoredAt       time.Time         `json:"scored_at"`
}
