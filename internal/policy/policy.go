// Package policy fuses the classifier probability and the screening
// outcome into the final category, credit limit and recommendation.
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridianfin/tradegate/pkg/models"
)

// Probability thresholds. The bands are fixed and non-overlapping:
// [0, LowMax) is low, [LowMax, HighMin) is medium, [HighMin, 1] high.
const (
	LowMax  = 0.30
	HighMin = 0.70
)

// Credit limits per category, in USD.
var (
	limitLow    = decimal.NewFromInt(2_000_000)
	limitMedium = decimal.NewFromInt(500_000)
	limitHigh   = decimal.NewFromInt(100_000)
)

// Decision is the policy verdict for one probability.
type Decision struct {
	Category       models.RiskLevel
	CreditLimitUSD decimal.Decimal
	Recommendation models.Recommendation
}

// Decide maps a high-risk probability to its band.
func Decide(probability float64) Decision {
	switch {
	case probability < LowMax:
		return Decision{
			Category:       models.RiskLevelLow,
			CreditLimitUSD: limitLow,
			Recommendation: models.RecommendationApprove,
		}
	case probability < HighMin:
		return Decision{
			Category:       models.RiskLevelMedium,
			CreditLimitUSD: limitMedium,
			Recommendation: models.RecommendationApproveConditions,
		}
	default:
		return Decision{
			Category:       models.RiskLevelHigh,
			CreditLimitUSD: limitHigh,
			Recommendation: models.RecommendationCollateral,
		}
	}
}

// Final applies the sanctions veto: a screener BLOCK overrides whatever
// the classifier said. Sanctions hits are absolute, never probabilistic.
func Final(scoring models.Recommendation, screening models.Recommendation) models.Recommendation {
	if screening == models.RecommendationBlock {
		return models.RecommendationBlock
	}
	return scoring
}

// RiskFactors names the feature readings that contributed to the risk
// picture, for audit trails and analyst review.
func RiskFactors(v models.RiskFeatureVector) []string {
	var factors []string

	if v.DiscrepancyRate > 0.3 {
		factors = append(factors, fmt.Sprintf("high document discrepancy rate (%.0f%%)", v.DiscrepancyRate*100))
	}
	if v.LateShipmentRate > 0.4 {
		factors = append(factors, fmt.Sprintf("frequent late shipments (%.0f%%)", v.LateShipmentRate*100))
	}
	if v.PaymentDelayAvg > 15 {
		factors = append(factors, fmt.Sprintf("average payment delay of %.0f days", v.PaymentDelayAvg))
	}
	if v.SanctionsExposure > 0 {
		factors = append(factors, fmt.Sprintf("sanctions exposure (%.0f%% of counterparties)", v.SanctionsExposure*100))
	}
	if v.FraudFlags > 2 {
		factors = append(factors, fmt.Sprintf("%.0f fraud flags detected", v.FraudFlags))
	}
	if v.HighRiskCountryExposure > 0.5 {
		factors = append(factors, fmt.Sprintf("high-risk country exposure (%.0f%%)", v.HighRiskCountryExposure*100))
	}
	if v.DocCompleteness < 0.7 {
		factors = append(factors, fmt.Sprintf("low document completeness (%.0f%%)", v.DocCompleteness*100))
	}
	if v.AmendmentRate > 0.4 {
		factors = append(factors, fmt.Sprintf("high amendment rate (%.0f%%)", v.AmendmentRate*100))
	}
	if v.TransactionCount > 10 && v.CounterpartyDiversity < 0.3 {
		factors = append(factors, "low counterparty diversity at high volume")
	}
	if v.TransactionCount == 0 {
		factors = append(factors, "no transaction history in lookback window")
	}

	if len(factors) == 0 {
		factors = append(factors, "no significant risk factors detected")
	}
	return factors
}
