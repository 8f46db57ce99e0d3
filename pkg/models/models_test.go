package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityTypeValid(t *testing.T) {
	assert.True(t, EntityTypeBuyer.Valid())
	assert.True(t, EntityTypeSeller.Valid())
	assert.True(t, EntityTypeBank.Valid())
	assert.False(t, EntityType("Broker").Valid())
	assert.False(t, EntityType("").Valid())
	assert.False(t, EntityType("buyer").Valid(), "types are case sensitive")
}

func TestEntityTypeCounterparty(t *testing.T) {
	cp, ok := EntityTypeBuyer.Counterparty()
	assert.True(t, ok)
	assert.Equal(t, EntityTypeSeller, cp)

	cp, ok = EntityTypeSeller.Counterparty()
	assert.True(t, ok)
	assert.Equal(t, EntityTypeBuyer, cp)

	_, ok = EntityTypeBank.Counterparty()
	assert.False(t, ok)
}

func TestFeatureContractOrder(t *testing.T) {
	names := FeatureNames()
	assert.Equal(t, NumFeatures, len(names))

	want := [NumFeatures]string{
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
	assert.Equal(t, want, names)
}

func TestRiskFeatureVectorValuesMatchContractOrder(t *testing.T) {
	v := RiskFeatureVector{
		TransactionCount:        1,
		TotalExposure:           2,
		AvgLCAmount:             3,
		DiscrepancyRate:         4,
		LateShipmentRate:        5,
		PaymentDelayAvg:         6,
		CounterpartyDiversity:   7,
		HighRiskCountryExposure: 8,
		SanctionsExposure:       9,
		DocCompleteness:         10,
		AmendmentRate:           11,
		FraudFlags:              12,
	}
	assert.Equal(t, [NumFeatures]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, v.Values())
}
