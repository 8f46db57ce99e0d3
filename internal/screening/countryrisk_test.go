package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/pkg/models"
)

func newTestCountryTable(t *testing.T) *CountryTable {
	t.Helper()
	table, err := NewCountryTable(zap.NewNop().Sugar())
	require.NoError(t, err)
	return table
}

func TestCountryTableLookup(t *testing.T) {
	table := newTestCountryTable(t)

	tests := []struct {
		code      string
		wantScore int
		wantLevel models.RiskLevel
	}{
		{"IR", 10, models.RiskLevelHigh},
		{"KP", 10, models.RiskLevelHigh},
		{"SY", 10, models.RiskLevelHigh},
		{"RU", 9, models.RiskLevelHigh},
		{"BY", 8, models.RiskLevelHigh},
		{"PK", 7, models.RiskLevelMedium},
		{"IN", 4, models.RiskLevelMedium},
		{"CN", 3, models.RiskLevelLow},
		{"US", 1, models.RiskLevelLow},
		{"HK", 1, models.RiskLevelLow},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			risk := table.Lookup(tt.code)
			assert.Equal(t, tt.wantScore, risk.Score)
			assert.Equal(t, tt.wantLevel, risk.Level)
			assert.True(t, risk.Known)
		})
	}
}

func TestCountryTableLookupUnknown(t *testing.T) {
	table := newTestCountryTable(t)

	risk := table.Lookup("ZZ")
	assert.Equal(t, 5, risk.Score)
	assert.Equal(t, models.RiskLevelMedium, risk.Level)
	assert.False(t, risk.Known)
}

func TestCountryTableLookupNormalizesCode(t *testing.T) {
	table := newTestCountryTable(t)

	risk := table.Lookup(" ir ")
	assert.Equal(t, "IR", risk.Country)
	assert.Equal(t, 10, risk.Score)
	assert.True(t, risk.Known)
}

func TestIsHighRisk(t *testing.T) {
	table := newTestCountryTable(t)

	assert.True(t, table.IsHighRisk("IR"))
	assert.True(t, table.IsHighRisk("BY"))
	assert.False(t, table.IsHighRisk("PK"), "score 7 sits below the high-risk threshold")
	assert.False(t, table.IsHighRisk("US"))
	assert.False(t, table.IsHighRisk("ZZ"), "unknown codes default below the threshold")
}
