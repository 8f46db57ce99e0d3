package screening

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

//go:embed country_risk.yaml
var countryRiskYAML []byte

// Country-risk thresholds. A country is high risk when its score is at
// or above HighRiskScore; the feature extractor counts exposure from
// score ExposureRiskScore up.
const (
	HighRiskScore     = 8
	ExposureRiskScore = 7
)

// CountryRisk is the looked-up risk for one country code. Known is
// false for codes absent from the table so callers can tell "known
// medium risk" from "unrecognized code".
type CountryRisk struct {
	Country string           `json:"country"`
	Score   int              `json:"risk_score"`
	Level   models.RiskLevel `json:"risk_level"`
	Known   bool             `json:"known"`
}

type countryEntry struct {
	Score int              `yaml:"score"`
	Level models.RiskLevel `yaml:"level"`
}

type countryFile struct {
	Countries map[string]countryEntry `yaml:"countries"`
}

// CountryTable is the embedded static country-risk lookup.
type CountryTable struct {
	entries map[string]countryEntry
	logger  *zap.SugaredLogger
}

// NewCountryTable parses the embedded risk table.
func NewCountryTable(logger *zap.SugaredLogger) (*CountryTable, error) {
	var file countryFile
	if err := yaml.Unmarshal(countryRiskYAML, &file); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err, "parse embedded country risk table")
	}
	return &CountryTable{entries: file.Countries, logger: logger}, nil
}

// Lookup returns the risk for an ISO alpha-2 code. Unknown codes
// default to (score 5, medium) with Known=false and a warning log; an
// unrecognized code is a data-quality signal, not an error.
func (t *CountryTable) Lookup(code string) CountryRisk {
	code = strings.ToUpper(strings.TrimSpace(code))
	entry, ok := t.entries[code]
	if !ok {
		t.logger.Warnw("unknown country code, defaulting to medium risk", "country", code)
		return CountryRisk{Country: code, Score: 5, Level: models.RiskLevelMedium, Known: false}
	}
	return CountryRisk{Country: code, Score: entry.Score, Level: entry.Level, Known: true}
}

// IsHighRisk reports whether the country scores at or above the
// high-risk threshold.
func (t *CountryTable) IsHighRisk(code string) bool {
	return t.Lookup(code).Score >= HighRiskScore
}
