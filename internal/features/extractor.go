// Package features computes the fixed 12-dimensional behavioral risk
// profile of an entity from its trade instruments over a rolling
// lookback window.
package features

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/meridianfin/tradegate/internal/graph"
	"github.com/meridianfin/tradegate/internal/screening"
	"github.com/meridianfin/tradegate/pkg/metrics"
	"github.com/meridianfin/tradegate/pkg/models"
)

// DefaultLookbackDays anchors the rolling window when the caller does
// not specify one.
const DefaultLookbackDays = 90

// discrepancyTolerance is the relative invoice-vs-instrument amount
// difference beyond which an instrument counts as discrepant.
const discrepancyTolerance = 0.10

// Extractor derives feature vectors from the relationship store.
// Vectors are recomputed on every call and never cached.
type Extractor struct {
	store     graph.Store
	countries *screening.CountryTable
	logger    *zap.SugaredLogger

	// now is swappable for tests.
	now func() time.Time
}

// NewExtractor builds an extractor.
func NewExtractor(store graph.Store, countries *screening.CountryTable, logger *zap.SugaredLogger) *Extractor {
	return &Extractor{store: store, countries: countries, logger: logger, now: time.Now}
}

// Extract computes the feature vector for an entity over the trailing
// lookback window. An entity with no instruments in the window (or
// absent from the graph entirely) yields the documented conservative
// default vector, never an error; store connectivity failures surface
// as StoreUnavailable after one retry on a fresh session.
func (x *Extractor) Extract(ctx context.Context, name string, typ models.EntityType, lookbackDays int) (models.RiskFeatureVector, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	since := x.now().AddDate(0, 0, -lookbackDays)

	instruments, err := graph.WithRetry(ctx, x.store, x.noteRetry, func(sess graph.Session) ([]graph.Instrument, error) {
		return sess.Instruments(ctx, name, typ, since)
	})
	if err != nil {
		return models.RiskFeatureVector{}, err
	}

	if len(instruments) == 0 {
		x.logger.Debugw("no instruments in window, using default vector",
			"entity", name, "type", string(typ), "lookback_days", lookbackDays)
		return DefaultVector(), nil
	}

	vec := x.derive(instruments)

	sanctioned, total, err := x.sanctionedCounterparties(ctx, instruments)
	if err != nil {
		return models.RiskFeatureVector{}, err
	}
	if total > 0 {
		vec.SanctionsExposure = float64(sanctioned) / float64(total)
	}

	x.logger.Debugw("features extracted",
		"entity", name,
		"type", string(typ),
		"transactions", len(instruments),
		"lookback_days", lookbackDays)
	return vec, nil
}

// derive computes everything that needs no further store access.
func (x *Extractor) derive(instruments []graph.Instrument) models.RiskFeatureVector {
	n := float64(len(instruments))

	var (
		totalExposure float64
		discrepant    int
		late          int
		amended       int
		docsComplete  int
		fraud         int
		highRiskPort  int
		delays        []float64
	)
	counterparties := make(map[string]bool)

	for _, in := range instruments {
		totalExposure += in.Amount

		if in.InvoiceAmount != nil && relDiff(*in.InvoiceAmount, in.Amount) > discrepancyTolerance {
			discrepant++
		}
		if in.ShipmentDate != nil && in.LatestShipmentDate != nil && in.ShipmentDate.After(*in.LatestShipmentDate) {
			late++
		}
		if in.ShipmentDate != nil {
			days := in.ShipmentDate.Sub(in.IssueDate).Hours() / 24
			if days < 0 {
				days = 0
			}
			delays = append(delays, days)
		}
		if in.Amended {
			amended++
		}
		if in.DocsComplete() {
			docsComplete++
		}
		if in.FraudFlag || in.SuspiciousActivity {
			fraud++
		}
		if in.PortCountry != "" && x.countries.Lookup(in.PortCountry).Score >= screening.ExposureRiskScore {
			highRiskPort++
		}
		if in.Counterparty != "" {
			counterparties[in.Counterparty] = true
		}
	}

	var delayAvg float64
	if len(delays) > 0 {
		delayAvg = stat.Mean(delays, nil)
	}

	diversity := float64(len(counterparties)) / n
	if diversity > 1 {
		diversity = 1
	}

	return models.RiskFeatureVector{
		TransactionCount:        n,
		TotalExposure:           totalExposure,
		AvgLCAmount:             totalExposure / n,
		DiscrepancyRate:         float64(discrepant) / n,
		LateShipmentRate:        float64(late) / n,
		PaymentDelayAvg:         delayAvg,
		CounterpartyDiversity:   diversity,
		HighRiskCountryExposure: float64(highRiskPort) / n,
		DocCompleteness:         float64(docsComplete) / n,
		AmendmentRate:           float64(amended) / n,
		FraudFlags:              float64(fraud),
	}
}

// sanctionedCounterparties resolves which distinct counterparties are
// themselves sanctions matches.
func (x *Extractor) sanctionedCounterparties(ctx context.Context, instruments []graph.Instrument) (sanctioned, total int, err error) {
	seen := make(map[string]bool)
	var names []string
	for _, in := range instruments {
		if in.Counterparty != "" && !seen[in.Counterparty] {
			seen[in.Counterparty] = true
			names = append(names, in.Counterparty)
		}
	}
	if len(names) == 0 {
		return 0, 0, nil
	}

	sanctioned, err = graph.WithRetry(ctx, x.store, x.noteRetry, func(sess graph.Session) (int, error) {
		return sess.SanctionedAmong(ctx, names)
	})
	if err != nil {
		return 0, 0, err
	}
	return sanctioned, len(names), nil
}

// DefaultVector is the conservative profile for an entity with no
// history in the window: counts and amounts are zero, bounded rates sit
// at the neutral midpoint so absence of history is not mistaken for
// clean history, and document completeness stays 1.0 since no document
// is missing.
func DefaultVector() models.RiskFeatureVector {
	return models.RiskFeatureVector{
		TransactionCount:        0,
		TotalExposure:           0,
		AvgLCAmount:             0,
		DiscrepancyRate:         0.5,
		LateShipmentRate:        0.5,
		PaymentDelayAvg:         0,
		CounterpartyDiversity:   0.5,
		HighRiskCountryExposure: 0.5,
		SanctionsExposure:       0.5,
		DocCompleteness:         1.0,
		AmendmentRate:           0.5,
		FraudFlags:              0,
	}
}

func (x *Extractor) noteRetry(err error) {
	metrics.StoreRetries.Inc()
	x.logger.Warnw("retrying store query on fresh session", "error", err)
}

func relDiff(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(a-b) / math.Abs(b)
}
