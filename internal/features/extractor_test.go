package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/internal/graph"
	"github.com/meridianfin/tradegate/internal/graph/graphtest"
	"github.com/meridianfin/tradegate/internal/screening"
	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestExtractor(t *testing.T, store *graphtest.Store) *Extractor {
	t.Helper()
	table, err := screening.NewCountryTable(zap.NewNop().Sugar())
	require.NoError(t, err)
	x := NewExtractor(store, table, zap.NewNop().Sugar())
	x.now = func() time.Time { return testNow }
	return x
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestExtractDerivesVector(t *testing.T) {
	store := graphtest.New()
	store.Sanctioned["Buyer Two"] = true
	store.Instruments["Acme Exports"] = []graph.Instrument{
		{
			ID:                 "LC-1",
			Counterparty:       "Buyer One",
			Amount:             100_000,
			IssueDate:          day(2026, 1, 10),
			InvoiceAmount:      ptr(100_000.0),
			ShipmentDate:       ptr(day(2026, 1, 20)),
			LatestShipmentDate: ptr(day(2026, 1, 25)),
			HasInvoice:         true,
			HasShipmentDoc:     true,
			HasPackingList:     true,
			PortCountry:        "SG",
		},
		{
			ID:                 "LC-2",
			Counterparty:       "Buyer Two",
			Amount:             200_000,
			IssueDate:          day(2026, 2, 1),
			InvoiceAmount:      ptr(260_000.0), // 30% over, past the tolerance
			ShipmentDate:       ptr(day(2026, 2, 21)),
			LatestShipmentDate: ptr(day(2026, 2, 15)), // shipped late
			Amended:            true,
			HasInvoice:         true,
			FraudFlag:          true,
			PortCountry:        "IR",
		},
	}

	x := newTestExtractor(t, store)
	vec, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 90)
	require.NoError(t, err)

	assert.Equal(t, 2.0, vec.TransactionCount)
	assert.Equal(t, 300_000.0, vec.TotalExposure)
	assert.Equal(t, 150_000.0, vec.AvgLCAmount)
	assert.Equal(t, 0.5, vec.DiscrepancyRate)
	assert.Equal(t, 0.5, vec.LateShipmentRate)
	assert.InDelta(t, 15.0, vec.PaymentDelayAvg, 1e-9) // 10 and 20 day delays
	assert.Equal(t, 1.0, vec.CounterpartyDiversity)
	assert.Equal(t, 0.5, vec.HighRiskCountryExposure)
	assert.Equal(t, 0.5, vec.SanctionsExposure)
	assert.Equal(t, 0.5, vec.DocCompleteness)
	assert.Equal(t, 0.5, vec.AmendmentRate)
	assert.Equal(t, 1.0, vec.FraudFlags)
}

func TestExtractRepeatCounterpartyLowersDiversity(t *testing.T) {
	store := graphtest.New()
	var instruments []graph.Instrument
	for i := 0; i < 4; i++ {
		instruments = append(instruments, graph.Instrument{
			Counterparty: "Buyer One",
			Amount:       50_000,
			IssueDate:    day(2026, 2, 1+i),
			HasInvoice:   true, HasShipmentDoc: true, HasPackingList: true,
		})
	}
	store.Instruments["Acme Exports"] = instruments

	x := newTestExtractor(t, store)
	vec, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 90)
	require.NoError(t, err)

	assert.Equal(t, 0.25, vec.CounterpartyDiversity)
	assert.Equal(t, 1.0, vec.DocCompleteness)
	assert.Zero(t, vec.SanctionsExposure)
}

func TestExtractNoHistoryYieldsDefaultVector(t *testing.T) {
	x := newTestExtractor(t, graphtest.New())

	vec, err := x.Extract(context.Background(), "Unknown Entity", models.EntityTypeBuyer, 90)
	require.NoError(t, err)
	assert.Equal(t, DefaultVector(), vec)
}

func TestExtractWindowExcludesOldInstruments(t *testing.T) {
	store := graphtest.New()
	store.Instruments["Acme Exports"] = []graph.Instrument{
		{Counterparty: "Buyer One", Amount: 75_000, IssueDate: day(2025, 10, 1)},
	}

	x := newTestExtractor(t, store)
	vec, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 90)
	require.NoError(t, err)

	// Everything predates the window, so the entity has no usable history.
	assert.Equal(t, DefaultVector(), vec)
}

func TestExtractZeroLookbackUsesDefaultWindow(t *testing.T) {
	store := graphtest.New()
	store.Instruments["Acme Exports"] = []graph.Instrument{
		{Counterparty: "Buyer One", Amount: 75_000, IssueDate: testNow.AddDate(0, 0, -30)},
	}

	x := newTestExtractor(t, store)
	vec, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, vec.TransactionCount)
}

func TestExtractRetriesTransientStoreFault(t *testing.T) {
	store := graphtest.New()
	store.Instruments["Acme Exports"] = []graph.Instrument{
		{Counterparty: "Buyer One", Amount: 75_000, IssueDate: day(2026, 2, 1)},
	}
	store.FailNextSessions(1)

	x := newTestExtractor(t, store)
	vec, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 90)
	require.NoError(t, err)
	assert.Equal(t, 1.0, vec.TransactionCount)
}

func TestExtractSurfacesPersistentStoreFault(t *testing.T) {
	store := graphtest.New()
	store.FailNextSessions(2)

	x := newTestExtractor(t, store)
	_, err := x.Extract(context.Background(), "Acme Exports", models.EntityTypeSeller, 90)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStoreUnavailable))
}

func TestDefaultVector(t *testing.T) {
	vec := DefaultVector()

	assert.Zero(t, vec.TransactionCount)
	assert.Zero(t, vec.TotalExposure)
	assert.Zero(t, vec.AvgLCAmount)
	assert.Zero(t, vec.PaymentDelayAvg)
	assert.Zero(t, vec.FraudFlags)
	assert.Equal(t, 0.5, vec.DiscrepancyRate)
	assert.Equal(t, 0.5, vec.LateShipmentRate)
	assert.Equal(t, 0.5, vec.CounterpartyDiversity)
	assert.Equal(t, 0.5, vec.HighRiskCountryExposure)
	assert.Equal(t, 0.5, vec.SanctionsExposure)
	assert.Equal(t, 0.5, vec.AmendmentRate)
	assert.Equal(t, 1.0, vec.DocCompleteness)
}

func TestRelDiff(t *testing.T) {
	assert.Equal(t, 0.0, relDiff(100, 100))
	assert.InDelta(t, 0.3, relDiff(130, 100), 1e-9)
	assert.Equal(t, 0.0, relDiff(0, 0))
	assert.True(t, relDiff(5, 0) > 1)
}
