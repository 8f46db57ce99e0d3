package screening

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/internal/graph"
	"github.com/meridianfin/tradegate/internal/sanctions"
	"github.com/meridianfin/tradegate/pkg/metrics"
	"github.com/meridianfin/tradegate/pkg/models"
)

// Config tunes the screener.
type Config struct {
	// FuzzyThreshold is the 0-100 minimum fuzzy score; default 85.
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold" validate:"gte=0,lte=100"`
	// Algorithm selects the fuzzy scorer; default token_sort_ratio.
	Algorithm Algorithm `mapstructure:"algorithm"`
	// BlockScore is the 0-1 fuzzy score from which a hit blocks rather
	// than reviews; default 0.95.
	BlockScore float64 `mapstructure:"block_score" validate:"gte=0,lte=1"`
	// NetworkHops bounds the exposure traversal; default 2.
	NetworkHops int `mapstructure:"network_hops" validate:"gte=0,lte=2"`
	// CheckNetwork disables the traversal step when false.
	CheckNetwork bool `mapstructure:"check_network"`
}

// DefaultConfig returns the screener defaults.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold: DefaultFuzzyThreshold,
		Algorithm:      AlgorithmTokenSortRatio,
		BlockScore:     0.95,
		NetworkHops:    2,
		CheckNetwork:   true,
	}
}

// Screener runs the per-entity screening state machine: exact match,
// fuzzy match, network exposure, country-risk upgrade. It only reads
// from the graph and is safe for concurrent use; the reference list is
// swapped atomically on reload.
type Screener struct {
	store     graph.Store
	list      atomic.Pointer[sanctions.List]
	matcher   *Matcher
	countries *CountryTable
	cfg       Config
	logger    *zap.SugaredLogger
}

// NewScreener wires a screener from its collaborators.
func NewScreener(store graph.Store, list *sanctions.List, countries *CountryTable, cfg Config, logger *zap.SugaredLogger) *Screener {
	if cfg.BlockScore <= 0 {
		cfg.BlockScore = 0.95
	}
	if cfg.NetworkHops <= 0 {
		cfg.NetworkHops = 2
	}
	s := &Screener{
		store:     store,
		matcher:   NewMatcher(cfg.Algorithm, cfg.FuzzyThreshold, logger),
		countries: countries,
		cfg:       cfg,
		logger:    logger,
	}
	s.list.Store(list)
	return s
}

// Reload swaps in a freshly loaded reference list. In-flight screenings
// keep the list they started with.
func (s *Screener) Reload(list *sanctions.List) {
	old := s.list.Swap(list)
	previous := 0
	if old != nil {
		previous = old.Len()
	}
	s.logger.Infow("sanctions reference list reloaded",
		"records", list.Len(), "previous", previous)
}

// Screen evaluates one entity. It is idempotent and has no side
// effects beyond read-only graph queries; repeated calls reflect the
// store snapshot at call time.
func (s *Screener) Screen(ctx context.Context, entity models.Entity) (models.ScreeningResult, error) {
	start := time.Now()
	list := s.list.Load()

	result := models.ScreeningResult{
		EntityName:     entity.Name,
		EntityCountry:  entity.Country,
		EntityType:     entity.Type,
		MatchType:      models.MatchTypeNone,
		Recommendation: models.RecommendationApprove,
	}

	normalized := Normalize(entity.Name)

	// Step 1: exact match against primary names and aliases. An exact
	// hit is an absolute veto; nothing downstream can override it.
	if rec, ok := list.Exact(normalized); ok {
		result.SanctionsMatch = true
		result.MatchType = models.MatchTypeExact
		result.MatchedEntity = rec.Name
		result.MatchScore = 1.0
		result.SanctionsList = rec.ListType
		result.Program = rec.Program
		result.Recommendation = models.RecommendationBlock
	} else if match, ok := s.matcher.BestMatch(normalized, list.Names()); ok {
		// Step 2: fuzzy match over the full reference set.
		rec := list.Record(match.Index)
		result.SanctionsMatch = true
		result.MatchType = models.MatchTypeFuzzy
		result.MatchedEntity = rec.Name
		result.MatchScore = match.Score
		result.SanctionsList = rec.ListType
		result.Program = rec.Program
		if match.Score >= s.cfg.BlockScore {
			result.Recommendation = models.RecommendationBlock
		} else {
			result.Recommendation = models.RecommendationReview
		}
	} else if s.cfg.CheckNetwork {
		// Step 3: indirect exposure through up to NetworkHops
		// relationship hops. Runs only when both name checks missed, so
		// an upgrade to REVIEW can never downgrade a BLOCK.
		exposed, err := graph.WithRetry(ctx, s.store, s.noteRetry, func(sess graph.Session) (bool, error) {
			return sess.SanctionedWithinHops(ctx, entity.Name, s.cfg.NetworkHops)
		})
		if err != nil {
			return models.ScreeningResult{}, err
		}
		if exposed {
			result.NetworkExposure = true
			result.Recommendation = models.RecommendationReview
		}
	}

	// Step 4: country risk. The lookup always fills the result; the
	// upgrade applies only to an otherwise clean APPROVE.
	risk := s.countries.Lookup(entity.Country)
	result.CountryRiskLevel = risk.Level
	result.CountryRiskScore = risk.Score
	result.CountryKnown = risk.Known
	if risk.Score >= HighRiskScore && result.Recommendation == models.RecommendationApprove {
		result.Recommendation = models.RecommendationReview
	}

	result.ScreeningTimeMs = time.Since(start).Milliseconds()

	metrics.ScreeningsTotal.WithLabelValues(string(result.Recommendation)).Inc()
	metrics.ScreeningLatency.Observe(time.Since(start).Seconds())
	if result.SanctionsMatch {
		metrics.SanctionsMatches.WithLabelValues(string(result.MatchType)).Inc()
	}

	s.logger.Infow("entity screened",
		"entity", entity.Name,
		"country", entity.Country,
		"recommendation", string(result.Recommendation),
		"match_type", string(result.MatchType),
		"network_exposure", result.NetworkExposure,
		"elapsed_ms", result.ScreeningTimeMs)

	return result, nil
}

func (s *Screener) noteRetry(err error) {
	metrics.StoreRetries.Inc()
	s.logger.Warnw("retrying store query on fresh session", "error", err)
}
