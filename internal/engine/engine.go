// Package engine runs the per-entity decision pipeline: sanctions and
// country-risk screening, feature extraction, classifier scoring and
// the final policy fusion.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/internal/classifier"
	"github.com/meridianfin/tradegate/internal/features"
	"github.com/meridianfin/tradegate/internal/policy"
	"github.com/meridianfin/tradegate/internal/screening"
	"github.com/meridianfin/tradegate/pkg/metrics"
	"github.com/meridianfin/tradegate/pkg/models"
)

// DefaultEntityBudget is the soft time budget for one entity's
// screen-extract-classify chain. Exceeding it yields an error-tagged
// result instead of blocking sibling work.
const DefaultEntityBudget = 500 * time.Millisecond

// Config tunes the pipeline.
type Config struct {
	LookbackDays int           `mapstructure:"lookback_days" validate:"gte=0"`
	EntityBudget time.Duration `mapstructure:"entity_budget"`
}

// Engine evaluates entities. All collaborators are read-only or
// immutable, so an Engine is safe for concurrent use.
type Engine struct {
	screener  *screening.Screener
	extractor *features.Extractor
	model     *classifier.Model
	cfg       Config
	logger    *zap.SugaredLogger
}

// Decision is the combined verdict for one entity. Recommendation is
// the fused outcome with the sanctions veto applied.
type Decision struct {
	Entity         models.Entity          `json:"entity"`
	Screening      models.ScreeningResult `json:"screening"`
	Risk           models.RiskScore       `json:"risk"`
	Recommendation models.Recommendation  `json:"recommendation"`
}

// New wires an engine.
func New(screener *screening.Screener, extractor *features.Extractor, model *classifier.Model, cfg Config, logger *zap.SugaredLogger) *Engine {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = features.DefaultLookbackDays
	}
	if cfg.EntityBudget <= 0 {
		cfg.EntityBudget = DefaultEntityBudget
	}
	return &Engine{
		screener:  screener,
		extractor: extractor,
		model:     model,
		cfg:       cfg,
		logger:    logger,
	}
}

// Screen runs sanctions and country-risk screening only.
func (e *Engine) Screen(ctx context.Context, entity models.Entity) (models.ScreeningResult, error) {
	return e.screener.Screen(ctx, entity)
}

// Score extracts features and maps them to a credit-risk verdict. The
// underlying vector is carried on the result for audit.
func (e *Engine) Score(ctx context.Context, name string, typ models.EntityType, lookbackDays int) (models.RiskScore, error) {
	if lookbackDays <= 0 {
		lookbackDays = e.cfg.LookbackDays
	}

	vector, err := e.extractor.Extract(ctx, name, typ, lookbackDays)
	if err != nil {
		return models.RiskScore{}, err
	}

	probability, err := e.model.Score(vector)
	if err != nil {
		return models.RiskScore{}, err
	}

	d := policy.Decide(probability)
	score := models.RiskScore{
		EntityName:     name,
		EntityType:     typ,
		Probability:    probability,
		Category:       d.Category,
		CreditLimitUSD: d.CreditLimitUSD,
		Recommendation: d.Recommendation,
		RiskFactors:    policy.RiskFactors(vector),
		Features:       vector,
		LookbackDays:   lookbackDays,
		ScoredAt:       time.Now().UTC(),
	}

	metrics.ScoringsTotal.WithLabelValues(string(d.Category)).Inc()
	e.logger.Infow("entity scored",
		"entity", name,
		"type", string(typ),
		"probability", probability,
		"category", string(d.Category),
		"recommendation", string(d.Recommendation))
	return score, nil
}

// Decide runs the full pipeline for one entity under the per-entity
// time budget. A screener BLOCK vetoes the scoring recommendation.
func (e *Engine) Decide(ctx context.Context, entity models.Entity) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.EntityBudget)
	defer cancel()

	scr, err := e.Screen(ctx, entity)
	if err != nil {
		return Decision{}, err
	}

	risk, err := e.Score(ctx, entity.Name, entity.Type, e.cfg.LookbackDays)
	if err != nil {
		return Decision{}, err
	}

	final := policy.Final(risk.Recommendation, scr.Recommendation)
	risk.Recommendation = final

	return Decision{
		Entity:         entity,
		Screening:      scr,
		Risk:           risk,
		Recommendation: final,
	}, nil
}

// LookbackDays exposes the configured default window.
func (e *Engine) LookbackDays() int { return e.cfg.LookbackDays }
