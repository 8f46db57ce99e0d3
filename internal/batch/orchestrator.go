// Package batch runs the per-entity decision pipeline across many
// entities on a bounded worker pool with per-entity failure isolation.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/internal/engine"
	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/metrics"
	"github.com/meridianfin/tradegate/pkg/models"
)

// DefaultWorkers bounds batch concurrency when unconfigured. Excess
// work queues; the pool never grows past the bound.
const DefaultWorkers = 10

// Config tunes the orchestrator.
type Config struct {
	Workers int `mapstructure:"workers" validate:"gte=0,lte=256"`
}

// Result is the outcome for one input entity. Exactly one of the
// payload fields is set: Screening for screen-only runs, Decision for
// full pipeline runs, neither when Error is set.
type Result struct {
	Entity         models.Entity           `json:"entity"`
	Recommendation models.Recommendation   `json:"recommendation"`
	Screening      *models.ScreeningResult `json:"screening,omitempty"`
	Decision       *engine.Decision        `json:"decision,omitempty"`
	Error          string                  `json:"error,omitempty"`
	ErrorKind      apperrors.Kind          `json:"error_kind,omitempty"`
}

// Summary aggregates a finished batch. Conditional approvals count as
// approved; collateral requirements count as reviewed.
type Summary struct {
	JobID    uuid.UUID     `json:"job_id"`
	Total    int           `json:"total"`
	Approved int           `json:"approved"`
	Reviewed int           `json:"reviewed"`
	Blocked  int           `json:"blocked"`
	Errored  int           `json:"errored"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Orchestrator fans entities out to the engine.
type Orchestrator struct {
	engine  *engine.Engine
	workers int
	logger  *zap.SugaredLogger
}

// New builds an orchestrator.
func New(eng *engine.Engine, cfg Config, logger *zap.SugaredLogger) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{engine: eng, workers: workers, logger: logger}
}

// ScreenAll screens every entity. The result count always equals the
// input count; per-entity failures become ERROR results and never abort
// sibling work.
func (o *Orchestrator) ScreenAll(ctx context.Context, entities []models.Entity) ([]Result, Summary) {
	return o.run(ctx, "screening", entities, func(ctx context.Context, e models.Entity) Result {
		scr, err := o.engine.Screen(ctx, e)
		if err != nil {
			return errResult(e, err)
		}
		return Result{Entity: e, Recommendation: scr.Recommendation, Screening: &scr}
	})
}

// DecideAll runs the full screen-extract-classify-decide pipeline for
// every entity.
func (o *Orchestrator) DecideAll(ctx context.Context, entities []models.Entity) ([]Result, Summary) {
	return o.run(ctx, "decision", entities, func(ctx context.Context, e models.Entity) Result {
		dec, err := o.engine.Decide(ctx, e)
		if err != nil {
			return errResult(e, err)
		}
		return Result{Entity: e, Recommendation: dec.Recommendation, Decision: &dec}
	})
}

type job struct {
	idx    int
	entity models.Entity
}

// run schedules entities onto the pool. Cancellation stops scheduling;
// in-flight entities finish or time out under their own budget, and
// never-scheduled entities are reported as canceled so the output count
// still matches the input.
func (o *Orchestrator) run(ctx context.Context, kind string, entities []models.Entity, work func(context.Context, models.Entity) Result) ([]Result, Summary) {
	start := time.Now()
	jobID := uuid.New()
	results := make([]Result, len(entities))

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = o.safeWork(ctx, j.entity, work)
			}
		}()
	}

	canceledFrom := -1
schedule:
	for i, entity := range entities {
		select {
		case <-ctx.Done():
			canceledFrom = i
			break schedule
		case jobs <- job{idx: i, entity: entity}:
		}
	}
	close(jobs)
	wg.Wait()

	if canceledFrom >= 0 {
		for i := canceledFrom; i < len(entities); i++ {
			if results[i].Recommendation == "" {
				results[i] = Result{
					Entity:         entities[i],
					Recommendation: models.RecommendationError,
					Error:          "batch canceled before entity was scheduled",
					ErrorKind:      apperrors.KindTimeout,
				}
			}
		}
	}

	summary := summarize(jobID, results, time.Since(start))

	metrics.BatchDuration.Observe(summary.Elapsed.Seconds())
	o.logger.Infow("batch complete",
		"job_id", jobID.String(),
		"kind", kind,
		"total", summary.Total,
		"approved", summary.Approved,
		"reviewed", summary.Reviewed,
		"blocked", summary.Blocked,
		"errored", summary.Errored,
		"elapsed_ms", summary.Elapsed.Milliseconds())
	return results, summary
}

// safeWork isolates panics so one malformed entity cannot take down
// the batch.
func (o *Orchestrator) safeWork(ctx context.Context, entity models.Entity, work func(context.Context, models.Entity) Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorw("batch worker panic recovered",
				"entity", entity.Name,
				"panic", r,
				"stack", string(debug.Stack()))
			res = Result{
				Entity:         entity,
				Recommendation: models.RecommendationError,
				Error:          fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return work(ctx, entity)
}

func errResult(entity models.Entity, err error) Result {
	return Result{
		Entity:         entity,
		Recommendation: models.RecommendationError,
		Error:          err.Error(),
		ErrorKind:      apperrors.KindOf(err),
	}
}

func summarize(jobID uuid.UUID, results []Result, elapsed time.Duration) Summary {
	s := Summary{JobID: jobID, Total: len(results), Elapsed: elapsed}
	for _, r := range results {
		switch r.Recommendation {
		case models.RecommendationApprove, models.RecommendationApproveConditions:
			s.Approved++
			metrics.BatchEntities.WithLabelValues("approved").Inc()
		case models.RecommendationReview, models.RecommendationCollateral:
			s.Reviewed++
			metrics.BatchEntities.WithLabelValues("reviewed").Inc()
		case models.RecommendationBlock:
			s.Blocked++
			metrics.BatchEntities.WithLabelValues("blocked").Inc()
		default:
			s.Errored++
			metrics.BatchEntities.WithLabelValues("errored").Inc()
		}
	}
	return s
}
