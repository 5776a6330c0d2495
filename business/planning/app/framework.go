package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/planning/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/logger"
)

// Framework runs the planner once per call: it loads memory, gives the
// planner a fresh toolset, and remembers whatever opportunity the run produced.
type Framework struct {
	services Services
	planner  Planner
	store    MemoryStore
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewFramework creates a Framework.
func NewFramework(svc Services, planner Planner, store MemoryStore, log logger.LoggerInterface) (*Framework, error) {
	meter := otel.Meter(meterName)

	runs, err := meter.Int64Counter(
		"planning_runs_total",
		metric.WithDescription("Planning runs by mode and outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"planning_run_duration_seconds",
		metric.WithDescription("Wall time of a planning run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	if svc.Reporter == nil {
		svc.Reporter = nopReporter{}
	}

	return &Framework{
		services: svc,
		planner:  planner,
		store:    store,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		runs:     runs,
		duration: duration,
	}, nil
}

// Mode returns the planner mode.
func (f *Framework) Mode() string {
	return f.planner.Mode()
}

// Run executes one planning run. It returns the opportunity surfaced, or nil.
// A memory load failure aborts the run before anything is selected.
func (f *Framework) Run(ctx context.Context) (opp *domain.Opportunity, err error) {
	runID := uuid.NewString()
	mode := f.planner.Mode()
	start := time.Now()

	ctx, span := f.tracer.Start(ctx, "planning.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("mode", mode),
		),
	)
	defer span.End()

	defer func() {
		outcome := "none"
		switch {
		case err != nil:
			outcome = "failed"
			span.SetStatus(codes.Error, err.Error())
		case opp != nil:
			outcome = "opportunity"
		}
		attrs := metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		)
		f.runs.Add(ctx, 1, attrs)
		f.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		f.services.Reporter.RunFinished(runID, opp, err)
	}()

	memory, err := f.store.Load(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMemoryLoadFailed, "load memory")
	}

	f.logger.Info(ctx, "planning run started", "run_id", runID, "mode", mode, "remembered", memory.Len())
	f.services.Reporter.RunStarted(runID, mode, memory.Len())

	tools := NewToolset(runID, f.services, memory, f.logger)
	_, planErr := f.planner.Plan(ctx, tools)

	// The gate is authoritative: a planner that fails after notifying still
	// leaves an opportunity that must be remembered.
	opp = tools.Opportunity()
	if opp != nil {
		f.services.Reporter.Report(opp)
		if err := f.store.Save(ctx, memory.Append(*opp)); err != nil {
			f.logger.Error(ctx, "failed to save memory", "run_id", runID, "error", err)
			return opp, apperror.Wrap(err, apperror.CodeMemorySaveFailed, "save memory")
		}
	}

	if planErr != nil {
		return opp, planErr
	}

	f.logger.Info(ctx, "planning run finished", "run_id", runID, "surfaced", opp != nil,
		"duration", time.Since(start).String())
	return opp, nil
}
