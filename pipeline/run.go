package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/enrichit/capability"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/metrics"
	"github.com/poiesic/enrichit/quality"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run holds the state of one document's trip through the pipeline.
// Outputs only ever grow, and only between phases.
type run struct {
	p       *Pipeline
	text    string
	state   State
	outputs core.Outputs
	cost    float64
	logger  *slog.Logger
}

func newRun(p *Pipeline, text string) *run {
	return &run{
		p:      p,
		text:   text,
		state:  StateIdle,
		logger: p.logger.With("length", len([]rune(text))),
	}
}

func (r *run) transition(to State) error {
	if !canTransition(r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	from := r.state
	r.state = to
	r.p.monitor.StateChanged(from, to)
	return nil
}

func (r *run) execute(ctx context.Context) (*core.PipelineResult, error) {
	start := r.p.now()
	r.p.monitor.Start(r.text)

	ctx, span := r.p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(attribute.Int("document.length", len(r.text))))
	defer span.End()

	result, err := r.phases(ctx, start)
	if err != nil {
		// A failed transition out of a terminal state cannot happen here.
		_ = r.transition(StateFailed)
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("pipeline run failed", "err", err)
		r.p.monitor.Finish(nil, err)
		return nil, err
	}

	outcome := "needs_review"
	if result.Passed {
		outcome = "passed"
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
	metrics.PipelineRunDuration.Observe(result.ElapsedTime.Seconds())
	metrics.QualityScore.Observe(float64(result.QualityScore))
	metrics.EstimatedCostTotal.Add(result.EstimatedCost)
	span.SetAttributes(
		attribute.Int("quality.score", result.QualityScore),
		attribute.Bool("quality.passed", result.Passed),
	)
	r.logger.Info("pipeline run completed",
		"score", result.QualityScore,
		"passed", result.Passed,
		"elapsed", result.ElapsedTime,
		"cost", result.EstimatedCost,
	)
	r.p.monitor.Finish(result, nil)
	return result, nil
}

func (r *run) phases(ctx context.Context, start time.Time) (*core.PipelineResult, error) {
	// Reject bad input before any capability is called.
	if err := core.ValidateDocument(r.text); err != nil {
		return nil, err
	}

	for _, phase := range []core.Phase{core.PhaseGeneration, core.PhaseEnrichment} {
		if err := r.runPhase(ctx, phase, r.fanOut); err != nil {
			return nil, err
		}
	}

	var assessment quality.Assessment
	err := r.runPhase(ctx, core.PhaseAssessment, func(ctx context.Context, _ core.Phase) error {
		a, err := r.p.gate.Assess(ctx, r.text, &r.outputs)
		if err != nil {
			return err
		}
		assessment = a
		r.cost += core.CostOf(core.KindQualityAssessment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	completed := r.p.now()
	if err := r.transition(StateCompleted); err != nil {
		return nil, err
	}

	return &core.PipelineResult{
		Summaries:        *r.outputs.Summaries,
		SearchMetadata:   *r.outputs.SearchMetadata,
		Classification:   *r.outputs.Classification,
		Tags:             r.outputs.Tags,
		Description:      *r.outputs.Description,
		VisualPrompt:     *r.outputs.VisualPrompt,
		Embedding:        r.outputs.Embedding,
		QualityScore:     assessment.Score,
		Passed:           assessment.Passed,
		ValidationReport: assessment.Report,
		ElapsedTime:      completed.Sub(start),
		EstimatedCost:    r.cost,
		CompletedAt:      completed,
	}, nil
}

func (r *run) runPhase(ctx context.Context, phase core.Phase, fn func(context.Context, core.Phase) error) error {
	if err := r.transition(runningState(phase)); err != nil {
		return err
	}

	ctx, span := r.p.tracer.Start(ctx, "pipeline.phase",
		trace.WithAttributes(attribute.String("phase", phase.String())))
	defer span.End()

	begin := time.Now()
	r.p.monitor.PhaseStarted(phase)
	err := fn(ctx, phase)
	r.p.monitor.PhaseFinished(phase, err)
	metrics.PhaseDuration.WithLabelValues(phase.String()).Observe(time.Since(begin).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	r.logger.Debug("phase completed", "phase", phase.String(), "duration", time.Since(begin))
	return nil
}

// fanOut runs every capability of phase on the worker pool and waits for all
// of them. The first failure cancels the rest and the whole phase is discarded.
func (r *run) fanOut(ctx context.Context, phase core.Phase) error {
	kinds := phase.Kinds()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Workers read a snapshot of earlier outputs; results land in their own slot.
	snapshot := r.outputs
	results := make([]core.Result, len(kinds))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, kind := range kinds {
		wg.Add(1)
		err := r.p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				fail(core.NewCapabilityError(kind, ctx.Err()))
				return
			}
			r.p.monitor.CapabilityStarted(kind)
			res, err := r.p.invoker.Invoke(ctx, kind, capability.Request{Text: r.text, Outputs: &snapshot})
			r.p.monitor.CapabilityFinished(kind, err)
			if err != nil {
				fail(err)
				return
			}
			if res == nil {
				fail(core.NewCapabilityError(kind, core.ErrMalformedOutput))
				return
			}
			results[i] = res
		})
		if err != nil {
			wg.Done()
			fail(core.NewCapabilityError(kind, fmt.Errorf("submit task: %w", err)))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	for i, res := range results {
		r.outputs.Set(res)
		r.cost += core.CostOf(kinds[i])
	}
	return nil
}
