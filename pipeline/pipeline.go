// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/enrichit/capability"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/quality"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/poiesic/enrichit/pipeline"

// Invoker runs a single capability. *capability.Invoker satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, kind core.Kind, req capability.Request) (core.Result, error)
}

// Pipeline runs documents through the three enrichment phases.
// It is safe for concurrent use; every call to Process gets its own run.
type Pipeline struct {
	invoker Invoker
	gate    *quality.Gate
	pool    *ants.Pool
	monitor Monitor
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size shared by all runs.
// Default is runtime.NumCPU() * 2, with a minimum of 4 so a full phase
// fans out at once.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor sets a monitor for run progress.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			return errors.New("monitor cannot be nil")
		}
		p.monitor = monitor
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		p.tracer = tp.Tracer(tracerName)
		return nil
	}
}

// WithClock overrides the time source used for timestamps and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		p.now = now
		return nil
	}
}

// NewPipeline creates a pipeline over the given capability invoker.
// The quality gate is built over the same invoker.
func NewPipeline(invoker Invoker, opts ...Option) (*Pipeline, error) {
	if invoker == nil {
		return nil, ErrInvokerRequired
	}

	gate, err := quality.NewGate(invoker)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		invoker: invoker,
		gate:    gate,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		if err := WithPoolSize(max(4, runtime.NumCPU()*2))(p); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Process enriches one document. On success every output is present, the
// quality score is in [0, 100] and Passed equals score >= core.PassThreshold.
// On failure no partial result is returned.
func (p *Pipeline) Process(ctx context.Context, text string) (*core.PipelineResult, error) {
	return newRun(p, text).execute(ctx)
}

// EstimateCost projects the spend for documentCount documents.
func (p *Pipeline) EstimateCost(documentCount int) (core.CostEstimate, error) {
	return core.EstimateCost(documentCount)
}

// Release releases the worker pool. Process must not be called afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
