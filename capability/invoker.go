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


package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/poiesic/enrichit/capability"

// Request is the input to a single capability call.
type Request struct {
	// Text is the document under enrichment.
	Text string

	// Outputs carries earlier results. Phase 2 capabilities read it for
	// context; quality assessment requires it to be complete.
	Outputs *core.Outputs
}

type handler func(ctx context.Context, req Request) (core.Result, error)

// Invoker dispatches capability calls by kind. It validates the document,
// guards the remote call, decodes the structured response and applies each
// capability's post-parse rules. It holds no per-call state and is safe for
// concurrent use.
type Invoker struct {
	generator ai.Generator
	embedder  ai.Embedder
	guard     *guard
	handlers  map[core.Kind]handler
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures an Invoker.
type Option func(*Invoker) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		inv.logger = logger
		return nil
	}
}

// WithRetryBackoff sets the pause before the single retry of a transient failure.
func WithRetryBackoff(d time.Duration) Option {
	return func(inv *Invoker) error {
		if d < 0 {
			return errors.New("retry backoff cannot be negative")
		}
		inv.guard.backoff = d
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(inv *Invoker) error {
		inv.tracer = tp.Tracer(tracerName)
		return nil
	}
}

// NewInvoker creates an invoker over the provider's generator and embedder.
// A nil config uses ai.DefaultConfig.
func NewInvoker(provider ai.AIProvider, config *ai.Config, opts ...Option) (*Invoker, error) {
	if provider == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "capability-invoker")
	inv := &Invoker{
		generator: provider.Generator(),
		embedder:  provider.Embedder(),
		guard:     newGuard(config, logger),
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	inv.handlers = map[core.Kind]handler{
		core.KindShortFormSummaries:    inv.summaries,
		core.KindSearchMetadata:        inv.searchMetadata,
		core.KindClassification:        inv.classification,
		core.KindTagging:               inv.tagging,
		core.KindStructuredDescription: inv.structuredDescription,
		core.KindVisualPrompt:          inv.visualPrompt,
		core.KindEmbeddingVector:       inv.embedding,
		core.KindQualityAssessment:     inv.assessment,
	}
	for _, kind := range core.AllKinds {
		if _, ok := inv.handlers[kind]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
		}
	}

	for _, opt := range opts {
		if err := opt(inv); err != nil {
			return nil, err
		}
	}
	inv.guard.logger = inv.logger
	return inv, nil
}

// Invoke runs one capability over req.Text. Documents shorter than
// core.MinDocumentLength are rejected before any remote call. Every error
// is a *core.CapabilityError carrying kind.
func (inv *Invoker) Invoke(ctx context.Context, kind core.Kind, req Request) (core.Result, error) {
	h, ok := inv.handlers[kind]
	if !ok {
		return nil, core.NewCapabilityError(kind, core.ErrUnknownKind)
	}
	if err := core.ValidateDocument(req.Text); err != nil {
		return nil, core.NewCapabilityError(kind, err)
	}
	return inv.run(ctx, kind, h, req)
}

// EmbedDocument embeds a full document. It is Invoke for the embedding kind
// with the result already typed.
func (inv *Invoker) EmbedDocument(ctx context.Context, text string) (core.Embedding, error) {
	res, err := inv.Invoke(ctx, core.KindEmbeddingVector, Request{Text: text})
	if err != nil {
		return nil, err
	}
	return res.(core.Embedding), nil
}

// EmbedQuery embeds a search query through the embedding capability, so
// queries and documents share a vector space. Queries only need to be non-blank.
func (inv *Invoker) EmbedQuery(ctx context.Context, query string) (core.Embedding, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.NewCapabilityError(core.KindEmbeddingVector, fmt.Errorf("%w: blank query", core.ErrEmptyInput))
	}
	res, err := inv.run(ctx, core.KindEmbeddingVector, inv.embedding, Request{Text: query})
	if err != nil {
		return nil, err
	}
	return res.(core.Embedding), nil
}

func (inv *Invoker) run(ctx context.Context, kind core.Kind, h handler, req Request) (core.Result, error) {
	name := kind.String()
	ctx, span := inv.tracer.Start(ctx, "capability."+name,
		trace.WithAttributes(
			attribute.String("capability.kind", name),
			attribute.Int("document.length", len(req.Text)),
		))
	defer span.End()

	start := time.Now()
	result, err := h(ctx, req)
	elapsed := time.Since(start)
	metrics.CapabilityCallDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.CapabilityCallsTotal.WithLabelValues(name, outcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		inv.logger.Warn("capability failed", "kind", name, "elapsed", elapsed, "err", err)
		return nil, core.NewCapabilityError(kind, err)
	}

	metrics.CapabilityCallsTotal.WithLabelValues(name, "success").Inc()
	inv.logger.Debug("capability succeeded", "kind", name, "elapsed", elapsed)
	return result, nil
}

// generate asks the generator for kind's JSON object and decodes it into v.
func (inv *Invoker) generate(ctx context.Context, kind core.Kind, prompt string, v any) error {
	task := kind.String()
	resp, err := call(ctx, inv.guard, inv.guard.generator, task, func(ctx context.Context) (string, error) {
		return inv.generator.Generate(ctx, ai.GenerateRequest{
			Task:   task,
			System: systemPrompt,
			Prompt: prompt,
			JSON:   true,
		})
	})
	if err != nil {
		return err
	}
	if err := decode(resp, v); err != nil {
		inv.logger.Debug("undecodable capability response", "kind", task, "response", resp)
		return err
	}
	return nil
}

// outcome maps an error onto a low-cardinality metrics label.
func outcome(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, core.ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, core.ErrInsufficientOutput):
		return "insufficient_output"
	case errors.Is(err, core.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ai.ErrProvider):
		return "provider_error"
	default:
		return "error"
	}
}
