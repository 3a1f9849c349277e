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


// Package quality implements the quality gate that closes every pipeline run.
//
// The gate sends the document and every generated output to the quality
// assessment capability and turns its judgment into a final verdict. Two
// rules are enforced locally regardless of what the model says:
//
//   - the score is clamped into [0, 100]
//   - Passed is recomputed as Score >= core.PassThreshold
//
// The gate only reads the outputs it is given; it never edits or regenerates them.
package quality

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/enrichit/capability"
	"github.com/poiesic/enrichit/core"
)

// Invoker is the subset of capability.Invoker the gate needs.
type Invoker interface {
	Invoke(ctx context.Context, kind core.Kind, req capability.Request) (core.Result, error)
}

// Assessment is the gate's verdict.
type Assessment struct {
	Score  int
	Passed bool
	Report core.ValidationReport
}

// Gate scores aggregated outputs and enforces the pass threshold.
type Gate struct {
	invoker Invoker
	logger  *slog.Logger
}

// NewGate creates a quality gate over the given invoker.
func NewGate(invoker Invoker) (*Gate, error) {
	if invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}
	return &Gate{
		invoker: invoker,
		logger:  slog.Default().With("component", "quality-gate"),
	}, nil
}

// Assess runs quality assessment over text and outputs. A low score is a
// normal outcome with Passed false, not an error.
func (g *Gate) Assess(ctx context.Context, text string, outputs *core.Outputs) (Assessment, error) {
	res, err := g.invoker.Invoke(ctx, core.KindQualityAssessment, capability.Request{Text: text, Outputs: outputs})
	if err != nil {
		return Assessment{}, err
	}
	report, ok := res.(*core.QualityReport)
	if !ok {
		return Assessment{}, core.NewCapabilityError(core.KindQualityAssessment, core.ErrMalformedOutput)
	}

	a := Verdict(report)
	if a.Passed != report.ProposedPassed {
		g.logger.Info("overriding proposed pass flag", "score", a.Score, "proposed", report.ProposedPassed, "passed", a.Passed)
	}
	return a, nil
}

// Verdict applies the local rules to a raw quality report.
func Verdict(report *core.QualityReport) Assessment {
	score := core.ClampScore(report.Score)
	return Assessment{
		Score:  score,
		Passed: score >= core.PassThreshold,
		Report: report.Report,
	}
}
