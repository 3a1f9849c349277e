package capability

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/enrichit/core"
)

type rawDimension struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func (d rawDimension) toScore(maxPoints int) core.DimensionScore {
	return core.DimensionScore{
		Score:    core.ScoreFromFloat(d.Score, maxPoints),
		Max:      maxPoints,
		Feedback: strings.TrimSpace(d.Feedback),
	}
}

// assessment returns the model's judgment with the score clamped to
// [0, MaxQualityScore] and rounded. The proposed pass flag is passed through
// untouched; the quality gate owns the pass decision.
func (inv *Invoker) assessment(ctx context.Context, req Request) (core.Result, error) {
	if req.Outputs == nil {
		return nil, ErrMissingOutputs
	}
	if missing := req.Outputs.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrMissingOutputs, missing)
	}

	prompt, err := assessmentPrompt(req.Text, req.Outputs)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Score  *float64 `json:"score"`
		Passed bool     `json:"passed"`
		Report struct {
			Summaries             rawDimension `json:"summaries"`
			SearchMetadata        rawDimension `json:"search_metadata"`
			ClassificationTagging rawDimension `json:"classification_tagging"`
			StructuredDescription rawDimension `json:"structured_description"`
			VisualPrompt          rawDimension `json:"visual_prompt"`
			OverallFeedback       string       `json:"overall_feedback"`
			Issues                []string     `json:"issues"`
			Recommendations       []string     `json:"recommendations"`
		} `json:"report"`
	}
	if err := inv.generate(ctx, core.KindQualityAssessment, prompt, &raw); err != nil {
		return nil, err
	}
	if raw.Score == nil || math.IsNaN(*raw.Score) || math.IsInf(*raw.Score, 0) {
		return nil, fmt.Errorf("%w: missing score", core.ErrMalformedOutput)
	}

	r := raw.Report
	report := core.ValidationReport{
		Summaries:             r.Summaries.toScore(core.SummariesMaxPoints),
		SearchMetadata:        r.SearchMetadata.toScore(core.SearchMetadataMaxPoints),
		ClassificationTagging: r.ClassificationTagging.toScore(core.ClassificationTaggingMaxPoints),
		StructuredDescription: r.StructuredDescription.toScore(core.StructuredDescriptionMaxPoints),
		VisualPrompt:          r.VisualPrompt.toScore(core.VisualPromptMaxPoints),
		OverallFeedback:       strings.TrimSpace(r.OverallFeedback),
		Issues:                nonNil(r.Issues),
		Recommendations:       nonNil(r.Recommendations),
	}

	return &core.QualityReport{
		Score:          core.ScoreFromFloat(*raw.Score, core.MaxQualityScore),
		ProposedPassed: raw.Passed,
		Report:         report,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
