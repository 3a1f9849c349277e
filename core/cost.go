package core

import "fmt"

// CapabilityCosts holds the static per-document cost estimate of each capability, in USD.
// These are planning figures, not metered usage.
var CapabilityCosts = map[Kind]float64{
	KindShortFormSummaries:    0.0040,
	KindSearchMetadata:        0.0020,
	KindClassification:        0.0015,
	KindTagging:               0.0010,
	KindStructuredDescription: 0.0050,
	KindVisualPrompt:          0.0020,
	KindEmbeddingVector:       0.0002,
	KindQualityAssessment:     0.0060,
}

// CostOf returns the fixed cost of one invocation of kind.
func CostOf(kind Kind) float64 {
	return CapabilityCosts[kind]
}

// CostEstimate is the projected cost of enriching a number of documents.
// Breakdown is per capability across all documents.
type CostEstimate struct {
	Documents   int              `json:"documents"`
	Total       float64          `json:"total"`
	PerDocument float64          `json:"per_document"`
	Breakdown   map[Kind]float64 `json:"breakdown"`
}

// PerDocumentCost sums the fixed cost of every capability in one full run.
func PerDocumentCost() float64 {
	var sum float64
	for _, kind := range AllKinds {
		sum += CostOf(kind)
	}
	return sum
}

// EstimateCost projects the cost of running the full pipeline over documentCount
// documents. Total is exactly PerDocument * documentCount.
func EstimateCost(documentCount int) (CostEstimate, error) {
	if documentCount < 0 {
		return CostEstimate{}, fmt.Errorf("%w: %d", ErrInvalidDocumentCount, documentCount)
	}

	n := float64(documentCount)
	breakdown := make(map[Kind]float64, len(AllKinds))
	for _, kind := range AllKinds {
		breakdown[kind] = CostOf(kind) * n
	}

	perDocument := PerDocumentCost()
	return CostEstimate{
		Documents:   documentCount,
		Total:       perDocument * n,
		PerDocument: perDocument,
		Breakdown:   breakdown,
	}, nil
}
