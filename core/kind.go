package core

import "fmt"

// Kind identifies one of the generation capabilities run by the pipeline.
type Kind int

const (
	// KindShortFormSummaries produces short, medium and long summaries.
	KindShortFormSummaries Kind = iota + 1
	// KindSearchMetadata produces the SEO title, description and keywords.
	KindSearchMetadata
	// KindClassification assigns a category and content type.
	KindClassification
	// KindTagging produces 3-5 normalized tags.
	KindTagging
	// KindStructuredDescription produces a long description and schema.org JSON-LD.
	KindStructuredDescription
	// KindVisualPrompt produces an image generation prompt.
	KindVisualPrompt
	// KindEmbeddingVector produces the document embedding.
	KindEmbeddingVector
	// KindQualityAssessment scores every other capability's output.
	KindQualityAssessment
)

// AllKinds lists every capability kind in declaration order.
var AllKinds = []Kind{
	KindShortFormSummaries,
	KindSearchMetadata,
	KindClassification,
	KindTagging,
	KindStructuredDescription,
	KindVisualPrompt,
	KindEmbeddingVector,
	KindQualityAssessment,
}

var kindNames = map[Kind]string{
	KindShortFormSummaries:    "short_form_summaries",
	KindSearchMetadata:        "search_metadata",
	KindClassification:        "classification",
	KindTagging:               "tagging",
	KindStructuredDescription: "structured_description",
	KindVisualPrompt:          "visual_prompt",
	KindEmbeddingVector:       "embedding_vector",
	KindQualityAssessment:     "quality_assessment",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// MarshalText implements encoding.TextMarshaler so kinds can be used as JSON map keys.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a snake_case name back into a Kind.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Phase is a group of capabilities executed behind a common barrier.
type Phase int

const (
	// PhaseGeneration runs the four independent text capabilities.
	PhaseGeneration Phase = iota + 1
	// PhaseEnrichment runs description, visual prompt and embedding.
	PhaseEnrichment
	// PhaseAssessment runs the quality gate.
	PhaseAssessment
)

// Phases lists the phases in execution order.
var Phases = []Phase{PhaseGeneration, PhaseEnrichment, PhaseAssessment}

// Kinds returns the capabilities that belong to the phase.
func (p Phase) Kinds() []Kind {
	switch p {
	case PhaseGeneration:
		return []Kind{KindShortFormSummaries, KindSearchMetadata, KindClassification, KindTagging}
	case PhaseEnrichment:
		return []Kind{KindStructuredDescription, KindVisualPrompt, KindEmbeddingVector}
	case PhaseAssessment:
		return []Kind{KindQualityAssessment}
	default:
		return nil
	}
}

// String returns a short label used in logs and metrics.
func (p Phase) String() string {
	switch p {
	case PhaseGeneration:
		return "phase1"
	case PhaseEnrichment:
		return "phase2"
	case PhaseAssessment:
		return "phase3"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PhaseOf returns the phase a kind is scheduled in.
func PhaseOf(kind Kind) Phase {
	for _, p := range Phases {
		for _, k := range p.Kinds() {
			if k == kind {
				return p
			}
		}
	}
	return 0
}
