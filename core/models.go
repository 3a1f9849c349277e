package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

const (
	// EmbeddingDimensions is the fixed length of every document embedding.
	EmbeddingDimensions = 3072

	// PassThreshold is the minimum quality score for a result to pass the gate.
	PassThreshold = 70

	// MaxQualityScore is the upper bound of the quality score range.
	MaxQualityScore = 100

	// MaxSEOTitleLength is the hard cap on the search title, in characters.
	MaxSEOTitleLength = 60

	// MaxSEODescriptionLength is the hard cap on the search description, in characters.
	MaxSEODescriptionLength = 160

	// MinSEOKeywords is the minimum number of comma-separated search keywords.
	MinSEOKeywords = 3

	// MinTags and MaxTags bound the number of tags produced by tagging.
	MinTags = 3
	MaxTags = 5

	// MinDocumentLength is the shortest accepted document, in characters after trimming.
	MinDocumentLength = 50
)

// ID is a unique identifier for stored content records.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Result is the payload returned by a single capability.
// The set of implementations is closed: one type per Kind.
type Result interface {
	Kind() Kind
}

// Summaries holds three summaries of increasing length.
type Summaries struct {
	Short  string `json:"summary_short"`
	Medium string `json:"summary_medium"`
	Long   string `json:"summary_long"`
}

func (*Summaries) Kind() Kind { return KindShortFormSummaries }

// SearchMetadata holds SEO fields. Title and Description are already truncated
// to their hard caps; Keywords is a comma-separated list.
type SearchMetadata struct {
	Title       string `json:"seo_title"`
	Description string `json:"seo_description"`
	Keywords    string `json:"seo_keywords"`
}

func (*SearchMetadata) Kind() Kind { return KindSearchMetadata }

// KeywordList splits Keywords into trimmed, non-empty terms.
func (m *SearchMetadata) KeywordList() []string {
	return SplitKeywords(m.Keywords)
}

// Classification places the document in a content taxonomy.
type Classification struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	ContentType string  `json:"content_type"`
	Audience    string  `json:"audience,omitempty"`
	Confidence  float64 `json:"confidence"`
}

func (*Classification) Kind() Kind { return KindClassification }

// Tags is an ordered set of 3-5 normalized tags.
type Tags []string

func (Tags) Kind() Kind { return KindTagging }

// StructuredDescription holds a long-form description and schema.org JSON-LD.
type StructuredDescription struct {
	Description string `json:"description"`
	SchemaJSON  string `json:"schema_json"`
}

func (*StructuredDescription) Kind() Kind { return KindStructuredDescription }

// VisualPrompt describes an illustrative image for the document.
type VisualPrompt struct {
	Prompt         string `json:"image_prompt"`
	Style          string `json:"image_style,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
}

func (*VisualPrompt) Kind() Kind { return KindVisualPrompt }

// Embedding is a document vector of EmbeddingDimensions components.
type Embedding []float32

func (Embedding) Kind() Kind { return KindEmbeddingVector }

// Dimension maximum points. They sum to MaxQualityScore.
const (
	SummariesMaxPoints             = 25
	SearchMetadataMaxPoints        = 25
	ClassificationTaggingMaxPoints = 20
	StructuredDescriptionMaxPoints = 15
	VisualPromptMaxPoints          = 15
)

// DimensionScore is the gate's judgment of one group of outputs.
type DimensionScore struct {
	Score    int    `json:"score"`
	Max      int    `json:"max"`
	Feedback string `json:"feedback"`
}

// ValidationReport is the per-dimension breakdown produced by the quality gate.
type ValidationReport struct {
	Summaries             DimensionScore `json:"summaries"`
	SearchMetadata        DimensionScore `json:"search_metadata"`
	ClassificationTagging DimensionScore `json:"classification_tagging"`
	StructuredDescription DimensionScore `json:"structured_description"`
	VisualPrompt          DimensionScore `json:"visual_prompt"`
	OverallFeedback       string         `json:"overall_feedback"`
	Issues                []string       `json:"issues"`
	Recommendations       []string       `json:"recommendations"`
}

// Dimensions returns the five dimension scores in rubric order.
func (r *ValidationReport) Dimensions() []DimensionScore {
	return []DimensionScore{
		r.Summaries,
		r.SearchMetadata,
		r.ClassificationTagging,
		r.StructuredDescription,
		r.VisualPrompt,
	}
}

// QualityReport is the raw output of the quality assessment capability.
// ProposedPassed is whatever the model claimed; the gate ignores it.
type QualityReport struct {
	Score          int              `json:"score"`
	ProposedPassed bool             `json:"passed"`
	Report         ValidationReport `json:"report"`
}

func (*QualityReport) Kind() Kind { return KindQualityAssessment }

// Outputs collects the generation results that the quality gate scores.
type Outputs struct {
	Summaries      *Summaries
	SearchMetadata *SearchMetadata
	Classification *Classification
	Tags           Tags
	Description    *StructuredDescription
	VisualPrompt   *VisualPrompt
	Embedding      Embedding
}

// Set stores a result in its slot. Quality results are not outputs and are ignored.
func (o *Outputs) Set(r Result) {
	switch v := r.(type) {
	case *Summaries:
		o.Summaries = v
	case *SearchMetadata:
		o.SearchMetadata = v
	case *Classification:
		o.Classification = v
	case Tags:
		o.Tags = v
	case *StructuredDescription:
		o.Description = v
	case *VisualPrompt:
		o.VisualPrompt = v
	case Embedding:
		o.Embedding = v
	}
}

// Missing returns the generation kinds whose slot is still empty.
func (o *Outputs) Missing() []Kind {
	var missing []Kind
	if o.Summaries == nil {
		missing = append(missing, KindShortFormSummaries)
	}
	if o.SearchMetadata == nil {
		missing = append(missing, KindSearchMetadata)
	}
	if o.Classification == nil {
		missing = append(missing, KindClassification)
	}
	if o.Tags == nil {
		missing = append(missing, KindTagging)
	}
	if o.Description == nil {
		missing = append(missing, KindStructuredDescription)
	}
	if o.VisualPrompt == nil {
		missing = append(missing, KindVisualPrompt)
	}
	if o.Embedding == nil {
		missing = append(missing, KindEmbeddingVector)
	}
	return missing
}

// PipelineResult is the complete output of one successful pipeline run.
// It is never mutated after construction; reprocessing builds a new one.
type PipelineResult struct {
	Summaries        Summaries             `json:"summaries"`
	SearchMetadata   SearchMetadata        `json:"search_metadata"`
	Classification   Classification        `json:"classification"`
	Tags             Tags                  `json:"tags"`
	Description      StructuredDescription `json:"structured_description"`
	VisualPrompt     VisualPrompt          `json:"visual_prompt"`
	Embedding        Embedding             `json:"embedding,omitempty"`
	QualityScore     int                   `json:"quality_score"`
	Passed           bool                  `json:"passed"`
	ValidationReport ValidationReport      `json:"validation_report"`
	ElapsedTime      time.Duration         `json:"elapsed_time"`
	EstimatedCost    float64               `json:"estimated_cost"`
	CompletedAt      time.Time             `json:"completed_at"`
}

// WithoutEmbedding returns a shallow copy with the embedding dropped.
// The vector is persisted separately from the rest of the metadata.
func (r *PipelineResult) WithoutEmbedding() *PipelineResult {
	cp := *r
	cp.Embedding = nil
	return &cp
}

// RecordStatus is the review state of a stored content record.
type RecordStatus string

const (
	// RecordStatusApproved marks a record whose metadata passed the quality gate.
	RecordStatusApproved RecordStatus = "approved"
	// RecordStatusNeedsReview marks a record whose metadata scored below the threshold.
	RecordStatusNeedsReview RecordStatus = "needs_review"
)

// ContentRecord is a persisted document together with its generated metadata.
// Result never carries the embedding; vectors live in the embedding repository.
type ContentRecord struct {
	Id          ID              `json:"id"`
	ContentHash ID              `json:"content_hash"`
	Body        string          `json:"body"`
	Status      RecordStatus    `json:"status"`
	Result      *PipelineResult `json:"result"`
	InsertedAt  time.Time       `json:"inserted_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Title returns the record's search title, falling back to the first line of the body.
func (r *ContentRecord) Title() string {
	if r.Result != nil && r.Result.SearchMetadata.Title != "" {
		return r.Result.SearchMetadata.Title
	}
	first, _, _ := strings.Cut(strings.TrimSpace(r.Body), "\n")
	return Truncate(strings.TrimLeft(first, "# "), MaxSEOTitleLength)
}

// SimilarityMatch represents a record match from vector similarity search.
type SimilarityMatch struct {
	RecordId ID      `json:"record_id"`
	Score    float64 `json:"similarity"`
}

// SearchResult represents a search result with the full record and similarity.
type SearchResult struct {
	Record *ContentRecord `json:"record"`
	Score  float64        `json:"similarity"`
	// Verbatim is set when every significant query word appears in the record
	// body or its generated title, keywords or tags.
	Verbatim bool `json:"verbatim,omitempty"`
}

// Checkpoint records how far a resumable batch job has progressed.
// LastID is the highest ID walked so far; Failed lists IDs at or below it
// that still need another attempt.
type Checkpoint struct {
	Name      string    `json:"name"`
	LastID    ID        `json:"last_id"`
	Processed int       `json:"processed"`
	Failed    []ID      `json:"failed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
