package capability

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/enrichit/core"
)

const systemPrompt = `You are a content metadata assistant. You read a document and produce exactly
the structured data requested.

Output ONLY valid JSON which complies with the shape given in the instructions. Do not include any
preamble, explanation, greeting, or acknowledgment. Start your response directly with the opening
brace { and end with the closing brace }. The JSON must parse without errors; no trailing commas and
no extraneous text outside the object.`

const summariesTemplate = `Write three summaries of the document below.

Shape:
{"summary_short": string, "summary_medium": string, "summary_long": string}

Rules:
- summary_short is a single sentence of at most 160 characters.
- summary_medium is 2-3 sentences.
- summary_long is one paragraph of 4-6 sentences.
- Each summary must be strictly longer than the previous one.
- Use only facts stated in the document.

Document:
%s`

const searchMetadataTemplate = `Write search engine metadata for the document below.

Shape:
{"seo_title": string, "seo_description": string, "seo_keywords": string}

Rules:
- seo_title is at most %d characters.
- seo_description is at most %d characters and reads as a complete sentence.
- seo_keywords is a comma-separated list of at least %d search terms, most important first.

Document:
%s`

const classificationTemplate = `Classify the document below.

Shape:
{"category": string, "subcategory": string, "content_type": string, "audience": string, "confidence": number}

Rules:
- category is a broad topic such as "Technology", "Health" or "Finance".
- content_type is one of: article, tutorial, news, review, opinion, reference, announcement, other.
- confidence is between 0 and 1.

Document:
%s`

const taggingTemplate = `Choose tags for the document below.

Shape:
{"tags": [string, ...]}

Rules:
- Return between %d and %d tags.
- Tags are lowercase, use hyphens instead of spaces, and contain only a-z, 0-9 and hyphens.
- Tags are unique and specific to the document.

Document:
%s`

const descriptionTemplate = `Write a structured description of the document below.

Shape:
{"description": string, "schema_json": object}

Rules:
- description is 2-4 sentences for a catalog listing.
- schema_json is schema.org JSON-LD with "@context": "https://schema.org" and an "@type"
  such as "Article", "TechArticle", "BlogPosting" or "NewsArticle".
- Include "headline" and "description" properties in schema_json.

Context already generated for this document:
Title: %s
Category: %s
Tags: %v

Document:
%s`

const visualPromptTemplate = `Write a prompt for an image generator to illustrate the document below.

Shape:
{"image_prompt": string, "image_style": string, "negative_prompt": string, "aspect_ratio": string}

Rules:
- image_prompt describes a single concrete scene in under 400 characters.
- Do not ask for any text, letters or logos in the image.
- aspect_ratio is one of "16:9", "4:3", "1:1".

Context already generated for this document:
Summary: %s
Category: %s

Document:
%s`

const assessmentTemplate = `Assess the quality of the metadata generated for the document below.

Shape:
{
  "score": integer,
  "passed": boolean,
  "report": {
    "summaries": {"score": integer, "max": 25, "feedback": string},
    "search_metadata": {"score": integer, "max": 25, "feedback": string},
    "classification_tagging": {"score": integer, "max": 20, "feedback": string},
    "structured_description": {"score": integer, "max": 15, "feedback": string},
    "visual_prompt": {"score": integer, "max": 15, "feedback": string},
    "overall_feedback": string,
    "issues": [string, ...],
    "recommendations": [string, ...]
  }
}

Rules:
- Score each dimension from 0 to its max for accuracy, completeness and usefulness.
- score is your overall judgment from 0 to 100.
- passed is true when score is at least %d.

Generated metadata:
%s

Document:
%s`

func summariesPrompt(text string) string {
	return fmt.Sprintf(summariesTemplate, text)
}

func searchMetadataPrompt(text string) string {
	return fmt.Sprintf(searchMetadataTemplate, core.MaxSEOTitleLength, core.MaxSEODescriptionLength, core.MinSEOKeywords, text)
}

func classificationPrompt(text string) string {
	return fmt.Sprintf(classificationTemplate, text)
}

func taggingPrompt(text string) string {
	return fmt.Sprintf(taggingTemplate, core.MinTags, core.MaxTags, text)
}

// descriptionPrompt adds whatever Phase 1 context is available.
func descriptionPrompt(text string, out *core.Outputs) string {
	var title, category string
	var tags core.Tags
	if out != nil {
		if out.SearchMetadata != nil {
			title = out.SearchMetadata.Title
		}
		if out.Classification != nil {
			category = out.Classification.Category
		}
		tags = out.Tags
	}
	return fmt.Sprintf(descriptionTemplate, title, category, tags, text)
}

func visualPromptPrompt(text string, out *core.Outputs) string {
	var summary, category string
	if out != nil {
		if out.Summaries != nil {
			summary = out.Summaries.Medium
		}
		if out.Classification != nil {
			category = out.Classification.Category
		}
	}
	return fmt.Sprintf(visualPromptTemplate, summary, category, text)
}

// assessmentPrompt renders the outputs under review. The embedding is left out;
// it has no textual quality to judge.
func assessmentPrompt(text string, out *core.Outputs) (string, error) {
	view := struct {
		Summaries      *core.Summaries             `json:"summaries"`
		SearchMetadata *core.SearchMetadata        `json:"search_metadata"`
		Classification *core.Classification        `json:"classification"`
		Tags           core.Tags                   `json:"tags"`
		Description    *core.StructuredDescription `json:"structured_description"`
		VisualPrompt   *core.VisualPrompt          `json:"visual_prompt"`
	}{out.Summaries, out.SearchMetadata, out.Classification, out.Tags, out.Description, out.VisualPrompt}

	rendered, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(assessmentTemplate, core.PassThreshold, rendered, text), nil
}
