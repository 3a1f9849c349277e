package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/enrichit/core"
)

func (inv *Invoker) summaries(ctx context.Context, req Request) (core.Result, error) {
	var s core.Summaries
	if err := inv.generate(ctx, core.KindShortFormSummaries, summariesPrompt(req.Text), &s); err != nil {
		return nil, err
	}
	s.Short = strings.TrimSpace(s.Short)
	s.Medium = strings.TrimSpace(s.Medium)
	s.Long = strings.TrimSpace(s.Long)

	short, medium, long := utf8.RuneCountInString(s.Short), utf8.RuneCountInString(s.Medium), utf8.RuneCountInString(s.Long)
	if short == 0 {
		return nil, fmt.Errorf("%w: empty short summary", core.ErrInsufficientOutput)
	}
	if !(short < medium && medium < long) {
		return nil, fmt.Errorf("%w: summary lengths %d/%d/%d are not increasing", core.ErrInsufficientOutput, short, medium, long)
	}
	return &s, nil
}

// keywordList accepts keywords as a comma-separated string or a JSON array.
type keywordList string

func (k *keywordList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*k = keywordList(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*k = keywordList(strings.Join(list, ","))
	return nil
}

func (inv *Invoker) searchMetadata(ctx context.Context, req Request) (core.Result, error) {
	var raw struct {
		Title       string      `json:"seo_title"`
		Description string      `json:"seo_description"`
		Keywords    keywordList `json:"seo_keywords"`
	}
	if err := inv.generate(ctx, core.KindSearchMetadata, searchMetadataPrompt(req.Text), &raw); err != nil {
		return nil, err
	}

	m := &core.SearchMetadata{
		Title:       core.Truncate(raw.Title, core.MaxSEOTitleLength),
		Description: core.Truncate(raw.Description, core.MaxSEODescriptionLength),
	}
	if m.Title == "" || m.Description == "" {
		return nil, fmt.Errorf("%w: missing search title or description", core.ErrInsufficientOutput)
	}

	terms := core.SplitKeywords(string(raw.Keywords))
	if len(terms) < core.MinSEOKeywords {
		return nil, fmt.Errorf("%w: %d keywords, minimum %d", core.ErrInsufficientOutput, len(terms), core.MinSEOKeywords)
	}
	m.Keywords = strings.Join(terms, ", ")
	return m, nil
}

func (inv *Invoker) classification(ctx context.Context, req Request) (core.Result, error) {
	var c core.Classification
	if err := inv.generate(ctx, core.KindClassification, classificationPrompt(req.Text), &c); err != nil {
		return nil, err
	}
	c.Category = strings.TrimSpace(c.Category)
	c.Subcategory = strings.TrimSpace(c.Subcategory)
	c.ContentType = strings.ToLower(strings.TrimSpace(c.ContentType))
	c.Audience = strings.TrimSpace(c.Audience)
	if c.Category == "" || c.ContentType == "" {
		return nil, fmt.Errorf("%w: missing category or content type", core.ErrInsufficientOutput)
	}
	c.Confidence = max(0, min(c.Confidence, 1))
	return &c, nil
}

func (inv *Invoker) tagging(ctx context.Context, req Request) (core.Result, error) {
	var raw struct {
		Tags []string `json:"tags"`
	}
	if err := inv.generate(ctx, core.KindTagging, taggingPrompt(req.Text), &raw); err != nil {
		return nil, err
	}
	tags, err := core.NormalizeTags(raw.Tags)
	if err != nil {
		return nil, err
	}
	return tags, nil
}
