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


package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateDocument rejects text shorter than MinDocumentLength characters
// once surrounding whitespace is removed.
func ValidateDocument(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < MinDocumentLength {
		return fmt.Errorf("%w: %d characters, minimum %d", ErrEmptyInput, n, MinDocumentLength)
	}
	return nil
}

// NormalizeTag lowercases a tag, turns whitespace and underscores into hyphens
// and drops every character outside [a-z0-9-]. Leading, trailing and repeated
// hyphens are collapsed. Returns "" if nothing usable remains.
func NormalizeTag(tag string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// IsValidTag reports whether tag matches ^[a-z0-9-]+$.
func IsValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

// NormalizeTags normalizes, de-duplicates and caps raw tags at MaxTags,
// preserving first-seen order. It fails with ErrInsufficientOutput if fewer
// than MinTags valid tags remain.
func NormalizeTags(raw []string) (Tags, error) {
	seen := make(map[string]bool, len(raw))
	tags := make(Tags, 0, MaxTags)
	for _, r := range raw {
		tag := NormalizeTag(r)
		if tag == "" || !IsValidTag(tag) || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	if len(tags) < MinTags {
		return nil, fmt.Errorf("%w: %d valid tags, minimum %d", ErrInsufficientOutput, len(tags), MinTags)
	}
	return tags, nil
}

// Truncate shortens s to at most limit characters. When it has to cut, it
// prefers the last word boundary in the final fifth of the budget.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := runes[:limit]
	if i := lastSpace(cut); i >= limit*4/5 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}

// SplitKeywords splits a comma-separated keyword list into trimmed, non-empty terms.
func SplitKeywords(keywords string) []string {
	parts := strings.Split(keywords, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}

// ValidateEmbedding checks the vector has exactly EmbeddingDimensions finite components.
func ValidateEmbedding(v []float32) error {
	if len(v) != EmbeddingDimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), EmbeddingDimensions)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrMalformedOutput, i)
		}
	}
	return nil
}

// ScoreFromFloat clamps a model-reported score to [0, limit] and rounds it.
// The clamp happens in float64 so values beyond the int range saturate
// instead of wrapping. NaN maps to 0.
func ScoreFromFloat(score float64, limit int) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(score, float64(limit)))))
}

// ClampScore forces a quality score into [0, MaxQualityScore].
func ClampScore(score int) int {
	return max(0, min(score, MaxQualityScore))
}

// ValidateRecord validates a ContentRecord according to domain rules.
//
// Validation rules:
//   - Body must pass ValidateDocument
//   - Result must be present
//   - Status must be approved or needs_review
//
// NOT validated (populated by storage):
//   - ID (0 is valid before insertion)
func ValidateRecord(record *ContentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if err := ValidateDocument(record.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if record.Result == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidRecord)
	}
	if record.Status != RecordStatusApproved && record.Status != RecordStatusNeedsReview {
		return fmt.Errorf("%w: status %q", ErrInvalidRecord, record.Status)
	}
	return nil
}
