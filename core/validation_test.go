package core

import (
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{name: "empty", text: "", wantErr: ErrEmptyInput},
		{name: "whitespace only", text: "   \n\t  ", wantErr: ErrEmptyInput},
		{name: "too short", text: "Just a few words.", wantErr: ErrEmptyInput},
		{name: "padded short text", text: "   short   " + strings.Repeat(" ", 100), wantErr: ErrEmptyInput},
		{name: "long enough", text: strings.Repeat("word ", 20), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.text)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "ValidateDocument() error = %v, want %v", err, tt.wantErr)
		})
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Machine Learning", "machine-learning"},
		{"  go_lang  ", "go-lang"},
		{"C++", "c"},
		{"--edge--case--", "edge-case"},
		{"Café", "caf"},
		{"#SEO!", "seo"},
		{"!!!", ""},
		{"web 3.0", "web-30"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeTag(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, IsValidTag(got))
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	t.Run("deduplicates after normalization", func(t *testing.T) {
		tags, err := NormalizeTags([]string{"Go", "go", "GO ", "search", "Vector DB"})
		require.NoError(t, err)
		assert.Equal(t, Tags{"go", "search", "vector-db"}, tags)
	})

	t.Run("caps at five", func(t *testing.T) {
		tags, err := NormalizeTags([]string{"a", "b", "c", "d", "e", "f", "g"})
		require.NoError(t, err)
		assert.Len(t, tags, MaxTags)
		assert.Equal(t, Tags{"a", "b", "c", "d", "e"}, tags)
	})

	t.Run("too few valid tags", func(t *testing.T) {
		_, err := NormalizeTags([]string{"ok", "!!!", "OK", ""})
		assert.ErrorIs(t, err, ErrInsufficientOutput)
	})

	t.Run("every tag matches the pattern", func(t *testing.T) {
		tags, err := NormalizeTags([]string{"Natural Language", "AI/ML", "x_y_z", "ÜBER cool"})
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, tag := range tags {
			assert.Regexp(t, `^[a-z0-9-]+$`, tag)
			assert.False(t, seen[tag])
			seen[tag] = true
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello world", Truncate("  hello world ", 60))
	})

	t.Run("respects limit", func(t *testing.T) {
		long := strings.Repeat("lorem ipsum dolor sit amet ", 20)
		for _, limit := range []int{MaxSEOTitleLength, MaxSEODescriptionLength} {
			got := Truncate(long, limit)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), limit)
			assert.NotEmpty(t, got)
			assert.False(t, strings.HasSuffix(got, " "))
		}
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		s := strings.Repeat("é", 100)
		got := Truncate(s, 60)
		assert.Equal(t, 60, utf8.RuneCountInString(got))
	})
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"go", "vector search", "ai"}, SplitKeywords(" go, vector search ,, ai ,"))
	assert.Empty(t, SplitKeywords(""))
}

func TestValidateEmbedding(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateEmbedding(make([]float32, EmbeddingDimensions)))
	})

	t.Run("wrong length", func(t *testing.T) {
		err := ValidateEmbedding(make([]float32, 1536))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("NaN component", func(t *testing.T) {
		v := make([]float32, EmbeddingDimensions)
		v[10] = float32(math.NaN())
		assert.ErrorIs(t, ValidateEmbedding(v), ErrMalformedOutput)
	})

	t.Run("infinite component", func(t *testing.T) {
		v := make([]float32, EmbeddingDimensions)
		v[0] = float32(math.Inf(1))
		assert.ErrorIs(t, ValidateEmbedding(v), ErrMalformedOutput)
	})
}

func TestScoreFromFloat(t *testing.T) {
	assert.Equal(t, 100, ScoreFromFloat(1e20, MaxQualityScore))
	assert.Equal(t, 0, ScoreFromFloat(-1e20, MaxQualityScore))
	assert.Equal(t, 72, ScoreFromFloat(71.6, MaxQualityScore))
	assert.Equal(t, 25, ScoreFromFloat(140, SummariesMaxPoints))
	assert.Equal(t, 0, ScoreFromFloat(math.NaN(), MaxQualityScore))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 70, ClampScore(70))
	assert.Equal(t, 100, ClampScore(140))
}

func TestValidateRecord(t *testing.T) {
	body := strings.Repeat("content ", 10)

	tests := []struct {
		name    string
		record  *ContentRecord
		wantErr bool
	}{
		{name: "nil record", record: nil, wantErr: true},
		{name: "missing result", record: &ContentRecord{Body: body, Status: RecordStatusApproved}, wantErr: true},
		{name: "short body", record: &ContentRecord{Body: "tiny", Status: RecordStatusApproved, Result: &PipelineResult{}}, wantErr: true},
		{name: "bad status", record: &ContentRecord{Body: body, Status: "draft", Result: &PipelineResult{}}, wantErr: true},
		{name: "valid", record: &ContentRecord{Body: body, Status: RecordStatusNeedsReview, Result: &PipelineResult{}}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCapabilityError(t *testing.T) {
	err := NewCapabilityError(KindTagging, ErrInsufficientOutput)

	assert.ErrorIs(t, err, ErrInsufficientOutput)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTagging, kind)
	assert.Contains(t, err.Error(), "tagging")

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
