package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/core"
)

// DefaultResponses holds a well-formed canned response for every capability task.
// Each passes the invoker's validation.
var DefaultResponses = map[string]string{
	core.KindShortFormSummaries.String(): `{
		"summary_short": "Go makes concurrent services simple.",
		"summary_medium": "Go makes concurrent services simple to build, with goroutines and channels as first-class tools for structuring work.",
		"summary_long": "Go makes concurrent services simple to build. Goroutines are cheap, channels coordinate them, and the standard library covers networking, encoding and testing. Together these let small teams ship reliable backends quickly."
	}`,
	core.KindSearchMetadata.String(): `{
		"seo_title": "Building Concurrent Services in Go",
		"seo_description": "A practical look at goroutines, channels and the Go standard library for building reliable backend services.",
		"seo_keywords": "go, concurrency, goroutines, backend services"
	}`,
	core.KindClassification.String(): `{
		"category": "Technology",
		"subcategory": "Programming Languages",
		"content_type": "article",
		"audience": "developers",
		"confidence": 0.92
	}`,
	core.KindTagging.String(): `{"tags": ["go", "concurrency", "backend", "goroutines"]}`,
	core.KindStructuredDescription.String(): `{
		"description": "An article introducing Go's concurrency model and how it supports backend service development.",
		"schema_json": "{\"@context\": \"https://schema.org\", \"@type\": \"TechArticle\", \"headline\": \"Building Concurrent Services in Go\"}"
	}`,
	core.KindVisualPrompt.String(): `{
		"image_prompt": "A friendly gopher mascot directing streams of glowing data packets through parallel pipes, flat vector illustration",
		"image_style": "flat illustration",
		"negative_prompt": "text, watermark",
		"aspect_ratio": "16:9"
	}`,
	core.KindQualityAssessment.String(): `{
		"score": 85,
		"passed": true,
		"report": {
			"summaries": {"score": 22, "max": 25, "feedback": "Clear and progressively detailed."},
			"search_metadata": {"score": 21, "max": 25, "feedback": "Title and description fit their limits."},
			"classification_tagging": {"score": 17, "max": 20, "feedback": "Accurate category and relevant tags."},
			"structured_description": {"score": 13, "max": 15, "feedback": "Valid schema.org markup."},
			"visual_prompt": {"score": 12, "max": 15, "feedback": "Vivid and on topic."},
			"overall_feedback": "Solid metadata set.",
			"issues": [],
			"recommendations": ["Mention specific standard library packages."]
		}
	}`,
}

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Responses is consulted by task.
	GenerateFunc func(ctx context.Context, req ai.GenerateRequest) (string, error)

	// Responses maps a task name to the canned response text.
	Responses map[string]string

	mu        sync.Mutex
	callCount int
	tasks     map[string]int
	requests  []ai.GenerateRequest
}

// NewMockGenerator creates a mock generator serving DefaultResponses.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	responses := make(map[string]string, len(DefaultResponses))
	for k, v := range DefaultResponses {
		responses[k] = v
	}
	return &MockGenerator{
		Responses: responses,
		tasks:     make(map[string]int),
	}
}

// WithGenerateFunc sets custom behavior for Generate.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, req ai.GenerateRequest) (string, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = fn
	return m
}

// WithResponse overrides the canned response for one task.
func (m *MockGenerator) WithResponse(task, response string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[task] = response
	return m
}

// Generate returns the canned response for req.Task.
func (m *MockGenerator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.tasks[req.Task]++
	m.requests = append(m.requests, req)
	fn := m.GenerateFunc
	resp, ok := m.Responses[req.Task]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if !ok {
		return "", fmt.Errorf("%w: no canned response for task %q", ai.ErrProvider, req.Task)
	}
	return resp, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// TaskCount returns the number of calls made for one task.
func (m *MockGenerator) TaskCount(task string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[task]
}

// Requests returns a copy of every request received, in arrival order.
func (m *MockGenerator) Requests() []ai.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.GenerateRequest(nil), m.requests...)
}

// Reset clears call counts and custom behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.tasks = make(map[string]int)
	m.requests = nil
	m.GenerateFunc = nil
}
