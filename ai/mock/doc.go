// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Generator, ai.Embedder,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
// All mocks are safe for concurrent use, since the pipeline calls them from
// several goroutines at once.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	text, err := mockProvider.Generator().Generate(ctx, ai.GenerateRequest{Task: "tagging"})
//
//	// Custom behavior injection
//	gen := mock.NewMockGenerator().
//	    WithResponse("tagging", `{"tags": ["only-one"]}`)
//
//	// Check call counts
//	count := gen.TaskCount("tagging")
//
// # Default Behavior
//
//   - MockGenerator: Returns DefaultResponses keyed by task name
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockProvider: Aggregates mock generator and embedder
package mock
