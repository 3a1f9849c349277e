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


// Package ai provides abstractions for the model backends used by enrichit.
//
// The capabilities in package capability never talk to a model directly.
// They depend on the small interfaces defined here:
//
//   - Generator: sends a prompt and returns the raw response text
//   - Embedder: turns text into vectors
//   - AIProvider: aggregates both for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test constructors (mock.NewMockGenerator,
// mock.NewMockEmbedder) return CONCRETE types so tests can inject behavior
// and read call counts.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//	gen := mock.NewMockGenerator()              // returns *mock.MockGenerator
//
// # Errors
//
// Backend failures wrap ErrProvider. Failures worth a retry additionally wrap
// ErrTransient; use IsTransient to classify an error, which also recognizes
// network timeouts and dropped connections.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	text, err := provider.Generator().Generate(ctx, ai.GenerateRequest{Prompt: "..."})
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
package ai
