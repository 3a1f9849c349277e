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


package mock

import (
	"sync/atomic"

	"github.com/poiesic/enrichit/ai"
)

// MockProvider bundles a MockGenerator and a MockEmbedder behind ai.AIProvider.
type MockProvider struct {
	generator *MockGenerator
	embedder  *MockEmbedder
	closed    atomic.Bool
}

// NewMockProvider returns a provider whose generator answers every task with
// DefaultResponses and whose embedder returns deterministic unit vectors.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockGenerator(), NewMockEmbedder())
}

// NewMockProviderWithServices wraps caller-owned doubles so a test can script
// responses and inspect calls after handing the provider to a constructor.
func NewMockProviderWithServices(generator *MockGenerator, embedder *MockEmbedder) ai.AIProvider {
	return &MockProvider{generator: generator, embedder: embedder}
}

func (p *MockProvider) Generator() ai.Generator { return p.generator }

func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

// Close marks the provider closed. It never fails.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}

func (p *MockProvider) GetMockGenerator() *MockGenerator { return p.generator }

func (p *MockProvider) GetMockEmbedder() *MockEmbedder { return p.embedder }
