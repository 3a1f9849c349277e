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


package openai

import (
	"log/slog"

	"github.com/poiesic/enrichit/ai"
)

// Provider pairs a langchaingo chat Generator with a go-openai Embedder, both
// pointed at OpenAI-compatible endpoints from the same ai.Config.
type Provider struct {
	generator *Generator
	embedder  *Embedder
	logger    *slog.Logger
}

// NewProvider validates config and builds both clients. It returns
// ai.ErrInvalidConfig for an incomplete config.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	generator, err := newGenerator(config)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"generatorHost", config.GeneratorHost, "generatorModel", config.GeneratorModel,
		"embeddingHost", config.EmbeddingHost, "embeddingModel", config.EmbeddingModel,
		"dimensions", config.EmbeddingDimensions)

	return &Provider{generator: generator, embedder: embedder, logger: logger}, nil
}

func (p *Provider) Generator() ai.Generator { return p.generator }

func (p *Provider) Embedder() ai.Embedder { return p.embedder }

// Close is a no-op; both clients are plain HTTP clients.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	return nil
}
