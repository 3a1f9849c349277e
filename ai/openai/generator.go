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
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/poiesic/enrichit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// statusPattern pulls the HTTP status out of langchaingo's error text,
// e.g. "API returned unexpected status code: 429: rate limited".
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends a system and user message and returns the first choice's text.
func (g *Generator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	g.logger.Debug("generating content", "task", req.Task, "prompt_length", len(req.Prompt))

	response, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Error("failed to generate content", "task", req.Task, "err", err)
		return "", classifyError(err)
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model", "task", req.Task)
		return "", fmt.Errorf("%w: no choices returned", ai.ErrProvider)
	}

	return response.Choices[0].Content, nil
}

// classifyError wraps err with ai.ErrProvider, adding ai.ErrTransient for
// timeouts, rate limiting and server errors.
func classifyError(err error) error {
	if ai.IsTransient(err) {
		return fmt.Errorf("%w: %w: %w", ai.ErrProvider, ai.ErrTransient, err)
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		if m[1] == "429" || m[1][0] == '5' {
			return fmt.Errorf("%w: %w: %w", ai.ErrProvider, ai.ErrTransient, err)
		}
	}
	return fmt.Errorf("%w: %w", ai.ErrProvider, err)
}
