package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/enrichit/core"
)

func (inv *Invoker) structuredDescription(ctx context.Context, req Request) (core.Result, error) {
	var raw struct {
		Description string          `json:"description"`
		SchemaJSON  json.RawMessage `json:"schema_json"`
	}
	if err := inv.generate(ctx, core.KindStructuredDescription, descriptionPrompt(req.Text, req.Outputs), &raw); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: empty description", core.ErrInsufficientOutput)
	}
	schema, err := normalizeSchema(raw.SchemaJSON)
	if err != nil {
		return nil, err
	}
	return &core.StructuredDescription{Description: description, SchemaJSON: schema}, nil
}

// normalizeSchema accepts schema_json either as an embedded object or as a
// string holding one, and returns it compacted. The object must carry a
// schema.org @context and an @type.
func normalizeSchema(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing schema_json", core.ErrInsufficientOutput)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: schema_json: %v", core.ErrMalformedOutput, err)
		}
		raw = []byte(strings.TrimSpace(s))
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: schema_json is not an object: %v", core.ErrMalformedOutput, err)
	}
	if !mentionsSchemaOrg(doc["@context"]) {
		return "", fmt.Errorf("%w: schema_json lacks a schema.org @context", core.ErrInsufficientOutput)
	}
	if !hasType(doc["@type"]) {
		return "", fmt.Errorf("%w: schema_json lacks @type", core.ErrInsufficientOutput)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("%w: schema_json: %v", core.ErrMalformedOutput, err)
	}
	return buf.String(), nil
}

func mentionsSchemaOrg(v any) bool {
	switch c := v.(type) {
	case string:
		return strings.Contains(c, "schema.org")
	case []any:
		for _, item := range c {
			if mentionsSchemaOrg(item) {
				return true
			}
		}
	case map[string]any:
		if vocab, ok := c["@vocab"]; ok {
			return mentionsSchemaOrg(vocab)
		}
	}
	return false
}

func hasType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0 && hasType(t[0])
	}
	return false
}

func (inv *Invoker) visualPrompt(ctx context.Context, req Request) (core.Result, error) {
	var p core.VisualPrompt
	if err := inv.generate(ctx, core.KindVisualPrompt, visualPromptPrompt(req.Text, req.Outputs), &p); err != nil {
		return nil, err
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	if p.Prompt == "" {
		return nil, fmt.Errorf("%w: empty image prompt", core.ErrInsufficientOutput)
	}
	return &p, nil
}

func (inv *Invoker) embedding(ctx context.Context, req Request) (core.Result, error) {
	vector, err := call(ctx, inv.guard, inv.guard.embedder, core.KindEmbeddingVector.String(), func(ctx context.Context) ([]float32, error) {
		return inv.embedder.EmbedText(ctx, req.Text)
	})
	if err != nil {
		return nil, err
	}
	if err := core.ValidateEmbedding(vector); err != nil {
		return nil, err
	}
	return core.Embedding(vector), nil
}
