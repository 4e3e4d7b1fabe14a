// Package ai describes the external reasoning service used for profile
// synthesis, job normalization and match opinions, and the handling of its
// untrusted structured output.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Reasoner sends a system instruction and a prompt to a language model and
// returns the raw textual response.
type Reasoner interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// Request is a single structured-output call.
type Request struct {
	System string
	Prompt string
	Schema *Schema
}

// Generate performs req against r and returns the validated JSON object.
// A nil reasoner or a failed call yields ErrAnalysisUnavailable; output that is
// not JSON or does not satisfy the schema yields an error matching both
// ErrAnalysisUnavailable and ErrMalformedOutput. Nothing from an invalid
// response is returned.
func Generate(ctx context.Context, r Reasoner, req Request) (map[string]any, error) {
	if r == nil {
		return nil, unavailable(nil)
	}
	if req.Schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	raw, err := r.GenerateContent(ctx, req.System, req.Prompt)
	if err != nil {
		return nil, unavailable(err)
	}

	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, unavailable(fmt.Errorf("%w: no json object in response", ErrMalformedOutput))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, unavailable(fmt.Errorf("%w: %v", ErrMalformedOutput, err))
	}

	if err := req.Schema.Validate(data); err != nil {
		return nil, unavailable(err)
	}

	return data, nil
}

// ModelName returns the model identifier of r or "" when r is nil.
func ModelName(r Reasoner) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Model())
}
