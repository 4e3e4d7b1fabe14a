package ai

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema describing the expected shape of a structured response.
type Schema struct {
	name   string
	doc    string
	schema *gojsonschema.Schema
}

// NewSchema compiles the schema document.
func NewSchema(name, doc string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Schema{name: name, doc: doc, schema: compiled}, nil
}

// MustSchema is like NewSchema but panics on error. Intended for embedded documents.
func MustSchema(name, doc string) *Schema {
	s, err := NewSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Document returns the raw schema text, suitable for inclusion in a prompt.
func (s *Schema) Document() string { return s.doc }

// Validate checks data against the schema and reports every violation at once.
func (s *Schema) Validate(data map[string]any) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: validate %s: %v", ErrMalformedOutput, s.name, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: s.name}
	for _, re := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{
			Field:   re.Field(),
			Message: re.Description(),
		})
	}
	sort.SliceStable(verr.Errors, func(i, j int) bool {
		return verr.Errors[i].Field < verr.Errors[j].Field
	})
	return verr
}

// Decode copies validated data into out using its json tags.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
