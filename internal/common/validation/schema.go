// Package validation checks model output against JSON schemas before it is
// trusted as a scoring answer or a generated question.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(name, schemaJSON string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates a raw JSON document.
func (s *Schema) ValidateJSON(doc string) error {
	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: invalid json: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("%s: validation failed: %s", s.name, strings.Join(errs, "; "))
}

// AIScoringResult is the shape the scoring model must answer with.
var AIScoringResult = MustCompile("ai-scoring-result", `{
  "type": "object",
  "required": ["resultName"],
  "properties": {
    "resultName": {"type": "string", "minLength": 1},
    "resultDesc": {"type": "string"}
  }
}`)

// GeneratedQuestion is the shape of one streamed question object.
var GeneratedQuestion = MustCompile("generated-question", `{
  "type": "object",
  "required": ["title", "options"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["key", "value"],
        "properties": {
          "key": {"type": "string", "minLength": 1},
          "value": {"type": "string"},
          "result": {"type": "string"},
          "score": {"type": "integer"}
        }
      }
    }
  }
}`)
