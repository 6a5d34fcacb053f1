package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schemas for the structured judgments requested from the inference service.
const (
	BiasJudgmentSchema = `{
		"type": "object",
		"required": ["overall_bias", "confidence"],
		"properties": {
			"overall_bias": {"type": "number"},
			"confidence":   {"type": "number", "minimum": 0, "maximum": 1},
			"rationale":    {"type": "string"}
		}
	}`

	ClaimsSchema = `{
		"type": "object",
		"required": ["claims"],
		"properties": {
			"claims": {"type": "array", "items": {"type": "string"}}
		}
	}`

	VerdictSchema = `{
		"type": "object",
		"required": ["verdict", "score"],
		"properties": {
			"verdict": {"type": "string", "enum": ["verified", "partially-verified", "disputed", "unverified"]},
			"score": {"type": "number"},
			"rationale": {"type": "string"},
			"supporting": {"type": "array", "items": {"type": "integer", "minimum": 0}},
			"contradicting": {"type": "array", "items": {"type": "integer", "minimum": 0}}
		}
	}`
)

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

func CompileSchema(definition string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompileSchema panics on an invalid definition; use for package-level
// constants only.
func MustCompileSchema(definition string) *Schema {
	s, err := CompileSchema(definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a JSON document against the schema.
func (s *Schema) Validate(document string) error {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}
	return nil
}

// ExtractJSONObject returns the first balanced {...} object in raw. Models
// often wrap JSON in prose or ``` fences.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in response")
}
