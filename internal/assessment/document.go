package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a document format from a file name.
func FormatFromPath(path string) Format {
	p := strings.ToLower(path)
	if strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

const documentSchemaURL = "schema://assessment.json"

var documentSchema = map[string]any{
	"$schema":  "https://json-schema.org/draft/2020-12/schema",
	"type":     "object",
	"required": []any{"id", "title", "questions"},
	"properties": map[string]any{
		"id":          map[string]any{"type": []any{"string", "integer"}},
		"title":       map[string]any{"type": "string", "minLength": 1.0},
		"description": map[string]any{"type": []any{"string", "null"}},
		"questions": map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/$defs/question"},
		},
	},
	"$defs": map[string]any{
		"question": map[string]any{
			"type":     "object",
			"required": []any{"id", "type", "prompt"},
			"properties": map[string]any{
				"id":          map[string]any{"type": []any{"string", "integer"}},
				"type":        map[string]any{"enum": questionTypeEnum()},
				"prompt":      map[string]any{"type": "string"},
				"description": map[string]any{"type": []any{"string", "null"}},
				"required":    map[string]any{"type": "boolean"},
				"conditions": map[string]any{
					"type":  []any{"array", "null"},
					"items": map[string]any{"$ref": "#/$defs/condition"},
				},
				"data": map[string]any{
					"type": []any{"object", "null"},
					"properties": map[string]any{
						"options":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"labels":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"min_value":  map[string]any{"type": "number"},
						"max_value":  map[string]any{"type": "number"},
						"step":       map[string]any{"type": "number", "exclusiveMinimum": 0.0},
						"max_length": map[string]any{"type": "integer", "minimum": 1.0},
					},
				},
			},
		},
		"condition": map[string]any{
			"type":     "object",
			"required": []any{"questionId", "operator"},
			"properties": map[string]any{
				"questionId": map[string]any{"type": []any{"string", "integer"}},
				"operator":   map[string]any{"type": "string"},
			},
		},
	},
}

func questionTypeEnum() []any {
	out := make([]any, len(QuestionTypes))
	for i, t := range QuestionTypes {
		out[i] = string(t)
	}
	return out
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiledDocumentSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, documentSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(documentSchemaURL)
	})
	return compiledSchema, compileErr
}

// ParseDocument decodes an assessment from JSON or YAML, checks it against
// the document schema and the structural invariants of Validate.
// Operators outside the known set are accepted; they evaluate as true.
func ParseDocument(data []byte, format Format) (*Assessment, error) {
	raw := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidAssessment, err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: convert yaml: %v", ErrInvalidAssessment, err)
		}
		raw = b
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidAssessment, err)
	}
	sch, err := compiledDocumentSchema()
	if err != nil {
		return nil, fmt.Errorf("compile assessment schema: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssessment, err)
	}

	var a Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssessment, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ParseAnswers decodes an answer file keyed by question id.
func ParseAnswers(data []byte, format Format) (Answers, error) {
	raw := map[string]any{}
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	out := make(Answers, len(raw))
	for k, v := range raw {
		out[ID(strings.TrimSpace(k))] = v
	}
	return out, nil
}
