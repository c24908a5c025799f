package gemini

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// jsonSchema is the subset of JSON Schema used by the tool catalog.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Enum        []string               `json:"enum"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Required    []string               `json:"required"`
	Minimum     *float64               `json:"minimum"`
	MaxLength   *int64                 `json:"maxLength"`
	Items       *jsonSchema            `json:"items"`
}

var schemaTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
}

func (s *jsonSchema) toGenAI() (*genai.Schema, error) {
	if s == nil {
		return nil, nil
	}
	t, ok := schemaTypes[s.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported schema type %q", s.Type)
	}
	out := &genai.Schema{
		Type:        t,
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Minimum:     s.Minimum,
		MaxLength:   s.MaxLength,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			converted, err := prop.toGenAI()
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			out.Properties[name] = converted
		}
	}
	items, err := s.Items.toGenAI()
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	out.Items = items
	return out, nil
}

// declarations converts the tool catalog into a single genai tool.
func declarations(specs []understanding.ToolSpec) (*genai.Tool, error) {
	tool := &genai.Tool{FunctionDeclarations: make([]*genai.FunctionDeclaration, 0, len(specs))}
	for _, spec := range specs {
		var js jsonSchema
		if err := json.Unmarshal(spec.Parameters, &js); err != nil {
			return nil, fmt.Errorf("%w: tool %s has invalid parameters: %v",
				understanding.ErrInvalidConfig, spec.Name, err)
		}
		params, err := js.toGenAI()
		if err != nil {
			return nil, fmt.Errorf("%w: tool %s: %v", understanding.ErrInvalidConfig, spec.Name, err)
		}
		tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		})
	}
	return tool, nil
}
