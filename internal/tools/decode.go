package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// Decode errors.
var (
	// ErrUnknownTool is returned for names outside the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments is returned when arguments fail the tool's schema.
	ErrInvalidArguments = fmt.Errorf("%w: invalid tool arguments", domain.ErrValidation)
)

// Decoder validates raw tool arguments against the catalog schemas and turns
// them into typed calls.
type Decoder struct {
	schemas map[Name]*jsonschema.Schema
}

// NewDecoder compiles every catalog schema.
func NewDecoder() (*Decoder, error) {
	c := jsonschema.NewCompiler()
	schemas := make(map[Name]*jsonschema.Schema, len(catalog))
	for _, s := range catalog {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(s.schema))
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s schema: %w", s.name, err)
		}
		url := string(s.name) + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", s.name, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", s.name, err)
		}
		schemas[s.name] = compiled
	}
	return &Decoder{schemas: schemas}, nil
}

// MustDecoder is NewDecoder for package-level setup; the embedded catalog
// always compiles.
func MustDecoder() *Decoder {
	d, err := NewDecoder()
	if err != nil {
		// ALLOW-PANIC: the catalog is a compile-time constant
		panic(err)
	}
	return d
}

type rawArgs struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      string      `json:"status"`
	TaskID      json.Number `json:"task_id"`
}

// Decode resolves name and validates raw into a typed Call.
// Empty or null arguments are treated as an empty object.
func (d *Decoder) Decode(name string, raw json.RawMessage) (Call, error) {
	canonical, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: arguments are not valid JSON: %v", ErrInvalidArguments, err)
	}
	if err := d.schemas[canonical].Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArguments, flatten(err.Error()))
	}

	var args rawArgs
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	var taskID int64
	if args.TaskID != "" {
		if taskID, err = parseID(args.TaskID); err != nil {
			return nil, err
		}
	}

	switch canonical {
	case Create:
		return CreateTask{Title: deref(args.Title), Description: provided(args.Description)}, nil
	case List:
		filter, err := domain.ParseTaskFilter(args.Status)
		if err != nil {
			return nil, err
		}
		return ListTasks{Status: filter}, nil
	case Update:
		return UpdateTask{TaskID: taskID, Title: provided(args.Title), Description: provided(args.Description)}, nil
	case Complete:
		return CompleteTask{TaskID: taskID}, nil
	default:
		return DeleteTask{TaskID: taskID}, nil
	}
}

// provided returns nil for absent, empty or whitespace-only strings, so an
// empty value never clears a field.
func provided(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseID accepts integral JSON numbers, including forms like 3.0.
func parseID(n json.Number) (int64, error) {
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: task_id must be an integer", ErrInvalidArguments)
	}
	return int64(f), nil
}

// flatten joins a multi-line schema error into one line.
func flatten(s string) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' })
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "; ")
}
