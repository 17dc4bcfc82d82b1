package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tool is an action the planner may propose. Tools are rendered into the
// prompt text instead of being sent as native function definitions, so a
// plain chat backend can plan too.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters,omitempty"`
}

// JSONSchema is the subset of JSON Schema used to describe tool arguments.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`
	Minimum     *int                   `json:"minimum,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// Date layouts understood by the collaborators.
const (
	DayPattern       = `^\d{4}-\d{2}-\d{2}$` // 2006-01-02
	TimestampPattern = `^\d{14}$`            // 20060102150405
)

// ObjectSchema describes an argument object.
func ObjectSchema(desc string, props map[string]*JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{Type: "object", Description: desc, Properties: props, Required: required}
}

// StringProp describes a free-text argument.
func StringProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc}
}

// DayProp describes a calendar day argument, YYYY-MM-DD.
func DayProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Pattern: DayPattern}
}

// TimestampProp describes a compact UTC timestamp argument, YYYYMMDDHHMMSS.
func TimestampProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Pattern: TimestampPattern}
}

// IntProp describes an integer argument no smaller than min.
func IntProp(desc string, min int) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: desc, Minimum: &min}
}

// DescribeTools renders tools for a prompt. Each tool is one bullet with
// its name and description; tools with arguments get a second line listing
// them in name order, required ones marked with "*", and the compact
// schema.
func DescribeTools(tools []Tool) string {
	var b strings.Builder
	for i, t := range tools {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", t.Name, t.Description)
		if t.Parameters == nil || len(t.Parameters.Properties) == 0 {
			continue
		}
		data, err := json.Marshal(t.Parameters)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n  args (%s): %s", argList(t.Parameters), data)
	}
	return b.String()
}

func argList(s *JSONSchema) string {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		if required[name] {
			name += "*"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
