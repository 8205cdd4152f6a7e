// Package catalog describes the tools offered by the tool server. It is the
// source of truth for tool names, categories and parameters within the repo.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Category groups related tools in listings.
type Category string

const (
	CategoryWeather    Category = "Weather"
	CategoryNews       Category = "News"
	CategoryFinance    Category = "Finance"
	CategoryWorkflow   Category = "Workflow"
	CategoryMemory     Category = "Memory"
	CategoryTasks      Category = "Tasks"
	CategoryMonitoring Category = "Monitoring"
	CategoryAI         Category = "AI"
)

// Parameter describes one tool argument.
type Parameter struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	Required    bool     `yaml:"required" json:"required"`
	Description string   `yaml:"description" json:"description"`
	Minimum     *float64 `yaml:"minimum,omitempty" json:"-"`
	Maximum     *float64 `yaml:"maximum,omitempty" json:"-"`
	MinLength   *int     `yaml:"minLength,omitempty" json:"-"`
	MaxLength   *int     `yaml:"maxLength,omitempty" json:"-"`
	Enum        []string `yaml:"enum,omitempty" json:"-"`
}

// Entry holds metadata for a single tool.
type Entry struct {
	// Name is the tool name used in tools/call requests.
	Name string `yaml:"name" json:"name"`
	// Description is a one-line summary shown to users and clients.
	Description string `yaml:"description" json:"description"`
	// Category groups the tool in listings.
	Category Category `yaml:"category" json:"category"`
	// Parameters lists the tool arguments in display order.
	Parameters []Parameter `yaml:"parameters" json:"parameters"`
}

// Parameter looks up a parameter by name.
func (e Entry) Parameter(name string) (Parameter, bool) {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p, true
		}
	}

	return Parameter{}, false
}

// RequiredParameters returns the names of required parameters in order.
func (e Entry) RequiredParameters() []string {
	var out []string

	for _, p := range e.Parameters {
		if p.Required {
			out = append(out, p.Name)
		}
	}

	return out
}

type document struct {
	Tools []Entry `yaml:"tools"`
}

var validTypes = []string{"string", "number", "integer", "boolean", "object", "array"}

// Parse decodes a catalog document and validates it.
func Parse(data []byte) ([]Entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Tools))

	for _, e := range doc.Tools {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry without a name")
		}

		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}

		seen[e.Name] = struct{}{}

		for _, p := range e.Parameters {
			if !slices.Contains(validTypes, p.Type) {
				return nil, fmt.Errorf("tool %q: parameter %q has unsupported type %q", e.Name, p.Name, p.Type)
			}
		}
	}

	return doc.Tools, nil
}

var registry = sync.OnceValue(func() []Entry {
	entries, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded tool catalog: %v", err))
	}

	return entries
})

// All returns a copy of every tool in the catalog, in catalog order.
func All() []Entry {
	return slices.Clone(registry())
}

// Names returns every tool name in catalog order.
func Names() []string {
	entries := registry()

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}

	return out
}

// ByName looks up a tool by name. Returns nil if no tool is found.
func ByName(name string) *Entry {
	for _, e := range registry() {
		if e.Name == name {
			return &e
		}
	}

	return nil
}

// ByCategory returns all tools in the given category.
func ByCategory(category Category) []Entry {
	var out []Entry

	for _, e := range registry() {
		if e.Category == category {
			out = append(out, e)
		}
	}

	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories() []Category {
	var out []Category

	for _, e := range registry() {
		if !slices.Contains(out, e.Category) {
			out = append(out, e.Category)
		}
	}

	return out
}
