package catalog

import "github.com/google/jsonschema-go/jsonschema"

// InputSchema builds the JSON Schema advertised for the tool's arguments.
func (e Entry) InputSchema() *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(e.Parameters))

	for _, p := range e.Parameters {
		properties[p.Name] = p.schema()
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   e.RequiredParameters(),
	}
}

func (p Parameter) schema() *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        p.Type,
		Description: p.Description,
		Minimum:     p.Minimum,
		Maximum:     p.Maximum,
		MinLength:   p.MinLength,
		MaxLength:   p.MaxLength,
	}

	for _, v := range p.Enum {
		s.Enum = append(s.Enum, v)
	}

	if p.Type == "array" {
		s.Items = &jsonschema.Schema{}
	}

	return s
}
