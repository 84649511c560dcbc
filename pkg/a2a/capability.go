package a2a

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const capabilityLogPrefix = "a2a:capability"

// Kind is the primitive type declared for a schema property.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

func (k Kind) valid() bool {
	switch k {
	case "", KindString, KindNumber, KindBoolean, KindArray, KindObject:
		return true
	}
	return false
}

// Property describes one named field of a schema. Only Kind takes part in
// input validation; Enum, Minimum and Maximum are descriptive.
type Property struct {
	Name        string
	Kind        Kind
	Description string
	Default     any
	Enum        []string
	Minimum     *float64
	Maximum     *float64
}

// Schema is a flat object schema: ordered properties plus a required list.
type Schema struct {
	Type       string
	Properties []Property
	Required   []string
}

// Property returns the named property and whether it exists.
func (s Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

type propertyWire struct {
	Type        Kind     `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// MarshalJSON writes the JSON-Schema-like object, keeping property order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	typ := s.Type
	if typ == "" {
		typ = "object"
	}
	buf.WriteString(`{"type":`)
	t, _ := json.Marshal(typ)
	buf.Write(t)

	buf.WriteString(`,"properties":{`)
	for i, p := range s.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(propertyWire{
			Type:        p.Kind,
			Description: p.Description,
			Default:     p.Default,
			Enum:        p.Enum,
			Minimum:     p.Minimum,
			Maximum:     p.Maximum,
		})
		if err != nil {
			return nil, fmt.Errorf("%s - property %s: %w", capabilityLogPrefix, p.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')

	if len(s.Required) > 0 {
		req, err := json.Marshal(s.Required)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"required":`)
		buf.Write(req)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON-Schema-like object. Property order from the
// document is preserved and unknown property kinds are rejected.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	props, err := decodeProperties(raw.Properties)
	if err != nil {
		return err
	}
	s.Type = raw.Type
	if s.Type == "" {
		s.Type = "object"
	}
	s.Properties = props
	s.Required = raw.Required
	return nil
}

func decodeProperties(data json.RawMessage) ([]Property, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%s - properties must be an object", capabilityLogPrefix)
	}
	var props []Property
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)
		var w propertyWire
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s - property %s: %w", capabilityLogPrefix, name, err)
		}
		if !w.Type.valid() {
			return nil, fmt.Errorf("%s - property %s has unsupported type %q", capabilityLogPrefix, name, w.Type)
		}
		props = append(props, Property{
			Name:        name,
			Kind:        w.Type,
			Description: w.Description,
			Default:     w.Default,
			Enum:        w.Enum,
			Minimum:     w.Minimum,
			Maximum:     w.Maximum,
		})
	}
	return props, nil
}

// Capability is a named, versioned operation an agent can perform.
type Capability struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Type         CapabilityType `json:"type"`
	InputSchema  Schema         `json:"input_schema"`
	OutputSchema Schema         `json:"output_schema"`
	Version      string         `json:"version"`
}

// WithDefaults returns a copy with an empty version replaced by DefaultCapabilityVersion.
func (c Capability) WithDefaults() Capability {
	if c.Version == "" {
		c.Version = DefaultCapabilityVersion
	}
	if c.InputSchema.Type == "" {
		c.InputSchema.Type = "object"
	}
	if c.OutputSchema.Type == "" {
		c.OutputSchema.Type = "object"
	}
	return c
}
