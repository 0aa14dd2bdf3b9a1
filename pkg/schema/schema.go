package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldDefinition describes one top-level payload field.
//
// Required and Nullable are independent: Required controls whether the key
// must be present, Nullable whether an explicit null is accepted when it is.
type FieldDefinition struct {
	FieldType FieldType `json:"field_type"`
	Required  bool      `json:"required"`
	Nullable  bool      `json:"nullable"`
	Rules     Rules     `json:"rules"`
}

// NewField starts a definition of the given type that is optional,
// non-nullable and has no rules.
func NewField(t FieldType) FieldDefinition {
	return FieldDefinition{FieldType: t}
}

// AsRequired returns a copy of the definition that must be present.
func (d FieldDefinition) AsRequired() FieldDefinition {
	d.Required = true
	return d
}

// AsNullable returns a copy of the definition that accepts an explicit null.
func (d FieldDefinition) AsNullable() FieldDefinition {
	d.Nullable = true
	return d
}

// WithRule returns a copy of the definition with r appended to its rules.
func (d FieldDefinition) WithRule(r Rule) FieldDefinition {
	rules := make(Rules, len(d.Rules), len(d.Rules)+1)
	copy(rules, d.Rules)
	d.Rules = append(rules, r)
	return d
}

// Equal reports whether two definitions are identical.
func (d FieldDefinition) Equal(other FieldDefinition) bool {
	return d.FieldType == other.FieldType &&
		d.Required == other.Required &&
		d.Nullable == other.Nullable &&
		d.Rules.Equal(other.Rules)
}

// Schema is a named mapping from field name to field definition.
//
// A Schema is safe to share between goroutines once construction is done;
// the validator only reads it.
type Schema struct {
	Name   string                     `json:"name"`
	Fields map[string]FieldDefinition `json:"fields"`
}

// New returns an empty schema called name.
func New(name string) *Schema {
	return &Schema{
		Name:   name,
		Fields: make(map[string]FieldDefinition),
	}
}

// Field attaches a definition under name and returns the schema for chaining.
// A definition already registered under the same name is replaced.
// Empty names are ignored.
func (s *Schema) Field(name string, def FieldDefinition) *Schema {
	if name == "" {
		return s
	}
	if s.Fields == nil {
		s.Fields = make(map[string]FieldDefinition)
	}
	s.Fields[name] = def
	return s
}

// Lookup returns the definition registered under name.
func (s *Schema) Lookup(name string) (FieldDefinition, bool) {
	if s == nil {
		return FieldDefinition{}, false
	}
	def, ok := s.Fields[name]
	return def, ok
}

// Names returns the field names in lexical order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// Equal reports whether two schemas have the same name and field definitions.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || len(s.Fields) != len(other.Fields) {
		return false
	}
	for name, def := range s.Fields {
		od, ok := other.Fields[name]
		if !ok || !def.Equal(od) {
			return false
		}
	}
	return true
}

// UnmarshalJSON decodes the wire form and rejects empty field names.
func (s *Schema) UnmarshalJSON(data []byte) error {
	type wire Schema
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	for name := range w.Fields {
		if name == "" {
			return fmt.Errorf("schema %q: field names must not be empty", w.Name)
		}
	}
	if w.Fields == nil {
		w.Fields = make(map[string]FieldDefinition)
	}
	*s = Schema(w)
	return nil
}

// Marshal encodes the schema in its wire form.
func Marshal(s *Schema) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil schema")
	}
	return json.Marshal(s)
}

// Unmarshal decodes a schema from its wire form.
func Unmarshal(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &s, nil
}
