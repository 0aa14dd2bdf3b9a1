package schema

import (
	"encoding/json"
	"fmt"
)

// FieldType is the kind a payload value is expected to have.
// The string value is the external name used on the wire and in diagnostics.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDateTime FieldType = "datetime" // structurally a string; format is checked by a rule
	FieldTypeObject   FieldType = "object"
	FieldTypeArray    FieldType = "array"
)

// FieldTypes lists every recognized field type in declaration order.
var FieldTypes = []FieldType{
	FieldTypeString,
	FieldTypeInteger,
	FieldTypeFloat,
	FieldTypeBoolean,
	FieldTypeDateTime,
	FieldTypeObject,
	FieldTypeArray,
}

// Valid reports whether t is one of the recognized field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeFloat, FieldTypeBoolean,
		FieldTypeDateTime, FieldTypeObject, FieldTypeArray:
		return true
	}
	return false
}

// String returns the external name of the field type.
func (t FieldType) String() string {
	return string(t)
}

// ParseFieldType converts an external name into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// MarshalJSON rejects unknown field types so invalid schemas never reach the wire.
func (t FieldType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown field type %q", string(t))
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON decodes a lowercase field type token.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("field type must be a string: %w", err)
	}
	parsed, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DateTimeFormat selects how a date_time_format rule parses a string.
type DateTimeFormat string

const (
	// DateTimeISO8601 is a fully specified RFC 3339 timestamp with a zone designator.
	DateTimeISO8601 DateTimeFormat = "iso8601"
	// DateTimeUnixTimestamp is a base-10 signed 64-bit integer carried as a string.
	DateTimeUnixTimestamp DateTimeFormat = "unix_timestamp"
)

// Valid reports whether f is a recognized date-time format.
func (f DateTimeFormat) Valid() bool {
	return f == DateTimeISO8601 || f == DateTimeUnixTimestamp
}

// String returns the external name of the format.
func (f DateTimeFormat) String() string {
	return string(f)
}

// ParseDateTimeFormat converts an external name into a DateTimeFormat.
func ParseDateTimeFormat(s string) (DateTimeFormat, error) {
	f := DateTimeFormat(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown date-time format %q", s)
	}
	return f, nil
}

// MarshalJSON rejects unknown formats.
func (f DateTimeFormat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown date-time format %q", string(f))
	}
	return json.Marshal(string(f))
}

// UnmarshalJSON decodes a snake_case format token.
func (f *DateTimeFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date-time format must be a string: %w", err)
	}
	parsed, err := ParseDateTimeFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
