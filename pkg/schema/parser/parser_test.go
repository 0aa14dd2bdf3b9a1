package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bastion-hq/bastion/pkg/schema"
)

const userJSON = `{
  "name": "user",
  "fields": {
    "user_id": {"field_type": "integer", "required": true, "nullable": false, "rules": []},
    "email": {
      "field_type": "string",
      "required": true,
      "nullable": false,
      "rules": [{"rule": "pattern", "value": "^[^@]+@[^@]+$"}]
    },
    "username": {
      "field_type": "string",
      "required": true,
      "rules": [{"rule": "min_length", "value": 3}, {"rule": "max_length", "value": 20}]
    },
    "age": {
      "field_type": "integer",
      "nullable": true,
      "rules": [{"rule": "min_value", "value": 0}, {"rule": "max_value", "value": 120}]
    }
  }
}`

const userYAML = `
name: user
fields:
  user_id:
    field_type: integer
    required: true
  email:
    field_type: string
    required: true
    rules:
      - rule: pattern
        value: "^[^@]+@[^@]+$"
  username:
    field_type: string
    required: true
    rules:
      - {rule: min_length, value: 3}
      - {rule: max_length, value: 20}
  age:
    field_type: integer
    nullable: true
    rules:
      - {rule: min_value, value: 0}
      - {rule: max_value, value: 120}
`

const userTOML = `
name = "user"

[fields.user_id]
field_type = "integer"
required = true

[fields.email]
field_type = "string"
required = true
rules = [{ rule = "pattern", value = "^[^@]+@[^@]+$" }]

[fields.username]
field_type = "string"
required = true
rules = [{ rule = "min_length", value = 3 }, { rule = "max_length", value = 20 }]

[fields.age]
field_type = "integer"
nullable = true
rules = [{ rule = "min_value", value = 0 }, { rule = "max_value", value = 120 }]
`

func expectedUser() *schema.Schema {
	return schema.New("user").
		Field("user_id", schema.NewField(schema.FieldTypeInteger).AsRequired()).
		Field("email", schema.NewField(schema.FieldTypeString).AsRequired().
			WithRule(schema.Pattern{Regex: "^[^@]+@[^@]+$"})).
		Field("username", schema.NewField(schema.FieldTypeString).AsRequired().
			WithRule(schema.MinLength{Length: 3}).
			WithRule(schema.MaxLength{Length: 20})).
		Field("age", schema.NewField(schema.FieldTypeInteger).AsNullable().
			WithRule(schema.MinValue{Value: 0}).
			WithRule(schema.MaxValue{Value: 120}))
}

func TestParser_ParseBytes_Formats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "json", data: userJSON, format: FormatJSON},
		{name: "yaml", data: userYAML, format: FormatYAML},
		{name: "toml", data: userTOML, format: FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser().ParseBytes([]byte(tt.data), "user."+string(tt.format), tt.format)
			if err != nil {
				t.Fatalf("ParseBytes() error = %v", err)
			}
			if !doc.Schema.Equal(expectedUser()) {
				t.Errorf("ParseBytes() schema = %+v, want %+v", doc.Schema, expectedUser())
			}
			if len(doc.Warnings) != 0 {
				t.Errorf("ParseBytes() warnings = %v, want none", doc.Warnings)
			}
			if doc.Format != tt.format {
				t.Errorf("Format = %v, want %v", doc.Format, tt.format)
			}
		})
	}
}

func TestParser_Parse_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yaml")
	content := "fields:\n  id:\n    field_type: integer\n    required: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := NewParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Schema.Name != "orders" {
		t.Errorf("Name = %q, want default from file name", doc.Schema.Name)
	}
	if doc.Source != path {
		t.Errorf("Source = %q, want %q", doc.Source, path)
	}
}

func TestParser_Parse_IOErrors(t *testing.T) {
	dir := t.TempDir()

	big := filepath.Join(dir, "big.json")
	if err := os.WriteFile(big, []byte(userJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		parser *Parser
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.json"), parser: NewParser()},
		{name: "unsupported extension", path: filepath.Join(dir, "schema.xml"), parser: NewParser()},
		{name: "too large", path: big, parser: NewParser().WithMaxFileSize(16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.path)
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %v, want *Error", err)
			}
			if perr.Type != ErrorTypeIO {
				t.Errorf("Type = %v, want io", perr.Type)
			}
		})
	}
}

func TestParser_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "json", data: `{"name": "x", "fields": {`, format: FormatJSON},
		{name: "json trailing data", data: `{"fields": {}} {}`, format: FormatJSON},
		{name: "yaml", data: "fields:\n  a: [unclosed\n", format: FormatYAML},
		{name: "yaml duplicate key", data: "fields: {}\nfields: {}\n", format: FormatYAML},
		{name: "yaml empty", data: "", format: FormatYAML},
		{name: "toml", data: "[fields\n", format: FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().ParseBytes([]byte(tt.data), "doc", tt.format)
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("ParseBytes() error = %v, want *Error", err)
			}
			if perr.Type != ErrorTypeSyntax {
				t.Errorf("Type = %v, want syntax", perr.Type)
			}
		})
	}
}

func TestParser_StructuralErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantPointer string
		wantSuggest string
	}{
		{
			name:        "unknown field type",
			data:        `{"fields": {"a": {"field_type": "strng"}}}`,
			wantPointer: "/fields/a/field_type",
			wantSuggest: "Did you mean 'string'?",
		},
		{
			name:        "unknown rule tag",
			data:        `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "min_lenght", "value": 1}]}}}`,
			wantPointer: "/fields/a/rules/0/rule",
			wantSuggest: "Did you mean 'min_length'?",
		},
		{
			name:        "wrong rule payload",
			data:        `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "min_length", "value": "3"}]}}}`,
			wantPointer: "/fields/a/rules/0/value",
		},
		{
			name:        "negative length",
			data:        `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "max_length", "value": -2}]}}}`,
			wantPointer: "/fields/a/rules/0/value",
		},
		{
			name:        "unknown date-time format",
			data:        `{"fields": {"a": {"field_type": "datetime", "rules": [{"rule": "date_time_format", "value": "rfc822"}]}}}`,
			wantPointer: "/fields/a/rules/0/value",
		},
		{
			name:        "unknown field key",
			data:        `{"fields": {"a": {"field_type": "string", "requird": true}}}`,
			wantPointer: "/fields/a",
			wantSuggest: "Did you mean 'required'?",
		},
		{
			name:        "missing field type",
			data:        `{"fields": {"a": {"required": true}}}`,
			wantPointer: "/fields/a",
		},
		{
			name:        "required is not a boolean",
			data:        `{"fields": {"a": {"field_type": "string", "required": "yes"}}}`,
			wantPointer: "/fields/a/required",
		},
		{
			name: "missing fields",
			data: `{"name": "x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().ParseBytes([]byte(tt.data), "doc.json", FormatJSON)
			var list *ErrorList
			if !errors.As(err, &list) {
				t.Fatalf("ParseBytes() error = %v, want *ErrorList", err)
			}
			if !list.HasErrorType(ErrorTypeStructural) {
				t.Fatalf("ParseBytes() errors = %v, want structural", list)
			}

			var match *Error
			for _, e := range list.Errors {
				if e.Location.Pointer == tt.wantPointer {
					match = e
					break
				}
			}
			if match == nil {
				t.Fatalf("no error at pointer %q in:\n%v", tt.wantPointer, list)
			}
			if match.Message == "" {
				t.Error("structural error has no message")
			}
			if tt.wantSuggest != "" && match.Suggestion != tt.wantSuggest {
				t.Errorf("Suggestion = %q, want %q", match.Suggestion, tt.wantSuggest)
			}
		})
	}
}

func TestParser_Lint(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantWarnings int
		wantErrors   int
	}{
		{
			name:       "invalid regex",
			data:       `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "pattern", "value": "(?<=x)y"}]}}}`,
			wantErrors: 1,
		},
		{
			name:         "numeric rule on string",
			data:         `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "min_value", "value": 1}]}}}`,
			wantWarnings: 1,
		},
		{
			name:         "length rule on integer",
			data:         `{"fields": {"a": {"field_type": "integer", "rules": [{"rule": "max_length", "value": 1}]}}}`,
			wantWarnings: 1,
		},
		{
			name:         "empty length range",
			data:         `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "min_length", "value": 5}, {"rule": "max_length", "value": 2}]}}}`,
			wantWarnings: 1,
		},
		{
			name:         "empty value range",
			data:         `{"fields": {"a": {"field_type": "float", "rules": [{"rule": "min_value", "value": 10}, {"rule": "max_value", "value": 1.5}]}}}`,
			wantWarnings: 1,
		},
		{
			name:         "repeated rule",
			data:         `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "min_length", "value": 1}, {"rule": "min_length", "value": 2}]}}}`,
			wantWarnings: 1,
		},
		{
			name: "date format on string",
			data: `{"fields": {"a": {"field_type": "string", "rules": [{"rule": "date_time_format", "value": "unix_timestamp"}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser().ParseBytes([]byte(tt.data), "doc.json", FormatJSON)
			if tt.wantErrors > 0 {
				var list *ErrorList
				if !errors.As(err, &list) {
					t.Fatalf("ParseBytes() error = %v, want *ErrorList", err)
				}
				if got := len(list.ByType(ErrorTypeSemantic)); got != tt.wantErrors {
					t.Errorf("semantic errors = %d, want %d", got, tt.wantErrors)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes() error = %v", err)
			}
			if len(doc.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", doc.Warnings, tt.wantWarnings)
			}
			for _, w := range doc.Warnings {
				if w.Type != ErrorTypeSemantic || !strings.HasPrefix(w.Location.Pointer, "/fields/a/rules/") {
					t.Errorf("warning = %+v, want semantic at a rule", w)
				}
			}
		})
	}
}

func TestParser_StrictModePromotesWarnings(t *testing.T) {
	data := []byte(`{"fields": {"a": {"field_type": "boolean", "rules": [{"rule": "pattern", "value": "x"}]}}}`)

	doc, err := NewParser().ParseBytes(data, "doc.json", FormatJSON)
	if err != nil || len(doc.Warnings) != 1 {
		t.Fatalf("lenient ParseBytes() = %v, %v; want one warning", doc, err)
	}

	_, err = NewParser().WithStrictMode(true).ParseBytes(data, "doc.json", FormatJSON)
	var list *ErrorList
	if !errors.As(err, &list) || !list.HasErrorType(ErrorTypeSemantic) {
		t.Errorf("strict ParseBytes() error = %v, want semantic error", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a.toml": FormatTOML,
	}
	for path, want := range tests {
		if got, err := FormatFromPath(path); err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %v, %v; want %v", path, got, err, want)
		}
	}
	if IsSchemaFile("README.md") {
		t.Error("IsSchemaFile(README.md) = true")
	}
}

func TestPointerEscaping(t *testing.T) {
	if got := pointer([]string{"fields", "a/b~c"}); got != "/fields/a~1b~0c" {
		t.Errorf("pointer() = %q", got)
	}
	if got := pointer(nil); got != "" {
		t.Errorf("pointer(nil) = %q, want empty", got)
	}
}

func TestErrorList_Format(t *testing.T) {
	el := NewErrorList()
	el.AddErrorWithSuggestion(ErrorTypeStructural, "bad type", Location{File: "a.json", Pointer: "/fields/x"}, "Did you mean 'string'?")
	msg := el.Error()
	for _, want := range []string{"Found 1 error(s)", "[structural] bad type", "a.json#/fields/x", "suggestion: Did you mean 'string'?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q in:\n%s", want, msg)
		}
	}
}
