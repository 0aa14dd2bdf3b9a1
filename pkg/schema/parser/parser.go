package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"bastion-hq/bastion/pkg/schema"
)

// DefaultMaxFileSize bounds the size of a schema document.
const DefaultMaxFileSize int64 = 1 * 1024 * 1024

// Format is the textual encoding of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported schema file extension %q", filepath.Ext(path))
}

// IsSchemaFile reports whether path has a schema document extension.
func IsSchemaFile(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// Document is a successfully loaded schema together with lint findings that
// did not prevent loading.
type Document struct {
	Schema   *schema.Schema
	Source   string
	Format   Format
	Warnings []*Error
}

// Parser loads schema documents from JSON, YAML or TOML.
//
// Loading runs in stages: size check, decoding, a structural check against the
// document meta-schema, decoding into a schema.Schema and a semantic lint of
// the rules. Each stage reports every problem it finds before loading stops.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes
	strictMode  bool  // Lint warnings become errors
}

// NewParser creates a parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: DefaultMaxFileSize,
		strictMode:  false,
	}
}

// WithMaxFileSize sets the maximum document size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	if size > 0 {
		p.maxFileSize = size
	}
	return p
}

// WithStrictMode turns lint warnings into errors.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strictMode = strict
	return p
}

// Parse loads the schema document at path. The format follows the extension.
func (p *Parser) Parse(path string) (*Document, error) {
	loc := Location{File: path}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &Error{
			Type:       ErrorTypeIO,
			Message:    err.Error(),
			Location:   loc,
			Suggestion: "Use a .json, .yaml, .yml or .toml extension",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Type: ErrorTypeIO, Message: fmt.Sprintf("Failed to access file: %v", err), Location: loc}
	}
	if info.Size() > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("File size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
			Location: loc,
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Type: ErrorTypeIO, Message: fmt.Sprintf("Failed to read file: %v", err), Location: loc}
	}
	return p.ParseBytes(data, path, format)
}

// ParseBytes loads a schema document held in memory. source labels the
// document in errors and supplies the default schema name.
func (p *Parser) ParseBytes(data []byte, source string, format Format) (*Document, error) {
	loc := Location{File: source}

	if int64(len(data)) > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: loc,
		}
	}

	tree, err := decode(data, format)
	if err != nil {
		return nil, &Error{
			Type:       ErrorTypeSyntax,
			Message:    fmt.Sprintf("%s parsing failed: %v", strings.ToUpper(string(format)), err),
			Location:   loc,
			Suggestion: syntaxSuggestion(format),
		}
	}

	normalized, err := json.Marshal(tree)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeSyntax,
			Message:  fmt.Sprintf("document cannot be represented as JSON: %v", err),
			Location: loc,
		}
	}

	if errs := checkStructure(normalized, source); errs.HasErrors() {
		return nil, errs
	}

	s, err := schema.Unmarshal(normalized)
	if err != nil {
		return nil, &Error{Type: ErrorTypeStructural, Message: err.Error(), Location: loc}
	}
	if s.Name == "" {
		s.Name = defaultName(source)
	}

	errs, warnings := lint(s, source)
	if p.strictMode {
		for _, w := range warnings {
			errs.Add(w)
		}
		warnings = nil
	}
	if errs.HasErrors() {
		return nil, errs
	}

	return &Document{
		Schema:   s,
		Source:   source,
		Format:   format,
		Warnings: warnings,
	}, nil
}

// decode turns a document into a generic tree of maps, slices and scalars.
func decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var tree any
		if err := dec.Decode(&tree); err != nil {
			return nil, err
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected data after the top-level value")
		}
		return tree, nil
	case FormatYAML:
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
		if tree == nil {
			return nil, fmt.Errorf("document is empty")
		}
		return tree, nil
	case FormatTOML:
		tree := make(map[string]any)
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
		return tree, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func syntaxSuggestion(format Format) string {
	switch format {
	case FormatYAML:
		return "Check YAML syntax (indentation, colons, quotes, duplicate keys)"
	case FormatTOML:
		return "Check TOML syntax (table headers, quoting, array of tables)"
	default:
		return "Check JSON syntax (commas, quotes, braces)"
	}
}

func defaultName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

const metaSchemaURL = "https://bastion-hq.dev/schemas/schema-document.json"

//go:embed metaschema.json
var metaSchemaJSON []byte

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsonschema.Schema
	metaSchemaErr  error
)

// compiledMetaSchema compiles the embedded document meta-schema once.
func compiledMetaSchema() (*jsonschema.Schema, error) {
	metaSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(metaSchemaJSON))
		if err != nil {
			metaSchemaErr = fmt.Errorf("decode meta-schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(metaSchemaURL, doc); err != nil {
			metaSchemaErr = fmt.Errorf("add meta-schema: %w", err)
			return
		}
		metaSchema, metaSchemaErr = c.Compile(metaSchemaURL)
	})
	return metaSchema, metaSchemaErr
}

var printer = message.NewPrinter(language.English)

// Keys accepted on a field definition and on a rule, used for suggestions.
var (
	fieldKeys = []string{"field_type", "required", "nullable", "rules"}
	ruleKeys  = []string{"rule", "value"}
	rootKeys  = []string{"name", "fields"}
)

// checkStructure validates the normalized document against the meta-schema
// and converts every leaf failure into a located structural error.
func checkStructure(normalized []byte, source string) *ErrorList {
	errs := NewErrorList()

	ms, err := compiledMetaSchema()
	if err != nil {
		errs.AddError(ErrorTypeStructural, err.Error(), Location{File: source})
		return errs
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		errs.AddError(ErrorTypeSyntax, err.Error(), Location{File: source})
		return errs
	}

	err = ms.Validate(inst)
	if err == nil {
		return errs
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		errs.AddError(ErrorTypeStructural, err.Error(), Location{File: source})
		return errs
	}

	for _, leaf := range leaves(verr) {
		errs.Add(&Error{
			Type:       ErrorTypeStructural,
			Message:    leaf.ErrorKind.LocalizedString(printer),
			Location:   Location{File: source, Pointer: pointer(leaf.InstanceLocation)},
			Suggestion: structuralSuggestion(leaf),
		})
	}
	return errs
}

// leaves returns the innermost failures of a validation error tree.
func leaves(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var out []*jsonschema.ValidationError
	for _, c := range verr.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func structuralSuggestion(leaf *jsonschema.ValidationError) string {
	switch k := leaf.ErrorKind.(type) {
	case *kind.Enum:
		want := make([]string, 0, len(k.Want))
		for _, w := range k.Want {
			want = append(want, fmt.Sprint(w))
		}
		return suggestClosest(fmt.Sprint(k.Got), want)
	case *kind.AdditionalProperties:
		if len(k.Properties) == 0 {
			return ""
		}
		return suggestClosest(k.Properties[0], keysAt(leaf.InstanceLocation))
	case *kind.Required:
		return fmt.Sprintf("Add %s", strings.Join(k.Missing, ", "))
	}
	return ""
}

// keysAt returns the keys allowed on the object at an instance location.
func keysAt(loc []string) []string {
	switch {
	case len(loc) == 0:
		return rootKeys
	case len(loc) == 2 && loc[0] == "fields":
		return fieldKeys
	case len(loc) == 4 && loc[0] == "fields" && loc[2] == "rules":
		return ruleKeys
	}
	return nil
}

// pointer renders instance location tokens as an RFC 6901 JSON pointer.
func pointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteByte('/')
		t = strings.ReplaceAll(t, "~", "~0")
		sb.WriteString(strings.ReplaceAll(t, "/", "~1"))
	}
	return sb.String()
}
