package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"bastion-hq/bastion/pkg/schema"
)

// ErrorKind is the wire tag of a validation error.
type ErrorKind string

const (
	ErrorKindMissingField  ErrorKind = "missing_field"
	ErrorKindNullValue     ErrorKind = "null_value"
	ErrorKindInvalidType   ErrorKind = "invalid_type"
	ErrorKindRuleViolation ErrorKind = "rule_violation"
)

// ErrorKinds lists every error kind.
var ErrorKinds = []ErrorKind{
	ErrorKindMissingField,
	ErrorKindNullValue,
	ErrorKindInvalidType,
	ErrorKindRuleViolation,
}

// ValidationError is one violation of a schema by a payload.
//
// The variants are MissingField, NullValue, InvalidType and RuleViolation.
// Implement ErrorVisitor to handle all of them.
type ValidationError interface {
	error

	// FieldName returns the offending top-level field.
	FieldName() string

	// Kind returns the wire tag.
	Kind() ErrorKind

	// Accept dispatches to the matching ErrorVisitor method.
	Accept(v ErrorVisitor)

	sealed()
}

// ErrorVisitor has one method per ValidationError variant.
type ErrorVisitor interface {
	VisitMissingField(*MissingField)
	VisitNullValue(*NullValue)
	VisitInvalidType(*InvalidType)
	VisitRuleViolation(*RuleViolation)
}

// MissingField reports a required field absent from the payload.
type MissingField struct {
	Field string
}

// NullValue reports an explicit null on a non-nullable field.
type NullValue struct {
	Field string
}

// InvalidType reports a value whose kind does not satisfy the field type.
type InvalidType struct {
	Field    string
	Expected schema.FieldType
	Actual   schema.FieldType
}

// RuleViolation reports a rule that rejected the value.
type RuleViolation struct {
	Field   string
	Rule    schema.Rule
	Message string
}

func (e *MissingField) FieldName() string  { return e.Field }
func (e *NullValue) FieldName() string     { return e.Field }
func (e *InvalidType) FieldName() string   { return e.Field }
func (e *RuleViolation) FieldName() string { return e.Field }

func (*MissingField) Kind() ErrorKind  { return ErrorKindMissingField }
func (*NullValue) Kind() ErrorKind     { return ErrorKindNullValue }
func (*InvalidType) Kind() ErrorKind   { return ErrorKindInvalidType }
func (*RuleViolation) Kind() ErrorKind { return ErrorKindRuleViolation }

func (e *MissingField) Accept(v ErrorVisitor)  { v.VisitMissingField(e) }
func (e *NullValue) Accept(v ErrorVisitor)     { v.VisitNullValue(e) }
func (e *InvalidType) Accept(v ErrorVisitor)   { v.VisitInvalidType(e) }
func (e *RuleViolation) Accept(v ErrorVisitor) { v.VisitRuleViolation(e) }

func (e *MissingField) Error() string {
	return fmt.Sprintf("field '%s' is required but missing", e.Field)
}

func (e *NullValue) Error() string {
	return fmt.Sprintf("field '%s' must not be null", e.Field)
}

func (e *InvalidType) Error() string {
	return fmt.Sprintf("field '%s' expected type '%s', got '%s'", e.Field, e.Expected, e.Actual)
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("field '%s' violates %s: %s", e.Field, e.Rule.Kind(), e.Message)
}

func (*MissingField) sealed()  {}
func (*NullValue) sealed()     {}
func (*InvalidType) sealed()   {}
func (*RuleViolation) sealed() {}

// ErrorList collects every violation found in one payload.
type ErrorList struct {
	Errors []ValidationError
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]ValidationError, 0),
	}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err ValidationError) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return el != nil && len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	if el == nil {
		return 0
	}
	return len(el.Errors)
}

// ByField returns the errors reported for field.
func (el *ErrorList) ByField(field string) []ValidationError {
	if el == nil {
		return nil
	}
	var result []ValidationError
	for _, err := range el.Errors {
		if err.FieldName() == field {
			result = append(result, err)
		}
	}
	return result
}

// ByKind returns the errors of the given kind.
func (el *ErrorList) ByKind(kind ErrorKind) []ValidationError {
	if el == nil {
		return nil
	}
	var result []ValidationError
	for _, err := range el.Errors {
		if err.Kind() == kind {
			result = append(result, err)
		}
	}
	return result
}

// CountByKind returns how many errors of each kind the list holds.
func (el *ErrorList) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	if el == nil {
		return counts
	}
	for _, err := range el.Errors {
		counts[err.Kind()]++
	}
	return counts
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("payload has %d validation error(s):", el.Count()))
	for _, err := range el.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// wireError is the exported form of a single validation error.
type wireError struct {
	Kind     ErrorKind        `json:"kind"`
	Field    string           `json:"field"`
	Expected schema.FieldType `json:"expected,omitempty"`
	Actual   schema.FieldType `json:"actual,omitempty"`
	Rule     json.RawMessage  `json:"rule,omitempty"`
	Message  string           `json:"message"`
}

// wireEncoder renders one error into its wire form.
type wireEncoder struct {
	out wireError
	err error
}

func (w *wireEncoder) VisitMissingField(e *MissingField) {
	w.out = wireError{Kind: e.Kind(), Field: e.Field, Message: e.Error()}
}

func (w *wireEncoder) VisitNullValue(e *NullValue) {
	w.out = wireError{Kind: e.Kind(), Field: e.Field, Message: e.Error()}
}

func (w *wireEncoder) VisitInvalidType(e *InvalidType) {
	w.out = wireError{
		Kind:     e.Kind(),
		Field:    e.Field,
		Expected: e.Expected,
		Actual:   e.Actual,
		Message:  e.Error(),
	}
}

func (w *wireEncoder) VisitRuleViolation(e *RuleViolation) {
	rule, err := schema.MarshalRule(e.Rule)
	if err != nil {
		w.err = fmt.Errorf("field %q: %w", e.Field, err)
		return
	}
	w.out = wireError{Kind: e.Kind(), Field: e.Field, Rule: rule, Message: e.Message}
}

// MarshalJSON encodes the list as an array of tagged error objects.
func (el *ErrorList) MarshalJSON() ([]byte, error) {
	out := make([]wireError, 0, el.Count())
	if el != nil {
		for _, e := range el.Errors {
			enc := &wireEncoder{}
			e.Accept(enc)
			if enc.err != nil {
				return nil, enc.err
			}
			out = append(out, enc.out)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (el *ErrorList) UnmarshalJSON(data []byte) error {
	var items []wireError
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	errs := make([]ValidationError, 0, len(items))
	for i, item := range items {
		switch item.Kind {
		case ErrorKindMissingField:
			errs = append(errs, &MissingField{Field: item.Field})
		case ErrorKindNullValue:
			errs = append(errs, &NullValue{Field: item.Field})
		case ErrorKindInvalidType:
			errs = append(errs, &InvalidType{Field: item.Field, Expected: item.Expected, Actual: item.Actual})
		case ErrorKindRuleViolation:
			if len(bytes.TrimSpace(item.Rule)) == 0 {
				return fmt.Errorf("errors[%d]: rule_violation without rule", i)
			}
			rule, err := schema.UnmarshalRule(item.Rule)
			if err != nil {
				return fmt.Errorf("errors[%d]: %w", i, err)
			}
			errs = append(errs, &RuleViolation{Field: item.Field, Rule: rule, Message: item.Message})
		default:
			return fmt.Errorf("errors[%d]: unknown error kind %q", i, item.Kind)
		}
	}
	el.Errors = errs
	return nil
}
