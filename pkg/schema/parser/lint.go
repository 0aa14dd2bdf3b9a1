package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bastion-hq/bastion/pkg/schema"
)

// lint checks rules that decode cleanly but cannot behave as written.
// Patterns that do not compile are errors. Everything else is a warning.
func lint(s *schema.Schema, source string) (*ErrorList, []*Error) {
	errs := NewErrorList()
	var warnings []*Error

	for _, name := range s.Names() {
		def, _ := s.Lookup(name)
		l := &fieldLinter{
			source:    source,
			field:     name,
			fieldType: def.FieldType,
			seen:      make(map[schema.RuleKind]int),
		}
		for i, r := range def.Rules {
			if r == nil {
				continue
			}
			l.index = i
			r.Accept(l)
		}
		l.checkBounds()

		for _, e := range l.errs {
			errs.Add(e)
		}
		warnings = append(warnings, l.warnings...)
	}
	return errs, warnings
}

// fieldLinter inspects the rules of one field definition.
type fieldLinter struct {
	source    string
	field     string
	fieldType schema.FieldType
	index     int
	seen      map[schema.RuleKind]int

	minLength, maxLength *uint64
	minValue, maxValue   *float64

	errs     []*Error
	warnings []*Error
}

func (l *fieldLinter) location() Location {
	return Location{File: l.source, Pointer: pointer([]string{"fields", l.field, "rules", strconv.Itoa(l.index)})}
}

func (l *fieldLinter) warn(message, suggestion string) {
	l.warnings = append(l.warnings, &Error{
		Type:       ErrorTypeSemantic,
		Message:    message,
		Location:   l.location(),
		Suggestion: suggestion,
	})
}

// record notes a rule kind and warns when the field already has one.
func (l *fieldLinter) record(k schema.RuleKind) {
	if prev, dup := l.seen[k]; dup {
		l.warn(
			fmt.Sprintf("field '%s' repeats rule %s (first at rules/%d)", l.field, k, prev),
			"Keep a single rule of each kind",
		)
		return
	}
	l.seen[k] = l.index
}

func (l *fieldLinter) requireTypes(k schema.RuleKind, allowed ...schema.FieldType) {
	for _, t := range allowed {
		if l.fieldType == t {
			return
		}
	}
	names := make([]string, len(allowed))
	for i, t := range allowed {
		names[i] = string(t)
	}
	l.warn(
		fmt.Sprintf("rule %s has no effect on %s field '%s'", k, l.fieldType, l.field),
		fmt.Sprintf("Use %s on %s fields only", k, strings.Join(names, " or ")),
	)
}

func (l *fieldLinter) VisitPattern(r schema.Pattern) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeString, schema.FieldTypeDateTime)
	if _, err := regexp.Compile(r.Regex); err != nil {
		l.errs = append(l.errs, &Error{
			Type:       ErrorTypeSemantic,
			Message:    fmt.Sprintf("pattern '%s' on field '%s' is not a valid regular expression: %v", r.Regex, l.field, err),
			Location:   l.location(),
			Suggestion: "Patterns use RE2 syntax; lookaround and backreferences are not supported",
		})
	}
}

func (l *fieldLinter) VisitMinLength(r schema.MinLength) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeString, schema.FieldTypeDateTime)
	n := r.Length
	l.minLength = &n
}

func (l *fieldLinter) VisitMaxLength(r schema.MaxLength) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeString, schema.FieldTypeDateTime)
	n := r.Length
	l.maxLength = &n
}

func (l *fieldLinter) VisitMinValue(r schema.MinValue) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeInteger, schema.FieldTypeFloat)
	x := r.Value
	l.minValue = &x
}

func (l *fieldLinter) VisitMaxValue(r schema.MaxValue) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeInteger, schema.FieldTypeFloat)
	x := r.Value
	l.maxValue = &x
}

func (l *fieldLinter) VisitDateTime(r schema.DateTime) {
	l.record(r.Kind())
	l.requireTypes(r.Kind(), schema.FieldTypeDateTime, schema.FieldTypeString)
}

// checkBounds warns about ranges that no value can satisfy.
func (l *fieldLinter) checkBounds() {
	if l.minLength != nil && l.maxLength != nil && *l.minLength > *l.maxLength {
		l.index = l.seen[schema.RuleKindMaxLength]
		l.warn(
			fmt.Sprintf("field '%s' has min_length %d greater than max_length %d", l.field, *l.minLength, *l.maxLength),
			"No string can satisfy both bounds",
		)
	}
	if l.minValue != nil && l.maxValue != nil && *l.minValue > *l.maxValue {
		l.index = l.seen[schema.RuleKindMaxValue]
		l.warn(
			fmt.Sprintf("field '%s' has min_value %s greater than max_value %s", l.field,
				strconv.FormatFloat(*l.minValue, 'g', -1, 64), strconv.FormatFloat(*l.maxValue, 'g', -1, 64)),
			"No number can satisfy both bounds",
		)
	}
}
