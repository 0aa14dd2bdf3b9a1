// Package validate checks dynamically typed payloads against a schema.Schema.
//
// A payload is the value tree produced by a generic decoder: map[string]any
// for objects, []any for arrays, string, bool, nil, and numbers as
// json.Number, Go integers or float64. DecodePayload produces such a tree
// from JSON.
//
// # Gates
//
// Every schema field is checked independently by four gates in order:
//
//  1. presence: an absent required field is a MissingField
//  2. nullability: an explicit null on a non-nullable field is a NullValue
//  3. type: a value whose kind does not satisfy the field type is an InvalidType
//  4. rules: each rule that rejects the value adds a RuleViolation
//
// A failing gate skips the later gates for that field only. All violations
// are returned together; validation never stops at the first error.
//
// # Types
//
// An integer satisfies a float field. A datetime field accepts any string;
// date_time_format rules check the format. Strings are never coerced into
// numbers or booleans.
//
// # Rules
//
// Lengths are counted in bytes. Patterns use RE2 syntax and are compiled once
// per process. A pattern that does not compile rejects every value with a
// RuleViolation naming the compile error. Unix timestamps must be strings
// holding a base-10 signed 64-bit integer.
//
// # Usage
//
//	payload, err := validate.DecodePayload(r)
//	if err != nil {
//	    return err
//	}
//	if err := validate.Validate(s, payload); err != nil {
//	    var list *validate.ErrorList
//	    if errors.As(err, &list) {
//	        for _, e := range list.Errors {
//	            fmt.Println(e.FieldName(), e.Kind(), e)
//	        }
//	    }
//	}
//
// Validate performs no I/O and does not modify its arguments, so one schema
// may be shared by any number of goroutines.
package validate
