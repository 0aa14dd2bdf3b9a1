package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bastion-hq/bastion/pkg/schema"
)

// Validate checks payload against s. It returns nil when the payload conforms
// and an *ErrorList holding every violation otherwise.
func Validate(s *schema.Schema, payload any) error {
	return Check(s, payload).ToError()
}

// Check runs every gate for every schema field and returns the accumulated
// errors. The returned list is never nil and is empty for a valid payload.
//
// For each field the gates run in order: presence, nullability, type, rules.
// A failing gate stops the remaining gates for that field only. Payload keys
// the schema does not declare are ignored, and nested values are not
// inspected. A non-object payload has no keys.
func Check(s *schema.Schema, payload any) *ErrorList {
	errs := NewErrorList()
	obj, _ := payload.(map[string]any)

	for _, name := range s.Names() {
		def, _ := s.Lookup(name)
		checkField(errs, name, def, obj)
	}
	return errs
}

func checkField(errs *ErrorList, name string, def schema.FieldDefinition, obj map[string]any) {
	v, present := obj[name]
	if !present {
		if def.Required {
			errs.Add(&MissingField{Field: name})
		}
		return
	}

	if v == nil {
		if !def.Nullable {
			errs.Add(&NullValue{Field: name})
		}
		return
	}

	if !Matches(def.FieldType, v) {
		errs.Add(&InvalidType{Field: name, Expected: def.FieldType, Actual: Classify(v)})
		return
	}

	for _, rule := range def.Rules {
		if rule == nil {
			continue
		}
		if msg, failed := checkRule(rule, v); failed {
			errs.Add(&RuleViolation{Field: name, Rule: rule, Message: msg})
		}
	}
}

// DecodePayload reads one JSON document from r into a value tree suitable for
// Validate. Numbers decode as json.Number so that integer and float literals
// stay distinct.
func DecodePayload(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode payload: empty document")
		}
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode payload: unexpected data after the top-level value")
	}
	return payload, nil
}

// DecodePayloadBytes is DecodePayload over an in-memory document.
func DecodePayloadBytes(data []byte) (any, error) {
	return DecodePayload(bytes.NewReader(data))
}
