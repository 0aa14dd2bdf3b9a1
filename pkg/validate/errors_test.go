package validate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"bastion-hq/bastion/pkg/schema"
)

func sampleErrors() *ErrorList {
	el := NewErrorList()
	el.Add(&MissingField{Field: "user_id"})
	el.Add(&NullValue{Field: "email"})
	el.Add(&InvalidType{Field: "age", Expected: schema.FieldTypeInteger, Actual: schema.FieldTypeString})
	el.Add(&RuleViolation{
		Field:   "username",
		Rule:    schema.MinLength{Length: 3},
		Message: "length 2 is less than minimum 3",
	})
	return el
}

func TestErrorList_Accessors(t *testing.T) {
	el := sampleErrors()

	if !el.HasErrors() || el.Count() != 4 {
		t.Fatalf("HasErrors()=%v Count()=%d, want true/4", el.HasErrors(), el.Count())
	}
	if got := el.ByField("age"); len(got) != 1 || got[0].Kind() != ErrorKindInvalidType {
		t.Errorf("ByField(age) = %v", got)
	}
	if got := el.ByKind(ErrorKindRuleViolation); len(got) != 1 || got[0].FieldName() != "username" {
		t.Errorf("ByKind(rule_violation) = %v", got)
	}
	counts := el.CountByKind()
	for _, k := range ErrorKinds {
		if counts[k] != 1 {
			t.Errorf("CountByKind()[%s] = %d, want 1", k, counts[k])
		}
	}

	msg := el.Error()
	for _, want := range []string{
		"4 validation error(s)",
		"field 'user_id' is required but missing",
		"field 'email' must not be null",
		"field 'age' expected type 'integer', got 'string'",
		"field 'username' violates min_length: length 2 is less than minimum 3",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q in:\n%s", want, msg)
		}
	}
}

func TestErrorList_ToError(t *testing.T) {
	if err := NewErrorList().ToError(); err != nil {
		t.Errorf("empty ToError() = %v, want nil", err)
	}

	var list *ErrorList
	if !errors.As(sampleErrors().ToError(), &list) || list.Count() != 4 {
		t.Error("ToError() should expose the list through errors.As")
	}

	var nilList *ErrorList
	if nilList.HasErrors() || nilList.Count() != 0 || nilList.ToError() != nil {
		t.Error("nil list should behave as empty")
	}
}

func TestErrorList_WireForm(t *testing.T) {
	data, err := json.Marshal(sampleErrors())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	if items[0]["kind"] != "missing_field" || items[0]["field"] != "user_id" {
		t.Errorf("items[0] = %v", items[0])
	}
	if _, ok := items[0]["rule"]; ok {
		t.Errorf("missing_field should not carry a rule: %v", items[0])
	}
	if items[2]["expected"] != "integer" || items[2]["actual"] != "string" {
		t.Errorf("items[2] = %v", items[2])
	}
	rule, ok := items[3]["rule"].(map[string]any)
	if !ok || rule["rule"] != "min_length" || rule["value"] != float64(3) {
		t.Errorf("items[3].rule = %v", items[3]["rule"])
	}
	if items[3]["message"] != "length 2 is less than minimum 3" {
		t.Errorf("items[3].message = %v", items[3]["message"])
	}

	var decoded ErrorList
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got, want := signatures(&decoded), signatures(sampleErrors()); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("decoded = %v, want %v", got, want)
	}
}

func TestErrorList_EmptyWireForm(t *testing.T) {
	data, err := json.Marshal(NewErrorList())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal() = %s, want []", data)
	}
}

func TestErrorList_UnmarshalRejectsUnknownKind(t *testing.T) {
	var el ErrorList
	err := json.Unmarshal([]byte(`[{"kind":"bogus","field":"a","message":""}]`), &el)
	if err == nil || !strings.Contains(err.Error(), "unknown error kind") {
		t.Errorf("Unmarshal() error = %v, want unknown error kind", err)
	}
}

// kindCounter proves the visitor reaches every variant.
type kindCounter struct{ seen map[ErrorKind]bool }

func (k *kindCounter) VisitMissingField(*MissingField)   { k.seen[ErrorKindMissingField] = true }
func (k *kindCounter) VisitNullValue(*NullValue)         { k.seen[ErrorKindNullValue] = true }
func (k *kindCounter) VisitInvalidType(*InvalidType)     { k.seen[ErrorKindInvalidType] = true }
func (k *kindCounter) VisitRuleViolation(*RuleViolation) { k.seen[ErrorKindRuleViolation] = true }

func TestErrorVisitor(t *testing.T) {
	k := &kindCounter{seen: make(map[ErrorKind]bool)}
	for _, e := range sampleErrors().Errors {
		e.Accept(k)
	}
	if len(k.seen) != len(ErrorKinds) {
		t.Errorf("visited %v, want all %d kinds", k.seen, len(ErrorKinds))
	}
}
