package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RuleKind is the snake_case discriminator of a rule on the wire.
type RuleKind string

const (
	RuleKindPattern        RuleKind = "pattern"
	RuleKindMinLength      RuleKind = "min_length"
	RuleKindMaxLength      RuleKind = "max_length"
	RuleKindMinValue       RuleKind = "min_value"
	RuleKindMaxValue       RuleKind = "max_value"
	RuleKindDateTimeFormat RuleKind = "date_time_format"
)

// Rule is one validation rule attached to a field definition.
//
// The set of rules is closed: the only implementations are Pattern, MinLength,
// MaxLength, MinValue, MaxValue and DateTime. Code that needs to handle every
// variant should implement RuleVisitor, so that a new variant fails to compile
// until each visitor handles it.
type Rule interface {
	// Kind returns the wire discriminator.
	Kind() RuleKind

	// Accept dispatches to the matching RuleVisitor method.
	Accept(v RuleVisitor)

	// String describes the rule for diagnostics.
	String() string

	sealed()
}

// RuleVisitor has one method per rule variant.
type RuleVisitor interface {
	VisitPattern(Pattern)
	VisitMinLength(MinLength)
	VisitMaxLength(MaxLength)
	VisitMinValue(MinValue)
	VisitMaxValue(MaxValue)
	VisitDateTime(DateTime)
}

// Pattern requires a string to match a regular expression (RE2 syntax).
type Pattern struct {
	Regex string
}

// MinLength requires a string to be at least Length bytes long (inclusive).
type MinLength struct {
	Length uint64
}

// MaxLength requires a string to be at most Length bytes long (inclusive).
type MaxLength struct {
	Length uint64
}

// MinValue requires a number to be greater than or equal to Value.
type MinValue struct {
	Value float64
}

// MaxValue requires a number to be less than or equal to Value.
type MaxValue struct {
	Value float64
}

// DateTime requires a string to parse under Format.
type DateTime struct {
	Format DateTimeFormat
}

func (Pattern) Kind() RuleKind   { return RuleKindPattern }
func (MinLength) Kind() RuleKind { return RuleKindMinLength }
func (MaxLength) Kind() RuleKind { return RuleKindMaxLength }
func (MinValue) Kind() RuleKind  { return RuleKindMinValue }
func (MaxValue) Kind() RuleKind  { return RuleKindMaxValue }
func (DateTime) Kind() RuleKind  { return RuleKindDateTimeFormat }

func (r Pattern) Accept(v RuleVisitor)   { v.VisitPattern(r) }
func (r MinLength) Accept(v RuleVisitor) { v.VisitMinLength(r) }
func (r MaxLength) Accept(v RuleVisitor) { v.VisitMaxLength(r) }
func (r MinValue) Accept(v RuleVisitor)  { v.VisitMinValue(r) }
func (r MaxValue) Accept(v RuleVisitor)  { v.VisitMaxValue(r) }
func (r DateTime) Accept(v RuleVisitor)  { v.VisitDateTime(r) }

func (r Pattern) String() string   { return fmt.Sprintf("pattern(%q)", r.Regex) }
func (r MinLength) String() string { return fmt.Sprintf("min_length(%d)", r.Length) }
func (r MaxLength) String() string { return fmt.Sprintf("max_length(%d)", r.Length) }
func (r MinValue) String() string  { return fmt.Sprintf("min_value(%g)", r.Value) }
func (r MaxValue) String() string  { return fmt.Sprintf("max_value(%g)", r.Value) }
func (r DateTime) String() string  { return fmt.Sprintf("date_time_format(%s)", r.Format) }

func (Pattern) sealed()   {}
func (MinLength) sealed() {}
func (MaxLength) sealed() {}
func (MinValue) sealed()  {}
func (MaxValue) sealed()  {}
func (DateTime) sealed()  {}

// ruleEnvelope is the adjacently tagged wire form {"rule": ..., "value": ...}.
type ruleEnvelope struct {
	Rule  RuleKind        `json:"rule"`
	Value json.RawMessage `json:"value"`
}

// MarshalRule encodes a rule as {"rule": "<tag>", "value": <payload>}.
func MarshalRule(r Rule) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot encode nil rule")
	}
	enc := &ruleEncoder{}
	r.Accept(enc)
	if enc.err != nil {
		return nil, fmt.Errorf("encode %s rule: %w", r.Kind(), enc.err)
	}
	return json.Marshal(ruleEnvelope{Rule: r.Kind(), Value: enc.value})
}

// UnmarshalRule decodes the wire form of a rule. Unknown tags and payloads of
// the wrong type are errors.
func UnmarshalRule(data []byte) (Rule, error) {
	var env ruleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("rule must be an object with \"rule\" and \"value\": %w", err)
	}
	if len(env.Value) == 0 || bytes.Equal(bytes.TrimSpace(env.Value), []byte("null")) {
		return nil, fmt.Errorf("rule %q is missing its value", env.Rule)
	}

	switch env.Rule {
	case RuleKindPattern:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("pattern value must be a string: %w", err)
		}
		return Pattern{Regex: s}, nil
	case RuleKindMinLength, RuleKindMaxLength:
		var n uint64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return nil, fmt.Errorf("%s value must be an unsigned integer: %w", env.Rule, err)
		}
		if env.Rule == RuleKindMinLength {
			return MinLength{Length: n}, nil
		}
		return MaxLength{Length: n}, nil
	case RuleKindMinValue, RuleKindMaxValue:
		var x float64
		if err := json.Unmarshal(env.Value, &x); err != nil {
			return nil, fmt.Errorf("%s value must be a number: %w", env.Rule, err)
		}
		if env.Rule == RuleKindMinValue {
			return MinValue{Value: x}, nil
		}
		return MaxValue{Value: x}, nil
	case RuleKindDateTimeFormat:
		var f DateTimeFormat
		if err := json.Unmarshal(env.Value, &f); err != nil {
			return nil, err
		}
		return DateTime{Format: f}, nil
	default:
		return nil, fmt.Errorf("unknown rule %q", env.Rule)
	}
}

// ruleEncoder renders the payload half of the envelope.
type ruleEncoder struct {
	value json.RawMessage
	err   error
}

func (e *ruleEncoder) set(v any) {
	e.value, e.err = json.Marshal(v)
}

func (e *ruleEncoder) VisitPattern(r Pattern)     { e.set(r.Regex) }
func (e *ruleEncoder) VisitMinLength(r MinLength) { e.set(r.Length) }
func (e *ruleEncoder) VisitMaxLength(r MaxLength) { e.set(r.Length) }
func (e *ruleEncoder) VisitMinValue(r MinValue)   { e.set(r.Value) }
func (e *ruleEncoder) VisitMaxValue(r MaxValue)   { e.set(r.Value) }
func (e *ruleEncoder) VisitDateTime(r DateTime)   { e.set(r.Format) }

// Rules is an ordered rule list with a wire codec.
type Rules []Rule

// MarshalJSON encodes the list; a nil list encodes as [].
func (rs Rules) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(rs))
	for i, r := range rs {
		data, err := MarshalRule(r)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a list of rule envelopes, preserving order.
func (rs *Rules) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rules must be an array: %w", err)
	}
	out := make(Rules, 0, len(raw))
	for i, item := range raw {
		r, err := UnmarshalRule(item)
		if err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	*rs = out
	return nil
}

// Equal reports whether both lists hold the same rules in the same order.
// A nil list equals an empty one.
func (rs Rules) Equal(other Rules) bool {
	if len(rs) != len(other) {
		return false
	}
	for i := range rs {
		if rs[i] != other[i] {
			return false
		}
	}
	return true
}
