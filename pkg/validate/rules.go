package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"bastion-hq/bastion/pkg/schema"
)

// regexCache memoizes compiled patterns by source, including compile failures.
var regexCache sync.Map // map[string]*compiledPattern

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// compilePattern returns the compiled form of src, compiling it at most once
// per process under normal operation. Concurrent first callers may both
// compile; LoadOrStore keeps a single winner.
func compilePattern(src string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(src); ok {
		cp := cached.(*compiledPattern)
		return cp.re, cp.err
	}
	re, err := regexp.Compile(src)
	actual, _ := regexCache.LoadOrStore(src, &compiledPattern{re: re, err: err})
	cp := actual.(*compiledPattern)
	return cp.re, cp.err
}

// ruleChecker evaluates one rule against one value. It is a schema.RuleVisitor,
// so every rule variant must have a predicate here.
type ruleChecker struct {
	value   any
	message string
	failed  bool
}

// checkRule returns the violation message for r against v, or false when the
// value satisfies the rule. A rule applied to a value of an incompatible kind
// always passes.
func checkRule(r schema.Rule, v any) (string, bool) {
	c := &ruleChecker{value: v}
	r.Accept(c)
	return c.message, c.failed
}

func (c *ruleChecker) fail(format string, args ...any) {
	c.failed = true
	c.message = fmt.Sprintf(format, args...)
}

func (c *ruleChecker) VisitPattern(r schema.Pattern) {
	s, ok := asString(c.value)
	if !ok {
		return
	}
	re, err := compilePattern(r.Regex)
	if err != nil {
		c.fail("pattern '%s' is not a valid regular expression: %v", r.Regex, err)
		return
	}
	if !re.MatchString(s) {
		c.fail("value '%s' does not match pattern '%s'", s, r.Regex)
	}
}

// String lengths are measured in bytes.
func (c *ruleChecker) VisitMinLength(r schema.MinLength) {
	s, ok := asString(c.value)
	if !ok {
		return
	}
	if n := uint64(len(s)); n < r.Length {
		c.fail("length %d is less than minimum %d", n, r.Length)
	}
}

func (c *ruleChecker) VisitMaxLength(r schema.MaxLength) {
	s, ok := asString(c.value)
	if !ok {
		return
	}
	if n := uint64(len(s)); n > r.Length {
		c.fail("length %d exceeds maximum %d", n, r.Length)
	}
}

func (c *ruleChecker) VisitMinValue(r schema.MinValue) {
	f, text, ok := asNumber(c.value)
	if !ok {
		return
	}
	if f < r.Value {
		c.fail("value %s is less than minimum %s", text, formatFloat(r.Value))
	}
}

func (c *ruleChecker) VisitMaxValue(r schema.MaxValue) {
	f, text, ok := asNumber(c.value)
	if !ok {
		return
	}
	if f > r.Value {
		c.fail("value %s exceeds maximum %s", text, formatFloat(r.Value))
	}
}

func (c *ruleChecker) VisitDateTime(r schema.DateTime) {
	s, ok := asString(c.value)
	if !ok {
		return
	}
	if !validDateTime(r.Format, s) {
		c.fail("value '%s' is not a valid %s", s, r.Format)
	}
}

// validDateTime reports whether s parses under format. Unix timestamps are
// accepted only as strings carrying a base-10 signed 64-bit integer.
func validDateTime(format schema.DateTimeFormat, s string) bool {
	switch format {
	case schema.DateTimeISO8601:
		_, err := time.Parse(time.RFC3339, normalizeRFC3339(s))
		return err == nil
	case schema.DateTimeUnixTimestamp:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	}
	return false
}

// normalizeRFC3339 rewrites RFC 3339 spellings that time.Parse rejects into
// the canonical upper-case form. A leap second is read as the second before it.
func normalizeRFC3339(s string) string {
	if len(s) < 20 {
		return s
	}
	b := []byte(s)
	if b[10] == 't' || b[10] == ' ' {
		b[10] = 'T'
	}
	if b[len(b)-1] == 'z' {
		b[len(b)-1] = 'Z'
	}
	if b[16] == ':' && b[17] == '6' && b[18] == '0' {
		b[17] = '5'
		b[18] = '9'
	}
	return string(b)
}
