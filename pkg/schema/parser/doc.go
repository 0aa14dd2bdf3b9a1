// Package parser loads schema documents written in JSON, YAML or TOML.
//
// All three formats describe the same document:
//
//	name: user
//	fields:
//	  email:
//	    field_type: string
//	    required: true
//	    rules:
//	      - rule: pattern
//	        value: "^[^@]+@[^@]+$"
//
// A document is checked against an embedded JSON Schema before it is
// decoded, so unknown keys, unknown field types and rule payloads of the wrong
// type are reported with a JSON pointer to the offending node. When name is
// omitted the file name without its extension is used.
//
// After decoding, the rules are linted. A pattern that is not valid RE2 is an
// error. Rules attached to a field type they cannot apply to, repeated rule
// kinds and empty ranges are warnings, returned on the Document; strict mode
// reports them as errors instead.
//
// Usage:
//
//	p := parser.NewParser().WithStrictMode(true)
//	doc, err := p.Parse("schemas/user.yaml")
//	if err != nil {
//	    var list *parser.ErrorList
//	    if errors.As(err, &list) {
//	        for _, e := range list.Errors {
//	            fmt.Println(e.Location, e.Message)
//	        }
//	    }
//	    return err
//	}
//	_ = doc.Schema
package parser
