// Package schema defines the data model used by the validator: field types,
// date-time formats, the closed catalogue of validation rules, field
// definitions and named schemas.
//
// # Building a schema
//
//	s := schema.New("user").
//	    Field("user_id", schema.NewField(schema.FieldTypeInteger).AsRequired()).
//	    Field("email", schema.NewField(schema.FieldTypeString).
//	        AsRequired().
//	        WithRule(schema.Pattern{Regex: `^[^@]+@[^@]+$`})).
//	    Field("age", schema.NewField(schema.FieldTypeInteger).
//	        AsNullable().
//	        WithRule(schema.MinValue{Value: 0}).
//	        WithRule(schema.MaxValue{Value: 120}))
//
// Inserting a second definition under an existing name replaces the first.
//
// # Wire format
//
// Schemas encode to JSON with lowercase field type tokens and adjacently
// tagged rules:
//
//	{
//	  "name": "user",
//	  "fields": {
//	    "email": {
//	      "field_type": "string",
//	      "required": true,
//	      "nullable": false,
//	      "rules": [{"rule": "pattern", "value": "^[^@]+@[^@]+$"}]
//	    }
//	  }
//	}
//
// Unknown field types and rule tags are decode errors. Decoding an encoded
// schema yields a schema for which Equal reports true.
//
// # Rule variants
//
// Rule is a sealed interface. Implement RuleVisitor to handle every variant;
// adding a variant adds a visitor method, which breaks the build of every
// visitor that does not handle it yet.
package schema
