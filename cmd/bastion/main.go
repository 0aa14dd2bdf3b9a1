// Bastion validates untrusted JSON payloads against declarative schemas.
//
// Schemas are JSON, YAML or TOML documents naming each field's type, whether
// it is required or nullable, and the rules its value must satisfy.
// Validation reports every problem in a payload, not just the first.
//
// Usage:
//
//	# Validate payload files against a schema
//	bastion validate --schema user.json payload1.json payload2.json
//
//	# Check schema documents before shipping them
//	bastion lint --dir schemas/
//
//	# Serve the schema directory over HTTP
//	bastion serve --config /etc/bastion/config.yaml
//
//	# Inspect recorded outcomes
//	bastion history query --schema user --valid=false
//
//	# Show version information
//	bastion version
package main

func main() {
	Execute()
}
