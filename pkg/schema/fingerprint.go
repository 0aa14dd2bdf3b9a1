package schema

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a stable 64-bit xxh3 digest of the schema's wire form,
// hex encoded. encoding/json writes map keys in sorted order, so two equal
// schemas always share a fingerprint.
//
// It returns an empty string for schemas that cannot be encoded.
func (s *Schema) Fingerprint() string {
	data, err := Marshal(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
