// Package identity derives the stable test identifiers that link executions of the same logical test across runs.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// ExternalPrefix marks identifiers that were assigned by an external system rather than derived here.
	ExternalPrefix = "trunk:"

	separator = "#"
	// kind is part of every derived identity. Changing it re-keys every known test.
	kind = "JUNIT_TESTCASE"
)

// Components are the inputs to an identity derivation. Empty strings stand in for absent values.
type Components struct {
	Org        string
	Repo       string
	File       string
	Classname  string
	ParentName string
	Name       string
	ExistingID string
	Variant    string
}

// IsUUIDv5 reports whether the value is a name-based (SHA-1) UUID.
func IsUUIDv5(value string) bool {
	id, err := uuid.Parse(value)
	if err != nil {
		return false
	}

	return id.Version() == 5
}

// Derive computes the identity of a test.
//
// An external `trunk:` identifier is re-keyed into the repository. An existing v5 UUID is reused as-is unless a variant
// is set, in which case it is salted with the variant. In all other cases the identity is a hash over the repository
// and the test's location.
func Derive(c Components) string {
	hasVariant := c.Variant != ""

	switch {
	case strings.HasPrefix(c.ExistingID, ExternalPrefix):
		values := []string{c.Org, c.Repo, c.ExistingID}
		if hasVariant {
			values = append(values, c.Variant)
		}

		return checksum(values)
	case c.ExistingID != "" && IsUUIDv5(c.ExistingID):
		if !hasVariant {
			return c.ExistingID
		}

		return checksum([]string{c.ExistingID, c.Variant})
	}

	values := []string{c.Org, c.Repo, c.File, c.Classname, c.ParentName, c.Name, kind}
	if hasVariant {
		values = append(values, c.Variant)
	}

	return checksum(values)
}

// ForTestCase resolves the identity of a parsed test case.
//
// A pre-assigned identity is kept verbatim when no variant is requested. Without a pre-assigned identity, a variant
// salts the identity twice: the plain derivation becomes the existing identity of a second one.
func ForTestCase(c Components) string {
	if c.ExistingID != "" && c.Variant == "" {
		return c.ExistingID
	}

	id := Derive(c)
	if c.Variant == "" || c.ExistingID != "" {
		return id
	}

	c.ExistingID = id
	return Derive(c)
}

func checksum(values []string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(values, separator))).String()
}
