// Package slug derives URL-safe listing slugs.
package slug

import (
	"strings"

	"github.com/google/uuid"
	gslug "github.com/gosimple/slug"
)

// SuffixLength is the number of random characters appended to every slug.
const SuffixLength = 8

// Generate builds "<type>-<action>-<address>-<price>-<suffix>". The random
// suffix keeps slugs unique for listings that share every other part.
func Generate(propertyType, action, address, price string) string {
	return Build(propertyType, action, address, price, RandomSuffix())
}

// Build is Generate with a caller-chosen suffix.
func Build(propertyType, action, address, price, suffix string) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{propertyType, action, address, price, suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return gslug.Make(strings.Join(parts, " "))
}

// RandomSuffix returns SuffixLength lowercase hex characters.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:SuffixLength]
}
