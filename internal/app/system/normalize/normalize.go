// Package normalize canonicalizes user-supplied identity fields before they
// are stored or compared.
package normalize

import "strings"

// Email lowercases and trims an e-mail address. Uniqueness checks and
// lookups always go through this so casing never creates duplicates.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Tag trims and canonicalizes a role or category tag for storage. Case is
// preserved; comparisons are case-insensitive at the RoleSet level.
func Tag(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
