package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Query trims a user-supplied search query and collapses internal runs of
// whitespace to a single space.
func Query(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
