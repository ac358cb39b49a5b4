package masking

import "strings"

// Masker is a code-based masker for content that needs structural parsing
// beyond regex matching (e.g. masking named fields of a JSON payload).
type Masker interface {
	// Name returns the identifier used to reference the masker from a pattern group.
	Name() string

	// AppliesTo is a cheap check (string contains, no parsing).
	AppliesTo(data string) bool

	// Mask returns the masked data, or the original data when it cannot be parsed.
	Mask(data string) string
}

// MaskSecret hides all but the last four characters of a secret.
// Values of four characters or fewer are hidden entirely.
func MaskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
