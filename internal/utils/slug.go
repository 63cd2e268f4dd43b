// internal/utils/slug.go
package utils

import "strings"

// Slugify turns a title into a URL slug: lowercased, runs of non-alphanumeric
// characters collapsed to single dashes, with no leading or trailing dash.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
