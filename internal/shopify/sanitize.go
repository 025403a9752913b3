package shopify

import "regexp"

// tagPattern matches markup tags non-greedily. HTML entities are left as-is,
// matching the behavior of the ingestion pipeline this replaces.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup tags from s, leaving plain text.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return tagPattern.ReplaceAllString(s, "")
}
