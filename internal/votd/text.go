package votd

import (
	"html"
	"strings"
)

// CleanText decodes HTML character entities into literal characters,
// collapses residual literal entity spellings, and trims surrounding
// whitespace. Total: any input yields a usable string.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&#039;", "'")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	return strings.TrimSpace(s)
}
