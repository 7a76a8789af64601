// Package htmlsanitize strips dangerous markup from user-supplied rich text
// before it is stored. Cause descriptions and testimonials keep basic
// formatting; everything else (scripts, event handlers, iframes) is removed.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated-content markup (paragraphs, links, lists)
// and drops everything executable.
func Sanitize(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// PlainText strips all markup, leaving text only. Used for fields that must
// never carry HTML, such as titles.
func PlainText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
