// Package sanitize cleans user-provided text before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// Text strips HTML tags, decodes entities and collapses runs of whitespace.
// Tags hidden behind entities are stripped after decoding.
func Text(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.Join(strings.Fields(result), " ")
}

// TextPtr sanitizes an optional value. Blank results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
