// Package slugs derives URL-safe identifiers from display names.
package slugs

import (
	"regexp"
	"strings"
)

var (
	disallowedCharacters = regexp.MustCompile(`[^\w\s-]`)
	separatorRuns        = regexp.MustCompile(`[\s_-]+`)
)

// Slug lowercases name, drops characters outside word/whitespace/hyphen,
// collapses separator runs into a single hyphen and trims edge hyphens.
func Slug(name string) string {
	value := strings.ToLower(name)
	value = disallowedCharacters.ReplaceAllString(value, "")
	value = separatorRuns.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

// UniqueID returns Slug(name), joined with suffix by a hyphen when suffix is non-empty.
// No collision detection is performed.
func UniqueID(name, suffix string) string {
	slug := Slug(name)
	if suffix == "" {
		return slug
	}
	return slug + "-" + suffix
}
