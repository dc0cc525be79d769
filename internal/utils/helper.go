package utils

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRegex  = regexp.MustCompile(`[^a-z0-9]+`)
	multiDashRegex = regexp.MustCompile(`-+`)
)

// Slugify lowercases input and collapses every non-alphanumeric run into one dash.
func Slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	slug = multiDashRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ClampPage normalises limit/page pairs: limit defaults to def and is capped at max.
func ClampPage(limit, page, def, max int) (int, int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if page <= 0 {
		page = 1
	}
	return limit, page, (page - 1) * limit
}
