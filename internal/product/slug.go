package product

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nonAlnumRegex  = regexp.MustCompile(`[^a-z0-9]+`)
	multiDashRegex = regexp.MustCompile(`-+`)
)

// Slugify lowercases input and keeps ASCII letters and digits joined by single dashes.
// Names without any ASCII characters (Cyrillic titles are common) get a random suffix slug.
func Slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	slug = multiDashRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = "product-" + strings.Split(uuid.NewString(), "-")[0]
	}
	return slug
}
