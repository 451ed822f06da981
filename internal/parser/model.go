// Package parser turns the site's free-form model texts into structured
// model / displacement / year fields.
package parser

import (
	"regexp"
	"strings"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

var (
	// Matches a parenthesized 4-digit year, optionally ranged: (2019),
	// (2018-2021), (2018/2021).
	yearPattern = regexp.MustCompile(`\((\d{4}(?:[-/]\d{4})?)\)`)
	yearStrip   = regexp.MustCompile(`\s*\(\d{4}(?:[-/]\d{4})?\)\s*`)

	// Permissive on purpose: any 2-4 digit token counts as a
	// displacement. Matches the site's usual "XYZ 125" naming but can
	// pick up unrelated numbers from odd model texts; when it finds
	// nothing the level's own label is kept instead.
	displacementPattern = regexp.MustCompile(`\b(\d{2,4})\b`)

	spaces = regexp.MustCompile(`\s+`)
)

// ParseModelText extracts model, displacement and year from a composite
// model text such as "XYZ 125 (2018-2021)". The year is the first year
// of a range and is stripped from the model text. displacementLabel is
// the displacement level's own label, returned unchanged when no
// displacement token is present in the text. A missing year yields the
// N/A placeholder.
func ParseModelText(text, displacementLabel string) (model, displacement, year string) {
	model = normalize(text)
	displacement = displacementLabel
	year = models.Placeholder

	if m := yearPattern.FindStringSubmatch(text); m != nil {
		year = m[1]
		if i := strings.IndexAny(year, "-/"); i >= 0 {
			year = year[:i]
		}
		model = normalize(yearStrip.ReplaceAllString(text, " "))
	}

	if m := displacementPattern.FindStringSubmatch(model); m != nil {
		displacement = m[1]
	}

	return model, displacement, year
}

// ParseYearCell reports whether a year-column cell holds a usable
// 4-digit year.
func ParseYearCell(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) >= 4 && isDigits(text) {
		return text, true
	}
	return "", false
}

func normalize(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
