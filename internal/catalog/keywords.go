package catalog

import (
	"regexp"
	"strings"
)

var slugSeparatorRe = regexp.MustCompile(`[\W_]+`)

// SplitKeywords turns the comma-joined keyword string stored by the API
// into the tag list edited in forms. Empty entries are dropped.
func SplitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// JoinKeywords is the inverse of SplitKeywords.
func JoinKeywords(tags []string) string {
	return strings.Join(tags, ",")
}

// Slugify derives a URL slug from a title: lower case, with every run of
// non-word characters replaced by a single dash.
//
//	"Model S Plaid" → "model-s-plaid"
//	"Über_Cars!"    → "-ber-cars-"
func Slugify(title string) string {
	return slugSeparatorRe.ReplaceAllString(strings.ToLower(title), "-")
}
