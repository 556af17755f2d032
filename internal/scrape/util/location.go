package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindLocation looks for a location on a job detail page: common location
// selectors first, then a "Location:" label in og:description or body text.
func FindLocation(doc *goquery.Document) string {
	candidates := []string{
		".location",
		".opening .location",
		".opening .location--small",
		".job__location",
		".app-title + .location", // some boards
		"[data-testid='job-location']",
		"[data-testid='location']",
	}

	for _, sel := range candidates {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}

	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if loc := ExtractLocationFromLabeledText(v); loc != "" {
			return NormalizeLocation(loc)
		}
	}

	body := VisibleText(doc.Find("body"))
	if loc := ExtractLocationFromLabeledText(body); loc != "" {
		return NormalizeLocation(loc)
	}

	return ""
}

// ExtractLocationFromLabeledText returns the text after a "Location:" style
// label, or "".
func ExtractLocationFromLabeledText(s string) string {
	low := strings.ToLower(s)

	// common label forms: "Location", "Locations", "Job Location"
	labels := []string{
		"location:",
		"locations:",
		"job location:",
		"sijainti:",
	}

	for _, lab := range labels {
		if i := strings.Index(low, lab); i >= 0 {
			// take a reasonable slice after the label
			start := i + len(lab)
			if start > len(s) {
				continue
			}
			rest := strings.TrimSpace(s[start:])

			// stop at newline-ish boundaries if present
			for _, cut := range []string{"\n", "\r", " | ", " · "} {
				if j := strings.Index(rest, cut); j >= 0 {
					rest = rest[:j]
				}
			}

			rest = CleanText(rest)
			if rest != "" && len(rest) <= 80 {
				return rest
			}
		}
	}
	return ""
}
