package scrape

import (
	"net/url"
	"strings"
)

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// isObviousJunkURL flags seeds that cannot hold a careers listing.
func isObviousJunkURL(u string) bool {
	lu := strings.ToLower(u)
	if i := strings.IndexAny(lu, "?#"); i >= 0 {
		lu = lu[:i]
	}

	junks := []string{
		"unsubscribe",
		"privacy",
		"cookie",
		"terms",
		"/login",
		"/legal",
		"mailto:",
		"tel:",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}

	for _, ext := range []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".zip", ".docx"} {
		if strings.HasSuffix(lu, ext) {
			return true
		}
	}
	return false
}
