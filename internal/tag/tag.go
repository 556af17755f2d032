// Package tag attaches deterministic keyword tags to job postings.
package tag

import "strings"

// Rule maps a tag to the case-insensitive substrings that trigger it.
type Rule struct {
	Tag string   `yaml:"tag"`
	Any []string `yaml:"any"`
}

// Rules are evaluated in slice order, which is also the order of the
// returned tags.
type Rules []Rule

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		{Tag: "oppisopimus", Any: []string{"oppisopimus", "apprentice"}},
		{Tag: "trainee", Any: []string{"trainee", "harjoittel", "intern"}},
		{Tag: "junior", Any: []string{"junior"}},
		{Tag: "data", Any: []string{"data", "analyyt", "analytics", "bi ", " sql", "sql "}},
		{Tag: "it_support", Any: []string{"it-tuki", "helpdesk", "service desk", "support"}},
		{Tag: "marketing", Any: []string{"marketing", "markkinointi"}},
		{Tag: "salesforce", Any: []string{"salesforce"}},
	}
}

// DetectTags returns every tag whose keywords occur in text. Matching is plain
// substring containment on the lower-cased text. Empty rules fall back to
// DefaultRules.
func DetectTags(text string, rules Rules) []string {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	lower := strings.ToLower(text)

	tags := []string{}
	for _, r := range rules {
		for _, needle := range r.Any {
			n := strings.ToLower(needle)
			if n == "" {
				continue
			}
			if strings.Contains(lower, n) {
				tags = append(tags, r.Tag)
				break
			}
		}
	}
	return uniq(tags)
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
