package robots

import (
	"bufio"
	"strings"
)

// longestDisallow scans a raw robots.txt for the group that applies to agent
// (falling back to "*") and returns the longest Disallow value matching path.
// The result is informational only; allow/deny decisions come from robotstxt.
func longestDisallow(raw, agent, path string) string {
	agent = strings.ToLower(agent)

	var (
		specific, star []string
		curAgents      []string
		inRules        bool
		groups         = map[string][]string{}
	)

	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "user-agent":
			if inRules {
				curAgents = nil
				inRules = false
			}
			curAgents = append(curAgents, strings.ToLower(val))
		case "disallow":
			inRules = true
			if val == "" {
				continue
			}
			for _, a := range curAgents {
				groups[a] = append(groups[a], val)
			}
		default:
			inRules = true
		}
	}

	for a, rules := range groups {
		if a != "*" && a != "" && strings.Contains(agent, a) {
			specific = append(specific, rules...)
		}
	}
	star = groups["*"]

	rules := specific
	if len(rules) == 0 {
		rules = star
	}

	best := ""
	for _, r := range rules {
		if matchRule(r, path) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

// matchRule supports the "*" wildcard and the "$" end anchor.
func matchRule(rule, path string) bool {
	anchored := strings.HasSuffix(rule, "$")
	rule = strings.TrimSuffix(rule, "$")

	parts := strings.Split(rule, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		j := strings.Index(path[pos:], part)
		if j < 0 || (i == 0 && j != 0) {
			return false
		}
		pos += j + len(part)
	}
	if anchored && !strings.HasSuffix(rule, "*") {
		return pos == len(path)
	}
	return true
}
