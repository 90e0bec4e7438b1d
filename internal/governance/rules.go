package governance

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RequiredDomains returns the domains whose approval the changed files need,
// in rule order and without duplicates (compared case-insensitively).
// Invalid patterns never match.
func RequiredDomains(rules []CrossDomainRule, files []string) []string {
	seen := map[string]struct{}{}
	domains := []string{}
	for _, rule := range rules {
		if !slices.ContainsFunc(files, func(file string) bool { return MatchPattern(rule.Pattern, file) }) {
			continue
		}
		for _, domain := range rule.Domains {
			trimmed := strings.TrimSpace(domain)
			key := strings.ToLower(trimmed)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			domains = append(domains, trimmed)
		}
	}
	return domains
}

// MatchPattern reports whether file matches a rule glob. "**" crosses
// directories and leading slashes are ignored on both sides.
func MatchPattern(pattern, file string) bool {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "/")
	file = strings.TrimPrefix(strings.TrimSpace(file), "/")
	if pattern == "" || file == "" {
		return false
	}
	ok, err := doublestar.Match(pattern, file)
	return err == nil && ok
}
