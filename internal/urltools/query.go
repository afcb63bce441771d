package urltools

import (
	"regexp"
	"strings"
)

var titleSeparator = regexp.MustCompile(`\s+[|\-–]\s+`)

// IsBrandedQuery reports whether a search query mentions the site's
// brand and should therefore be excluded from cannibalization detection
// (§4.4 preprocessing step 3, §8 "Branded query exclusion").
func IsBrandedQuery(query, brandName, homepageTitle string, tbl *Tables) bool {
	if query == "" {
		return false
	}
	queryLower := strings.ToLower(query)

	if brandName != "" && strings.Contains(queryLower, strings.ToLower(brandName)) {
		return true
	}

	if homepageTitle != "" {
		parts := titleSeparator.Split(homepageTitle, -1)
		if len(parts) > 0 && len(parts[0]) > 3 {
			candidate := strings.ToLower(strings.TrimSpace(parts[0]))
			if strings.Contains(queryLower, candidate) {
				return true
			}
		}
	}

	for indicator := range tbl.BrandIndicators {
		if strings.Contains(queryLower, indicator) {
			return true
		}
	}

	return false
}

// ClassifyQueryIntent classifies a query's search intent and detects a
// local modifier independently of intent (§4.5). Intent is one of
// "listicle", "informational", "navigational", "transactional", or the
// fallback "ambiguous".
func ClassifyQueryIntent(query string, tbl *Tables) (intent string, hasLocalModifier bool) {
	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	hasLocalModifier = queryHasAnyWord(words, tbl.GeoModifiers) || strings.Contains(queryLower, "near me")

	for _, rule := range tbl.IntentRules {
		for _, marker := range rule.Markers {
			if strings.Contains(queryLower, marker) {
				return rule.Intent, hasLocalModifier
			}
		}
	}

	return "ambiguous", hasLocalModifier
}

func queryHasAnyWord(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

// IsPluralQuery reports whether a query's last significant word looks
// plural (ends in "s" but not "ss"/"us"/"is") — a signal the query wants
// a category page, not a single product (§4.5).
func IsPluralQuery(query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return false
	}

	last := words[len(words)-1]
	if !strings.HasSuffix(last, "s") {
		return false
	}
	if strings.HasSuffix(last, "ss") || strings.HasSuffix(last, "us") || strings.HasSuffix(last, "is") {
		return false
	}
	return true
}

var cityPattern = regexp.MustCompile(`\b(?:in|near)\s+([a-z][a-z\s]*)$`)

// ExtractCityFromQuery pulls a trailing "in <city>" / "near <city>"
// fragment out of a lowercased query, used by GEOGRAPHIC_MISMATCH (§4.5)
// to compare against a winning page's geo_node.
func ExtractCityFromQuery(query string) string {
	m := cityPattern.FindStringSubmatch(strings.ToLower(query))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
