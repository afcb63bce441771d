// Package urltools provides the URL/slug normalization and comparison
// primitives the cannibalization pipeline builds its classification and
// similarity reasoning on top of. Every function here is pure: same
// input, same output, no shared state (§5, §8 "Classification
// determinism").
package urltools

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// NormalizeFullURL lowercases a URL, strips protocol, a leading "www.",
// query string, fragment, and trailing slash. It is the cross-source
// join key between PageSource and TrafficSource records (§6) and must
// stay idempotent and stable across versions.
//
//	https://www.example.com/page/?utm=123#section  →  example.com/page
func NormalizeFullURL(raw string) string {
	if raw == "" {
		return ""
	}

	trimmed := strings.ToLower(strings.TrimSpace(raw))
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}

	host := strings.TrimPrefix(parsed.Host, "www.")
	path := strings.TrimSuffix(parsed.Path, "/")

	return host + path
}

// NormalizePath extracts and normalizes just the path component of a
// URL: lowercased, trailing slash removed (root stays "/"), leading
// slash guaranteed.
//
//	https://example.com/blog/post-title/?page=2  →  /blog/post-title
func NormalizePath(raw string) string {
	if raw == "" {
		return "/"
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "/"
	}

	path := strings.ToLower(parsed.Path)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return path
}

// PathParts splits a normalized path into its non-empty segments.
//
//	/service-area/event-planner/brooklyn/  →  [service-area event-planner brooklyn]
func PathParts(raw string) []string {
	path := NormalizePath(raw)
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}

	segments := strings.Split(trimmed, "/")
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// FolderRoot returns the first path segment, or "" for the root path.
func FolderRoot(raw string) string {
	parts := PathParts(raw)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// ParentPath returns every path segment but the last, as an absolute
// path. The root path's parent is itself.
//
//	/shop/clothing/shirts/  →  /shop/clothing
func ParentPath(raw string) string {
	parts := PathParts(raw)
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/")
}

// SlugLast returns the final path segment, or "" for the root path.
func SlugLast(raw string) string {
	parts := PathParts(raw)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

var yearDigits = regexp.MustCompile(`^\d+$`)

const minSlugYear = 2015
const maxSlugYear = 2030

// ExtractSlugTokens splits every path segment on "-"/"_", lowercases,
// drops year-shaped tokens (2015-2030), drops tokens under 3 characters,
// and — when stripStopWords is true — subtracts tbl.StopWords. Returns a
// set for Jaccard comparison (§4.1 slug_tokens, §4.3 NEAR_DUPLICATE_CONTENT).
func ExtractSlugTokens(raw string, tbl *Tables, stripStopWords bool) map[string]struct{} {
	parts := PathParts(raw)

	tokens := make(map[string]struct{})
	for _, part := range parts {
		for _, tok := range strings.FieldsFunc(strings.ToLower(part), func(r rune) bool {
			return r == '-' || r == '_'
		}) {
			tokens[tok] = struct{}{}
		}
	}

	for tok := range tokens {
		if isSlugYear(tok) {
			delete(tokens, tok)
			continue
		}
		if len(tok) < 3 {
			delete(tokens, tok)
			continue
		}
		if stripStopWords {
			if _, isStop := tbl.StopWords[tok]; isStop {
				delete(tokens, tok)
			}
		}
	}

	return tokens
}

func isSlugYear(tok string) bool {
	if !yearDigits.MatchString(tok) {
		return false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return false
	}
	return n >= minSlugYear && n <= maxSlugYear
}

// SlugSimilarity returns the Jaccard similarity of two URLs' slug-token
// sets (stop-words removed), in [0, 1]. Two URLs whose token sets are
// both empty are defined as dissimilar (0.0) since there is no shared
// vocabulary to compare (§8 "Jaccard bounds").
func SlugSimilarity(a, b string, tbl *Tables) float64 {
	tokensA := ExtractSlugTokens(a, tbl, true)
	tokensB := ExtractSlugTokens(b, tbl, true)

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			intersection++
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// IsLegacyVariant reports whether a URL's last path segment ends in a
// known obsolescence suffix.
func IsLegacyVariant(raw string, tbl *Tables) bool {
	if raw == "" {
		return false
	}
	slug := SlugLast(raw)
	for _, suffix := range tbl.LegacySuffixes {
		if strings.HasSuffix(slug, suffix) {
			return true
		}
	}
	return false
}

// StripLegacySuffix removes a matched legacy suffix from the last path
// segment to recover the canonical path. Idempotent: stripping an
// already-clean path is a no-op (§8 "Legacy round-trip").
func StripLegacySuffix(raw string, tbl *Tables) string {
	if raw == "" {
		return raw
	}

	parts := PathParts(raw)
	if len(parts) == 0 {
		return raw
	}

	last := parts[len(parts)-1]
	for _, suffix := range tbl.LegacySuffixes {
		if strings.HasSuffix(last, suffix) {
			clean := strings.TrimSuffix(last, suffix)
			clean = strings.TrimRight(clean, "-")
			parts[len(parts)-1] = clean
			return "/" + strings.Join(parts, "/")
		}
	}

	return NormalizePath(raw)
}

// IsDirectParent reports whether parentURL is the immediate parent of
// childURL in the path hierarchy: the child has exactly one more
// segment, and every parent segment matches the corresponding child
// segment.
func IsDirectParent(parentURL, childURL string) bool {
	parentParts := PathParts(parentURL)
	childParts := PathParts(childURL)

	if len(childParts) != len(parentParts)+1 {
		return false
	}

	for i, p := range parentParts {
		if childParts[i] != p {
			return false
		}
	}
	return true
}

// HasDistinctSubtopic reports whether childURL's last slug introduces a
// topic distinct from parentURL's last slug, rather than merely
// appending a modifier. A child slug whose hyphen-split tokens are a
// superset of the parent's is considered a modifier, not a new topic.
func HasDistinctSubtopic(childURL, parentURL string) bool {
	parentSlug := SlugLast(parentURL)
	childSlug := SlugLast(childURL)

	if parentSlug == "" || childSlug == "" {
		return false
	}

	parentTokens := set(strings.Split(parentSlug, "-")...)
	childTokens := set(strings.Split(childSlug, "-")...)

	for tok := range parentTokens {
		if _, ok := childTokens[tok]; !ok {
			return true
		}
	}
	return false
}

// ExtractServiceKeyword returns the service-identifying segment of a
// service or location URL: the second segment under a location folder
// (3+ segments) or a service folder (2+ segments). Returns "" when the
// URL matches neither shape.
func ExtractServiceKeyword(raw string, tbl *Tables) string {
	parts := PathParts(raw)
	if len(parts) == 0 {
		return ""
	}

	if _, isLocation := tbl.LocationFolders[parts[0]]; isLocation && len(parts) >= 3 {
		return parts[1]
	}
	if _, isService := tbl.ServiceFolders[parts[0]]; isService && len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
