package urltools

import (
	"regexp"
	"strings"
)

// NormalizeGeo strips whitespace/hyphens/underscores and lowercases a
// geographic slug so "New York", "new-york" and "new_york" compare equal.
func NormalizeGeo(slug string) string {
	if slug == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(slug))
	return geoSeparators.ReplaceAllString(normalized, "")
}

var geoSeparators = regexp.MustCompile(`[-\s_]`)

// ExtractGeoNode returns the city/location slug from a location URL: the
// last segment of a path whose folder root is in the location taxonomy
// and which has at least two segments. Returns "" otherwise.
//
//	/service-area/event-planner/brooklyn/  →  brooklyn
func ExtractGeoNode(raw string, tbl *Tables) string {
	parts := PathParts(raw)
	if len(parts) < 2 {
		return ""
	}
	if _, ok := tbl.LocationFolders[parts[0]]; !ok {
		return ""
	}
	return parts[len(parts)-1]
}

// ExtractTitleTemplate lowercases a page title and removes every
// hyphenated/spaced/underscored form of geoNode, leaving the
// location-independent "template" used to group LOCATION_BOILERPLATE
// pages (§4.3).
//
//	title="Event Planner in Brooklyn | CoCo Events", geoNode="brooklyn"
//	→ "event planner in | coco events"
func ExtractTitleTemplate(title, geoNode string) string {
	if title == "" {
		return ""
	}

	template := strings.ToLower(title)

	if geoNode != "" {
		variants := []string{
			strings.ToLower(geoNode),
			strings.ToLower(strings.ReplaceAll(geoNode, "-", " ")),
			strings.ToLower(strings.ReplaceAll(geoNode, "_", " ")),
		}
		for _, v := range variants {
			template = strings.ReplaceAll(template, v, "")
		}
	}

	return strings.Join(strings.Fields(template), " ")
}
