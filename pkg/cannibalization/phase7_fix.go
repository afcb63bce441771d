package cannibalization

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// typeAuthorityRank implements §4.7(a)'s fixed canonical-authority table:
// hub/category/index pages outrank the specific pages beneath them, and
// location/service-spoke pages outrank generic content pages.
func typeAuthorityRank(t PageType) int {
	switch t {
	case TypeCategoryCustom, TypeCategoryWoo, TypeCategoryShop, TypeServiceHub, TypeShopRoot, TypeProductIndex:
		return 3
	case TypeLocation, TypeServiceSpoke:
		return 2
	case TypeBlog, TypePortfolio, TypeProduct:
		return 1
	default:
		return 0
	}
}

// runPhase7 attaches a suggested canonical URL and a fixed recommendation
// string to every cluster (§4.7).
func runPhase7(clusters []Cluster, byID map[int]*Classification) []Cluster {
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		canonical := selectCanonical(c.Pages, byID, c.GSCData)
		c.SuggestedCanonicalURL = canonical
		c.Recommendation = recommendationFor(c, canonical)
		out[i] = c
	}
	return out
}

// selectCanonical applies §4.7's canonical-page selection policy in
// order: most authoritative page type, then highest aggregated GSC
// impressions, then shallowest depth, then lexicographically smallest
// normalized path.
func selectCanonical(pages []int, byID map[int]*Classification, gscData *GSCMeta) string {
	var candidates []*Classification
	for _, id := range pages {
		if c, ok := byID[id]; ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	impressions := make(map[int]int, len(candidates))
	if gscData != nil {
		for _, r := range gscData.Rows {
			impressions[r.PageID] += r.Impressions
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		ra, rb := typeAuthorityRank(a.ClassifiedType), typeAuthorityRank(b.ClassifiedType)
		if ra != rb {
			return ra > rb
		}

		ia, ib := impressions[a.PageID], impressions[b.PageID]
		if ia != ib {
			return ia > ib
		}

		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}

		return a.NormalizedPath < b.NormalizedPath
	})

	return candidates[0].URL
}

// recommendationFor renders the fixed recommendation string for a
// cluster's action code, substituting the canonical URL where the
// template calls for it (§4.7).
func recommendationFor(c Cluster, canonical string) string {
	switch c.ActionCode {
	case ActionRedirectToCanonical:
		return fmt.Sprintf("301 redirect the non-canonical page(s) to %s and remove internal links to them.", canonical)
	case ActionRedirectOrDifferentiate:
		return fmt.Sprintf("Either redirect the weaker page to %s, or rewrite both pages so they target visibly distinct subtopics.", canonical)
	case ActionMergeContent:
		return fmt.Sprintf("Merge the overlapping content into %s and 301 redirect the rest.", canonical)
	case ActionRewriteLocalEvidence:
		return "Rewrite each location page with unique local evidence (address, reviews, service-area specifics) instead of shared boilerplate."
	case ActionDifferentiateContent:
		return fmt.Sprintf("Keep both pages but rewrite them to target clearly different query intents; %s should own the primary intent.", canonical)
	case ActionStrengthenCorrectPage:
		return "Add or strengthen an on-site page dedicated to this query's topic so it can outrank the homepage; do not rely on the homepage as a catch-all."
	default:
		return "Manually review this cluster; no fixed recommendation applies."
	}
}

// WriteRedirectCSV renders a cluster set into a canonical-redirect CSV
// suitable for import by a redirect plugin: one row per non-canonical
// page in every cluster whose action_code is REDIRECT_TO_CANONICAL or
// REDIRECT_OR_DIFFERENTIATE.
func WriteRedirectCSV(w io.Writer, clusters []Cluster, byID map[int]*Classification) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"from_url", "to_url", "conflict_type", "priority_score"}); err != nil {
		return err
	}

	for _, c := range clusters {
		if c.SuggestedCanonicalURL == "" {
			continue
		}
		if c.ActionCode != ActionRedirectToCanonical && c.ActionCode != ActionRedirectOrDifferentiate {
			continue
		}
		for _, id := range c.Pages {
			page, ok := byID[id]
			if !ok || page.URL == c.SuggestedCanonicalURL {
				continue
			}
			row := []string{page.URL, c.SuggestedCanonicalURL, string(c.ConflictType), strconv.Itoa(c.PriorityScore)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	return cw.Error()
}
