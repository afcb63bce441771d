package cannibalization

import (
	"sort"
	"strings"

	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// runPhase3 runs the six static detectors over the classifications
// (§4.3). The taxonomy-clash, near-duplicate and context-duplicate
// detectors skip pairs present in safePairs; the legacy and
// location-boilerplate detectors do not consult safePairs.
func runPhase3(classifications []Classification, safePairs map[PagePair]struct{}, tbl *urltools.Tables, cfg *PipelineConfig) []Issue {
	var issues []Issue
	issues = append(issues, detectTaxonomyClash(classifications, safePairs)...)
	issues = append(issues, detectLegacyIssues(classifications, tbl)...)
	issues = append(issues, detectNearDuplicates(classifications, safePairs, tbl, cfg)...)
	issues = append(issues, detectContextDuplicates(classifications, safePairs)...)
	issues = append(issues, detectLocationBoilerplate(classifications, cfg)...)
	return issues
}

func sortedIDs(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

func isSafePair(safePairs map[PagePair]struct{}, a, b int) bool {
	_, ok := safePairs[NewPagePair(a, b)]
	return ok
}

// detectTaxonomyClash groups classifications by slug_last; any group
// whose pages span more than one folder_root becomes one Issue (§4.3).
func detectTaxonomyClash(classifications []Classification, safePairs map[PagePair]struct{}) []Issue {
	groups := make(map[string][]*Classification)
	for i := range classifications {
		c := &classifications[i]
		if c.SlugLast == "" {
			continue
		}
		groups[c.SlugLast] = append(groups[c.SlugLast], c)
	}

	var issues []Issue
	for slug, group := range groups {
		if len(group) < 2 {
			continue
		}

		roots := make(map[string]struct{})
		for _, c := range group {
			roots[c.FolderRoot] = struct{}{}
		}
		if len(roots) < 2 {
			continue
		}

		var pages []int
		for _, c := range group {
			pages = append(pages, c.PageID)
		}
		pages = sortedIDs(pages)
		if allPairsSafe(pages, safePairs) {
			continue
		}

		issues = append(issues, Issue{
			ConflictType: ConflictTaxonomyClash,
			Severity:     SeverityHigh,
			Pages:        pages,
			Metadata:     TaxonomyClashMeta{SharedSlug: slug},
		})
	}
	return issues
}

func allPairsSafe(pages []int, safePairs map[PagePair]struct{}) bool {
	if len(pages) < 2 {
		return true
	}
	for i := 0; i < len(pages); i++ {
		for j := i + 1; j < len(pages); j++ {
			if !isSafePair(safePairs, pages[i], pages[j]) {
				return false
			}
		}
	}
	return true
}

// detectLegacyIssues emits LEGACY_CLEANUP when a legacy page's
// canonical form matches a live non-legacy page, else LEGACY_ORPHAN
// (§4.3).
func detectLegacyIssues(classifications []Classification, tbl *urltools.Tables) []Issue {
	byPath := make(map[string]*Classification)
	for i := range classifications {
		c := &classifications[i]
		byPath[c.NormalizedPath] = c
	}

	var issues []Issue
	for i := range classifications {
		c := &classifications[i]
		if !c.IsLegacyVariant {
			continue
		}

		canonicalPath := urltools.StripLegacySuffix(c.NormalizedPath, tbl)
		if match, ok := byPath[canonicalPath]; ok && !match.IsLegacyVariant && match.PageID != c.PageID {
			issues = append(issues, Issue{
				ConflictType: ConflictLegacyCleanup,
				Severity:     SeverityHigh,
				Pages:        sortedIDs([]int{c.PageID, match.PageID}),
				Metadata: LegacyMeta{
					LegacyURL:    c.NormalizedPath,
					CanonicalURL: canonicalPath,
				},
			})
			continue
		}

		issues = append(issues, Issue{
			ConflictType: ConflictLegacyOrphan,
			Severity:     SeverityMedium,
			Pages:        []int{c.PageID},
			Metadata: LegacyMeta{
				LegacyURL:    c.NormalizedPath,
				CanonicalURL: canonicalPath,
			},
		})
	}
	return issues
}

// detectNearDuplicates emits one Issue per unsafe pair whose slug-token
// Jaccard similarity meets the near-duplicate floor (§4.3).
func detectNearDuplicates(classifications []Classification, safePairs map[PagePair]struct{}, tbl *urltools.Tables, cfg *PipelineConfig) []Issue {
	var issues []Issue
	for i := 0; i < len(classifications); i++ {
		for j := i + 1; j < len(classifications); j++ {
			a, b := &classifications[i], &classifications[j]
			if isSafePair(safePairs, a.PageID, b.PageID) {
				continue
			}
			sim := urltools.SlugSimilarity(a.NormalizedPath, b.NormalizedPath, tbl)
			if sim < cfg.NearDupJaccardFloor {
				continue
			}
			issues = append(issues, Issue{
				ConflictType: ConflictNearDuplicateContent,
				Severity:     SeverityMedium,
				Pages:        sortedIDs([]int{a.PageID, b.PageID}),
				Metadata:     NearDuplicateMeta{Similarity: sim},
			})
		}
	}
	return issues
}

// detectContextDuplicates groups service_spoke pages by service_keyword;
// any two pages in a group with different parent_path become an Issue
// (§4.3): the same service appears under two different parent sections.
// Respects the safe-pair set, since a direct parent-child pair can land
// in the same group with distinct parent_paths and is not a duplicate.
func detectContextDuplicates(classifications []Classification, safePairs map[PagePair]struct{}) []Issue {
	groups := make(map[string][]*Classification)
	for i := range classifications {
		c := &classifications[i]
		if c.ClassifiedType != TypeServiceSpoke || c.ServiceKeyword == "" {
			continue
		}
		groups[c.ServiceKeyword] = append(groups[c.ServiceKeyword], c)
	}

	var issues []Issue
	for keyword, group := range groups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.ParentPath == b.ParentPath {
					continue
				}
				if isSafePair(safePairs, a.PageID, b.PageID) {
					continue
				}
				issues = append(issues, Issue{
					ConflictType: ConflictContextDuplicate,
					Severity:     SeverityMedium,
					Pages:        sortedIDs([]int{a.PageID, b.PageID}),
					Metadata:     ContextDuplicateMeta{ServiceKeyword: keyword},
				})
			}
		}
	}
	return issues
}

// detectLocationBoilerplate groups location pages by their geo-stripped
// title template; any group of at least cfg.BoilerplateMinGroup becomes
// one Issue (§4.3).
func detectLocationBoilerplate(classifications []Classification, cfg *PipelineConfig) []Issue {
	groups := make(map[string][]*Classification)
	for i := range classifications {
		c := &classifications[i]
		if c.ClassifiedType != TypeLocation {
			continue
		}
		template := strings.TrimSpace(urltools.ExtractTitleTemplate(c.Title, c.GeoNode))
		if template == "" {
			continue
		}
		key := template
		if len(key) > 50 {
			key = key[:50]
		}
		groups[key] = append(groups[key], c)
	}

	var issues []Issue
	for template, group := range groups {
		if len(group) < cfg.BoilerplateMinGroup {
			continue
		}
		var pages []int
		for _, c := range group {
			pages = append(pages, c.PageID)
		}
		issues = append(issues, Issue{
			ConflictType: ConflictLocationBoilerplate,
			Severity:     SeverityMedium,
			Pages:        sortedIDs(pages),
			Metadata:     LocationBoilerplateMeta{Template: template},
		})
	}
	return issues
}
