package cannibalization

import (
	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// runPhase2 computes the safe-pair set: page-id pairs that must never be
// reported as a static conflict (§4.2). Classifications are pre-bucketed
// by parent_path for the O(n²) product-sibling check; the parent-child
// and geo checks then run over every remaining pair.
func runPhase2(classifications []Classification, tbl *urltools.Tables, cfg *PipelineConfig) map[PagePair]struct{} {
	safe := make(map[PagePair]struct{})

	byParent := make(map[string][]*Classification)
	for i := range classifications {
		c := &classifications[i]
		byParent[c.ParentPath] = append(byParent[c.ParentPath], c)
	}

	for _, group := range byParent {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if areProductSiblings(a, b, tbl, cfg) {
					safe[NewPagePair(a.PageID, b.PageID)] = struct{}{}
				}
			}
		}
	}

	for i := range classifications {
		for j := i + 1; j < len(classifications); j++ {
			a, b := &classifications[i], &classifications[j]
			pair := NewPagePair(a.PageID, b.PageID)
			if _, already := safe[pair]; already {
				continue
			}
			if areParentChild(a, b) || areParentChild(b, a) {
				safe[pair] = struct{}{}
				continue
			}
			if areGeographicVariants(a, b) {
				safe[pair] = struct{}{}
			}
		}
	}

	return safe
}

// areProductSiblings implements the "Product siblings" rule (§4.2):
// both typed product, identical parent_path, distinct slug_last, neither
// a legacy variant of the other, and slug-token Jaccard below the
// sibling ceiling.
func areProductSiblings(a, b *Classification, tbl *urltools.Tables, cfg *PipelineConfig) bool {
	if a.ClassifiedType != TypeProduct || b.ClassifiedType != TypeProduct {
		return false
	}
	if a.ParentPath != b.ParentPath {
		return false
	}
	if a.SlugLast == b.SlugLast {
		return false
	}
	// Only a genuine legacy pair — both stripping down to the same
	// canonical target — disqualifies the pair; a legacy page and an
	// unrelated live page are still legitimate siblings.
	if urltools.StripLegacySuffix(a.NormalizedPath, tbl) == urltools.StripLegacySuffix(b.NormalizedPath, tbl) {
		return false
	}

	sim := urltools.SlugSimilarity(a.NormalizedPath, b.NormalizedPath, tbl)
	return sim < cfg.SiblingJaccardCeiling
}

// areParentChild implements the "Direct parent-child" rule (§4.2):
// parent is the immediate parent of child in the path hierarchy, and the
// child introduces a distinct subtopic rather than just a modifier.
func areParentChild(parent, child *Classification) bool {
	if !urltools.IsDirectParent(parent.NormalizedPath, child.NormalizedPath) {
		return false
	}
	return urltools.HasDistinctSubtopic(child.NormalizedPath, parent.NormalizedPath)
}

// areGeographicVariants implements the "Geographic variants" rule
// (§4.2): both typed location, both with a non-empty geo_node, and
// their normalized geo strings differ.
func areGeographicVariants(a, b *Classification) bool {
	if a.ClassifiedType != TypeLocation || b.ClassifiedType != TypeLocation {
		return false
	}
	if a.GeoNode == "" || b.GeoNode == "" {
		return false
	}
	return urltools.NormalizeGeo(a.GeoNode) != urltools.NormalizeGeo(b.GeoNode)
}
