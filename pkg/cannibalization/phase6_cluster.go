package cannibalization

import (
	"fmt"
	"sort"
	"strings"
)

// runPhase6 merges P3/P4/P5 issues into clusters, derives each cluster's
// bucket/badge/action, scores and sorts the result (§4.6). byID backs
// the folder_root lookups splitOversizedCluster needs.
func runPhase6(staticIssues, wrongWinnerIssues []Issue, byID map[int]*Classification, cfg *PipelineConfig) []Cluster {
	all := make([]Issue, 0, len(staticIssues)+len(wrongWinnerIssues))
	all = append(all, staticIssues...)
	all = append(all, wrongWinnerIssues...)

	byKey := make(map[string]*Cluster)
	var order []string

	for _, issue := range all {
		key := clusterKey(issue)
		c, ok := byKey[key]
		if !ok {
			c = &Cluster{
				ClusterKey:   key,
				ConflictType: issue.ConflictType,
				Severity:     issue.Severity,
				Pages:        append([]int(nil), issue.Pages...),
			}
			if issue.GSCValidated {
				if meta, ok := issue.Metadata.(GSCMeta); ok {
					c.GSCData = &meta
				}
			}
			byKey[key] = c
			order = append(order, key)
			continue
		}

		c.Pages = unionSortedIDs(c.Pages, issue.Pages)
		c.Severity = maxSeverity(c.Severity, issue.Severity)
		if issue.GSCValidated {
			if meta, ok := issue.Metadata.(GSCMeta); ok {
				c.GSCData = &meta
			}
		}
	}

	var clusters []Cluster
	for _, key := range order {
		c := byKey[key]
		c.Bucket = bucketFor(c.ConflictType)
		if c.GSCData != nil && c.Bucket != BucketWrongWinner {
			c.Bucket = BucketSearchConflict
		}
		c.Badge = badgeFor(c)
		c.ActionCode = actionFor(c.ConflictType)
		c.PriorityScore = priorityScore(c, cfg)
		clusters = append(clusters, splitOversizedCluster(*c, byID, cfg))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		bi, bj := clusters[i].Bucket.bucketRank(), clusters[j].Bucket.bucketRank()
		if bi != bj {
			return bi < bj
		}
		return clusters[i].PriorityScore > clusters[j].PriorityScore
	})

	return clusters
}

// clusterKey implements §4.6's per-conflict-type cluster_key recipes.
func clusterKey(issue Issue) string {
	switch issue.ConflictType {
	case ConflictTaxonomyClash:
		meta := issue.Metadata.(TaxonomyClashMeta)
		return fmt.Sprintf("taxonomy:%s", meta.SharedSlug)
	case ConflictLegacyCleanup, ConflictLegacyOrphan:
		meta := issue.Metadata.(LegacyMeta)
		return fmt.Sprintf("legacy:%s", meta.CanonicalURL)
	case ConflictNearDuplicateContent:
		return fmt.Sprintf("near_dup:%s", pagesKey(issue.Pages))
	case ConflictContextDuplicate:
		meta := issue.Metadata.(ContextDuplicateMeta)
		return fmt.Sprintf("context:%s", meta.ServiceKeyword)
	case ConflictLocationBoilerplate:
		meta := issue.Metadata.(LocationBoilerplateMeta)
		return fmt.Sprintf("boilerplate:%s", meta.Template)
	case ConflictGSCConfirmed:
		meta := issue.Metadata.(GSCMeta)
		return fmt.Sprintf("gsc:%s", meta.Query)
	case ConflictIntentMismatch, ConflictPageTypeMismatch, ConflictHomepageHoarding, ConflictGeographicMismatch:
		meta := issue.Metadata.(WrongWinnerMeta)
		return fmt.Sprintf("wrong_winner:%s", meta.Query)
	default:
		return fmt.Sprintf("%s:%s", issue.ConflictType, pagesKey(issue.Pages))
	}
}

func pagesKey(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, "-")
}

func unionSortedIDs(a, b []int) []int {
	set := make(map[int]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return sortedIDs(out)
}

// bucketFor maps a conflict type to its coarse bucket (§3, §4.6).
func bucketFor(t ConflictType) Bucket {
	switch t {
	case ConflictIntentMismatch, ConflictPageTypeMismatch, ConflictHomepageHoarding, ConflictGeographicMismatch:
		return BucketWrongWinner
	case ConflictTaxonomyClash, ConflictNearDuplicateContent, ConflictContextDuplicate, ConflictLocationBoilerplate, ConflictLegacyCleanup, ConflictLegacyOrphan:
		return BucketSiteDuplication
	default:
		return BucketSearchConflict
	}
}

// badgeFor derives the user-facing badge: wrong-winner clusters always
// show WRONG_WINNER; everything else is CONFIRMED once GSC data backs
// it, else POTENTIAL (§3, GLOSSARY).
func badgeFor(c *Cluster) Badge {
	if c.Bucket == BucketWrongWinner {
		return BadgeWrongWinner
	}
	if c.GSCData != nil {
		return BadgeConfirmed
	}
	return BadgePotential
}

// actionFor is the fixed conflict-type-to-action map (§4.6, §4.7).
func actionFor(t ConflictType) ActionCode {
	switch t {
	case ConflictTaxonomyClash:
		return ActionRedirectOrDifferentiate
	case ConflictLegacyCleanup:
		return ActionRedirectToCanonical
	case ConflictLegacyOrphan:
		return ActionRedirectToCanonical
	case ConflictNearDuplicateContent:
		return ActionMergeContent
	case ConflictContextDuplicate:
		return ActionMergeContent
	case ConflictLocationBoilerplate:
		return ActionRewriteLocalEvidence
	case ConflictGSCConfirmed:
		return ActionDifferentiateContent
	case ConflictGeographicMismatch:
		return ActionRewriteLocalEvidence
	case ConflictHomepageHoarding:
		return ActionStrengthenCorrectPage
	case ConflictIntentMismatch, ConflictPageTypeMismatch:
		return ActionDifferentiateContent
	default:
		return ActionReviewManually
	}
}

// priorityScore implements §4.6's scoring formula:
// bucket_score + severity_score + impression_score.
func priorityScore(c *Cluster, cfg *PipelineConfig) int {
	score := 0

	switch c.Bucket {
	case BucketSearchConflict:
		score += 50
	case BucketWrongWinner:
		score += 30
	case BucketSiteDuplication:
		score += 20
	}

	switch c.Severity {
	case SeveritySevere:
		score += 30
	case SeverityHigh:
		score += 22
	case SeverityMedium:
		score += 14
	default:
		score += 6
	}

	impressions := 0
	if c.GSCData != nil {
		impressions = c.GSCData.TotalImpressions
	}
	switch {
	case impressions >= cfg.ImpressionHigh:
		score += 20
	case impressions >= cfg.ImpressionMedium:
		score += 10
	case impressions > 0:
		score += 5
	}

	return score
}

// splitOversizedCluster implements §4.6's size-cap rule: a cluster over
// MaxClusterSize pages is split by folder_root. If at least one
// folder_root group is itself within the cap, the largest such group is
// emitted; otherwise the first MaxClusterSize pages in stable order are
// kept. Only one Cluster is ever returned for a given input Cluster.
func splitOversizedCluster(c Cluster, byID map[int]*Classification, cfg *PipelineConfig) Cluster {
	if len(c.Pages) <= cfg.MaxClusterSize {
		return c
	}

	groups := make(map[string][]int)
	var order []string
	for _, id := range c.Pages {
		root := ""
		if page, ok := byID[id]; ok {
			root = page.FolderRoot
		}
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], id)
	}

	if len(groups) > 1 {
		bestRoot := ""
		found := false
		for _, root := range order {
			size := len(groups[root])
			if size > cfg.MaxClusterSize {
				continue
			}
			if !found || size > len(groups[bestRoot]) {
				bestRoot = root
				found = true
			}
		}
		if found {
			c.Pages = append([]int(nil), groups[bestRoot]...)
			return c
		}
	}

	c.Pages = append([]int(nil), c.Pages[:cfg.MaxClusterSize]...)
	return c
}
