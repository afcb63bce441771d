package output

import (
	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

// RunSummary is a compact, human-readable reformatting of an
// AnalysisRunResult, used by the CLI's show subcommand instead of
// dumping the full cluster list.
type RunSummary struct {
	RunID         string                 `json:"run_id"`
	SiteID        int                    `json:"site_id"`
	Status        cannibalization.RunStatus `json:"status"`
	StartedAt     string                 `json:"started_at"`
	CompletedAt   string                 `json:"completed_at"`
	PagesAnalyzed int                    `json:"pages_analyzed"`
	GSCConnected  bool                   `json:"gsc_connected"`
	TotalClusters int                    `json:"total_clusters"`
	Buckets       map[string]int         `json:"buckets"`
	Badges        map[string]int         `json:"badges"`
	TopClusters   []ClusterSummary       `json:"top_clusters"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
}

// ClusterSummary is one cluster reduced to the fields a human scanning a
// report wants first.
type ClusterSummary struct {
	ClusterKey    string `json:"cluster_key"`
	ConflictType  string `json:"conflict_type"`
	Bucket        string `json:"bucket"`
	Badge         string `json:"badge"`
	Severity      string `json:"severity"`
	ActionCode    string `json:"action_code"`
	PriorityScore int    `json:"priority_score"`
	PageCount     int    `json:"page_count"`
	Canonical     string `json:"suggested_canonical_url"`
	Recommendation string `json:"recommendation"`
}

// topClustersLimit bounds how many clusters Summarize surfaces directly;
// the full list is still in the persisted result, never dropped, just not
// duplicated into the summary view.
const topClustersLimit = 10

// Summarize reduces a full AnalysisRunResult into a RunSummary, mirroring
// the kind of condensed view a dashboard's "latest analysis" endpoint
// would render rather than the raw cluster dump.
func Summarize(result *cannibalization.AnalysisRunResult) RunSummary {
	summary := RunSummary{
		RunID:         result.RunID.String(),
		SiteID:        result.SiteID,
		Status:        result.Status,
		StartedAt:     result.StartedAt,
		CompletedAt:   result.CompletedAt,
		PagesAnalyzed: result.PagesAnalyzed,
		GSCConnected:  result.GSCConnected,
		TotalClusters: len(result.Clusters),
		Buckets:       make(map[string]int, len(result.BucketCounts)),
		Badges:        make(map[string]int, len(result.BadgeCounts)),
		ErrorMessage:  result.ErrorMessage,
	}

	for bucket, count := range result.BucketCounts {
		summary.Buckets[string(bucket)] = count
	}
	for badge, count := range result.BadgeCounts {
		summary.Badges[string(badge)] = count
	}

	limit := topClustersLimit
	if len(result.Clusters) < limit {
		limit = len(result.Clusters)
	}
	summary.TopClusters = make([]ClusterSummary, 0, limit)
	for _, c := range result.Clusters[:limit] {
		summary.TopClusters = append(summary.TopClusters, ClusterSummary{
			ClusterKey:     c.ClusterKey,
			ConflictType:   string(c.ConflictType),
			Bucket:         string(c.Bucket),
			Badge:          string(c.Badge),
			Severity:       string(c.Severity),
			ActionCode:     string(c.ActionCode),
			PriorityScore:  c.PriorityScore,
			PageCount:      len(c.Pages),
			Canonical:      c.SuggestedCanonicalURL,
			Recommendation: c.Recommendation,
		})
	}

	return summary
}
