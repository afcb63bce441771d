package cannibalization

import (
	"sort"
	"strings"

	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// matchedRow is a TrafficRow once resolved against a Classification by
// normalized URL.
type matchedRow struct {
	query       string
	pageID      int
	clicks      int
	impressions int
}

// runPhase4 validates the static issues against search traffic (§4.4).
// When traffic is nil (TrafficSource unset or its call failed), phase 4
// is a no-op: issues pass through unvalidated and gscConnected is false.
// perQuery carries every surviving non-branded, sufficiently-impressed
// query (not just the ones P4 judged a conflict) for P5 to walk (§4.5
// "runs on all non-branded queries regardless of whether a P4 conflict
// was detected").
func runPhase4(issues []Issue, traffic []TrafficRow, classifications []Classification, brandName, homepageTitle string, tbl *urltools.Tables, cfg *PipelineConfig) (validated []Issue, confirmed []Issue, perQuery map[string]GSCMeta, gscConnected bool) {
	if traffic == nil {
		return issues, nil, nil, false
	}

	byURL := make(map[string]int, len(classifications))
	for i := range classifications {
		byURL[classifications[i].NormalizedURL] = classifications[i].PageID
	}

	byQuery := groupTrafficByQuery(traffic, byURL, brandName, homepageTitle, tbl, cfg)

	// P4 step: find pages competing for the same query independent of P3.
	gscConfirmed := detectGSCConfirmed(byQuery, cfg)
	confirmed = gscConfirmed
	perQuery = allQueryStats(byQuery)

	// Upgrade pass: any P3 issue whose page set overlaps a GSC-confirmed
	// query's page set is promoted in place, carrying that query's
	// GSCMeta forward (§4.4 "Upgrade pass").
	validated = make([]Issue, 0, len(issues))
	for _, issue := range issues {
		for _, gscIssue := range gscConfirmed {
			if sharesAnyPage(issue.Pages, gscIssue.Pages) {
				meta := gscIssue.Metadata.(GSCMeta)
				issue.GSCValidated = true
				issue.Metadata = meta
				issue.Severity = maxSeverity(issue.Severity, gscIssue.Severity)
				break
			}
		}
		validated = append(validated, issue)
	}

	return validated, confirmed, perQuery, true
}

// groupTrafficByQuery applies §4.4's preprocessing: drop rows below the
// impression floor, drop rows that don't match a known page, drop
// branded queries, then group the survivors by query text.
func groupTrafficByQuery(traffic []TrafficRow, byURL map[string]int, brandName, homepageTitle string, tbl *urltools.Tables, cfg *PipelineConfig) map[string][]matchedRow {
	byQuery := make(map[string][]matchedRow)

	for _, row := range traffic {
		if row.Impressions < cfg.MinImpressions {
			continue
		}
		if urltools.IsBrandedQuery(row.Query, brandName, homepageTitle, tbl) {
			continue
		}
		pageID, ok := byURL[urltools.NormalizeFullURL(row.PageURL)]
		if !ok {
			continue
		}

		query := strings.ToLower(strings.TrimSpace(row.Query))
		byQuery[query] = append(byQuery[query], matchedRow{
			query:       query,
			pageID:      pageID,
			clicks:      row.Clicks,
			impressions: row.Impressions,
		})
	}

	return byQuery
}

// detectGSCConfirmed finds, for each query, whether more than one page
// earns a meaningful share of its impressions (§4.4). Share is computed
// once per query; rows below the noise floor are then dropped from the
// reported set but the already-computed shares of the survivors are not
// recomputed.
func detectGSCConfirmed(byQuery map[string][]matchedRow, cfg *PipelineConfig) []Issue {
	var issues []Issue

	for query, rows := range byQuery {
		byPage := make(map[int]*GSCRow)
		total := 0
		for _, r := range rows {
			total += r.impressions
			gr, ok := byPage[r.pageID]
			if !ok {
				gr = &GSCRow{PageID: r.pageID}
				byPage[r.pageID] = gr
			}
			gr.Clicks += r.clicks
			gr.Impressions += r.impressions
		}
		if total == 0 {
			continue
		}

		for _, gr := range byPage {
			gr.Share = float64(gr.Impressions) / float64(total)
		}

		var survivors []GSCRow
		for _, gr := range byPage {
			if gr.Share < cfg.NoiseShareFloor {
				continue
			}
			survivors = append(survivors, *gr)
		}
		if len(survivors) < 2 {
			continue
		}

		// No single page should hold near-total share; otherwise this is
		// one page legitimately dominating the query, not a conflict.
		dominant := false
		for _, s := range survivors {
			if s.Share >= cfg.PrimaryShareCeil {
				dominant = true
				break
			}
		}
		if dominant {
			continue
		}

		severity := severityForGSCRows(survivors, cfg)

		var pages []int
		totalClicks := 0
		for _, s := range survivors {
			pages = append(pages, s.PageID)
			totalClicks += s.Clicks
		}
		pages = sortedIDs(pages)

		issues = append(issues, Issue{
			ConflictType: ConflictGSCConfirmed,
			Severity:     severity,
			Pages:        pages,
			GSCValidated: true,
			Metadata: GSCMeta{
				Query:            query,
				TotalImpressions: total,
				TotalClicks:      totalClicks,
				Rows:             survivors,
			},
		})
	}

	return issues
}

// allQueryStats aggregates every surviving query into one GSCMeta each,
// independent of detectGSCConfirmed's conflict criteria (two-or-more
// survivors, no dominant page). P5 walks every query's winner regardless
// of whether P4 found a conflict there (§4.5).
func allQueryStats(byQuery map[string][]matchedRow) map[string]GSCMeta {
	stats := make(map[string]GSCMeta, len(byQuery))

	for query, rows := range byQuery {
		byPage := make(map[int]*GSCRow)
		total := 0
		totalClicks := 0
		for _, r := range rows {
			total += r.impressions
			totalClicks += r.clicks
			gr, ok := byPage[r.pageID]
			if !ok {
				gr = &GSCRow{PageID: r.pageID}
				byPage[r.pageID] = gr
			}
			gr.Clicks += r.clicks
			gr.Impressions += r.impressions
		}
		if total == 0 {
			continue
		}

		queryRows := make([]GSCRow, 0, len(byPage))
		for _, gr := range byPage {
			gr.Share = float64(gr.Impressions) / float64(total)
			queryRows = append(queryRows, *gr)
		}
		sort.Slice(queryRows, func(i, j int) bool { return queryRows[i].PageID < queryRows[j].PageID })

		stats[query] = GSCMeta{
			Query:            query,
			TotalImpressions: total,
			TotalClicks:      totalClicks,
			Rows:             queryRows,
		}
	}

	return stats
}

// severityForGSCRows implements §4.4's severity-tier table: SEVERE when
// at least SevereRowCount rows *each* clear the severe share floor, HIGH/
// MEDIUM by secondary-page share bands, otherwise LOW.
func severityForGSCRows(rows []GSCRow, cfg *PipelineConfig) Severity {
	severeCount := 0
	for _, r := range rows {
		if r.Share >= cfg.SevereShareFloor {
			severeCount++
		}
	}
	if severeCount >= cfg.SevereRowCount {
		return SeveritySevere
	}

	secondMax := secondHighestShare(rows)
	if secondMax >= cfg.SecondaryShareHi {
		return SeverityHigh
	}
	if secondMax >= cfg.SecondaryShareMed {
		return SeverityMedium
	}
	return SeverityLow
}

func secondHighestShare(rows []GSCRow) float64 {
	highest, second := 0.0, 0.0
	for _, r := range rows {
		switch {
		case r.Share > highest:
			second = highest
			highest = r.Share
		case r.Share > second:
			second = r.Share
		}
	}
	return second
}

func sharesAnyPage(a, b []int) bool {
	set := make(map[int]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
