package cannibalization

import (
	"sort"

	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// runPhase5 detects the four wrong-winner patterns by walking every
// surviving non-branded query (§4.5 "runs on all non-branded queries
// regardless of whether a P4 conflict was detected") and comparing each
// query's top-ranked (by impressions) page against the page that should
// be ranking. perQuery is the full per-query stat set built in phase 4,
// not just the subset P4 judged a conflict; a nil or empty map (no
// traffic data) makes this phase a no-op. Candidate "expected" pages are
// drawn from every classification on the site, not just the pages that
// happened to show up in traffic for that query, and walked in a fixed
// page-id order so results are deterministic.
func runPhase5(perQuery map[string]GSCMeta, byID map[int]*Classification, cfg *PipelineConfig) []Issue {
	var issues []Issue

	allPages := make([]int, 0, len(byID))
	for id := range byID {
		allPages = append(allPages, id)
	}
	sort.Ints(allPages)

	queries := make([]string, 0, len(perQuery))
	for q := range perQuery {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	for _, query := range queries {
		meta := perQuery[query]
		winner := topRow(meta.Rows)
		if winner == nil {
			continue
		}
		winnerPage, ok := byID[winner.PageID]
		if !ok {
			continue
		}

		if issue, found := detectHomepageHoarding(meta, winner, winnerPage); found {
			issues = append(issues, issue)
			continue
		}
		if issue, found := detectPageTypeMismatch(meta, winner, winnerPage, allPages, byID, cfg); found {
			issues = append(issues, issue)
			continue
		}
		if issue, found := detectIntentMismatch(meta, winner, winnerPage, allPages, byID, cfg); found {
			issues = append(issues, issue)
			continue
		}
		if issue, found := detectGeographicMismatch(meta, winner, winnerPage, allPages, byID); found {
			issues = append(issues, issue)
		}
	}

	return issues
}

func topRow(rows []GSCRow) *GSCRow {
	if len(rows) == 0 {
		return nil
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.Impressions > best.Impressions {
			best = r
		}
	}
	return &best
}

// detectHomepageHoarding fires whenever the homepage is the query's top
// page by impressions (§4.5). It does not check the query's intent or
// whether a more specific page on the site matches the query.
func detectHomepageHoarding(meta GSCMeta, winner *GSCRow, winnerPage *Classification) (Issue, bool) {
	if winnerPage.ClassifiedType != TypeHomepage {
		return Issue{}, false
	}

	return Issue{
		ConflictType: ConflictHomepageHoarding,
		Severity:     SeverityMedium,
		Pages:        []int{winnerPage.PageID},
		GSCValidated: true,
		Metadata: WrongWinnerMeta{
			Query:        meta.Query,
			WinnerPageID: winnerPage.PageID,
			WinnerType:   winnerPage.ClassifiedType,
		},
	}, true
}

// detectPageTypeMismatch fires when the query looks like it wants a
// category/index page (plural query) but a single product page is
// winning (§4.5).
func detectPageTypeMismatch(meta GSCMeta, winner *GSCRow, winnerPage *Classification, pages []int, byID map[int]*Classification, cfg *PipelineConfig) (Issue, bool) {
	wantsCategory := urltools.IsPluralQuery(meta.Query)
	if !wantsCategory {
		return Issue{}, false
	}
	if winnerPage.ClassifiedType != TypeProduct {
		return Issue{}, false
	}

	expected := findPageOfType(pages, byID, TypeCategoryWoo, TypeCategoryShop, TypeCategoryCustom, TypeProductIndex)
	if expected == nil {
		return Issue{}, false
	}

	return Issue{
		ConflictType: ConflictPageTypeMismatch,
		Severity:     SeverityMedium,
		Pages:        sortedIDs([]int{winnerPage.PageID, expected.PageID}),
		GSCValidated: true,
		Metadata: WrongWinnerMeta{
			Query:          meta.Query,
			WinnerPageID:   winnerPage.PageID,
			WinnerType:     winnerPage.ClassifiedType,
			ExpectedPageID: expected.PageID,
			ExpectedType:   expected.ClassifiedType,
		},
	}, true
}

// detectIntentMismatch fires when the query's classified intent doesn't
// match the winning page's type — e.g. an informational/listicle query
// won by a non-blog page when a blog page exists anywhere on the site
// (§4.5).
func detectIntentMismatch(meta GSCMeta, winner *GSCRow, winnerPage *Classification, pages []int, byID map[int]*Classification, cfg *PipelineConfig) (Issue, bool) {
	intent, _ := urltools.ClassifyQueryIntent(meta.Query, cfg.Tables)
	if intent != "informational" && intent != "listicle" {
		return Issue{}, false
	}
	if winnerPage.ClassifiedType == TypeBlog {
		return Issue{}, false
	}

	expected := findPageOfType(pages, byID, TypeBlog)
	if expected == nil {
		return Issue{}, false
	}

	return Issue{
		ConflictType: ConflictIntentMismatch,
		Severity:     SeverityMedium,
		Pages:        sortedIDs([]int{winnerPage.PageID, expected.PageID}),
		GSCValidated: true,
		Metadata: WrongWinnerMeta{
			Query:          meta.Query,
			WinnerPageID:   winnerPage.PageID,
			WinnerType:     winnerPage.ClassifiedType,
			ExpectedPageID: expected.PageID,
			ExpectedType:   expected.ClassifiedType,
		},
	}, true
}

// detectGeographicMismatch fires when the query names a city and the
// winning location page's geo_node names a different one, while another
// location page on the site carries the right geo_node (§4.5).
func detectGeographicMismatch(meta GSCMeta, winner *GSCRow, winnerPage *Classification, pages []int, byID map[int]*Classification) (Issue, bool) {
	city := urltools.ExtractCityFromQuery(meta.Query)
	if city == "" {
		return Issue{}, false
	}
	if winnerPage.ClassifiedType != TypeLocation || winnerPage.GeoNode == "" {
		return Issue{}, false
	}
	if urltools.NormalizeGeo(winnerPage.GeoNode) == urltools.NormalizeGeo(city) {
		return Issue{}, false
	}

	var expected *Classification
	for _, id := range pages {
		if id == winnerPage.PageID {
			continue
		}
		c, ok := byID[id]
		if !ok || c.ClassifiedType != TypeLocation || c.GeoNode == "" {
			continue
		}
		if urltools.NormalizeGeo(c.GeoNode) == urltools.NormalizeGeo(city) {
			expected = c
			break
		}
	}
	if expected == nil {
		return Issue{}, false
	}

	return Issue{
		ConflictType: ConflictGeographicMismatch,
		Severity:     SeverityHigh,
		Pages:        sortedIDs([]int{winnerPage.PageID, expected.PageID}),
		GSCValidated: true,
		Metadata: WrongWinnerMeta{
			Query:          meta.Query,
			WinnerPageID:   winnerPage.PageID,
			WinnerType:     winnerPage.ClassifiedType,
			ExpectedPageID: expected.PageID,
			ExpectedType:   expected.ClassifiedType,
			QueryCity:      city,
			WinnerGeoNode:  winnerPage.GeoNode,
		},
	}, true
}

func findPageOfType(pages []int, byID map[int]*Classification, types ...PageType) *Classification {
	for _, id := range pages {
		c, ok := byID[id]
		if !ok {
			continue
		}
		for _, t := range types {
			if c.ClassifiedType == t {
				return c
			}
		}
	}
	return nil
}
