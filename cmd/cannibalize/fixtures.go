package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

// filePageSource reads a site's pages from a single JSON fixture file, a
// flat array of cannibalization.Page records. It ignores the siteID
// argument: in CLI mode one fixture file is one site's page export.
type filePageSource struct {
	pages []cannibalization.Page
}

func loadPageSource(path string) (*filePageSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}

	var pages []cannibalization.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse pages file: %w", err)
	}

	return &filePageSource{pages: pages}, nil
}

func (s *filePageSource) PagesForSite(siteID int) ([]cannibalization.Page, error) {
	return s.pages, nil
}

// fileTrafficRow mirrors cannibalization.TrafficRow with JSON tags for
// decoding fixture files.
type fileTrafficRow struct {
	Query       string  `json:"query"`
	PageURL     string  `json:"page_url"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Position    float64 `json:"position"`
}

// fileTrafficSource reads a site's search-console export from a single
// JSON fixture file, a flat array of fileTrafficRow records.
type fileTrafficSource struct {
	rows []cannibalization.TrafficRow
}

func loadTrafficSource(path string) (*fileTrafficSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read traffic file: %w", err)
	}

	var rows []fileTrafficRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse traffic file: %w", err)
	}

	out := make([]cannibalization.TrafficRow, len(rows))
	for i, r := range rows {
		out[i] = cannibalization.TrafficRow{
			Query:       r.Query,
			PageURL:     r.PageURL,
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			Position:    r.Position,
		}
	}

	return &fileTrafficSource{rows: out}, nil
}

func (s *fileTrafficSource) TrafficForSite(siteID int, start, end time.Time) ([]cannibalization.TrafficRow, error) {
	return s.rows, nil
}

// staticSiteMetadata answers BrandName/HomepageTitle from flag-supplied
// strings rather than a live site lookup.
type staticSiteMetadata struct {
	brand         string
	homepageTitle string
}

func (s staticSiteMetadata) BrandName(siteID int) (string, error) {
	return s.brand, nil
}

func (s staticSiteMetadata) HomepageTitle(siteID int) (string, error) {
	return s.homepageTitle, nil
}

// writeRedirectCSV renders result's clusters into a canonical-redirect
// CSV at redirectCSVFile.
func writeRedirectCSV(result *cannibalization.AnalysisRunResult, byID map[int]*cannibalization.Classification) error {
	f, err := os.Create(redirectCSVFile)
	if err != nil {
		return fmt.Errorf("failed to create redirect CSV: %w", err)
	}
	defer f.Close()

	return cannibalization.WriteRedirectCSV(f, result.Clusters, byID)
}
