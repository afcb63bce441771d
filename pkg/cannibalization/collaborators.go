package cannibalization

import "time"

// PageSource reads the pages belonging to a site. The core filters the
// returned pages for Status=="publish" and !IsNoindex (§6).
type PageSource interface {
	PagesForSite(siteID int) ([]Page, error)
}

// TrafficSource reads query/page traffic rows for a site over a date
// range. Optional: a nil TrafficSource, or one that errors, degrades P4
// and P5 without failing the run (§6, §7.3).
type TrafficSource interface {
	TrafficForSite(siteID int, start, end time.Time) ([]TrafficRow, error)
}

// SiteMetadata resolves a site's brand name and homepage title, used by
// the branded-query filter in P4/P5 (§4.4, §6).
type SiteMetadata interface {
	BrandName(siteID int) (string, error)
	HomepageTitle(siteID int) (string, error)
}

// ResultSink persists a finished AnalysisRunResult. Durability is the
// sink's concern, not the core's (§6).
type ResultSink interface {
	WriteRun(siteID int, result *AnalysisRunResult) error
}
