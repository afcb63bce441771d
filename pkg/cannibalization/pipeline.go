package cannibalization

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pipelineerrors "github.com/Siloq-app/siloq-api/internal/errors"
	"github.com/Siloq-app/siloq-api/internal/logger"
)

// Pipeline runs the seven-phase cannibalization analysis for a site. It
// is built once via New and reused across runs; it holds no per-run
// mutable state (§5 "synchronous, deterministic core").
type Pipeline struct {
	config  *PipelineConfig
	log     *logger.Logger
	pages   PageSource
	traffic TrafficSource
	meta    SiteMetadata
	sink    ResultSink

	defaultLookbackDays int
}

const defaultLookbackDays = 90

// New builds a Pipeline from the given options. PageSource and
// SiteMetadata are required collaborators; everything else defaults.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config:              DefaultPipelineConfig(),
		log:                 logger.NewDefault().WithComponent("cannibalization"),
		defaultLookbackDays: defaultLookbackDays,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.pages == nil {
		return nil, fmt.Errorf("cannibalization: page source is required")
	}
	if p.meta == nil {
		return nil, fmt.Errorf("cannibalization: site metadata source is required")
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// RunAnalysis executes all seven phases for siteID (§6). includeTraffic
// gates P4/P5; lookbackDays <= 0 uses the pipeline's configured default.
// runID identifies this run in logs and in the persisted result; it is
// generated by the caller (CLI or surrounding service), never inside
// RunAnalysis itself; the only clock read inside RunAnalysis is the one
// that sets the traffic lookback window. A
// TrafficSource failure degrades the run (gsc_connected=false) rather
// than failing it (§7.3); SiteNotFound and EmptyCorpus are fatal (§7.1,
// §7.2).
func (p *Pipeline) RunAnalysis(runID uuid.UUID, siteID int, includeTraffic bool, lookbackDays int) (*AnalysisRunResult, error) {
	log := p.log.WithSite(siteID).WithRun(runID.String())

	result := &AnalysisRunResult{
		RunID:        runID,
		SiteID:       siteID,
		Status:       StatusRunning,
		BucketCounts: map[Bucket]int{},
		BadgeCounts:  map[Badge]int{},
	}

	pages, err := p.pages.PagesForSite(siteID)
	if err != nil {
		log.ErrorEvent(err, "p1_ingest", "PagesForSite")
		fatal := pipelineerrors.NewSiteNotFound(siteID)
		result.Status = StatusFailed
		result.ErrorMessage = fatal.Error()
		return result, fatal
	}

	classifications := runPhase1(pages, p.config.Tables)
	if len(classifications) == 0 {
		fatal := pipelineerrors.NewEmptyCorpus(siteID)
		log.ErrorEvent(fatal, "p1_ingest", "classify")
		result.Status = StatusFailed
		result.ErrorMessage = fatal.Error()
		return result, fatal
	}
	result.PagesAnalyzed = len(classifications)
	log.PhaseEvent(logger.InfoLevel, "p1_ingest", siteID, runID.String()).
		Int("pages", len(classifications)).Msg("classified pages")

	byID := make(map[int]*Classification, len(classifications))
	for i := range classifications {
		byID[classifications[i].PageID] = &classifications[i]
	}

	safePairs := runPhase2(classifications, p.config.Tables, p.config)
	log.PhaseEvent(logger.DebugLevel, "p2_safepairs", siteID, runID.String()).
		Int("safe_pairs", len(safePairs)).Msg("computed safe pairs")

	staticIssues := runPhase3(classifications, safePairs, p.config.Tables, p.config)
	log.PhaseEvent(logger.InfoLevel, "p3_static", siteID, runID.String()).
		Int("issues", len(staticIssues)).Msg("static detectors complete")

	var wrongWinnerIssues []Issue
	gscConnected := false

	if includeTraffic && p.traffic != nil {
		days := lookbackDays
		if days <= 0 {
			days = p.defaultLookbackDays
		}
		end := time.Now()
		start := end.AddDate(0, 0, -days)

		rows, err := p.traffic.TrafficForSite(siteID, start, end)
		if err != nil {
			tfErr := pipelineerrors.NewTrafficSourceFailure(siteID, err)
			log.ErrorEvent(tfErr, "p4_traffic", "TrafficForSite")
		} else {
			brandName, _ := p.meta.BrandName(siteID)
			homepageTitle, _ := p.meta.HomepageTitle(siteID)

			validated, confirmed, perQuery, connected := runPhase4(staticIssues, rows, classifications, brandName, homepageTitle, p.config.Tables, p.config)
			staticIssues = validated
			gscConnected = connected

			log.PhaseEvent(logger.InfoLevel, "p4_traffic", siteID, runID.String()).
				Int("gsc_confirmed", len(confirmed)).Msg("traffic validation complete")

			wrongWinnerIssues = runPhase5(perQuery, byID, p.config)
			log.PhaseEvent(logger.InfoLevel, "p5_wrong_winner", siteID, runID.String()).
				Int("issues", len(wrongWinnerIssues)).Msg("wrong-winner detection complete")

			staticIssues = append(staticIssues, confirmed...)
		}
	}

	clusters := runPhase6(staticIssues, wrongWinnerIssues, byID, p.config)
	for _, c := range clusters {
		log.ClusterEvent(c.ClusterKey, string(c.ConflictType), len(c.Pages), c.PriorityScore)
	}

	clusters = runPhase7(clusters, byID)

	for _, c := range clusters {
		result.BucketCounts[c.Bucket]++
		result.BadgeCounts[c.Badge]++
	}

	result.Status = StatusCompleted
	result.GSCConnected = gscConnected
	result.Clusters = clusters

	log.StatsEvent(map[string]interface{}{
		"pages_analyzed": result.PagesAnalyzed,
		"clusters":       len(clusters),
		"gsc_connected":  gscConnected,
	})

	if p.sink != nil {
		if err := p.sink.WriteRun(siteID, result); err != nil {
			log.ErrorEvent(err, "p7_fix", "WriteRun")
		}
	}

	return result, nil
}
