package cannibalization

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pipelineerrors "github.com/Siloq-app/siloq-api/internal/errors"
)

type stubPageSource struct {
	pages []Page
	err   error
}

func (s stubPageSource) PagesForSite(siteID int) ([]Page, error) {
	return s.pages, s.err
}

type stubTrafficSource struct {
	rows []TrafficRow
	err  error
}

func (s stubTrafficSource) TrafficForSite(siteID int, start, end time.Time) ([]TrafficRow, error) {
	return s.rows, s.err
}

type stubSiteMetadata struct {
	brand string
	title string
}

func (s stubSiteMetadata) BrandName(siteID int) (string, error)      { return s.brand, nil }
func (s stubSiteMetadata) HomepageTitle(siteID int) (string, error) { return s.title, nil }

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) WriteRun(siteID int, result *AnalysisRunResult) error {
	s.calls++
	return s.err
}

func TestNew_RequiresPageSourceAndSiteMetadata(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() with no options should fail: page source is required")
	}

	if _, err := New(WithPageSource(stubPageSource{})); err == nil {
		t.Error("New() without site metadata should fail")
	}

	_, err := New(WithPageSource(stubPageSource{}), WithSiteMetadata(stubSiteMetadata{}))
	if err != nil {
		t.Errorf("New() with both required collaborators should succeed, got %v", err)
	}
}

func TestNew_RejectsNilConfig(t *testing.T) {
	_, err := New(WithPageSource(stubPageSource{}), WithSiteMetadata(stubSiteMetadata{}), WithConfig(nil))
	if err == nil {
		t.Error("WithConfig(nil) should be rejected")
	}
}

func TestRunAnalysis_SiteNotFound(t *testing.T) {
	pipeline, err := New(
		WithPageSource(stubPageSource{err: errors.New("site does not exist")}),
		WithSiteMetadata(stubSiteMetadata{}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, runErr := pipeline.RunAnalysis(uuid.New(), 999, false, 0)
	if runErr == nil {
		t.Fatal("expected a fatal error when PagesForSite fails")
	}
	if pipelineerrors.GetKind(runErr) != pipelineerrors.SiteNotFound {
		t.Errorf("GetKind() = %v, want SiteNotFound", pipelineerrors.GetKind(runErr))
	}
	if result.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", result.Status)
	}
}

func TestRunAnalysis_EmptyCorpus(t *testing.T) {
	pipeline, err := New(
		WithPageSource(stubPageSource{pages: []Page{{ID: 1, URL: "", Status: "publish"}}}),
		WithSiteMetadata(stubSiteMetadata{}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, runErr := pipeline.RunAnalysis(uuid.New(), 1, false, 0)
	if runErr == nil {
		t.Fatal("expected EmptyCorpus when every page is ineligible")
	}
	if pipelineerrors.GetKind(runErr) != pipelineerrors.EmptyCorpus {
		t.Errorf("GetKind() = %v, want EmptyCorpus", pipelineerrors.GetKind(runErr))
	}
	if result.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", result.Status)
	}
}

func TestRunAnalysis_TrafficSourceFailureDegradesRun(t *testing.T) {
	pages := []Page{
		{ID: 1, URL: "https://example.com/shop/widgets/red-widget", Status: "publish", PostType: "product"},
		{ID: 2, URL: "https://example.com/shop/widgets/blue-widget", Status: "publish", PostType: "product"},
	}

	pipeline, err := New(
		WithPageSource(stubPageSource{pages: pages}),
		WithSiteMetadata(stubSiteMetadata{}),
		WithTrafficSource(stubTrafficSource{err: errors.New("gsc api unavailable")}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, runErr := pipeline.RunAnalysis(uuid.New(), 1, true, 30)
	if runErr != nil {
		t.Fatalf("a TrafficSource failure should not fail the run, got %v", runErr)
	}
	if result.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", result.Status)
	}
	if result.GSCConnected {
		t.Error("GSCConnected should be false when the traffic source errors")
	}
}

func TestRunAnalysis_FullRunWritesToSink(t *testing.T) {
	pages := []Page{
		{ID: 1, URL: "https://example.com/services/widgets", Title: "Widgets", Status: "publish"},
		{ID: 2, URL: "https://example.com/shop/widgets", Title: "Widgets Shop", Status: "publish"},
	}
	sink := &stubSink{}

	pipeline, err := New(
		WithPageSource(stubPageSource{pages: pages}),
		WithSiteMetadata(stubSiteMetadata{}),
		WithResultSink(sink),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	runID := uuid.New()
	result, runErr := pipeline.RunAnalysis(runID, 1, false, 0)
	if runErr != nil {
		t.Fatalf("RunAnalysis() error = %v", runErr)
	}
	if result.RunID != runID {
		t.Errorf("RunID = %v, want the caller-supplied %v", result.RunID, runID)
	}
	if result.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", result.Status)
	}
	if result.PagesAnalyzed != 2 {
		t.Errorf("PagesAnalyzed = %d, want 2", result.PagesAnalyzed)
	}
	if len(result.Clusters) != 1 {
		t.Fatalf("len(Clusters) = %d, want 1 (taxonomy clash on shared slug)", len(result.Clusters))
	}
	if sink.calls != 1 {
		t.Errorf("sink.calls = %d, want 1", sink.calls)
	}
}

func TestRunAnalysis_NeverGeneratesItsOwnRunID(t *testing.T) {
	// RunAnalysis must echo back exactly the runID it was given, never a
	// freshly generated one, across repeated calls with the same pipeline.
	pipeline, err := New(
		WithPageSource(stubPageSource{pages: []Page{{ID: 1, URL: "https://example.com/a", Status: "publish"}}}),
		WithSiteMetadata(stubSiteMetadata{}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := uuid.New()
	second := uuid.New()

	r1, _ := pipeline.RunAnalysis(first, 1, false, 0)
	r2, _ := pipeline.RunAnalysis(second, 1, false, 0)

	if r1.RunID != first || r2.RunID != second {
		t.Error("RunAnalysis should echo back the caller-supplied RunID unchanged")
	}
}
