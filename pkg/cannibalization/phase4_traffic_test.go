package cannibalization

import (
	"testing"
)

func TestRunPhase4_NilTrafficIsNoOp(t *testing.T) {
	cfg := DefaultPipelineConfig()
	issues := []Issue{{ConflictType: ConflictTaxonomyClash, Pages: []int{1, 2}}}

	validated, confirmed, perQuery, connected := runPhase4(issues, nil, nil, "", "", cfg.Tables, cfg)

	if connected {
		t.Error("gscConnected should be false when traffic is nil")
	}
	if len(confirmed) != 0 {
		t.Errorf("len(confirmed) = %d, want 0", len(confirmed))
	}
	if len(validated) != 1 || validated[0].GSCValidated {
		t.Error("issues should pass through unvalidated when traffic is nil")
	}
	if perQuery != nil {
		t.Errorf("perQuery = %v, want nil when traffic is nil", perQuery)
	}
}

func TestRunPhase4_GSCConfirmed(t *testing.T) {
	cfg := DefaultPipelineConfig()
	tbl := cfg.Tables

	a := classify(t, 1, "https://example.com/shop/widgets/red-widget", "Red Widget", "product", false)
	b := classify(t, 2, "https://example.com/shop/widgets/red-widget-deluxe", "Red Widget Deluxe", "product", false)
	classifications := []Classification{a, b}

	traffic := []TrafficRow{
		{Query: "red widget", PageURL: a.URL, Clicks: 40, Impressions: 1000, Position: 2.1},
		{Query: "red widget", PageURL: b.URL, Clicks: 10, Impressions: 300, Position: 5.4},
	}

	_, confirmed, _, connected := runPhase4(nil, traffic, classifications, "", "", tbl, cfg)

	if !connected {
		t.Fatal("gscConnected should be true when traffic rows are supplied")
	}
	if len(confirmed) != 1 {
		t.Fatalf("len(confirmed) = %d, want 1", len(confirmed))
	}
	if confirmed[0].ConflictType != ConflictGSCConfirmed {
		t.Errorf("ConflictType = %q, want GSC_CONFIRMED", confirmed[0].ConflictType)
	}
	meta := confirmed[0].Metadata.(GSCMeta)
	if meta.Query != "red widget" {
		t.Errorf("Query = %q, want %q", meta.Query, "red widget")
	}
}

func TestRunPhase4_DominantPageNotConfirmed(t *testing.T) {
	cfg := DefaultPipelineConfig()
	tbl := cfg.Tables

	a := classify(t, 1, "https://example.com/shop/widgets/red-widget", "Red Widget", "product", false)
	b := classify(t, 2, "https://example.com/shop/widgets/blue-widget", "Blue Widget", "product", false)
	classifications := []Classification{a, b}

	// a holds 95% share: one page legitimately dominates, not a conflict.
	traffic := []TrafficRow{
		{Query: "widget", PageURL: a.URL, Clicks: 100, Impressions: 9500, Position: 1.2},
		{Query: "widget", PageURL: b.URL, Clicks: 5, Impressions: 500, Position: 8.0},
	}

	_, confirmed, _, _ := runPhase4(nil, traffic, classifications, "", "", tbl, cfg)
	if len(confirmed) != 0 {
		t.Errorf("len(confirmed) = %d, want 0 when one page dominates the query", len(confirmed))
	}
}

func TestRunPhase4_BrandedQueryExcluded(t *testing.T) {
	cfg := DefaultPipelineConfig()
	tbl := cfg.Tables

	a := classify(t, 1, "https://example.com/shop/widgets/red-widget", "Red Widget", "product", false)
	b := classify(t, 2, "https://example.com/shop/widgets/blue-widget", "Blue Widget", "product", false)
	classifications := []Classification{a, b}

	traffic := []TrafficRow{
		{Query: "acme red widget", PageURL: a.URL, Clicks: 40, Impressions: 1000},
		{Query: "acme red widget", PageURL: b.URL, Clicks: 10, Impressions: 300},
	}

	_, confirmed, _, _ := runPhase4(nil, traffic, classifications, "Acme", "", tbl, cfg)
	if len(confirmed) != 0 {
		t.Errorf("len(confirmed) = %d, want 0 for a branded query", len(confirmed))
	}
}

func TestRunPhase4_UpgradesStaticIssue(t *testing.T) {
	cfg := DefaultPipelineConfig()
	tbl := cfg.Tables

	a := classify(t, 1, "https://example.com/shop/widgets/red-widget", "Red Widget", "product", false)
	b := classify(t, 2, "https://example.com/shop/widgets/red-widget-deluxe", "Red Widget Deluxe", "product", false)
	classifications := []Classification{a, b}

	staticIssue := Issue{
		ConflictType: ConflictNearDuplicateContent,
		Severity:     SeverityMedium,
		Pages:        []int{1, 2},
		Metadata:     NearDuplicateMeta{Similarity: 0.9},
	}

	traffic := []TrafficRow{
		{Query: "red widget", PageURL: a.URL, Clicks: 40, Impressions: 1000},
		{Query: "red widget", PageURL: b.URL, Clicks: 10, Impressions: 300},
	}

	validated, _, _, _ := runPhase4([]Issue{staticIssue}, traffic, classifications, "", "", tbl, cfg)
	if len(validated) != 1 {
		t.Fatalf("len(validated) = %d, want 1", len(validated))
	}
	if !validated[0].GSCValidated {
		t.Error("expected the static issue to be upgraded with GSC validation")
	}
	if _, ok := validated[0].Metadata.(GSCMeta); !ok {
		t.Errorf("Metadata = %T, want GSCMeta after upgrade", validated[0].Metadata)
	}
}

func TestSeverityForGSCRows(t *testing.T) {
	cfg := DefaultPipelineConfig()

	tests := []struct {
		name string
		rows []GSCRow
		want Severity
	}{
		{"severe", []GSCRow{{Share: 0.55}, {Share: 0.15}, {Share: 0.30}}, SeveritySevere},
		{"high", []GSCRow{{Share: 0.60}, {Share: 0.40}}, SeverityHigh},
		{"medium", []GSCRow{{Share: 0.80}, {Share: 0.20}}, SeverityMedium},
		{"low", []GSCRow{{Share: 0.94}, {Share: 0.06}}, SeverityLow},
		{"three-rows-but-only-two-clear-the-floor", []GSCRow{{Share: 0.80}, {Share: 0.12}, {Share: 0.03}}, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := severityForGSCRows(tt.rows, cfg)
			if got != tt.want {
				t.Errorf("severityForGSCRows() = %q, want %q", got, tt.want)
			}
		})
	}
}
