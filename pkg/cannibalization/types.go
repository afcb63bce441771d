// Package cannibalization implements the seven-phase keyword-
// cannibalization detection pipeline: it classifies a site's pages,
// detects groups of pages competing for the same search intent,
// validates those suspicions against search traffic, detects wrong-
// winner pages, and emits prioritized, recommended-action clusters.
package cannibalization

import "github.com/google/uuid"

// PageType is the classified_type taxonomy a page is assigned in P1
// (§3, §4.1).
type PageType string

const (
	TypeHomepage      PageType = "homepage"
	TypeLocation      PageType = "location"
	TypeBlog          PageType = "blog"
	TypeProduct       PageType = "product"
	TypeCategoryWoo   PageType = "category_woo"
	TypeShopRoot      PageType = "shop_root"
	TypeCategoryShop  PageType = "category_shop"
	TypeProductIndex  PageType = "product_index"
	TypeCategoryCustom PageType = "category_custom"
	TypeServiceHub    PageType = "service_hub"
	TypeServiceSpoke  PageType = "service_spoke"
	TypePortfolio     PageType = "portfolio"
	TypeUtility       PageType = "utility"
	TypeUncategorized PageType = "uncategorized"
)

// ConflictType names the detector or validator family that raised an
// Issue (§3, §4.3-§4.5).
type ConflictType string

const (
	ConflictTaxonomyClash        ConflictType = "TAXONOMY_CLASH"
	ConflictLegacyCleanup        ConflictType = "LEGACY_CLEANUP"
	ConflictLegacyOrphan         ConflictType = "LEGACY_ORPHAN"
	ConflictNearDuplicateContent ConflictType = "NEAR_DUPLICATE_CONTENT"
	ConflictContextDuplicate     ConflictType = "CONTEXT_DUPLICATE"
	ConflictLocationBoilerplate  ConflictType = "LOCATION_BOILERPLATE"
	ConflictGSCConfirmed         ConflictType = "GSC_CONFIRMED"
	ConflictIntentMismatch       ConflictType = "INTENT_MISMATCH"
	ConflictPageTypeMismatch     ConflictType = "PAGE_TYPE_MISMATCH"
	ConflictHomepageHoarding     ConflictType = "HOMEPAGE_HOARDING"
	ConflictGeographicMismatch   ConflictType = "GEOGRAPHIC_MISMATCH"
)

// Severity ranks an Issue or Cluster's urgency (§3).
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeveritySevere Severity = "SEVERE"
)

// rank orders severities for max-severity merges in P6 (§4.6).
func (s Severity) rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// maxSeverity returns whichever of a, b ranks higher.
func maxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Bucket is the coarse category a Cluster lands in (§3, §4.6, GLOSSARY).
type Bucket string

const (
	BucketSearchConflict  Bucket = "SEARCH_CONFLICT"
	BucketSiteDuplication Bucket = "SITE_DUPLICATION"
	BucketWrongWinner     Bucket = "WRONG_WINNER"
)

// bucketRank orders buckets for cluster sort (§4.6 "Sort").
func (b Bucket) bucketRank() int {
	switch b {
	case BucketSearchConflict:
		return 0
	case BucketSiteDuplication:
		return 1
	case BucketWrongWinner:
		return 2
	default:
		return 3
	}
}

// Badge is the user-facing label derived from Bucket (§3, GLOSSARY).
type Badge string

const (
	BadgeConfirmed    Badge = "CONFIRMED"
	BadgePotential    Badge = "POTENTIAL"
	BadgeWrongWinner  Badge = "WRONG_WINNER"
)

// ActionCode is the fixed remediation action attached to a Cluster by P7
// (§4.6, §4.7).
type ActionCode string

const (
	ActionRedirectToCanonical     ActionCode = "REDIRECT_TO_CANONICAL"
	ActionRedirectOrDifferentiate ActionCode = "REDIRECT_OR_DIFFERENTIATE"
	ActionMergeContent            ActionCode = "MERGE_CONTENT"
	ActionRewriteLocalEvidence    ActionCode = "REWRITE_LOCAL_EVIDENCE"
	ActionDifferentiateContent    ActionCode = "DIFFERENTIATE_CONTENT"
	ActionStrengthenCorrectPage   ActionCode = "STRENGTHEN_CORRECT_PAGE"
	ActionReviewManually          ActionCode = "REVIEW_MANUALLY"
)

// Page is a single input record (§3). Only pages with Status=="publish"
// and IsNoindex==false participate in a run.
type Page struct {
	ID               int
	URL              string
	Title            string
	Status           string
	IsNoindex        bool
	IsHomepage       bool
	PostType         string
	WordCount        int
	H1               string
	MetaDesc         string
	InternalLinksIn  int
	InternalLinksOut int
	SchemaType       string
}

// Classification is P1's per-page output (§3, §4.1). Immutable once
// created; every downstream phase refers to pages by PageID, never by a
// fresh copy of Page.
type Classification struct {
	PageID          int
	URL             string
	Title           string
	NormalizedURL   string
	NormalizedPath  string
	PathParts       []string
	Depth           int
	FolderRoot      string
	ParentPath      string
	SlugLast        string
	SlugTokens      map[string]struct{}
	ClassifiedType  PageType
	IsLegacyVariant bool
	GeoNode         string
	ServiceKeyword  string
}

// PagePair is an unordered pair of page IDs, always stored with the
// smaller ID first so it can be used as a map key (§4.2).
type PagePair struct {
	A, B int
}

// NewPagePair builds a PagePair with its IDs in canonical (ascending)
// order, so (a,b) and (b,a) produce the same key (§8 "Safe-pair
// symmetry").
func NewPagePair(a, b int) PagePair {
	if a > b {
		a, b = b, a
	}
	return PagePair{A: a, B: b}
}

// TrafficRow is a single search-console query/page/metrics record, the
// input to P4 and P5 (§3).
type TrafficRow struct {
	Query       string
	PageURL     string
	Clicks      int
	Impressions int
	Position    float64
}

// GSCRow is one query's traffic against one matched page, carried in
// Issue/Cluster metadata once rows have been matched to a Classification.
type GSCRow struct {
	PageID      int
	Clicks      int
	Impressions int
	Share       float64
}

// IssueMetadata is the tagged-variant payload attached to an Issue; each
// conflict type's detector constructs its own concrete type (§9 "Dynamic
// bag-of-metadata" design note). The unexported marker method keeps the
// set of implementations closed to this package.
type IssueMetadata interface {
	issueMetadata()
}

// TaxonomyClashMeta is TAXONOMY_CLASH's payload.
type TaxonomyClashMeta struct {
	SharedSlug string
}

func (TaxonomyClashMeta) issueMetadata() {}

// LegacyMeta is LEGACY_CLEANUP/LEGACY_ORPHAN's payload.
type LegacyMeta struct {
	LegacyURL    string
	CanonicalURL string
}

func (LegacyMeta) issueMetadata() {}

// NearDuplicateMeta is NEAR_DUPLICATE_CONTENT's payload.
type NearDuplicateMeta struct {
	Similarity float64
}

func (NearDuplicateMeta) issueMetadata() {}

// ContextDuplicateMeta is CONTEXT_DUPLICATE's payload.
type ContextDuplicateMeta struct {
	ServiceKeyword string
}

func (ContextDuplicateMeta) issueMetadata() {}

// LocationBoilerplateMeta is LOCATION_BOILERPLATE's payload.
type LocationBoilerplateMeta struct {
	Template string
}

func (LocationBoilerplateMeta) issueMetadata() {}

// GSCMeta is GSC_CONFIRMED's payload, also copied onto upgraded P3
// Issues (§4.4 "Upgrade pass").
type GSCMeta struct {
	Query            string
	TotalImpressions int
	TotalClicks      int
	Rows             []GSCRow
}

func (GSCMeta) issueMetadata() {}

// WrongWinnerMeta is the shared payload for INTENT_MISMATCH,
// PAGE_TYPE_MISMATCH, HOMEPAGE_HOARDING, and GEOGRAPHIC_MISMATCH (§4.5).
type WrongWinnerMeta struct {
	Query           string
	WinnerPageID    int
	WinnerType      PageType
	ExpectedPageID  int
	ExpectedType    PageType
	QueryCity       string // only set for GEOGRAPHIC_MISMATCH
	WinnerGeoNode   string // only set for GEOGRAPHIC_MISMATCH
}

func (WrongWinnerMeta) issueMetadata() {}

// Issue is a single detector or validator's finding (§3), an
// intermediate record consumed by P6.
type Issue struct {
	ConflictType ConflictType
	Severity     Severity
	Pages        []int // sorted page IDs
	GSCValidated bool
	Metadata     IssueMetadata
}

// Cluster is P6/P7's merged, prioritized output (§3).
type Cluster struct {
	ClusterKey            string
	ConflictType          ConflictType
	Bucket                Bucket
	Badge                 Badge
	Severity              Severity
	ActionCode            ActionCode
	PriorityScore         int
	Pages                 []int
	GSCData               *GSCMeta
	Recommendation        string
	SuggestedCanonicalURL string
}

// RunStatus is an AnalysisRunResult's terminal state (§6, §7).
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// AnalysisRunResult is the persisted output of one run_analysis call
// (§6). On a failed run it carries ErrorMessage and no clusters. RunID
// is stamped by the caller (CLI or surrounding service), never by the
// core itself — §5 bans non-deterministic calls inside a run.
type AnalysisRunResult struct {
	RunID         uuid.UUID      `json:"run_id"`
	SiteID        int            `json:"site_id"`
	Status        RunStatus      `json:"status"`
	StartedAt     string         `json:"started_at"` // RFC3339; stamped by the caller, not the core
	CompletedAt   string         `json:"completed_at"`
	PagesAnalyzed int            `json:"pages_analyzed"`
	GSCConnected  bool           `json:"gsc_connected"`
	BucketCounts  map[Bucket]int `json:"bucket_counts"`
	BadgeCounts   map[Badge]int  `json:"badge_counts"`
	Clusters      []Cluster      `json:"clusters"`
	ErrorMessage  string         `json:"error_message"`
}
