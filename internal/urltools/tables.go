package urltools

// Tables holds the read-only constant sets every urltools function and
// every pipeline phase consults: stop-words, folder-root taxonomy, legacy
// suffix patterns, intent markers, geographic modifiers, and brand
// indicators. Built once and handed down by reference (§9 "Global
// state" design note) rather than kept as package-level mutable
// registries, so a run never mutates shared state and two runs against
// different Tables can execute concurrently without interference.
type Tables struct {
	StopWords map[string]struct{}

	LocationFolders      map[string]struct{}
	BlogFolders          map[string]struct{}
	ProductRentalFolders map[string]struct{}
	ServiceFolders       map[string]struct{}
	PortfolioFolders     map[string]struct{}
	UtilityFolders       map[string]struct{}

	LegacySuffixes []string

	// IntentRules is evaluated in order; the first rule whose marker
	// appears in the query wins (§4.5).
	IntentRules []IntentRule

	GeoModifiers    map[string]struct{}
	BrandIndicators map[string]struct{}
}

// IntentRule pairs a query intent with the markers that signal it.
type IntentRule struct {
	Intent  string
	Markers []string
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// DefaultTables returns the standard constant tables used in production.
// Every set here is reachable from at least one seed scenario or a
// worked example in the detection rules; names beyond those are a
// reasonable superset.
func DefaultTables() *Tables {
	return &Tables{
		StopWords: set(
			"the", "and", "for", "with", "from", "this", "that", "your",
			"our", "are", "was", "were", "has", "have", "had", "not",
			"but", "can", "all", "any", "one", "new", "get", "use",
		),
		LocationFolders: set(
			"service-area", "service-areas", "locations", "location",
			"city", "cities",
		),
		BlogFolders: set("blog", "news", "articles", "insights"),
		ProductRentalFolders: set(
			"product-rentals", "rentals", "custom-products", "custom",
		),
		ServiceFolders: set("services", "service"),
		PortfolioFolders: set(
			"portfolio", "portfolio-items", "work", "projects",
		),
		UtilityFolders: set(
			"cart", "checkout", "my-account", "account", "wp-admin",
			"login", "signup", "register",
		),
		LegacySuffixes: []string{
			"-old", "-backup", "-copy", "-archive", "-deprecated",
			"-draft", "-legacy", "-v1", "-v2", "-2",
		},
		IntentRules: []IntentRule{
			{Intent: "listicle", Markers: []string{
				"best", "top", "vs", "review", "compare", "ranking",
			}},
			{Intent: "informational", Markers: []string{
				"how", "what", "why", "guide", "tips", "tutorial", "ideas",
			}},
			{Intent: "navigational", Markers: []string{
				"login", "contact", "about", "hours", "location",
			}},
			{Intent: "transactional", Markers: []string{
				"buy", "price", "cost", "near me", "service", "company",
				"hire", "book",
			}},
		},
		GeoModifiers: set("in", "near", "nearby", "around", "local"),
		BrandIndicators: set(
			"incorporated", "inc.", "llc", "company", "corp", "corporation",
		),
	}
}
