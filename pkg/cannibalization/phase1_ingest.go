package cannibalization

import (
	"regexp"

	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// runPhase1 ingests the eligible page set and classifies each page
// (§4.1). A page with an empty URL is silently skipped; nothing else is
// fatal here — EmptyCorpus is detected by the caller once phase 1
// returns zero classifications.
func runPhase1(pages []Page, tbl *urltools.Tables) []Classification {
	classifications := make([]Classification, 0, len(pages))

	for _, page := range pages {
		if page.Status != "publish" || page.IsNoindex {
			continue
		}
		c, ok := classifyPage(page, tbl)
		if !ok {
			continue
		}
		classifications = append(classifications, c)
	}

	return classifications
}

func classifyPage(page Page, tbl *urltools.Tables) (Classification, bool) {
	if page.URL == "" {
		return Classification{}, false
	}

	normalizedURL := urltools.NormalizeFullURL(page.URL)
	normalizedPath := urltools.NormalizePath(page.URL)
	parts := urltools.PathParts(normalizedPath)
	depth := len(parts)
	folderRoot := urltools.FolderRoot(normalizedPath)
	parentPath := urltools.ParentPath(normalizedPath)
	slugLast := urltools.SlugLast(normalizedPath)
	slugTokens := urltools.ExtractSlugTokens(normalizedPath, tbl, true)

	classifiedType := classifyPageType(normalizedPath, parts, depth, folderRoot, page.PostType, page.IsHomepage, tbl)

	isLegacy := urltools.IsLegacyVariant(normalizedPath, tbl)

	geoNode := ""
	if classifiedType == TypeLocation {
		geoNode = urltools.ExtractGeoNode(normalizedPath, tbl)
	}

	serviceKeyword := urltools.ExtractServiceKeyword(normalizedPath, tbl)

	return Classification{
		PageID:          page.ID,
		URL:             page.URL,
		Title:           page.Title,
		NormalizedURL:   normalizedURL,
		NormalizedPath:  normalizedPath,
		PathParts:       parts,
		Depth:           depth,
		FolderRoot:      folderRoot,
		ParentPath:      parentPath,
		SlugLast:        slugLast,
		SlugTokens:      slugTokens,
		ClassifiedType:  classifiedType,
		IsLegacyVariant: isLegacy,
		GeoNode:         geoNode,
		ServiceKeyword:  serviceKeyword,
	}, true
}

var blogDatePattern = regexp.MustCompile(`^\d+$`)

// classifyPageType resolves classified_type by the priority-ordered
// rule chain in §4.1. First match wins.
func classifyPageType(path string, parts []string, depth int, folderRoot, postType string, isHomepage bool, tbl *urltools.Tables) PageType {
	// RULE 1: Homepage
	if path == "/" || isHomepage {
		return TypeHomepage
	}

	// RULE 2: Location pages
	if _, ok := tbl.LocationFolders[folderRoot]; ok {
		return TypeLocation
	}

	// RULE 3: Blog posts — date-path pattern, then blog folders
	if len(parts) >= 3 && blogDatePattern.MatchString(parts[0]) && blogDatePattern.MatchString(parts[1]) {
		return TypeBlog
	}
	if _, ok := tbl.BlogFolders[folderRoot]; ok {
		return TypeBlog
	}

	// RULE 4/5: WooCommerce post_type
	if postType == "product" {
		return TypeProduct
	}
	if postType == "product_cat" || postType == "product_category" {
		return TypeCategoryWoo
	}

	// RULE 6/7/8: /shop/ hierarchy
	if folderRoot == "shop" {
		switch {
		case depth == 1:
			return TypeShopRoot
		case depth == 2:
			return TypeCategoryShop
		default:
			return TypeProduct
		}
	}

	// RULE 9: Product index page
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if last == "products" || last == "items" {
			return TypeProductIndex
		}
	}

	// RULE 10: /product-category/ — depth 3+ is a product; shallower
	// paths are WooCommerce categories.
	if folderRoot == "product-category" {
		if depth >= 3 {
			return TypeProduct
		}
		return TypeCategoryWoo
	}

	// RULE 11/12: custom product-rentals taxonomy
	if _, ok := tbl.ProductRentalFolders[folderRoot]; ok {
		if depth == 2 {
			return TypeCategoryCustom
		}
		if depth >= 3 {
			return TypeProduct
		}
	}

	// RULE 13/14: service hub/spoke
	if _, ok := tbl.ServiceFolders[folderRoot]; ok {
		if depth == 1 {
			return TypeServiceHub
		}
		return TypeServiceSpoke
	}

	// RULE 15: portfolio
	if _, ok := tbl.PortfolioFolders[folderRoot]; ok {
		return TypePortfolio
	}

	// RULE 16: utility
	if _, ok := tbl.UtilityFolders[folderRoot]; ok {
		return TypeUtility
	}

	// RULE 17: fallback
	return TypeUncategorized
}
