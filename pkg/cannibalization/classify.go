package cannibalization

// ClassifyPages exposes P1's classification step on its own, for callers
// that need a PageID-to-Classification index outside of a full
// RunAnalysis call (e.g. the CLI resolving URLs for a redirect export).
// It applies the same eligibility filter as RunAnalysis (§4.1).
func ClassifyPages(pages []Page, cfg *PipelineConfig) []Classification {
	return runPhase1(pages, cfg.Tables)
}

// IndexByID builds the PageID lookup every downstream phase in this
// package keys off of.
func IndexByID(classifications []Classification) map[int]*Classification {
	byID := make(map[int]*Classification, len(classifications))
	for i := range classifications {
		byID[classifications[i].PageID] = &classifications[i]
	}
	return byID
}
