// Package state provides durable storage for analysis run results.
package state

import (
	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

// Store is the storage interface backing a ResultSink. Implementations
// persist one result per run and let the caller fetch a site's most
// recently written run back out, e.g. for a CLI show subcommand.
type Store interface {
	// WriteRun persists result as the latest run for siteID. Satisfies
	// cannibalization.ResultSink.
	WriteRun(siteID int, result *cannibalization.AnalysisRunResult) error

	// LoadLatest returns the most recently written run for siteID, or
	// nil if none has been written yet.
	LoadLatest(siteID int) (*cannibalization.AnalysisRunResult, error)

	// LoadRun returns a specific run by its RunID, regardless of which
	// site it belongs to or whether it is the latest for that site.
	LoadRun(runID string) (*cannibalization.AnalysisRunResult, error)

	// Close releases any resources held by the store.
	Close() error
}

var _ cannibalization.ResultSink = Store(nil)
