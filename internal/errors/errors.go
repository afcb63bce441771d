// Package errors provides the error taxonomy for the cannibalization engine.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a PipelineError for handling decisions (§7).
type Kind int

const (
	// Unknown is an uncategorized internal error. These abort the run.
	Unknown Kind = iota
	// SiteNotFound means the provided site identifier does not resolve.
	SiteNotFound
	// EmptyCorpus means Phase 1 produced zero Classification records.
	EmptyCorpus
	// TrafficSourceFailure means the TrafficSource collaborator raised an
	// error while fetching rows. Always non-fatal: the run degrades and
	// continues without P4/P5 Issues.
	TrafficSourceFailure
)

// String returns the human-readable kind name, also used as the
// AnalysisRunResult.error_message prefix for fatal kinds.
func (k Kind) String() string {
	switch k {
	case SiteNotFound:
		return "site not found"
	case EmptyCorpus:
		return "no pages found to analyze"
	case TrafficSourceFailure:
		return "traffic source unavailable"
	default:
		return "unknown error"
	}
}

// PipelineError is the single error sum type used across the pipeline
// (§9): SiteNotFound, EmptyCorpus, and TrafficSource(inner). Every error
// that crosses a phase boundary is wrapped into one of these three kinds.
type PipelineError struct {
	Kind    Kind
	SiteID  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return fmt.Sprintf("%s: (%v)", e.Kind, e.Cause)
		}
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying error, if any.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PipelineError of the same Kind.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewSiteNotFound builds the invalid-input error kind (§7.1).
func NewSiteNotFound(siteID int) *PipelineError {
	return &PipelineError{Kind: SiteNotFound, SiteID: siteID, Message: fmt.Sprintf("site %d", siteID)}
}

// NewEmptyCorpus builds the empty-corpus error kind (§7.2).
func NewEmptyCorpus(siteID int) *PipelineError {
	return &PipelineError{Kind: EmptyCorpus, SiteID: siteID}
}

// NewTrafficSourceFailure wraps a TrafficSource collaborator error
// (§7.3). Always non-fatal: callers catch it, set gsc_connected=false,
// and continue the run.
func NewTrafficSourceFailure(siteID int, cause error) *PipelineError {
	return &PipelineError{Kind: TrafficSourceFailure, SiteID: siteID, Cause: cause}
}

// IsFatal reports whether err should abort the run. Only
// TrafficSourceFailure is non-fatal; everything else (including errors
// that are not a *PipelineError at all) fails the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind != TrafficSourceFailure
	}
	return true
}

// IsTrafficSourceFailure reports whether err is the non-fatal
// collaborator-transient kind.
func IsTrafficSourceFailure(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == TrafficSourceFailure
	}
	return false
}

// GetKind extracts the Kind from err, or Unknown if err is not a
// *PipelineError.
func GetKind(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Unknown
}
