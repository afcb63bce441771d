// Package output provides output formatting for analysis runs.
package output

import (
	"io"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

// Writer defines the interface for output writers.
type Writer interface {
	// WriteResult writes the complete analysis run result.
	WriteResult(result *cannibalization.AnalysisRunResult) error

	// WriteCluster writes a single cluster (for streaming).
	WriteCluster(cluster *cannibalization.Cluster) error

	// Flush flushes any buffered output.
	Flush() error

	// Close closes the writer.
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format   string
	Pretty   bool
	Stream   bool
	FilePath string
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, config Config) Writer {
	switch config.Format {
	case "json":
		return NewJSONWriter(w, config.Pretty, config.Stream)
	default:
		return NewJSONWriter(w, config.Pretty, config.Stream)
	}
}
