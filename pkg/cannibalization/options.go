package cannibalization

import (
	"fmt"

	"github.com/Siloq-app/siloq-api/internal/logger"
)

// Option configures a Pipeline at construction time.
type Option func(*Pipeline) error

// WithConfig overrides the default PipelineConfig.
func WithConfig(cfg *PipelineConfig) Option {
	return func(p *Pipeline) error {
		if cfg == nil {
			return fmt.Errorf("config must not be nil")
		}
		p.config = cfg
		return nil
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		p.log = l
		return nil
	}
}

// WithPageSource sets the required PageSource collaborator.
func WithPageSource(src PageSource) Option {
	return func(p *Pipeline) error {
		if src == nil {
			return fmt.Errorf("page source must not be nil")
		}
		p.pages = src
		return nil
	}
}

// WithTrafficSource sets the optional TrafficSource collaborator.
func WithTrafficSource(src TrafficSource) Option {
	return func(p *Pipeline) error {
		p.traffic = src
		return nil
	}
}

// WithSiteMetadata sets the required SiteMetadata collaborator.
func WithSiteMetadata(src SiteMetadata) Option {
	return func(p *Pipeline) error {
		if src == nil {
			return fmt.Errorf("site metadata source must not be nil")
		}
		p.meta = src
		return nil
	}
}

// WithResultSink sets the optional ResultSink collaborator; when unset,
// RunAnalysis still returns the result, it simply isn't persisted.
func WithResultSink(sink ResultSink) Option {
	return func(p *Pipeline) error {
		p.sink = sink
		return nil
	}
}

// WithLookbackDays sets the default traffic lookback window used when
// RunAnalysis is called with lookbackDays <= 0.
func WithLookbackDays(days int) Option {
	return func(p *Pipeline) error {
		if days <= 0 {
			return fmt.Errorf("lookback days must be positive")
		}
		p.defaultLookbackDays = days
		return nil
	}
}
