// Package metrics provides metrics collection for the cannibalization
// engine.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates metrics across analysis runs.
type Collector struct {
	mu sync.RWMutex

	// Counters
	runsTotal     atomic.Int64
	runsFailed    atomic.Int64
	runsDegraded  atomic.Int64 // completed with gsc_connected=false
	pagesAnalyzed atomic.Int64
	issuesTotal   atomic.Int64
	clustersTotal atomic.Int64

	// Per-phase duration tracking (sum + count, ms)
	phaseDurationSum   map[string]*atomic.Int64
	phaseDurationCount map[string]*atomic.Int64
	phaseMu            sync.RWMutex

	// Conflict-type breakdown
	conflictCounts map[string]*atomic.Int64
	conflictMu     sync.RWMutex

	// Bucket breakdown
	bucketCounts map[string]*atomic.Int64
	bucketMu     sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		phaseDurationSum:   make(map[string]*atomic.Int64),
		phaseDurationCount: make(map[string]*atomic.Int64),
		conflictCounts:     make(map[string]*atomic.Int64),
		bucketCounts:       make(map[string]*atomic.Int64),
		startTime:          time.Now(),
	}
}

// RecordRunStarted records the start of an analysis run.
func (c *Collector) RecordRunStarted() {
	c.runsTotal.Add(1)
}

// RecordRunFailed records a fatal run (SiteNotFound or EmptyCorpus).
func (c *Collector) RecordRunFailed() {
	c.runsFailed.Add(1)
}

// RecordRunDegraded records a completed run whose traffic source failed
// or was unset, so gsc_connected is false.
func (c *Collector) RecordRunDegraded() {
	c.runsDegraded.Add(1)
}

// RecordPagesAnalyzed adds to the total pages classified across runs.
func (c *Collector) RecordPagesAnalyzed(n int64) {
	c.pagesAnalyzed.Add(n)
}

// RecordPhaseDuration records how long one phase took in one run.
func (c *Collector) RecordPhaseDuration(phase string, d time.Duration) {
	c.phaseMu.Lock()
	if c.phaseDurationSum[phase] == nil {
		c.phaseDurationSum[phase] = &atomic.Int64{}
		c.phaseDurationCount[phase] = &atomic.Int64{}
	}
	sum, count := c.phaseDurationSum[phase], c.phaseDurationCount[phase]
	c.phaseMu.Unlock()

	sum.Add(d.Milliseconds())
	count.Add(1)
}

// RecordIssue records one detector/validator finding, broken down by
// conflict type.
func (c *Collector) RecordIssue(conflictType string) {
	c.issuesTotal.Add(1)

	c.conflictMu.Lock()
	if c.conflictCounts[conflictType] == nil {
		c.conflictCounts[conflictType] = &atomic.Int64{}
	}
	c.conflictCounts[conflictType].Add(1)
	c.conflictMu.Unlock()
}

// RecordCluster records one emitted cluster, broken down by bucket.
func (c *Collector) RecordCluster(bucket string) {
	c.clustersTotal.Add(1)

	c.bucketMu.Lock()
	if c.bucketCounts[bucket] == nil {
		c.bucketCounts[bucket] = &atomic.Int64{}
	}
	c.bucketCounts[bucket].Add(1)
	c.bucketMu.Unlock()
}

// AveragePhaseDuration returns the mean duration recorded for phase.
func (c *Collector) AveragePhaseDuration(phase string) time.Duration {
	c.phaseMu.RLock()
	sum, count := c.phaseDurationSum[phase], c.phaseDurationCount[phase]
	c.phaseMu.RUnlock()

	if sum == nil || count.Load() == 0 {
		return 0
	}
	return time.Duration(sum.Load()/count.Load()) * time.Millisecond
}

// Snapshot returns a point-in-time view of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:      time.Now(),
		Uptime:         time.Since(c.startTime),
		RunsTotal:      c.runsTotal.Load(),
		RunsFailed:     c.runsFailed.Load(),
		RunsDegraded:   c.runsDegraded.Load(),
		PagesAnalyzed:  c.pagesAnalyzed.Load(),
		IssuesTotal:    c.issuesTotal.Load(),
		ClustersTotal:  c.clustersTotal.Load(),
		PhaseDurations: make(map[string]time.Duration),
		ConflictCounts: make(map[string]int64),
		BucketCounts:   make(map[string]int64),
	}

	c.phaseMu.RLock()
	for phase := range c.phaseDurationSum {
		s.PhaseDurations[phase] = c.AveragePhaseDuration(phase)
	}
	c.phaseMu.RUnlock()

	c.conflictMu.RLock()
	for k, v := range c.conflictCounts {
		s.ConflictCounts[k] = v.Load()
	}
	c.conflictMu.RUnlock()

	c.bucketMu.RLock()
	for k, v := range c.bucketCounts {
		s.BucketCounts[k] = v.Load()
	}
	c.bucketMu.RUnlock()

	return s
}

// Reset resets all metrics.
func (c *Collector) Reset() {
	c.runsTotal.Store(0)
	c.runsFailed.Store(0)
	c.runsDegraded.Store(0)
	c.pagesAnalyzed.Store(0)
	c.issuesTotal.Store(0)
	c.clustersTotal.Store(0)

	c.phaseMu.Lock()
	c.phaseDurationSum = make(map[string]*atomic.Int64)
	c.phaseDurationCount = make(map[string]*atomic.Int64)
	c.phaseMu.Unlock()

	c.conflictMu.Lock()
	c.conflictCounts = make(map[string]*atomic.Int64)
	c.conflictMu.Unlock()

	c.bucketMu.Lock()
	c.bucketCounts = make(map[string]*atomic.Int64)
	c.bucketMu.Unlock()

	c.startTime = time.Now()
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp      time.Time                `json:"timestamp"`
	Uptime         time.Duration            `json:"uptime"`
	RunsTotal      int64                    `json:"runs_total"`
	RunsFailed     int64                    `json:"runs_failed"`
	RunsDegraded   int64                    `json:"runs_degraded"`
	PagesAnalyzed  int64                    `json:"pages_analyzed"`
	IssuesTotal    int64                    `json:"issues_total"`
	ClustersTotal  int64                    `json:"clusters_total"`
	PhaseDurations map[string]time.Duration `json:"phase_durations"`
	ConflictCounts map[string]int64         `json:"conflict_counts"`
	BucketCounts   map[string]int64         `json:"bucket_counts"`
}

// FailureRate returns the fraction of runs that failed fatally.
func (s *Snapshot) FailureRate() float64 {
	if s.RunsTotal == 0 {
		return 0
	}
	return float64(s.RunsFailed) / float64(s.RunsTotal)
}

// Summary returns a human-readable summary.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":          s.Uptime.String(),
		"runs_total":      s.RunsTotal,
		"runs_failed":     s.RunsFailed,
		"runs_degraded":   s.RunsDegraded,
		"failure_rate":    s.FailureRate(),
		"pages_analyzed":  s.PagesAnalyzed,
		"issues_total":    s.IssuesTotal,
		"clusters_total":  s.ClustersTotal,
	}
}

// Global metrics collector.
var globalCollector = New()

// SetGlobal sets the global metrics collector.
func SetGlobal(c *Collector) {
	globalCollector = c
}

// Global returns the global metrics collector.
func Global() *Collector {
	return globalCollector
}
