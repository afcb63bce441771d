package output

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

type mockFlusher struct {
	bytes.Buffer
	flushed bool
}

func (m *mockFlusher) Flush() error {
	m.flushed = true
	return nil
}

type mockCloser struct {
	bytes.Buffer
	closed bool
}

func (m *mockCloser) Close() error {
	m.closed = true
	return nil
}

type mockWriteError struct {
	err error
}

func (m *mockWriteError) Write(p []byte) (n int, err error) {
	return 0, m.err
}

func sampleResult() *cannibalization.AnalysisRunResult {
	return &cannibalization.AnalysisRunResult{
		RunID:         uuid.New(),
		SiteID:        7,
		Status:        cannibalization.StatusCompleted,
		PagesAnalyzed: 42,
		GSCConnected:  true,
		BucketCounts:  map[cannibalization.Bucket]int{cannibalization.BucketSearchConflict: 2},
		BadgeCounts:   map[cannibalization.Badge]int{cannibalization.BadgeConfirmed: 2},
		Clusters: []cannibalization.Cluster{
			{
				ClusterKey:    "taxonomy:widgets",
				ConflictType:  cannibalization.ConflictTaxonomyClash,
				Bucket:        cannibalization.BucketSiteDuplication,
				Badge:         cannibalization.BadgePotential,
				Severity:      cannibalization.SeverityHigh,
				ActionCode:    cannibalization.ActionRedirectOrDifferentiate,
				PriorityScore: 45,
				Pages:         []int{1, 2},
			},
		},
	}
}

func TestNewJSONWriter(t *testing.T) {
	tests := []struct {
		name   string
		pretty bool
		stream bool
	}{
		{"compact non-stream", false, false},
		{"pretty non-stream", true, false},
		{"compact stream", false, true},
		{"pretty stream", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			jw := NewJSONWriter(&buf, tt.pretty, tt.stream)

			if jw == nil {
				t.Fatal("NewJSONWriter returned nil")
			}
			if jw.pretty != tt.pretty {
				t.Errorf("pretty = %v, want %v", jw.pretty, tt.pretty)
			}
			if jw.stream != tt.stream {
				t.Errorf("stream = %v, want %v", jw.stream, tt.stream)
			}
			if jw.closed {
				t.Error("writer should not be closed initially")
			}
		})
	}
}

func TestJSONWriter_WriteResult(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, true, false)

	result := sampleResult()
	if err := jw.WriteResult(result); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}

	output := buf.String()
	for _, field := range []string{"site_id", "bucket_counts", "clusters"} {
		if !strings.Contains(output, field) {
			t.Errorf("output missing field %q", field)
		}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Errorf("output is not valid JSON: %v", err)
	}

	if !strings.Contains(output, "\n  ") {
		t.Error("pretty output should contain indentation")
	}
}

func TestJSONWriter_WriteResult_Closed(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, false)
	jw.Close()

	if err := jw.WriteResult(sampleResult()); err != nil {
		t.Errorf("WriteResult on closed writer should return nil, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("closed writer should not write anything")
	}
}

func TestJSONWriter_WriteResult_WriteError(t *testing.T) {
	errWriter := &mockWriteError{err: io.ErrShortWrite}
	jw := NewJSONWriter(errWriter, false, false)

	if err := jw.WriteResult(sampleResult()); err == nil {
		t.Error("expected error on write failure")
	}
}

func TestJSONWriter_WriteCluster_StreamMode(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, true)

	cluster := &cannibalization.Cluster{ClusterKey: "legacy:/old-page", PriorityScore: 70}
	if err := jw.WriteCluster(cluster); err != nil {
		t.Fatalf("WriteCluster() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"type":"cluster"`) {
		t.Error("stream output should contain type:cluster")
	}

	var event StreamEvent
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Errorf("output is not valid JSON: %v", err)
	}
	if event.Type != "cluster" {
		t.Errorf("event.Type = %q, want %q", event.Type, "cluster")
	}
}

func TestJSONWriter_WriteCluster_NonStreamMode(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, false)

	if err := jw.WriteCluster(&cannibalization.Cluster{ClusterKey: "x"}); err != nil {
		t.Fatalf("WriteCluster() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("non-stream mode should not write anything, got %q", buf.String())
	}
}

func TestJSONWriter_WriteCluster_Closed(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, true)
	jw.Close()

	if err := jw.WriteCluster(&cannibalization.Cluster{ClusterKey: "x"}); err != nil {
		t.Errorf("WriteCluster on closed writer should return nil, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("closed writer should not write anything")
	}
}

func TestJSONWriter_Flush(t *testing.T) {
	t.Run("with flushable writer", func(t *testing.T) {
		flusher := &mockFlusher{}
		jw := NewJSONWriter(flusher, false, false)

		if err := jw.Flush(); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if !flusher.flushed {
			t.Error("Flush() should call underlying writer's Flush")
		}
	})

	t.Run("with non-flushable writer", func(t *testing.T) {
		var buf bytes.Buffer
		jw := NewJSONWriter(&buf, false, false)

		if err := jw.Flush(); err != nil {
			t.Fatalf("Flush() on non-flushable writer should return nil, got %v", err)
		}
	})
}

func TestJSONWriter_Close(t *testing.T) {
	closer := &mockCloser{}
	jw := NewJSONWriter(closer, false, false)

	if err := jw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !closer.closed {
		t.Error("Close() should call underlying writer's Close")
	}
	if !jw.closed {
		t.Error("writer should be marked as closed")
	}
}

func TestJSONWriter_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				jw.WriteCluster(&cannibalization.Cluster{ClusterKey: "x"})
			}
		}()
	}
	wg.Wait()

	if buf.Len() == 0 {
		t.Error("expected output from concurrent writes")
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Config{Format: "json", Pretty: true, Stream: true})

	jw, ok := w.(*JSONWriter)
	if !ok {
		t.Fatal("NewWriter should return a JSONWriter")
	}
	if !jw.pretty || !jw.stream {
		t.Error("NewWriter did not propagate config")
	}
}

func TestStatsWriter_WriteCluster(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, true)

	var gotBucket cannibalization.Bucket
	var gotBadge cannibalization.Badge
	sw := newStatsWriter(jw, func(b cannibalization.Bucket, badge cannibalization.Badge) {
		gotBucket, gotBadge = b, badge
	})

	cluster := &cannibalization.Cluster{
		ClusterKey: "x",
		Bucket:     cannibalization.BucketWrongWinner,
		Badge:      cannibalization.BadgeWrongWinner,
	}

	if err := sw.WriteCluster(cluster); err != nil {
		t.Fatalf("WriteCluster() error = %v", err)
	}
	if gotBucket != cannibalization.BucketWrongWinner {
		t.Errorf("gotBucket = %v, want %v", gotBucket, cannibalization.BucketWrongWinner)
	}
	if gotBadge != cannibalization.BadgeWrongWinner {
		t.Errorf("gotBadge = %v, want %v", gotBadge, cannibalization.BadgeWrongWinner)
	}
}

func TestStatsWriter_NilCallback(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONWriter(&buf, false, true)
	sw := newStatsWriter(jw, nil)

	if err := sw.WriteCluster(&cannibalization.Cluster{ClusterKey: "x"}); err != nil {
		t.Fatalf("WriteCluster() error = %v", err)
	}
}

func TestStreamEvent_Serialization(t *testing.T) {
	event := StreamEvent{
		Type: "cluster",
		Data: map[string]interface{}{"cluster_key": "x"},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var parsed StreamEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if parsed.Type != event.Type {
		t.Errorf("Type = %q, want %q", parsed.Type, event.Type)
	}
}

func TestSummarize(t *testing.T) {
	result := sampleResult()
	summary := Summarize(result)

	if summary.SiteID != 7 {
		t.Errorf("SiteID = %d, want 7", summary.SiteID)
	}
	if summary.TotalClusters != 1 {
		t.Errorf("TotalClusters = %d, want 1", summary.TotalClusters)
	}
	if len(summary.TopClusters) != 1 {
		t.Fatalf("len(TopClusters) = %d, want 1", len(summary.TopClusters))
	}
	if summary.TopClusters[0].ClusterKey != "taxonomy:widgets" {
		t.Errorf("TopClusters[0].ClusterKey = %q, want %q", summary.TopClusters[0].ClusterKey, "taxonomy:widgets")
	}
	if summary.Buckets[string(cannibalization.BucketSearchConflict)] != 2 {
		t.Errorf("Buckets[SEARCH_CONFLICT] = %d, want 2", summary.Buckets[string(cannibalization.BucketSearchConflict)])
	}
}

func TestSummarize_ManyClusters(t *testing.T) {
	result := sampleResult()
	result.Clusters = make([]cannibalization.Cluster, topClustersLimit+5)
	for i := range result.Clusters {
		result.Clusters[i] = cannibalization.Cluster{ClusterKey: "x"}
	}

	summary := Summarize(result)

	if summary.TotalClusters != topClustersLimit+5 {
		t.Errorf("TotalClusters = %d, want %d", summary.TotalClusters, topClustersLimit+5)
	}
	if len(summary.TopClusters) != topClustersLimit {
		t.Errorf("len(TopClusters) = %d, want %d", len(summary.TopClusters), topClustersLimit)
	}
}

func TestSummarize_FailedRun(t *testing.T) {
	result := &cannibalization.AnalysisRunResult{
		RunID:        uuid.New(),
		SiteID:       3,
		Status:       cannibalization.StatusFailed,
		ErrorMessage: "site 3 has no eligible pages",
	}

	summary := Summarize(result)

	if summary.Status != cannibalization.StatusFailed {
		t.Errorf("Status = %v, want %v", summary.Status, cannibalization.StatusFailed)
	}
	if summary.ErrorMessage == "" {
		t.Error("expected ErrorMessage to be carried into the summary")
	}
	if summary.TotalClusters != 0 {
		t.Errorf("TotalClusters = %d, want 0", summary.TotalClusters)
	}
}
