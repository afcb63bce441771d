package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

// JSONWriter writes output in JSON format.
type JSONWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	pretty  bool
	stream  bool
	encoder *json.Encoder
	closed  bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(w io.Writer, pretty, stream bool) *JSONWriter {
	jw := &JSONWriter{
		writer: w,
		pretty: pretty,
		stream: stream,
	}

	jw.encoder = json.NewEncoder(w)
	if pretty {
		jw.encoder.SetIndent("", "  ")
	}

	return jw
}

// WriteResult writes the complete analysis run result.
func (j *JSONWriter) WriteResult(result *cannibalization.AnalysisRunResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	var data []byte
	var err error

	if j.pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return err
	}

	if _, err := j.writer.Write(data); err != nil {
		return err
	}

	_, err = j.writer.Write([]byte("\n"))
	return err
}

// WriteCluster writes a single cluster in streaming mode.
func (j *JSONWriter) WriteCluster(cluster *cannibalization.Cluster) error {
	if !j.stream {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	wrapper := StreamEvent{
		Type: "cluster",
		Data: cluster,
	}

	return j.writeStreamEvent(wrapper)
}

// writeStreamEvent writes a stream event.
func (j *JSONWriter) writeStreamEvent(event StreamEvent) error {
	var data []byte
	var err error

	if j.pretty {
		data, err = json.MarshalIndent(event, "", "  ")
	} else {
		data, err = json.Marshal(event)
	}

	if err != nil {
		return err
	}

	if _, err := j.writer.Write(data); err != nil {
		return err
	}

	_, err = j.writer.Write([]byte("\n"))
	return err
}

// Flush flushes the writer.
func (j *JSONWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close closes the writer.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.closed = true

	if closer, ok := j.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// StreamEvent represents a streaming output event.
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// statsWriter wraps a Writer and reports bucket/badge counts as clusters
// are written, for a CLI progress display.
type statsWriter struct {
	Writer
	onCluster func(cannibalization.Bucket, cannibalization.Badge)
}

// newStatsWriter creates a writer that reports per-cluster stats as they
// are streamed out.
func newStatsWriter(w Writer, onCluster func(cannibalization.Bucket, cannibalization.Badge)) *statsWriter {
	return &statsWriter{
		Writer:    w,
		onCluster: onCluster,
	}
}

// WriteCluster writes a cluster and reports its bucket/badge.
func (s *statsWriter) WriteCluster(cluster *cannibalization.Cluster) error {
	if s.onCluster != nil {
		s.onCluster(cluster.Bucket, cluster.Badge)
	}
	return s.Writer.WriteCluster(cluster)
}
