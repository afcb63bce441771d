package state

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

var (
	bucketRuns   = []byte("runs")
	bucketLatest = []byte("latest_by_site")
)

func runKey(runID string) []byte {
	return []byte(runID)
}

func latestKey(siteID int) []byte {
	return []byte(fmt.Sprintf("%d", siteID))
}

// BoltStore implements Store using an embedded BoltDB file. Every run is
// kept under its RunID in bucketRuns; bucketLatest maps a site ID to the
// RunID of its most recently written run.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a BoltDB-backed run store.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketLatest)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// WriteRun persists result and updates siteID's latest-run pointer.
func (s *BoltStore) WriteRun(siteID int, result *cannibalization.AnalysisRunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		latest := tx.Bucket(bucketLatest)
		if runs == nil || latest == nil {
			return fmt.Errorf("bucket not found")
		}

		if err := runs.Put(runKey(result.RunID.String()), data); err != nil {
			return err
		}
		return latest.Put(latestKey(siteID), runKey(result.RunID.String()))
	})
}

// LoadLatest returns the most recently written run for siteID.
func (s *BoltStore) LoadLatest(siteID int) (*cannibalization.AnalysisRunResult, error) {
	var runID []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		latest := tx.Bucket(bucketLatest)
		if latest == nil {
			return fmt.Errorf("bucket not found")
		}
		if v := latest.Get(latestKey(siteID)); v != nil {
			runID = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if runID == nil {
		return nil, nil
	}

	return s.LoadRun(string(runID))
}

// LoadRun returns a specific run by its RunID.
func (s *BoltStore) LoadRun(runID string) (*cannibalization.AnalysisRunResult, error) {
	var result cannibalization.AnalysisRunResult
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return fmt.Errorf("bucket not found")
		}
		data := runs.Get(runKey(runID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &result, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// FileStore implements Store using JSON files, one per run, under a
// directory, plus a per-site "latest" pointer file.
type FileStore struct {
	dir        string
	compressed bool
}

// NewFileStore creates a new file-based run store rooted at dir.
func NewFileStore(dir string, compressed bool) *FileStore {
	return &FileStore{dir: dir, compressed: compressed}
}

func (s *FileStore) runPath(runID string) string {
	name := runID + ".json"
	if s.compressed {
		name += ".gz"
	}
	return filepath.Join(s.dir, name)
}

func (s *FileStore) latestPath(siteID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("site-%d.latest", siteID))
}

// WriteRun persists result to its own file and updates siteID's latest
// pointer file.
func (s *FileStore) WriteRun(siteID int, result *cannibalization.AnalysisRunResult) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	runID := result.RunID.String()
	if s.compressed {
		if err := s.writeCompressed(s.runPath(runID), data); err != nil {
			return err
		}
	} else if err := os.WriteFile(s.runPath(runID), data, 0644); err != nil {
		return err
	}

	return os.WriteFile(s.latestPath(siteID), []byte(runID), 0644)
}

func (s *FileStore) writeCompressed(path string, data []byte) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gw := gzip.NewWriter(file)
	defer gw.Close()

	_, err = gw.Write(data)
	return err
}

// LoadLatest returns the most recently written run for siteID.
func (s *FileStore) LoadLatest(siteID int) (*cannibalization.AnalysisRunResult, error) {
	runID, err := os.ReadFile(s.latestPath(siteID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	return s.LoadRun(string(runID))
}

// LoadRun returns a specific run by its RunID.
func (s *FileStore) LoadRun(runID string) (*cannibalization.AnalysisRunResult, error) {
	var data []byte
	var err error

	if s.compressed {
		data, err = s.readCompressed(s.runPath(runID))
	} else {
		data, err = os.ReadFile(s.runPath(runID))
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result cannibalization.AnalysisRunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &result, nil
}

func (s *FileStore) readCompressed(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gr, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	var data []byte
	buf := make([]byte, 4096)
	for {
		n, err := gr.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if err != nil {
			break
		}
	}

	return data, nil
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

// MemoryStore implements Store using in-memory maps, for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]*cannibalization.AnalysisRunResult
	latest map[int]string
}

// NewMemoryStore creates a new in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[string]*cannibalization.AnalysisRunResult),
		latest: make(map[int]string),
	}
}

// WriteRun stores result in memory and updates siteID's latest pointer.
func (s *MemoryStore) WriteRun(siteID int, result *cannibalization.AnalysisRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := result.RunID.String()
	s.runs[runID] = result
	s.latest[siteID] = runID
	return nil
}

// LoadLatest returns the most recently written run for siteID.
func (s *MemoryStore) LoadLatest(siteID int) (*cannibalization.AnalysisRunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runID, ok := s.latest[siteID]
	if !ok {
		return nil, nil
	}
	return s.runs[runID], nil
}

// LoadRun returns a specific run by its RunID.
func (s *MemoryStore) LoadRun(runID string) (*cannibalization.AnalysisRunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.runs[runID], nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
