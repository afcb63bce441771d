package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

func sampleRun() *cannibalization.AnalysisRunResult {
	return &cannibalization.AnalysisRunResult{
		RunID:         uuid.New(),
		SiteID:        1,
		Status:        cannibalization.StatusCompleted,
		PagesAnalyzed: 12,
		GSCConnected:  true,
		BucketCounts:  map[cannibalization.Bucket]int{cannibalization.BucketSearchConflict: 1},
		BadgeCounts:   map[cannibalization.Badge]int{cannibalization.BadgeConfirmed: 1},
		Clusters: []cannibalization.Cluster{
			{ClusterKey: "taxonomy:widgets", PriorityScore: 50},
		},
	}
}

// =============================================================================
// BoltStore Tests
// =============================================================================

func TestBoltStore_NewAndClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	if store == nil {
		t.Fatal("NewBoltStore returned nil")
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestBoltStore_WriteAndLoadLatest(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewBoltStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer store.Close()

	run := sampleRun()
	if err := store.WriteRun(run.SiteID, run); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	loaded, err := store.LoadLatest(run.SiteID)
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadLatest() returned nil")
	}
	if loaded.RunID != run.RunID {
		t.Errorf("RunID = %v, want %v", loaded.RunID, run.RunID)
	}
	if loaded.PagesAnalyzed != run.PagesAnalyzed {
		t.Errorf("PagesAnalyzed = %d, want %d", loaded.PagesAnalyzed, run.PagesAnalyzed)
	}
}

func TestBoltStore_WriteTwiceUpdatesLatest(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewBoltStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer store.Close()

	first := sampleRun()
	second := sampleRun()
	second.SiteID = first.SiteID

	if err := store.WriteRun(first.SiteID, first); err != nil {
		t.Fatalf("WriteRun(first) error = %v", err)
	}
	if err := store.WriteRun(second.SiteID, second); err != nil {
		t.Fatalf("WriteRun(second) error = %v", err)
	}

	loaded, err := store.LoadLatest(first.SiteID)
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded.RunID != second.RunID {
		t.Errorf("LoadLatest() returned run %v, want the second write %v", loaded.RunID, second.RunID)
	}

	// The first run is still retrievable directly by RunID.
	firstLoaded, err := store.LoadRun(first.RunID.String())
	if err != nil {
		t.Fatalf("LoadRun(first) error = %v", err)
	}
	if firstLoaded == nil {
		t.Fatal("LoadRun(first) returned nil")
	}
}

func TestBoltStore_LoadEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewBoltStore(filepath.Join(tmpDir, "empty.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer store.Close()

	run, err := store.LoadLatest(999)
	if err != nil {
		t.Errorf("LoadLatest() error = %v", err)
	}
	if run != nil {
		t.Error("LoadLatest() from empty store should return nil")
	}
}

// =============================================================================
// FileStore Tests
// =============================================================================

func TestFileStore_WriteAndLoadLatest(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore(tmpDir, false)

	run := sampleRun()
	if err := store.WriteRun(run.SiteID, run); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	loaded, err := store.LoadLatest(run.SiteID)
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadLatest() returned nil")
	}
	if loaded.RunID != run.RunID {
		t.Errorf("RunID = %v, want %v", loaded.RunID, run.RunID)
	}
}

func TestFileStore_LoadNonExistent(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore(tmpDir, false)

	run, err := store.LoadLatest(123)
	if err != nil {
		t.Errorf("LoadLatest() error = %v", err)
	}
	if run != nil {
		t.Error("LoadLatest() for an unwritten site should return nil")
	}
}

func TestFileStore_Compressed(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore(tmpDir, true)

	run := sampleRun()
	if err := store.WriteRun(run.SiteID, run); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	if _, err := os.Stat(store.runPath(run.RunID.String())); os.IsNotExist(err) {
		t.Error("compressed run file was not created")
	}

	loaded, err := store.LoadLatest(run.SiteID)
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded.RunID != run.RunID {
		t.Errorf("RunID = %v, want %v", loaded.RunID, run.RunID)
	}
}

func TestFileStore_Close(t *testing.T) {
	store := NewFileStore(t.TempDir(), false)
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// MemoryStore Tests
// =============================================================================

func TestMemoryStore_WriteAndLoadLatest(t *testing.T) {
	store := NewMemoryStore()
	run := sampleRun()

	if err := store.WriteRun(run.SiteID, run); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	loaded, err := store.LoadLatest(run.SiteID)
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded != run {
		t.Error("LoadLatest() should return the same pointer")
	}
}

func TestMemoryStore_LoadEmpty(t *testing.T) {
	store := NewMemoryStore()

	run, err := store.LoadLatest(1)
	if err != nil {
		t.Errorf("LoadLatest() error = %v", err)
	}
	if run != nil {
		t.Error("LoadLatest() from empty store should return nil")
	}
}

func TestMemoryStore_LoadRun(t *testing.T) {
	store := NewMemoryStore()
	run := sampleRun()

	if err := store.WriteRun(run.SiteID, run); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	loaded, err := store.LoadRun(run.RunID.String())
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if loaded != run {
		t.Error("LoadRun() should return the same pointer")
	}
}

func TestMemoryStore_Close(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// Store interface satisfies cannibalization.ResultSink
// =============================================================================

func TestMemoryStore_SatisfiesResultSink(t *testing.T) {
	var _ cannibalization.ResultSink = NewMemoryStore()
}
