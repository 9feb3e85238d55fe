package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/menav/internal/search"
)

// Snapshot is the searchable state of one build.
type Snapshot struct {
	Hash    string          `json:"hash"`
	BuiltAt time.Time       `json:"built_at"`
	Layers  []string        `json:"layers"`
	Files   []string        `json:"files"`
	Records []search.Record `json:"records"`
}

// MemoryIndex holds the search records of the last successful build.
// It is replaced as a whole on every build and read by the HTTP handlers.
type MemoryIndex struct {
	mu         sync.RWMutex
	snap       Snapshot
	search     *search.Index
	lastReload time.Time // Timestamp of the last Update
	ready      bool
}

// NewMemoryIndex creates an empty, not-ready index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{search: search.NewIndex()}
}

// Update replaces the snapshot. The records are copied so the caller may
// keep using its slice.
func (idx *MemoryIndex) Update(snap Snapshot) {
	records := make([]search.Record, len(snap.Records))
	copy(records, snap.Records)
	snap.Records = records
	ix := search.FromRecords(records)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snap = snap
	idx.search = ix
	idx.lastReload = time.Now()
	idx.ready = true
}

// View is the index and hash of one build, read together so a concurrent
// Update cannot pair the records of one build with the hash of another.
type View struct {
	Hash  string
	index *search.Index
}

// View returns the current build's view.
func (idx *MemoryIndex) View() View {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return View{Hash: idx.snap.Hash, index: idx.search}
}

// Search matches term against the records of the view.
func (v View) Search(term string) search.Result {
	groups := v.index.Match(term)
	if groups == nil {
		groups = []search.Group{}
	}
	return search.Result{
		Term:   term,
		Total:  search.Total(groups),
		Groups: groups,
	}
}

// Search matches term against the current records.
func (idx *MemoryIndex) Search(term string) search.Result {
	return idx.View().Search(term)
}

// Snapshot returns the current snapshot.
func (idx *MemoryIndex) Snapshot() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.snap
}

// Hash returns the content hash of the indexed build, "" before the first one.
func (idx *MemoryIndex) Hash() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.snap.Hash
}

// Ready reports whether at least one snapshot was loaded.
func (idx *MemoryIndex) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.ready
}

// Count returns the number of indexed cards
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.snap.Records)
}

// GetLastReload returns the timestamp of the last Update
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
