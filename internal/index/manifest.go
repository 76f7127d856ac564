package index

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/sha1n/docscan/internal/domain"
	"github.com/sha1n/docscan/internal/report"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the default manifest filename
	ManifestFilename = "jobs.json"
)

// Manifest records the jobs whose matches are in the index.
type Manifest struct {
	Version int                 `json:"version"`
	JobMap  map[string]JobEntry `json:"jobs"`
	mu      sync.RWMutex        `json:"-"`
}

// JobEntry describes one indexed job.
type JobEntry struct {
	ID               string    `json:"id"`
	Root             string    `json:"root"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	FilesScanned     int       `json:"files_scanned"`
	FilesWithMatches int       `json:"files_with_matches"`
	TotalMatches     int       `json:"total_matches"`
	Terms            []string  `json:"terms"`
	Canceled         bool      `json:"canceled,omitempty"`
	IndexedAt        time.Time `json:"indexed_at"`
	DocCount         int       `json:"doc_count"`
}

// NewJobEntry describes a finished job from its summary.
func NewJobEntry(id, root string, s domain.JobSummary, canceled bool) JobEntry {
	return JobEntry{
		ID:               id,
		Root:             root,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		FilesScanned:     s.FilesScanned,
		FilesWithMatches: s.FilesWithMatches,
		TotalMatches:     s.TotalMatches,
		Terms:            s.Terms,
		Canceled:         canceled,
	}
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		JobMap:  make(map[string]JobEntry),
	}
}

// LoadManifest reads a manifest from disk, or creates a new one if it doesn't exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.JobMap == nil {
		manifest.JobMap = make(map[string]JobEntry)
	}

	return &manifest, nil
}

// Save writes the manifest to disk atomically.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := report.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// SetJob adds or replaces a job entry.
func (m *Manifest) SetJob(job JobEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JobMap[job.ID] = job
}

// Job returns the entry of a job.
func (m *Manifest) Job(id string) (JobEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.JobMap[id]
	return job, ok
}

// RemoveJob removes a job entry.
func (m *Manifest) RemoveJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.JobMap, id)
}

// Jobs returns all entries ordered by start time, then ID.
func (m *Manifest) Jobs() []JobEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]JobEntry, 0, len(m.JobMap))
	for _, job := range m.JobMap {
		jobs = append(jobs, job)
	}
	slices.SortFunc(jobs, func(a, b JobEntry) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return jobs
}
