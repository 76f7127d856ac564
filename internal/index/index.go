// Package index keeps the matches of finished jobs in a Bleve index so they
// can be searched later without rescanning the documents.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/gofrs/flock"

	"github.com/sha1n/docscan/internal/domain"
)

const (
	// IndexName is the directory name of the match index inside the index dir
	IndexName = "matches.bleve"

	// LockName is the lock file guarding index writes
	LockName = ".index.lock"

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 500

	// DefaultLockTimeout bounds how long a writer waits for another writer
	DefaultLockTimeout = 30 * time.Second
)

var (
	// ErrIndexNotFound indicates nothing has been indexed in the index dir yet
	ErrIndexNotFound = errors.New("match index not found")

	// ErrLockTimeout indicates the index write lock could not be acquired in time
	ErrLockTimeout = errors.New("index lock acquisition timed out")
)

// Indexer writes job matches to the index in dir and records each job in the
// jobs manifest next to it.
type Indexer struct {
	dir         string
	lockTimeout time.Duration
}

// NewIndexer creates an indexer rooted at dir.
func NewIndexer(dir string) *Indexer {
	return &Indexer{
		dir:         dir,
		lockTimeout: DefaultLockTimeout,
	}
}

// Dir returns the index directory.
func (i *Indexer) Dir() string {
	return i.dir
}

// Path returns the path of the Bleve index.
func (i *Indexer) Path() string {
	return filepath.Join(i.dir, IndexName)
}

// ManifestPath returns the path of the jobs manifest.
func (i *Indexer) ManifestPath() string {
	return filepath.Join(i.dir, ManifestFilename)
}

// Exists reports whether the index has been created.
func (i *Indexer) Exists() bool {
	_, err := os.Stat(i.Path())
	return err == nil
}

// CreateIndexMapping creates the Bleve index mapping for match documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Context - analyzed for full-text search, stored for snippets
	contextField := bleve.NewTextFieldMapping()
	contextField.Analyzer = standard.Name
	contextField.Store = true
	contextField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.MatchFieldContext, contextField)

	matchedField := bleve.NewTextFieldMapping()
	matchedField.Analyzer = standard.Name
	matchedField.Store = true
	docMapping.AddFieldMappingsAt(domain.MatchFieldMatchedText, matchedField)

	// Filters - keyword, stored
	for _, name := range []string{
		domain.MatchFieldJobID,
		domain.MatchFieldTerm,
		domain.MatchFieldFilePath,
		domain.MatchFieldFileName,
	} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	for _, name := range []string{domain.MatchFieldPageNumber, domain.MatchFieldPosition} {
		field := bleve.NewNumericFieldMapping()
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.MatchFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// openForWrite opens or creates the index for writing.
func (i *Indexer) openForWrite() (bleve.Index, error) {
	idx, err := bleve.Open(i.Path())
	if err == nil {
		return idx, nil
	}

	idx, err = bleve.New(i.Path(), CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return idx, nil
}

// openForRead opens the existing index for reading.
func (i *Indexer) openForRead() (bleve.Index, error) {
	if !i.Exists() {
		return nil, ErrIndexNotFound
	}
	idx, err := bleve.Open(i.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// lock takes the index write lock, waiting up to the lock timeout.
func (i *Indexer) lock(ctx context.Context) (*flock.Flock, error) {
	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, i.lockTimeout)
	defer cancel()

	fl := flock.New(filepath.Join(i.dir, LockName))
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}
	return fl, nil
}

// DocumentID returns the index document ID of the seq-th match of a job.
func DocumentID(jobID string, seq int) string {
	return jobID + "/" + strconv.Itoa(seq)
}

// IndexJob adds every match of a finished job to the index and records the job
// in the manifest. Returns the number of documents indexed.
func (i *Indexer) IndexJob(ctx context.Context, job JobEntry, results domain.ResultSet) (count int, err error) {
	if job.ID == "" {
		return 0, errors.New("job ID is required")
	}

	fl, err := i.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = fl.Unlock() }()

	idx, err := i.openForWrite()
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := idx.NewBatch()
	for seq, m := range results.Matches {
		doc := domain.NewMatchDocument(DocumentID(job.ID, seq), job.ID, m)
		if err := batch.Index(doc.ID, doc); err != nil {
			return count, fmt.Errorf("failed to index match %s: %w", doc.ID, err)
		}

		if batch.Size() >= MaxBatchSize {
			if err := idx.Batch(batch); err != nil {
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batch.Size()
			batch.Reset()
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batch.Size()
	}

	manifest, err := LoadManifest(i.ManifestPath())
	if err != nil {
		return count, err
	}
	job.IndexedAt = time.Now()
	job.DocCount = count
	manifest.SetJob(job)
	if err := manifest.Save(i.ManifestPath()); err != nil {
		return count, err
	}

	return count, nil
}

// DocCount returns the number of documents in the index.
func (i *Indexer) DocCount() (count uint64, err error) {
	idx, err := i.openForRead()
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return idx.DocCount()
}

// Jobs returns the indexed jobs, oldest first.
func (i *Indexer) Jobs() ([]JobEntry, error) {
	manifest, err := LoadManifest(i.ManifestPath())
	if err != nil {
		return nil, err
	}
	return manifest.Jobs(), nil
}
