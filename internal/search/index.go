package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index with document operations.
//
// All methods are safe for concurrent use. A rebuild fills a new index on the
// side while the current one keeps serving, and takes the write lock only to
// swap them.
type Index struct {
	index  bleve.Index
	path   string // empty for in-memory indexes
	logger *slog.Logger
	mu     sync.RWMutex

	// Writes made while a rebuild runs, replayed onto the new index.
	journalMu sync.Mutex
	journal   []journalOp
	recording bool
}

// journalOp is one recorded write. A nil entry is a delete.
type journalOp struct {
	id    string
	entry *Entry
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion changes whenever buildIndexMapping changes. A mismatch on
// startup drops the on-disk index so it can be rebuilt from the store.
const mappingVersion = "1"

// Open opens the index under opts.DataPath, creating it when missing and
// recreating it when it is unreadable or was built with another mapping.
// The returned bool reports whether the index was freshly created and needs
// to be populated.
func Open(opts Options) (*Index, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.DataPath, 0o750); err != nil {
		return nil, false, fmt.Errorf("create index dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "documents.bleve")
	versionPath := filepath.Join(opts.DataPath, "documents.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		version, readErr := os.ReadFile(versionPath) //#nosec G304 -- path built from configured data dir
		switch {
		case readErr != nil || string(version) != mappingVersion:
			logger.Info("search index mapping changed, recreating",
				"old_version", string(version),
				"new_version", mappingVersion,
			)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	if index != nil {
		logger.Info("opened search index", "path", indexPath)
		return &Index{index: index, path: indexPath, logger: logger}, false, nil
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, false, fmt.Errorf("remove old index: %w", err)
	}
	index, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, false, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
		logger.Warn("failed to write search version file", "error", err)
	}
	logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)

	return &Index{index: index, path: indexPath, logger: logger}, true, nil
}

// NewMemOnly creates an index held entirely in memory.
func NewMemOnly(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Put indexes or reindexes a single entry.
func (s *Index) Put(e *Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.record(journalOp{id: e.ID, entry: e})
	return s.index.Index(e.ID, e.toMap())
}

// PutAll indexes entries in batches.
func (s *Index) PutAll(entries []*Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops := make([]journalOp, 0, len(entries))
	for _, e := range entries {
		ops = append(ops, journalOp{id: e.ID, entry: e})
	}
	s.record(ops...)

	return indexEntries(s.index, entries)
}

// Remove deletes an entry. Unknown ids are not an error.
func (s *Index) Remove(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.record(journalOp{id: id})
	return s.index.Delete(id)
}

// RemoveAll deletes several entries in one batch.
func (s *Index) RemoveAll(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		s.record(journalOp{id: id})
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// Count returns the number of indexed entries.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// RebuildFrom replaces the index contents with the entries returned by load.
// Writes made from the moment load is called are replayed onto the new index,
// so nothing indexed during the rebuild is lost. Searches keep using the old
// index until the swap. Rebuilds must not run concurrently.
func (s *Index) RebuildFrom(load func() ([]*Entry, error)) error {
	s.startRecording()

	entries, err := load()
	if err != nil {
		s.stopRecording()
		return fmt.Errorf("load entries: %w", err)
	}

	next, buildPath, err := s.newIndex()
	if err != nil {
		s.stopRecording()
		return err
	}
	discard := func() {
		_ = next.Close()
		if buildPath != "" {
			_ = os.RemoveAll(buildPath)
		}
	}

	if err := indexEntries(next, entries); err != nil {
		discard()
		s.stopRecording()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.stopRecording()
	if err := replay(next, journal); err != nil {
		discard()
		return err
	}

	if err := s.index.Close(); err != nil {
		s.logger.Warn("failed to close replaced search index", "error", err)
	}

	if buildPath != "" {
		if err := next.Close(); err != nil {
			_ = os.RemoveAll(buildPath)
			return fmt.Errorf("close rebuilt index: %w", err)
		}
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		if err := os.Rename(buildPath, s.path); err != nil {
			return fmt.Errorf("move rebuilt index: %w", err)
		}
		if next, err = bleve.Open(s.path); err != nil {
			return fmt.Errorf("open rebuilt index: %w", err)
		}
	}
	s.index = next

	s.logger.Info("rebuilt search index", "entries", len(entries), "replayed", len(journal))
	return nil
}

// newIndex creates an empty index to rebuild into. For on-disk indexes it
// lives next to the current one until the swap.
func (s *Index) newIndex() (bleve.Index, string, error) {
	if s.path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, "", fmt.Errorf("create index: %w", err)
		}
		return index, "", nil
	}

	buildPath := s.path + ".rebuild"
	if err := os.RemoveAll(buildPath); err != nil {
		return nil, "", fmt.Errorf("remove stale rebuild: %w", err)
	}
	index, err := bleve.New(buildPath, buildIndexMapping())
	if err != nil {
		return nil, "", fmt.Errorf("create index: %w", err)
	}
	return index, buildPath, nil
}

func (s *Index) startRecording() {
	s.journalMu.Lock()
	defer s.journalMu.Unlock()
	s.recording = true
	s.journal = nil
}

func (s *Index) stopRecording() []journalOp {
	s.journalMu.Lock()
	defer s.journalMu.Unlock()
	journal := s.journal
	s.recording = false
	s.journal = nil
	return journal
}

func (s *Index) record(ops ...journalOp) {
	s.journalMu.Lock()
	defer s.journalMu.Unlock()
	if s.recording {
		s.journal = append(s.journal, ops...)
	}
}

// indexEntries writes entries to index in batches of 500.
func indexEntries(index bleve.Index, entries []*Entry) error {
	const batchSize = 500

	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))

		batch := index.NewBatch()
		for _, e := range entries[i:end] {
			if err := batch.Index(e.ID, e.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", e.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// replay applies recorded writes in order.
func replay(index bleve.Index, ops []journalOp) error {
	for _, op := range ops {
		var err error
		if op.entry != nil {
			err = index.Index(op.id, op.entry.toMap())
		} else {
			err = index.Delete(op.id)
		}
		if err != nil {
			return fmt.Errorf("replay %s: %w", op.id, err)
		}
	}
	return nil
}
