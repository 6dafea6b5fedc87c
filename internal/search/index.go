package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// FlavorIndex wraps a Bleve index of the flavor catalog.
//
// All methods are safe for concurrent use. The mutex keeps readers out
// while Rebuild swaps the underlying index.
type FlavorIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses the default logger if nil
}

// mappingVersion is bumped whenever the mapping changes; a mismatch on
// startup drops the index so the caller reindexes from the store.
const mappingVersion = "1"

const batchSize = 500

// Open creates or opens the flavor index under opts.DataPath.
// A corrupted index or one built with an older mapping is removed and
// recreated empty, and the returned flag reports that the caller must reindex.
func Open(opts Options) (*FlavorIndex, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	indexPath := filepath.Join(opts.DataPath, "flavors.bleve")
	versionPath := filepath.Join(opts.DataPath, "flavors.version")

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, err := os.Stat(indexPath); err == nil {
		indexExists = true
	}

	if indexExists {
		existing, err := os.ReadFile(versionPath)
		switch {
		case err != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, false, fmt.Errorf("remove old index: %w", err)
		}
	}

	fresh := index == nil
	if fresh {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, false, fmt.Errorf("create index dir: %w", err)
		}
		indexMapping, err := buildIndexMapping()
		if err != nil {
			return nil, false, fmt.Errorf("build mapping: %w", err)
		}
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, false, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &FlavorIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, fresh, nil
}

// Close closes the index and releases resources.
func (s *FlavorIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexFlavor adds or replaces a single flavor.
func (s *FlavorIndex) IndexFlavor(f *domain.Flavor) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FlavorToDocument(f)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexFlavors indexes flavors in batches.
func (s *FlavorIndex) IndexFlavors(flavors []domain.Flavor) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(flavors)
}

func (s *FlavorIndex) indexLocked(flavors []domain.Flavor) error {
	for i := 0; i < len(flavors); i += batchSize {
		end := min(i+batchSize, len(flavors))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			doc := FlavorToDocument(&flavors[j])
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteFlavor removes a flavor from the index.
func (s *FlavorIndex) DeleteFlavor(id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(DocID(id))
}

// DocumentCount returns the number of indexed flavors.
func (s *FlavorIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and reindexes flavors. Searches block until it
// finishes.
func (s *FlavorIndex) Rebuild(flavors []domain.Flavor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	indexMapping, err := buildIndexMapping()
	if err != nil {
		return fmt.Errorf("build mapping: %w", err)
	}
	index, err := bleve.New(s.path, indexMapping)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if err := s.indexLocked(flavors); err != nil {
		return err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "flavors", len(flavors))
	return nil
}
