package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/docshelf/docshelf-server/internal/config"
	"github.com/docshelf/docshelf-server/internal/logger"
	"github.com/docshelf/docshelf-server/internal/search"
	"github.com/docshelf/docshelf-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
	// Created is true when the index was built fresh on this start.
	Created bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, created, err := search.Open(search.Options{
		DataPath: filepath.Join(cfg.Storage.DataDir, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "documents", docCount, "created", created)

	return &SearchIndexHandle{Index: index, Created: created}, nil
}

// TriggerSearchReindexIfNeeded rebuilds a freshly created index from the store.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	documents := do.MustInvoke[*service.DocumentService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !indexHandle.Created {
		return
	}

	log = log.WithField("component", "search")
	log.Info("Search index is new, triggering initial reindex")

	go func() {
		if err := documents.Reindex(context.Background()); err != nil {
			log.WithError(err).Error("Initial search reindex failed")
			return
		}
		count, _ := indexHandle.Count()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
