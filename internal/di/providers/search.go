package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/logger"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.FlavorIndex
	needsRebuild bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve flavor index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, needsRebuild, err := search.Open(search.Options{
		DataPath: cfg.SearchIndexPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "needs_rebuild", needsRebuild)

	return &SearchIndexHandle{FlavorIndex: index, needsRebuild: needsRebuild}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// was recreated or is empty while the catalog is not.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	index := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	if !index.needsRebuild {
		docCount, _ := index.DocumentCount()
		if docCount > 0 {
			return
		}
		flavors, err := storeHandle.ListFlavors(ctx, "")
		if err != nil || len(flavors) == 0 {
			return
		}
	}

	log.Info("Rebuilding search index from the catalog")
	go func() {
		if err := catalog.Reindex(ctx); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		docCount, _ := index.DocumentCount()
		log.Info("Search reindex complete", "documents", docCount)
	}()
}
