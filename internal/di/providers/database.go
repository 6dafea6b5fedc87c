package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/logger"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
	"github.com/smakiapp/smaki-server/internal/store/badgerdb"
	"github.com/smakiapp/smaki-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the backend named in cfg. The CLI shares it with the server.
func OpenStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	path := cfg.DatabasePath()

	var (
		st  store.Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		st, err = badgerdb.Open(path, log.Logger)
	default:
		st, err = sqlite.Open(path, log.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", path)
	return st, nil
}
