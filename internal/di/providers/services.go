package providers

import (
	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/auth"
	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/logger"
	"github.com/smakiapp/smaki-server/internal/media/images"
	"github.com/smakiapp/smaki-server/internal/service"
	"github.com/smakiapp/smaki-server/internal/validation"
)

// ProvideCatalogService provides the flavor catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	photos := do.MustInvoke[*images.Storage](i)
	processor := do.MustInvoke[*images.Processor](i)
	clock := do.MustInvoke[domain.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(service.CatalogConfig{
		Store:     storeHandle.Store,
		Validator: validation.New(),
		Index:     index.FlavorIndex,
		Photos:    photos,
		Processor: processor,
		Events:    sseHandle.Manager,
		Clock:     clock,
		Logger:    log.Logger,
	}), nil
}

// ProvideSelectionService provides the daily selection service.
func ProvideSelectionService(i do.Injector) (*service.SelectionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clock := do.MustInvoke[domain.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSelectionService(storeHandle.Store, sseHandle.Manager, clock, log.Logger), nil
}

// ProvidePublicService provides the public menu resolver.
func ProvidePublicService(i do.Injector) (*service.PublicService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[domain.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPublicService(storeHandle.Store, clock, log.Logger), nil
}

// ProvideAuthService provides staff authentication.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	account := service.StaffAccount{
		Username:     cfg.Auth.StaffUsername,
		PasswordHash: cfg.Auth.StaffPasswordHash,
	}
	return service.NewAuthService(account, tokens, limiter.KeyedRateLimiter, log.Logger), nil
}

// ProvideDashboardService provides the staff dashboard.
func ProvideDashboardService(i do.Injector) (*service.DashboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	public := do.MustInvoke[*service.PublicService](i)
	clock := do.MustInvoke[domain.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDashboardService(storeHandle.Store, public, clock, log.Logger), nil
}
