package api

import (
	"github.com/smakiapp/smaki-server/internal/media/images"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Catalog   *service.CatalogService
	Selection *service.SelectionService
	Public    *service.PublicService
	Auth      *service.AuthService
	Dashboard *service.DashboardService
}

// StorageServices groups file-backed collaborators.
type StorageServices struct {
	Photos *images.Storage     // Flavor photos, served under /media
	Index  *search.FlavorIndex // Nil when search is disabled
}
