package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/logger"
	"github.com/smakiapp/smaki-server/internal/media/images"
)

// ProvidePhotoStorage provides storage for flavor photos.
func ProvidePhotoStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	photos, err := images.NewStorage(cfg.PhotosPath())
	if err != nil {
		return nil, fmt.Errorf("photo storage: %w", err)
	}

	log.Info("Photo storage initialized", "path", photos.Root())
	return photos, nil
}

// ProvideImageProcessor provides the photo resizer.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(cfg.Photos.MaxDimension, cfg.Photos.Quality, log.Logger), nil
}
