// Package providers contains dependency injection providers for the shop server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Smaki server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"store_backend", cfg.Storage.Backend,
		"timezone", cfg.Shop.Timezone,
	)

	return log, nil
}

// ProvideClock provides the shop calendar.
func ProvideClock(i do.Injector) (domain.Clock, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return domain.NewClock(cfg.Shop.Location), nil
}
