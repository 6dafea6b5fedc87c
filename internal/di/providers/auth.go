package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/smakiapp/smaki-server/internal/auth"
	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/logger"
	"github.com/smakiapp/smaki-server/internal/ratelimit"
)

// loginLimiterIdleTTL is how long an idle client's bucket is kept.
const loginLimiterIdleTTL = 15 * time.Minute

// ProvideTokenService provides the PASETO token service, loading or creating
// the key under the data path.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded", "access_token_duration", cfg.Auth.AccessTokenDuration)
	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration), nil
}

// LoginLimiterHandle wraps the login rate limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the per-client login rate limiter.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	perMinute := cfg.Auth.LoginPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &LoginLimiterHandle{
		KeyedRateLimiter: ratelimit.New(perMinute, perMinute, loginLimiterIdleTTL),
	}, nil
}
