package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/smakiapp/smaki-server/internal/auth"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/metrics"
	"github.com/smakiapp/smaki-server/internal/ratelimit"
)

// StaffAccount is the single configured staff login.
type StaffAccount struct {
	Username     string
	PasswordHash string // argon2id, PHC format
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Username    string
}

// AuthService handles staff login and token verification.
type AuthService struct {
	account StaffAccount
	tokens  *auth.TokenService
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewAuthService creates an auth service. limiter may be nil to disable
// login throttling.
func NewAuthService(account StaffAccount, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *AuthService {
	logger = orDiscard(logger)
	if account.PasswordHash == "" {
		logger.Warn("no staff password configured, staff login is disabled")
	} else if !auth.ValidHash(account.PasswordHash) {
		logger.Error("staff password hash is malformed, staff login will fail")
	}
	return &AuthService{account: account, tokens: tokens, limiter: limiter, logger: logger}
}

// Login checks credentials and issues an access token. clientKey (usually
// the remote IP) is the rate limiting key.
func (s *AuthService) Login(ctx context.Context, username, password, clientKey string) (*LoginResult, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
		s.logger.Warn("login rate limited", "client", clientKey)
		return nil, domainerrors.ErrTooManyRequests
	}

	if !s.checkCredentials(username, password) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.logger.Info("login failed", "username", username, "client", clientKey)
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	token, expires, err := s.tokens.Issue(s.account.Username)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue token")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("staff logged in", "username", s.account.Username, "client", clientKey)
	return &LoginResult{AccessToken: token, ExpiresAt: expires, Username: s.account.Username}, nil
}

func (s *AuthService) checkCredentials(username, password string) bool {
	if s.account.PasswordHash == "" || username == "" || password == "" {
		return false
	}
	// Hash even for a wrong username so both failures take as long.
	ok, err := auth.VerifyPassword(s.account.PasswordHash, password)
	if err != nil {
		s.logger.Error("cannot verify staff password", "error", err)
		return false
	}
	sameUser := subtle.ConstantTimeCompare([]byte(username), []byte(s.account.Username)) == 1
	return ok && sameUser
}

// Authenticate verifies a bearer token and returns the actor it names.
func (s *AuthService) Authenticate(_ context.Context, token string) (Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Actor{}, err
	}
	return Actor{Username: claims.Username}, nil
}
