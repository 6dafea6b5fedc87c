package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/id"
)

const (
	tokenIssuer   = "smaki-server"
	tokenAudience = "smaki-staff"

	// RoleStaff is the only role; the shop has a single staff account.
	RoleStaff = "staff"
)

// Claims are the decrypted contents of an access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// TokenService issues PASETO v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(key paseto.V4SymmetricKey, duration time.Duration) *TokenService {
	return &TokenService{key: key, duration: duration, now: time.Now}
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Issue creates a token for username and returns it with its expiry.
func (s *TokenService) Issue(username string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(username)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Set only fails for values that cannot be marshaled
	_ = token.Set("username", username)
	//nolint:errcheck
	_ = token.Set("role", RoleStaff)

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify decrypts a token and checks its claims. Expired tokens yield a
// TOKEN_EXPIRED error, anything else UNAUTHORIZED.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}
	if claims.Role != RoleStaff {
		return nil, domainerrors.Unauthorized("invalid token")
	}
	if !s.now().Before(claims.Expiration) {
		return nil, domainerrors.TokenExpired("token expired")
	}
	return &claims, nil
}
