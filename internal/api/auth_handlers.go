package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Staff login",
		Description: "Checks the staff credentials and returns an access token. Attempts are rate limited per client address.",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current staff user",
		Description: "Returns the user the bearer token belongs to",
		Tags:        []string{"Authentication"},
		Security:    staffSecurity,
	}, s.handleMe)
}

// LoginRequest is the request body for staff login.
type LoginRequest struct {
	Username string `json:"username" minLength:"1" maxLength:"100" doc:"Staff username"`
	Password string `json:"password" minLength:"1" maxLength:"1024" doc:"Staff password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// LoginResponse contains the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token" doc:"PASETO bearer token"`
	ExpiresAt   time.Time `json:"expires_at" doc:"When the token stops being accepted"`
	Username    string    `json:"username" doc:"Authenticated staff username"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

// MeResponse identifies the authenticated staff user.
type MeResponse struct {
	Username string `json:"username" doc:"Staff username"`
}

// MeOutput wraps the me response for Huma.
type MeOutput struct {
	Body MeResponse
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	res, err := s.services.Auth.Login(ctx, input.Body.Username, input.Body.Password, ClientIP(ctx))
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Body: LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		Username:    res.Username,
	}}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Body: MeResponse{Username: actor.Username}}, nil
}
