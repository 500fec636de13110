package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

// AccountAPI is the unauthenticated half of the remote user API.
type AccountAPI interface {
	RegisterUser(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error)
}

// AuthService opens and closes sessions against the remote API.
type AuthService struct {
	api AccountAPI
}

func NewAuthService(api AccountAPI) *AuthService {
	return &AuthService{api: api}
}

// Login exchanges credentials for a token pair and stores it in tokens.
func (s *AuthService) Login(ctx context.Context, tokens session.TokenStore, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return apierror.New(apierror.CodeRequestFailed, "email and password are required", "", http.StatusBadRequest)
	}

	pair, err := s.api.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := tokens.SaveTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		return nil, apierror.New(apierror.CodeRequestFailed, "name, email and password are required", "", http.StatusBadRequest)
	}
	return s.api.RegisterUser(ctx, req)
}

// Logout drops the stored tokens. The remote API keeps no session to end.
func (s *AuthService) Logout(ctx context.Context, tokens session.TokenStore) error {
	return tokens.ClearTokens(ctx)
}
