package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/pkg/apierror"
)

const (
	PathUsers       = "/api/v1/usuario"
	PathLogin       = "/api/v1/usuario/login"
	PathCurrentUser = "/api/v1/usuario/me"
	PathAnimals     = "/api/v1/animais"
)

const (
	msgRegisterFailed    = "error registering user"
	msgLoginFailed       = "invalid credentials"
	msgSessionExpired    = "session expired, please log in again"
	msgUserFetchFailed   = "error fetching user data"
	msgAnimalsFailed     = "error fetching animals"
	msgCreateFailed      = "error creating animal"
	msgUpdateFailed      = "error updating animal"
	msgDeleteFailed      = "error deleting animal"
	msgMalformedResponse = "unexpected response from server"
)

func AnimalPath(id string) string {
	return PathAnimals + "/" + url.PathEscape(id)
}

func (c *Client) RegisterUser(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathUsers, req, nil)
	if err != nil {
		return nil, unreachable("register", err, msgRegisterFailed)
	}
	if !resp.IsSuccess() {
		return nil, serverFailure("register", resp, msgRegisterFailed)
	}

	// The created user is informational only. A 2xx whose body does not fit
	// model.User still means the account exists.
	var user model.User
	if err := decode(resp, &user); err != nil {
		slog.Debug("register response did not decode as a user",
			"status", resp.StatusCode,
			"error", err,
		)
		user = model.User{Name: req.Name, Email: req.Email}
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathLogin, req, nil)
	if err != nil {
		return nil, unreachable("login", err, msgLoginFailed)
	}
	if !resp.IsSuccess() {
		return nil, serverFailure("login", resp, msgLoginFailed)
	}

	var pair model.TokenPair
	if err := decode(resp, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, apierror.New(apierror.CodeRequestFailed, msgLoginFailed, "response carried no access token", resp.StatusCode)
	}
	return &pair, nil
}

// CurrentUser looks up the owner of the stored access token. A 401 clears the
// bound token store and yields SESSION_EXPIRED.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	resp, err := c.DoWithAuth(ctx, http.MethodGet, PathCurrentUser, nil, nil)
	if err != nil {
		return nil, unreachable("current user", err, msgUserFetchFailed)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if clearErr := c.tokens.ClearTokens(ctx); clearErr != nil {
			slog.Error("failed to clear tokens after 401", "error", clearErr)
		}
		slog.Warn("upstream rejected access token", "op", "current user")
		return nil, apierror.New(apierror.CodeSessionExpired, msgSessionExpired, "", http.StatusUnauthorized)
	}
	if !resp.IsSuccess() {
		return nil, fixedFailure("current user", resp, msgUserFetchFailed)
	}

	var user model.User
	if err := decode(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListAnimals(ctx context.Context) ([]model.Animal, error) {
	resp, err := c.Do(ctx, http.MethodGet, PathAnimals, nil, nil)
	if err != nil {
		return nil, unreachable("list animals", err, msgAnimalsFailed)
	}
	if !resp.IsSuccess() {
		return nil, fixedFailure("list animals", resp, msgAnimalsFailed)
	}

	animals := []model.Animal{}
	if err := decode(resp, &animals); err != nil {
		return nil, err
	}
	return animals, nil
}

func (c *Client) ListAvailableAnimals(ctx context.Context) ([]model.Animal, error) {
	animals, err := c.ListAnimals(ctx)
	if err != nil {
		return nil, err
	}
	available, _ := model.PartitionByAdoption(animals)
	return available, nil
}

func (c *Client) ListAdoptedAnimals(ctx context.Context) ([]model.Animal, error) {
	animals, err := c.ListAnimals(ctx)
	if err != nil {
		return nil, err
	}
	_, adopted := model.PartitionByAdoption(animals)
	return adopted, nil
}

func (c *Client) CreateAnimal(ctx context.Context, req model.CreateAnimalRequest) (*model.Animal, error) {
	resp, err := c.DoWithAuth(ctx, http.MethodPost, PathAnimals, req, nil)
	if err != nil {
		return nil, unreachable("create animal", err, msgCreateFailed)
	}
	if !resp.IsSuccess() {
		return nil, serverFailure("create animal", resp, msgCreateFailed)
	}

	var animal model.Animal
	if err := decode(resp, &animal); err != nil {
		return nil, err
	}
	return &animal, nil
}

func (c *Client) UpdateAnimal(ctx context.Context, id string, req model.UpdateAnimalRequest) (*model.Animal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("update animal: %w", model.ErrInvalidInput)
	}

	resp, err := c.DoWithAuth(ctx, http.MethodPatch, AnimalPath(id), req, nil)
	if err != nil {
		return nil, unreachable("update animal", err, msgUpdateFailed)
	}
	if !resp.IsSuccess() {
		return nil, serverFailure("update animal", resp, msgUpdateFailed)
	}

	var animal model.Animal
	if err := decode(resp, &animal); err != nil {
		return nil, err
	}
	return &animal, nil
}

func (c *Client) DeleteAnimal(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete animal: %w", model.ErrInvalidInput)
	}

	resp, err := c.DoWithAuth(ctx, http.MethodDelete, AnimalPath(id), nil, nil)
	if err != nil {
		return unreachable("delete animal", err, msgDeleteFailed)
	}
	if !resp.IsSuccess() {
		return serverFailure("delete animal", resp, msgDeleteFailed)
	}
	return nil
}

// unreachable passes coded errors through and turns transport failures into
// UNREACHABLE carrying the operation's fallback message.
func unreachable(op string, err error, fallback string) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	slog.Warn("upstream unreachable", "op", op, "error", err)
	return apierror.New(apierror.CodeUnreachable, fallback, err.Error(), http.StatusBadGateway)
}

// serverFailure prefers the "message" field of the error body.
func serverFailure(op string, resp *Response, fallback string) error {
	message := fallback
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		message = body.Message
	}

	slog.Warn("upstream request failed", "op", op, "status", resp.StatusCode)
	return apierror.New(apierror.CodeRequestFailed, message, fmt.Sprintf("status %d", resp.StatusCode), resp.StatusCode)
}

// fixedFailure ignores the body; the lookups always report their own message.
func fixedFailure(op string, resp *Response, message string) error {
	slog.Warn("upstream request failed", "op", op, "status", resp.StatusCode)
	return apierror.New(apierror.CodeRequestFailed, message, fmt.Sprintf("status %d", resp.StatusCode), resp.StatusCode)
}

func decode(resp *Response, out any) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apierror.New(apierror.CodeRequestFailed, msgMalformedResponse, err.Error(), resp.StatusCode)
	}
	return nil
}
