package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

const (
	LoginPath = "/login"

	msgAccessDenied      = "access denied: you are not allowed to view this page"
	msgPermissionFailure = "error verifying permissions, please log in again"
)

// UserLookup resolves the owner of the session's access token.
type UserLookup interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

type Requirement int

const (
	RequireAuth Requirement = iota
	RequireAdmin
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateUnknownRole     State = "authenticated_unknown_role"
	StateRegular         State = "authenticated_regular"
	StateAdmin           State = "authenticated_admin"
	StateSessionInvalid  State = "session_invalid"
	StateSessionFailed   State = "session_failed"
)

// Decision is the outcome of one page-entry check.
type Decision struct {
	State State
	User  *model.User
	// Message is shown to the visitor for SessionInvalid and SessionFailed.
	Message       string
	Redirect      string
	RedirectAfter time.Duration
	Err           error
}

// Allowed reports whether the page may render its protected content.
func (d Decision) Allowed() bool {
	return d.State == StateRegular || d.State == StateAdmin
}

type AuthGate struct {
	redirectDelay time.Duration
}

func NewAuthGate(redirectDelay time.Duration) *AuthGate {
	return &AuthGate{redirectDelay: redirectDelay}
}

// Check classifies the visitor once per page entry. Without a stored access
// token it redirects immediately and makes no network call. A failed lookup
// clears the session and schedules a delayed redirect to the login page.
func (g *AuthGate) Check(ctx context.Context, tokens session.TokenStore, users UserLookup, req Requirement) Decision {
	if !tokens.IsAuthenticated(ctx) {
		return Decision{State: StateUnauthenticated, Redirect: LoginPath}
	}

	// StateUnknownRole holds only while the lookup below is in flight.
	user, err := users.CurrentUser(ctx)
	if err != nil {
		if clearErr := tokens.ClearTokens(ctx); clearErr != nil {
			slog.Error("failed to clear session after lookup failure", "error", clearErr)
		}

		message := apierror.MessageOf(err, msgPermissionFailure)
		slog.Warn("session check failed", "error", err)
		return Decision{
			State:         StateSessionFailed,
			Message:       message,
			Redirect:      LoginPath + "?message=" + url.QueryEscape(message),
			RedirectAfter: g.redirectDelay,
			Err:           err,
		}
	}

	if user.IsAdmin() {
		return Decision{State: StateAdmin, User: user}
	}
	if req == RequireAdmin {
		return Decision{State: StateSessionInvalid, User: user, Message: msgAccessDenied}
	}
	return Decision{State: StateRegular, User: user}
}

// CheckAdminPermission returns the current user when they are an
// administrator and nil for a regular user. Lookup failures are returned.
func (g *AuthGate) CheckAdminPermission(ctx context.Context, users UserLookup) (*model.User, error) {
	user, err := users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, nil
	}
	return user, nil
}
