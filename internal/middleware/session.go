package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-portal/internal/session"
)

type contextKey string

const tokensContextKey contextKey = "session_tokens"

// SessionMiddleware gives every browser an opaque session id cookie and puts a
// token store scoped to that id into the request context.
type SessionMiddleware struct {
	backend    session.Backend
	cookieName string
	secure     bool
	ttl        time.Duration
}

func NewSessionMiddleware(backend session.Backend, cookieName string, secure bool, ttl time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		backend:    backend,
		cookieName: cookieName,
		secure:     secure,
		ttl:        ttl,
	}
}

type sessionState struct {
	middleware *SessionMiddleware
	tokens     *session.Scoped
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = parsed.String()
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		m.setCookie(w, sessionID)

		state := &sessionState{middleware: m, tokens: session.NewScoped(m.backend, sessionID)}
		ctx := context.WithValue(r.Context(), tokensContextKey, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) setCookie(w http.ResponseWriter, sessionID string) {
	// A rotation in the same response replaces the cookie set on entry.
	header := w.Header()
	var kept []string
	for _, line := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(line, m.cookieName+"=") {
			kept = append(kept, line)
		}
	}
	header.Del("Set-Cookie")
	for _, line := range kept {
		header.Add("Set-Cookie", line)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokensFromContext returns the browser's token store set by SessionMiddleware.
func TokensFromContext(ctx context.Context) (*session.Scoped, bool) {
	state, ok := ctx.Value(tokensContextKey).(*sessionState)
	if !ok {
		return nil, false
	}
	return state.tokens, true
}

// RotateSession moves the browser to a fresh session id and drops whatever
// the old id held. Call it before storing credentials so an id planted before
// login never becomes authenticated. It returns the new store and the retired
// id.
func RotateSession(ctx context.Context, w http.ResponseWriter) (*session.Scoped, string, error) {
	state, ok := ctx.Value(tokensContextKey).(*sessionState)
	if !ok {
		return nil, "", errors.New("no session in request context")
	}

	retired := state.tokens
	if err := retired.ClearTokens(ctx); err != nil {
		return nil, "", fmt.Errorf("clear retired session: %w", err)
	}

	sessionID := uuid.NewString()
	state.middleware.setCookie(w, sessionID)
	state.tokens = session.NewScoped(state.middleware.backend, sessionID)
	return state.tokens, retired.SessionID(), nil
}
