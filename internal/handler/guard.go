package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/service"
	"pet-adoption-portal/internal/session"
)

// pageGuard runs the session gate on entry to a protected page and renders
// the outcome when the page may not proceed. A session that fails its lookup
// also loses its admin workflow.
type pageGuard struct {
	gate      *service.AuthGate
	client    *apiclient.Client
	workflows *service.WorkflowRegistry
	views     *Renderer
}

// bind returns the browser's token store and a client authenticated with it.
func (g pageGuard) bind(r *http.Request) (session.TokenStore, *apiclient.Client) {
	return bindClient(r, g.client)
}

func bindClient(r *http.Request, client *apiclient.Client) (session.TokenStore, *apiclient.Client) {
	tokens := tokensOf(r)
	return tokens, client.WithTokens(tokens)
}

func (g pageGuard) require(w http.ResponseWriter, r *http.Request, req service.Requirement) (service.Decision, *apiclient.Client, bool) {
	tokens, client := g.bind(r)
	decision := g.gate.Check(r.Context(), tokens, client, req)

	switch decision.State {
	case service.StateAdmin, service.StateRegular:
		return decision, client, true
	case service.StateUnauthenticated:
		http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
	case service.StateSessionInvalid:
		g.views.Render(w, r, http.StatusForbidden, "denied.html", Page{
			Title: "Access denied",
			Error: decision.Message,
		})
	default:
		g.forget(tokens)
		g.views.Render(w, r, http.StatusUnauthorized, "session_failed.html", Page{
			Title:   "Session ended",
			Error:   decision.Message,
			Refresh: fmt.Sprintf("%d;url=%s", int(decision.RedirectAfter.Seconds()), decision.Redirect),
			Content: decision.Redirect,
		})
	}
	return decision, nil, false
}

func (g pageGuard) forget(tokens session.TokenStore) {
	scoped, ok := tokens.(*session.Scoped)
	if !ok || g.workflows == nil {
		return
	}
	g.workflows.Forget(scoped.SessionID())
}

// CSRFFailure answers form posts whose token is missing or stale.
func CSRFFailure(views *Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
		views.Render(w, r, http.StatusForbidden, "error.html", Page{
			Title: "Form expired",
			Error: "the form has expired, please reload the page and try again",
		})
	})
}
