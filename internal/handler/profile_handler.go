package handler

import (
	"net/http"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/service"
)

type ProfileHandler struct {
	guard pageGuard
}

func NewProfileHandler(gate *service.AuthGate, client *apiclient.Client, workflows *service.WorkflowRegistry, views *Renderer) *ProfileHandler {
	return &ProfileHandler{guard: pageGuard{gate: gate, client: client, workflows: workflows, views: views}}
}

// Show renders the user resolved by the gate, so the page costs a single
// profile lookup.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	decision, _, ok := h.guard.require(w, r, service.RequireAuth)
	if !ok {
		return
	}

	h.guard.views.Render(w, r, http.StatusOK, "profile.html", Page{
		Title:   "My profile",
		Content: decision.User,
	})
}
