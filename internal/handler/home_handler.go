package handler

import (
	"net/http"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/pkg/apierror"
)

type HomeHandler struct {
	client *apiclient.Client
	views  *Renderer
}

func NewHomeHandler(client *apiclient.Client, views *Renderer) *HomeHandler {
	return &HomeHandler{client: client, views: views}
}

// Home lists the animals still waiting for a family.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Adopt a friend"}

	animals, err := h.client.ListAvailableAnimals(r.Context())
	if err != nil {
		page.Error = apierror.MessageOf(err, "error fetching animals")
		animals = []model.Animal{}
	}
	page.Content = animals

	h.views.Render(w, r, http.StatusOK, "home.html", page)
}
