package handler

import (
	"fmt"
	"net/http"
	"strings"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/model"
)

type AnimalsHandler struct {
	client *apiclient.Client
}

func NewAnimalsHandler(client *apiclient.Client) *AnimalsHandler {
	return &AnimalsHandler{client: client}
}

// List serves the public catalogue as JSON. status is available (default),
// adopted or all.
func (h *AnimalsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if status == "" {
		status = "available"
	}
	if status != "available" && status != "adopted" && status != "all" {
		writeError(w, fmt.Errorf("%w: status must be available, adopted or all", model.ErrInvalidInput))
		return
	}

	animals, err := h.client.ListAnimals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	available, adopted := model.PartitionByAdoption(animals)

	data := animals
	switch status {
	case "available":
		data = available
	case "adopted":
		data = adopted
	}
	if data == nil {
		data = []model.Animal{}
	}

	writeSuccess(w, http.StatusOK, data, &model.Meta{
		Total:     len(animals),
		Available: len(available),
		Adopted:   len(adopted),
	})
}
