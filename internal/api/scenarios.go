package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/feedback-coach/internal/domain"
)

// PresetLister returns the current preset scenarios.
type PresetLister interface {
	Presets() []domain.Scenario
}

// ScenariosHandler serves the preset catalog.
type ScenariosHandler struct {
	catalog PresetLister
}

// NewScenariosHandler creates a scenarios handler.
func NewScenariosHandler(catalog PresetLister) *ScenariosHandler {
	return &ScenariosHandler{catalog: catalog}
}

// RegisterRoutes registers scenario routes.
func (h *ScenariosHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/scenarios", h.List)
}

// List handles GET /api/scenarios.
func (h *ScenariosHandler) List(w http.ResponseWriter, _ *http.Request) {
	presets := h.catalog.Presets()
	if presets == nil {
		presets = []domain.Scenario{}
	}
	JSON(w, http.StatusOK, presets)
}
