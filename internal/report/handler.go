package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/paycalc"
	"github.com/stumpedhq/clubpay/pkg/response"
)

// Handler handles HTTP requests for player reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new report handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for player report endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{phone}/summary", h.Summary)
	r.Get("/{phone}/timeline", h.Timeline)

	return r
}

// Summary handles GET /players/{phone}/summary
// @Summary      Get a player's payment summary
// @Description  Totals across every match the player appears in, keyed by normalized phone
// @Tags         players
// @Produce      json
// @Param        phone path string true "Player phone"
// @Success      200 {object} response.APIResponse{data=paycalc.PlayerSummary}
// @Router       /players/{phone}/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	player := identity.NewPlayerRef(nil, chi.URLParam(r, "phone"))
	summary, err := h.service.Summary(r.Context(), player)
	if err != nil {
		response.InternalError(w, "Failed to compute summary")
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

// Timeline handles GET /players/{phone}/timeline
// @Summary      Get a player's payment timeline
// @Description  Every transaction and settlement in chronological order, voided entries included
// @Tags         players
// @Produce      json
// @Param        phone path string true "Player phone"
// @Success      200 {object} response.APIResponse{data=[]paycalc.TimelineEntry}
// @Router       /players/{phone}/timeline [get]
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	player := identity.NewPlayerRef(nil, chi.URLParam(r, "phone"))
	entries, err := h.service.Timeline(r.Context(), player)
	if err != nil {
		response.InternalError(w, "Failed to compute timeline")
		return
	}
	if entries == nil {
		entries = []paycalc.TimelineEntry{}
	}
	response.JSON(w, http.StatusOK, entries)
}
