package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/pkg/response"
)

// Handler handles HTTP requests for overpayment settlement.
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Settle handles POST /lines/{lineId}/settle
// @Summary      Settle an overpaid line
// @Description  Convert the line's credit into a settlement event; the original payment stays on record
// @Tags         lines
// @Accept       json
// @Produce      json
// @Param        lineId path int true "Participant line ID"
// @Param        request body SettleRequest true "Settlement"
// @Success      200 {object} response.APIResponse{data=Receipt}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /lines/{lineId}/settle [post]
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid line ID")
		return
	}

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.SettledBy == "" {
		response.BadRequest(w, "settled_by is required")
		return
	}

	receipt, err := h.service.Settle(r.Context(), lineID, req.SettledBy, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ErrLineNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ledger.ErrNothingToSettle):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to settle line")
		}
		return
	}

	response.JSON(w, http.StatusOK, receipt)
}
