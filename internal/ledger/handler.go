package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stumpedhq/clubpay/pkg/response"
)

// Handler handles HTTP requests for match obligation administration.
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for match obligation endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/participants", h.AddParticipant)
	r.Delete("/{id}/participants/{lineId}", h.RemoveParticipant)
	r.Patch("/{id}/participants/{lineId}/fixed-amount", h.SetFixedAmount)

	return r
}

// Create handles POST /matches
// @Summary      Create a match fee obligation
// @Description  Set up the fee ledger for a match with participants and an even split
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        request body CreateObligationRequest true "Fee setup request"
// @Success      201 {object} response.APIResponse{data=MatchObligation}
// @Failure      400 {object} response.APIResponse
// @Router       /matches [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	matchDate, err := time.Parse("2006-01-02", req.MatchDate)
	if err != nil {
		response.BadRequest(w, "Invalid match_date, expected YYYY-MM-DD")
		return
	}

	participants := make([]ParticipantInput, len(req.Participants))
	for i := range req.Participants {
		participants[i] = req.Participants[i].ToInput()
	}

	o, err := h.service.CreateObligation(r.Context(), req.Title, matchDate, Money(req.TotalAmount), participants)
	if err != nil {
		if errors.Is(err, ErrInconsistentFees) || errors.Is(err, ErrNoParticipants) || errors.Is(err, ErrNonPositiveAmount) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create obligation")
		return
	}

	response.JSON(w, http.StatusCreated, o)
}

// GetByID handles GET /matches/{id}
// @Summary      Get a match obligation
// @Description  Get a match fee ledger with all lines and their history
// @Tags         matches
// @Produce      json
// @Param        id path int true "Match obligation ID"
// @Success      200 {object} response.APIResponse{data=MatchObligation}
// @Failure      404 {object} response.APIResponse
// @Router       /matches/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid match ID")
		return
	}

	o, err := h.service.GetObligation(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrObligationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get obligation")
		return
	}

	response.JSON(w, http.StatusOK, o)
}

// AddParticipant handles POST /matches/{id}/participants
// @Summary      Add a participant to a match
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        id path int true "Match obligation ID"
// @Param        request body ParticipantRequest true "Participant"
// @Success      200 {object} response.APIResponse{data=MatchObligation}
// @Failure      400 {object} response.APIResponse
// @Router       /matches/{id}/participants [post]
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid match ID")
		return
	}

	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	o, err := h.service.AddParticipant(r.Context(), id, req.ToInput())
	if err != nil {
		h.writeObligationError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, o)
}

// RemoveParticipant handles DELETE /matches/{id}/participants/{lineId}
// @Summary      Remove a participant from a match
// @Description  Remove a line without payments and rebalance the split
// @Tags         matches
// @Produce      json
// @Param        id path int true "Match obligation ID"
// @Param        lineId path int true "Participant line ID"
// @Success      200 {object} response.APIResponse{data=MatchObligation}
// @Failure      409 {object} response.APIResponse
// @Router       /matches/{id}/participants/{lineId} [delete]
func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid match ID")
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid line ID")
		return
	}

	o, err := h.service.RemoveParticipant(r.Context(), id, lineID)
	if err != nil {
		if errors.Is(err, ErrLineHasPayments) {
			response.Conflict(w, err.Error())
			return
		}
		h.writeObligationError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, o)
}

// SetFixedAmount handles PATCH /matches/{id}/participants/{lineId}/fixed-amount
// @Summary      Override a participant's contribution
// @Description  Set a fixed amount (0 for a free player) or clear the override with null
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        id path int true "Match obligation ID"
// @Param        lineId path int true "Participant line ID"
// @Param        request body SetFixedAmountRequest true "Fixed amount"
// @Success      200 {object} response.APIResponse{data=MatchObligation}
// @Failure      400 {object} response.APIResponse
// @Router       /matches/{id}/participants/{lineId}/fixed-amount [patch]
func (h *Handler) SetFixedAmount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid match ID")
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid line ID")
		return
	}

	var req SetFixedAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	var fixed *Money
	if req.FixedAmount != nil {
		f := Money(*req.FixedAmount)
		fixed = &f
	}

	o, err := h.service.SetFixedAmount(r.Context(), id, lineID, fixed)
	if err != nil {
		h.writeObligationError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, o)
}

// MarkPaid handles POST /lines/{lineId}/mark-paid
// @Summary      Force-mark a line paid
// @Description  Void existing payments and record one adjustment for the effective amount
// @Tags         lines
// @Accept       json
// @Produce      json
// @Param        lineId path int true "Participant line ID"
// @Param        request body MarkPaidRequest true "Note"
// @Success      200 {object} response.APIResponse{data=ParticipantLine}
// @Failure      404 {object} response.APIResponse
// @Router       /lines/{lineId}/mark-paid [post]
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid line ID")
		return
	}

	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	line, err := h.service.MarkPaid(r.Context(), lineID, req.Note)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark line paid")
		return
	}

	response.JSON(w, http.StatusOK, line)
}

// MarkUnpaid handles POST /lines/{lineId}/mark-unpaid
// @Summary      Mark a line unpaid
// @Description  Void every live transaction, keeping history for audit
// @Tags         lines
// @Accept       json
// @Produce      json
// @Param        lineId path int true "Participant line ID"
// @Param        request body MarkUnpaidRequest true "Reason"
// @Success      200 {object} response.APIResponse{data=ParticipantLine}
// @Failure      404 {object} response.APIResponse
// @Router       /lines/{lineId}/mark-unpaid [post]
func (h *Handler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid line ID")
		return
	}

	var req MarkUnpaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	line, err := h.service.MarkUnpaid(r.Context(), lineID, req.Reason)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark line unpaid")
		return
	}

	response.JSON(w, http.StatusOK, line)
}

func (h *Handler) writeObligationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrObligationNotFound), errors.Is(err, ErrLineNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInconsistentFees), errors.Is(err, ErrNonPositiveAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Failed to update obligation")
	}
}
