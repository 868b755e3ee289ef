package evidence

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stumpedhq/clubpay/internal/distribution"
	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/pkg/response"
)

// Handler handles HTTP requests for payment evidence.
type Handler struct {
	service *Service
}

// NewHandler creates a new evidence handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for evidence endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Ingest)
	r.Get("/pending", h.Pending)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/review", h.Review)

	return r
}

// Ingest handles POST /evidence
// @Summary      Ingest a payment screenshot
// @Description  Idempotent by message_id; auto-applies confident extractions, queues the rest for review
// @Tags         evidence
// @Accept       json
// @Produce      json
// @Param        request body IngestRequest true "Screenshot submission with extraction"
// @Success      200 {object} response.APIResponse{data=PaymentEvidence}
// @Failure      400 {object} response.APIResponse
// @Router       /evidence [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.MessageID == "" || req.PlayerPhone == "" {
		response.BadRequest(w, "message_id and player_phone are required")
		return
	}

	in, err := req.ToInput()
	if err != nil {
		response.BadRequest(w, "Invalid match_date, expected YYYY-MM-DD")
		return
	}

	ev, err := h.service.Ingest(r.Context(), in)
	if err != nil {
		// A partial distribution already persisted what it could; the
		// evidence record carries the outcome and the review reason.
		var partial *distribution.PartialError
		if errors.As(err, &partial) && ev != nil {
			response.JSON(w, http.StatusOK, ev)
			return
		}
		response.InternalError(w, "Failed to ingest evidence")
		return
	}

	response.JSON(w, http.StatusOK, ev)
}

// Pending handles GET /evidence/pending
// @Summary      List the review queue
// @Description  All evidence awaiting an admin decision, oldest first
// @Tags         evidence
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]PaymentEvidence}
// @Router       /evidence/pending [get]
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Pending(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list pending evidence")
		return
	}
	if items == nil {
		items = []*PaymentEvidence{}
	}
	response.JSON(w, http.StatusOK, items)
}

// GetByID handles GET /evidence/{id}
// @Summary      Get one evidence record
// @Tags         evidence
// @Produce      json
// @Param        id path string true "Evidence ID"
// @Success      200 {object} response.APIResponse{data=PaymentEvidence}
// @Failure      404 {object} response.APIResponse
// @Router       /evidence/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrEvidenceNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get evidence")
		return
	}
	response.JSON(w, http.StatusOK, ev)
}

// Review handles POST /evidence/{id}/review
// @Summary      Resolve pending evidence
// @Description  Approve (optionally overriding the amount) to distribute, or reject with no ledger effect
// @Tags         evidence
// @Accept       json
// @Produce      json
// @Param        id path string true "Evidence ID"
// @Param        request body ReviewRequest true "Review decision"
// @Success      200 {object} response.APIResponse{data=PaymentEvidence}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /evidence/{id}/review [post]
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	ev, err := h.service.Review(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		var partial *distribution.PartialError
		switch {
		case errors.As(err, &partial) && ev != nil:
			response.JSON(w, http.StatusOK, ev)
		case errors.Is(err, ErrEvidenceNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrDuplicateEvidence), errors.Is(err, ErrAlreadyResolved):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrUnknownAction), errors.Is(err, ledger.ErrNonPositiveAmount):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to review evidence")
		}
		return
	}

	response.JSON(w, http.StatusOK, ev)
}
