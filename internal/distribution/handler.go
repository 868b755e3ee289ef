package distribution

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/pkg/response"
)

// Handler handles HTTP requests for direct payment recording.
type Handler struct {
	service *Service
}

// NewHandler creates a new distribution handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payment endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.RecordPayment)

	return r
}

// RecordPayment handles POST /payments
// @Summary      Record a payment and distribute it
// @Description  Allocate an admin-confirmed amount across the player's outstanding dues, oldest match first
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      200 {object} response.APIResponse{data=Result}
// @Failure      400 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Router       /payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Phone == "" {
		response.BadRequest(w, "phone is required")
		return
	}

	method := req.Method
	if method == "" {
		method = "CASH"
	}

	player := identity.NewPlayerRef(req.PlayerID, req.Phone)
	result, err := h.service.Distribute(r.Context(), player, ledger.Money(req.Amount), ledger.TransactionMeta{
		Method: method,
		Note:   req.Note,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNonPositiveAmount) {
			response.BadRequest(w, err.Error())
			return
		}
		// A partial failure already applied earlier matches; return what
		// landed so the admin does not re-enter the full amount.
		var partial *PartialError
		if errors.As(err, &partial) && result != nil {
			response.JSON(w, http.StatusBadGateway, result)
			return
		}
		response.InternalError(w, "Failed to distribute payment")
		return
	}

	response.JSON(w, http.StatusOK, result)
}
