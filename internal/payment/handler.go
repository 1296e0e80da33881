package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/pkg/response"
)

// SignatureHeader is the webhook header carrying the pre-shared secret
const SignatureHeader = "verif-hash"

// ChargeRequest is the body of POST /charge
type ChargeRequest struct {
	PhoneNumber string    `json:"phone_number"`
	Amount      int64     `json:"amount"`
	GroupID     uuid.UUID `json:"group_id"`
	UserID      uuid.UUID `json:"user_id"`
}

// Handler handles the gateway-facing HTTP surface. Response shapes here are
// part of the gateway contract and skip the standard API envelope.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/charge", h.Charge)
	r.Post("/webhook", h.Webhook)
	return r
}

// Charge handles POST /charge
// @Summary      Initiate an M-PESA charge
// @Description  Sends a payment prompt to the member's phone; payment is only recorded after webhook confirmation
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ChargeRequest true "Charge request"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /charge [post]
func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Invalid request body",
		})
		return
	}

	txRef, message, err := h.service.InitiateCharge(r.Context(), req.PhoneNumber, req.Amount, req.GroupID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrChargeRejected), errors.Is(err, ErrGroupNotFound):
			response.Raw(w, http.StatusBadRequest, map[string]interface{}{
				"success": false, "message": err.Error(),
			})
		default:
			slog.Error("charge initiation failed", "error", err)
			response.Raw(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false, "message": "Payment could not be started, please try again",
			})
		}
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tx_ref":  txRef,
		"message": message,
	})
}

// Webhook handles POST /webhook
// @Summary      Payment gateway webhook
// @Description  Signed callback confirming transaction outcomes; sole trigger for marking a member paid
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /webhook [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidSignature(r.Header.Get(SignatureHeader)) {
		slog.Warn("webhook with bad signature", "remote_addr", r.RemoteAddr)
		response.Raw(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "message": "Invalid signature",
		})
		return
	}

	var event WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Invalid event body",
		})
		return
	}

	outcome, err := h.service.ProcessWebhook(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, ErrGatewayUnavailable):
			// Transient: let the gateway retry the delivery.
			response.Raw(w, http.StatusBadGateway, map[string]interface{}{
				"success": false, "message": "Verification temporarily unavailable",
			})
		case errors.Is(err, ErrVerificationFailed),
			errors.Is(err, ErrInvalidTxRef),
			errors.Is(err, ErrForeignNamespace),
			errors.Is(err, ErrMemberNotFound):
			response.Raw(w, http.StatusBadRequest, map[string]interface{}{
				"success": false, "message": err.Error(),
			})
		default:
			slog.Error("webhook processing failed", "error", err)
			response.Raw(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false, "message": "Failed to record payment",
			})
		}
		return
	}

	if outcome.Ignored {
		response.Raw(w, http.StatusOK, map[string]interface{}{"received": true})
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{"success": true})
}
