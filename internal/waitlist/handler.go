package waitlist

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yutoapp/yuto/pkg/response"
)

type JoinRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Handler handles HTTP requests for waitlist signups
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for waitlist endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Join)
	r.Get("/count", h.Count)

	return r
}

// Join handles POST /waitlist
// @Summary      Join the waitlist
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        request body JoinRequest true "Signup request"
// @Success      201 {object} response.APIResponse{data=Entry}
// @Failure      409 {object} response.APIResponse
// @Router       /waitlist [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.service.Join(r.Context(), req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrAlreadySignedUp):
			response.Conflict(w, "You're already on the list")
		default:
			response.InternalError(w, "Failed to join waitlist")
		}
		return
	}

	response.JSON(w, http.StatusCreated, entry)
}

// Count handles GET /waitlist/count
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to count signups")
		return
	}

	response.JSON(w, http.StatusOK, map[string]int{"count": count})
}
