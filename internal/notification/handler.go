package notification

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/pkg/middleware"
	"github.com/yutoapp/yuto/pkg/response"
)

// NotifyRequest is the body of POST /notify
type NotifyRequest struct {
	UserID uuid.UUID `json:"userId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// RegisterTokenRequest is the body of POST /notifications/token
type RegisterTokenRequest struct {
	Token string `json:"token"`
}

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/token", h.RegisterToken)
	r.Delete("/token", h.UnregisterToken)
	return r
}

// Notify handles POST /notify
// @Summary      Send a push notification
// @Description  Best-effort push to one user; a user without a registered token is a no-op
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /notify [post]
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Invalid request body",
		})
		return
	}
	if req.UserID == uuid.Nil || req.Title == "" || req.Body == "" {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "userId, title and body are required",
		})
		return
	}

	delivered, err := h.service.Notify(r.Context(), req.UserID, req.Title, req.Body)
	if err != nil {
		slog.Error("notify failed", "user_id", req.UserID, "error", err)
		response.Raw(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "Failed to send notification",
		})
		return
	}
	if !delivered {
		response.Raw(w, http.StatusOK, map[string]interface{}{"message": "No token found"})
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RegisterToken handles POST /notifications/token
func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		response.BadRequest(w, "Token is required")
		return
	}

	if err := h.service.RegisterToken(r.Context(), userID, req.Token); err != nil {
		response.InternalError(w, "Failed to register token")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Token registered"})
}

// UnregisterToken handles DELETE /notifications/token
func (h *Handler) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.UnregisterToken(r.Context(), userID); err != nil {
		response.InternalError(w, "Failed to remove token")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Token removed"})
}
