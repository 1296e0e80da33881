package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/pkg/middleware"
	"github.com/yutoapp/yuto/pkg/response"
)

// Handler handles HTTP requests for user and friendship operations
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for user endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/me", h.Me)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)

	r.Post("/friends", h.RequestFriend)
	r.Post("/friends/{requesterId}/accept", h.AcceptFriend)
	r.Get("/friends", h.ListFriends)

	return r
}

// Create handles POST /users
// @Summary      Create a profile
// @Description  Register a profile for the authenticated user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "Profile creation request"
// @Success      201 {object} response.APIResponse{data=UserResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if userID, ok := middleware.GetUserID(r.Context()); ok {
		req.ID = userID
	}
	if req.ID == uuid.Nil || req.Username == "" {
		response.BadRequest(w, "Username is required")
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create profile")
		return
	}

	response.JSON(w, http.StatusCreated, user.ToResponse())
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get profile")
		return
	}

	response.JSON(w, http.StatusOK, user.ToResponse())
}

// GetByID handles GET /users/{id}
// @Summary      Get profile by ID
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} response.APIResponse{data=UserResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /users/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get profile")
		return
	}

	response.JSON(w, http.StatusOK, user.ToResponse())
}

// Update handles PUT /users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if callerID, ok := middleware.GetUserID(r.Context()); !ok || callerID != id {
		response.Forbidden(w, "Cannot update another user's profile")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to update profile")
		return
	}

	response.JSON(w, http.StatusOK, user.ToResponse())
}

// RequestFriend handles POST /users/friends
// @Summary      Send a friend request
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body FriendRequestBody true "Friend request"
// @Success      201 {object} response.APIResponse{data=FriendshipResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /users/friends [post]
func (h *Handler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req FriendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	f, err := h.service.RequestFriend(r.Context(), userID, req.AddresseeID)
	if err != nil {
		switch {
		case errors.Is(err, ErrFriendSelf):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrFriendRequestExists):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to send friend request")
		}
		return
	}

	response.JSON(w, http.StatusCreated, f.ToResponse())
}

// AcceptFriend handles POST /users/friends/{requesterId}/accept
func (h *Handler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	requesterID, err := uuid.Parse(chi.URLParam(r, "requesterId"))
	if err != nil {
		response.BadRequest(w, "Invalid requester ID")
		return
	}

	f, err := h.service.AcceptFriend(r.Context(), requesterID, userID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to accept friend request")
		return
	}

	response.JSON(w, http.StatusOK, f.ToResponse())
}

// ListFriends handles GET /users/friends
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	friendships, err := h.service.ListFriends(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list friends")
		return
	}

	responses := make([]*FriendshipResponse, len(friendships))
	for i, f := range friendships {
		responses[i] = f.ToResponse()
	}

	response.JSON(w, http.StatusOK, responses)
}
