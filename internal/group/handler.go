package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/internal/settlement"
	"github.com/yutoapp/yuto/pkg/middleware"
	"github.com/yutoapp/yuto/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/join", h.Join)
	r.Post("/{id}/complete", h.Complete)

	r.Post("/{id}/messages", h.PostMessage)
	r.Get("/{id}/messages", h.ListMessages)

	return r
}

// Create handles POST /groups
// @Summary      Create a group
// @Description  Create a shared-expense group with member rows for every invitee
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMembers), errors.Is(err, ErrNegativeTotal):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create group")
		}
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with its members and derived settlement phase
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, members, err := h.service.GetByIDWithMembers(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, "Invalid or expired group")
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}

	groupResp := group.ToResponse()
	groupResp.Phase = string(settlement.PhaseOf(Snapshot(group, members)))
	groupResp.Members = make([]*MemberResponse, len(members))
	for i, m := range members {
		groupResp.Members[i] = m.ToResponse(group)
	}

	response.JSON(w, http.StatusOK, groupResp)
}

// List handles GET /groups
// @Summary      List my groups
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	groups, total, err := h.service.ListByUser(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, group := range groups {
		groupResponses[i] = group.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, groupResponses, meta)
}

// Join handles POST /groups/{id}/join
// @Summary      Accept a group invite
// @Description  Marks the caller's own member row joined; re-joining is a no-op
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	member, err := h.service.Join(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, "Invalid or expired group")
		case errors.Is(err, ErrMemberNotFound):
			response.NotFound(w, "You are not invited to this group")
		default:
			response.InternalError(w, "Failed to join group")
		}
		return
	}

	response.JSON(w, http.StatusOK, member)
}

// Complete handles POST /groups/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	group, err := h.service.Complete(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, "Invalid or expired group")
		case errors.Is(err, ErrNotCreator):
			response.Forbidden(w, err.Error())
		case errors.Is(err, settlement.ErrNotSettled):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to complete split")
		}
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse())
}

// Delete handles DELETE /groups/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), groupID, userID); err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, "Invalid or expired group")
		case errors.Is(err, ErrDeleteActive):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete group")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

// PostMessage handles POST /groups/{id}/messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		response.BadRequest(w, "Message body is required")
		return
	}

	msg, err := h.service.PostMessage(r.Context(), groupID, userID, req.Body)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to post message")
		return
	}

	response.JSON(w, http.StatusCreated, msg.ToResponse())
}

// ListMessages handles GET /groups/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	messages, err := h.service.ListMessages(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list messages")
		return
	}

	responses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, responses)
}
