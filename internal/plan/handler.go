package plan

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/internal/group"
	"github.com/yutoapp/yuto/pkg/middleware"
	"github.com/yutoapp/yuto/pkg/response"
)

// Handler handles HTTP requests for plan operations
type Handler struct {
	service *Service
}

// NewHandler creates a new plan handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for plan endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/join", h.Join)
	r.Post("/{id}/leave", h.Leave)
	r.Post("/{id}/promote", h.Promote)

	return r
}

// Create handles POST /plans
// @Summary      Create a plan
// @Description  Post an open invitation that friends can join before any money is involved
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body CreatePlanRequest true "Plan creation request"
// @Success      201 {object} response.APIResponse{data=PlanResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	plan, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidSlots):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create plan")
		}
		return
	}

	response.JSON(w, http.StatusCreated, plan.ToResponse())
}

// List handles GET /plans
// @Summary      List open plans
// @Tags         plans
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]PlanResponse}
// @Router       /plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListOpen(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list plans")
		return
	}

	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = plans[i].ToResponse()
	}

	response.JSON(w, http.StatusOK, responses)
}

// GetByID handles GET /plans/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	plan, members, err := h.service.GetByIDWithMembers(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			response.NotFound(w, "Plan not found")
			return
		}
		response.InternalError(w, "Failed to get plan")
		return
	}

	response.JSON(w, http.StatusOK, plan.ToResponseWithMembers(members))
}

// Join handles POST /plans/{id}/join
// @Summary      Join a plan
// @Description  Takes a slot on an open plan; joining twice is a conflict
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /plans/{id}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	member, err := h.service.Join(r.Context(), planID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			response.NotFound(w, "Plan not found")
		case errors.Is(err, ErrAlreadyJoined):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrPlanFull), errors.Is(err, ErrNotOpen):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to join plan")
		}
		return
	}

	response.JSON(w, http.StatusOK, member.ToResponse())
}

// Leave handles POST /plans/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Leave(r.Context(), planID, userID); err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			response.NotFound(w, "Plan not found")
		case errors.Is(err, ErrNotMember):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrCreatorLeaving):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to leave plan")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Left plan successfully"})
}

// Delete handles DELETE /plans/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), planID, userID); err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			response.NotFound(w, "Plan not found")
		case errors.Is(err, ErrNotCreator):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete plan")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Plan deleted successfully"})
}

// Promote handles POST /plans/{id}/promote
// @Summary      Promote a plan into a group
// @Description  Creates a group from the plan's joined members and closes the plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID"
// @Param        request body PromotePlanRequest true "Promotion request"
// @Success      201 {object} response.APIResponse{data=PromoteResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /plans/{id}/promote [post]
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req PromotePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	plan, g, err := h.service.Promote(r.Context(), planID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			response.NotFound(w, "Plan not found")
		case errors.Is(err, ErrNotCreator):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNotOpen):
			response.BadRequest(w, err.Error())
		case errors.Is(err, group.ErrNegativeTotal), errors.Is(err, group.ErrNoMembers):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to promote plan")
		}
		return
	}

	response.JSON(w, http.StatusCreated, PromoteResponse{
		Plan:  plan.ToResponse(),
		Group: g.ToResponse(),
	})
}
