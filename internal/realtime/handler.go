package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutoapp/yuto/pkg/response"
)

// Handler streams group change events to clients over SSE
type Handler struct {
	bus *Bus
}

// NewHandler creates a new realtime handler
func NewHandler(bus *Bus) *Handler {
	return &Handler{bus: bus}
}

// Routes returns the router for realtime endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/events", h.GroupEvents)
	return r
}

// GroupEvents handles GET /groups/{id}/events
// @Summary      Stream group changes
// @Description  Server-sent event stream of member and group row changes for one group
// @Tags         realtime
// @Produce      text/event-stream
// @Param        id path string true "Group ID"
// @Router       /groups/{id}/events [get]
func (h *Handler) GroupEvents(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Subscription is torn down when the client disconnects; listeners must
	// not outlive the view that opened them.
	ch, cancel := h.bus.Subscribe(GroupScope(groupID), 64)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(c)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
