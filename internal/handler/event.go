package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

// EventService is what EventHandler needs; *service.EventService implements it.
type EventService interface {
	Create(ctx context.Context, in model.EventInput) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, opts repository.ListOptions) ([]model.Event, error)
	Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// EventHandler serves /api/events. Same shape as DoctorHandler, without
// filters; lists are newest first.
type EventHandler struct {
	events EventService
	logger *slog.Logger
}

func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// HTTP: GET /api/events?skip=0&limit=100
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := h.events.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("listing events", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HTTP: GET /api/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HTTP: POST /api/events (bearer)
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HTTP: PUT /api/events/{id} (bearer)
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HTTP: DELETE /api/events/{id} (bearer)
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Event deleted successfully"})
}
