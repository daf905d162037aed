package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"athletichub/internal/auth"
	"athletichub/internal/booking"
	"athletichub/internal/logger"
	"athletichub/internal/models"
	"athletichub/internal/utils"
)

type EventService interface {
	Create(ctx context.Context, req models.EventRequest) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
}

type Verifier interface {
	VerifyRequest(r *http.Request, claimedEmail string) error
}

type Handler struct {
	EventService EventService
	Verifier     Verifier
	Logger       *logger.Logger
}

func NewHandler(eventService EventService, verifier Verifier, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Verifier: verifier, Logger: log}
}

// CreateEvent handles POST /api/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidInput, err))
		return
	}

	// Organizers can only create events under their own identity.
	if err := h.Verifier.VerifyRequest(r, req.CreatorEmail); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("CreateEvent: identity check failed: %v", err))
		writeError(w, err)
		return
	}

	event, err := h.EventService.Create(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		writeError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: event %s created by %s", event.ID, event.CreatorEmail))

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("event created successfully", event))
}

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("%d events found", len(events)), events))
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	event, err := h.EventService.Get(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("event found", event))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, auth.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, booking.ErrEventNotFound):
		status, code = http.StatusNotFound, "event_not_found"
	case errors.Is(err, booking.ErrStoreUnavailable):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	}
	writeJSON(w, status, utils.ErrorResponse(err.Error(), code))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
