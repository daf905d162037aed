package booking_api

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

type Engine interface {
	Book(ctx context.Context, eventID, email string) (*booking.BookingResult, error)
	Cancel(ctx context.Context, eventID, email string) (*booking.CancelResult, error)
	Ticket(ctx context.Context, eventID, email string) (*models.Ticket, error)
}

type Verifier interface {
	VerifyRequest(r *http.Request, claimedEmail string) error
}

type Handler struct {
	Engine   Engine
	Verifier Verifier
	Logger   *logger.Logger
}

func NewHandler(engine Engine, verifier Verifier, log *logger.Logger) *Handler {
	return &Handler{Engine: engine, Verifier: verifier, Logger: log}
}

// BookParticipant handles POST /api/events/{id}/participants?email=
func (h *Handler) BookParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	email := r.URL.Query().Get("email")
	h.Logger.Info("API", fmt.Sprintf("BookParticipant: event=%s email=%s", eventID, email))

	if email == "" {
		writeError(w, fmt.Errorf("%w: email query parameter is required", booking.ErrInvalidInput))
		return
	}

	if err := h.Verifier.VerifyRequest(r, email); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("BookParticipant: identity check failed: %v", err))
		writeError(w, err)
		return
	}

	result, err := h.Engine.Book(r.Context(), eventID, email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookParticipant: %v", err))
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	message := "booking confirmed"
	if result.AlreadyBooked {
		status = http.StatusOK
		message = "already booked"
	}
	writeJSON(w, status, utils.SuccessResponse(message, result))
}

// CancelParticipant handles DELETE /api/events/{id}/participants?email=
func (h *Handler) CancelParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	email := r.URL.Query().Get("email")
	h.Logger.Info("API", fmt.Sprintf("CancelParticipant: event=%s email=%s", eventID, email))

	if email == "" {
		writeError(w, fmt.Errorf("%w: email query parameter is required", booking.ErrInvalidInput))
		return
	}

	if err := h.Verifier.VerifyRequest(r, email); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("CancelParticipant: identity check failed: %v", err))
		writeError(w, err)
		return
	}

	result, err := h.Engine.Cancel(r.Context(), eventID, email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelParticipant: %v", err))
		writeError(w, err)
		return
	}

	message := "booking canceled"
	if !result.TicketDeleted {
		message = "booking canceled, no ticket existed"
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse(message, result))
}

// GetTicket handles GET /api/events/{id}/tickets?email=
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	email := r.URL.Query().Get("email")

	if email == "" {
		writeError(w, fmt.Errorf("%w: email query parameter is required", booking.ErrInvalidInput))
		return
	}

	if err := h.Verifier.VerifyRequest(r, email); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("GetTicket: identity check failed: %v", err))
		writeError(w, err)
		return
	}

	ticket, err := h.Engine.Ticket(r.Context(), eventID, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket found", ticket))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, booking.ErrEventNotFound):
		return http.StatusNotFound, "event_not_found"
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, booking.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found"
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, utils.ErrorResponse(err.Error(), code))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
