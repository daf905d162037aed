package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"athletichub/internal/booking"
	"athletichub/internal/logger"
	"athletichub/internal/tickets"
	"athletichub/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

// ViewTicket handles GET /api/tickets/{ticketID}
func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.ByID(r.Context(), ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket found", ticket))
}

// VerifyTicket handles POST /api/tickets/verify with a scanned QR payload.
// Expected request body: {"encrypted_qr": "base64_encrypted_string"}
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		EncryptedQR string `json:"encrypted_qr"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidInput, err))
		return
	}
	if requestBody.EncryptedQR == "" {
		writeError(w, fmt.Errorf("%w: encrypted_qr is required", booking.ErrInvalidInput))
		return
	}

	payload, err := h.TicketService.Decode(requestBody.EncryptedQR)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("VerifyTicket: failed to decode QR: %v", err))
		writeError(w, fmt.Errorf("%w: invalid QR code", booking.ErrInvalidInput))
		return
	}

	ticket, err := h.TicketService.ByID(r.Context(), payload.TicketID)
	if err != nil {
		writeError(w, err)
		return
	}

	// The payload is encrypted, but cross-check anyway: a ticket re-issued
	// for a different booking must not validate against an old code.
	if ticket.EventID != payload.EventID || ticket.ParticipantEmail != payload.Email {
		writeError(w, fmt.Errorf("%w: QR payload does not match ticket", booking.ErrTicketNotFound))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket is valid", ticket))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, booking.ErrTicketNotFound):
		status, code = http.StatusNotFound, "ticket_not_found"
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
