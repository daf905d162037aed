package subscriber_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"athletichub/internal/booking"
	"athletichub/internal/logger"
	"athletichub/internal/subscribers"
	"athletichub/internal/utils"
)

type Handler struct {
	SubscriberService *subscribers.SubscriberService
	Logger            *logger.Logger
}

func NewHandler(subscriberService *subscribers.SubscriberService, log *logger.Logger) *Handler {
	return &Handler{SubscriberService: subscriberService, Logger: log}
}

// Subscribe handles POST /api/subscribers
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidInput, err))
		return
	}

	added, err := h.SubscriberService.Subscribe(r.Context(), req.Email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Subscribe: %v", err))
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	message := "subscribed to newsletter"
	if !added {
		status = http.StatusOK
		message = "already subscribed"
	}
	writeJSON(w, status, utils.SuccessResponse(message, map[string]string{"email": req.Email}))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
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
