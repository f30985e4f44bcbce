package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBytes = 65536

type intentResponse struct {
	Success bool `json:"success"`
	*domain.PaymentIntent
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateIntentReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := domain.Validate(&req); err != nil {
		respondError(w, r, err)
		return
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		respondError(w, r, domain.NewValidationError("booking_id", "must be a valid id"))
		return
	}

	intent, err := h.paymentService.CreateIntent(r.Context(), currentUser(r), bookingID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intentResponse{Success: true, PaymentIntent: intent})
}

// PaymentWebhook authenticates by signature, not bearer token.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", CodeInvalidInput)
			return
		}
		writeError(w, http.StatusBadRequest, "Could not read request body", CodeInvalidInput)
		return
	}

	if err := h.paymentService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
