package handlers

import (
	"net/http"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// GetBookings returns one booking by ?id=, or the caller's visible bookings.
func (h *Handlers) GetBookings(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	id, present, ok := queryID(w, r)
	if !ok {
		return
	}
	if present {
		booking, err := h.bookingService.Get(r.Context(), me, id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "booking", booking, "")
		return
	}

	limit, offset := parsePagination(r)
	filter := domain.BookingFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid status parameter", CodeInvalidInput)
			return
		}
		filter.Status = &st
	}

	bookings, err := h.bookingService.List(r.Context(), me, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeSuccess(w, http.StatusOK, "bookings", bookings, "")
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingReq
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "booking", booking, "Booking created successfully")
}

func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.TransitionReq
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Transition(r.Context(), currentUser(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "booking", booking, "Booking updated successfully")
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, present, ok := queryID(w, r)
	if !ok {
		return
	}
	if !present {
		writeError(w, http.StatusBadRequest, "Booking ID is required", CodeInvalidInput)
		return
	}

	booking, err := h.bookingService.Cancel(r.Context(), currentUser(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "booking", booking, "Booking cancelled successfully")
}
