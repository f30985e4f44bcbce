package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return PaymentStatus(s), true
	default:
		return "", false
	}
}

type Booking struct {
	ID              uuid.UUID     `json:"id"`
	CustomerID      uuid.UUID     `json:"customer_id"`
	ChefID          uuid.UUID     `json:"chef_id"`
	BookingDate     string        `json:"booking_date"`
	StartTime       string        `json:"start_time"`
	EndTime         string        `json:"end_time"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	TotalAmount     float64       `json:"total_amount"`
	NumberOfGuests  int           `json:"number_of_guests"`
	Location        string        `json:"location"`
	SpecialRequests *string       `json:"special_requests"`
	CuisineType     *string       `json:"cuisine_type"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Populated on reads.
	Customer *UserSummary `json:"customer,omitempty"`
	Chef     *Chef        `json:"chef,omitempty"`
}

type CreateBookingReq struct {
	ChefID          string  `json:"chef_id" validate:"required,uuid"`
	BookingDate     string  `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time" validate:"required,clock"`
	EndTime         string  `json:"end_time" validate:"required,clock"`
	TotalAmount     float64 `json:"total_amount" validate:"required,gt=0"`
	NumberOfGuests  int     `json:"number_of_guests" validate:"required,gte=1,lte=500"`
	Location        string  `json:"location" validate:"required,max=500"`
	SpecialRequests *string `json:"special_requests" validate:"omitempty,max=2000"`
	CuisineType     *string `json:"cuisine_type" validate:"omitempty,max=100"`
}

// Validate runs the tag rules, then checks the time window.
func (r *CreateBookingReq) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	start, _ := parseClock(r.StartTime)
	end, _ := parseClock(r.EndTime)
	if !end.After(start) {
		return NewValidationError("end_time", "must be after start_time")
	}
	return nil
}

// NewBooking is the row a create inserts. ChefID is already parsed.
type NewBooking struct {
	CustomerID      uuid.UUID
	ChefID          uuid.UUID
	BookingDate     string
	StartTime       string
	EndTime         string
	TotalAmount     float64
	NumberOfGuests  int
	Location        string
	SpecialRequests *string
	CuisineType     *string
}

// TransitionReq is the PUT body. Absent fields stay as they are.
type TransitionReq struct {
	BookingID     string  `json:"booking_id" validate:"required,uuid"`
	Status        *string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending paid refunded"`
}

type BookingPatch struct {
	Status          *BookingStatus
	PaymentStatus   *PaymentStatus
	PaymentIntentID *string
}

func (p BookingPatch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.PaymentIntentID == nil
}

// BookingFilter scopes a listing. A nil CustomerID and ChefID lists every booking.
type BookingFilter struct {
	CustomerID *uuid.UUID
	ChefID     *uuid.UUID
	Status     *BookingStatus
	Limit      int
	Offset     int
}

// Party classifies a requester relative to one booking.
type Party struct {
	Customer bool
	Chef     bool
}

func (p Party) Any() bool { return p.Customer || p.Chef }
