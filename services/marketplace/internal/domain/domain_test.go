package domain

import (
	"errors"
	"testing"
)

func validCreate() CreateBookingReq {
	return CreateBookingReq{
		ChefID:         "7f8d3c5e-8a44-4f0a-9d7e-2f1c0c6b1a11",
		BookingDate:    "2026-12-24",
		StartTime:      "18:00",
		EndTime:        "21:30",
		TotalAmount:    240,
		NumberOfGuests: 4,
		Location:       "12 Harbour Road",
	}
}

func TestCreateBookingReq_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateBookingReq)
		field  string
	}{
		{"missing chef", func(r *CreateBookingReq) { r.ChefID = "" }, "chef_id"},
		{"malformed chef", func(r *CreateBookingReq) { r.ChefID = "chef-1" }, "chef_id"},
		{"bad date", func(r *CreateBookingReq) { r.BookingDate = "24/12/2026" }, "booking_date"},
		{"bad start", func(r *CreateBookingReq) { r.StartTime = "6pm" }, "start_time"},
		{"missing end", func(r *CreateBookingReq) { r.EndTime = "" }, "end_time"},
		{"end before start", func(r *CreateBookingReq) { r.EndTime = "17:00" }, "end_time"},
		{"end equals start", func(r *CreateBookingReq) { r.EndTime = r.StartTime }, "end_time"},
		{"unpadded start", func(r *CreateBookingReq) { r.StartTime, r.EndTime = "9:00", "10:00" }, "start_time"},
		{"unpadded end", func(r *CreateBookingReq) { r.StartTime, r.EndTime = "10:00", "9:30" }, "end_time"},
		{"end before start in the morning", func(r *CreateBookingReq) { r.StartTime, r.EndTime = "10:00", "09:30" }, "end_time"},
		{"zero amount", func(r *CreateBookingReq) { r.TotalAmount = 0 }, "total_amount"},
		{"negative amount", func(r *CreateBookingReq) { r.TotalAmount = -5 }, "total_amount"},
		{"no guests", func(r *CreateBookingReq) { r.NumberOfGuests = 0 }, "number_of_guests"},
		{"missing location", func(r *CreateBookingReq) { r.Location = "" }, "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)

			err := req.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, ok := ve.FieldErrors[tt.field]; !ok {
				t.Fatalf("Expected error on %s, got %v", tt.field, ve.FieldErrors)
			}
		})
	}

	req := validCreate()
	if err := req.Validate(); err != nil {
		t.Fatalf("Expected valid request, got %v", err)
	}

	req.StartTime, req.EndTime = "09:00", "10:00"
	if err := req.Validate(); err != nil {
		t.Fatalf("Expected morning booking to be valid, got %v", err)
	}
}

func TestTransitionReq_Validate(t *testing.T) {
	bad := "archived"
	err := Validate(&TransitionReq{BookingID: "7f8d3c5e-8a44-4f0a-9d7e-2f1c0c6b1a11", Status: &bad})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.FieldErrors["status"] == "" {
		t.Fatalf("Expected status error, got %v", err)
	}

	err = Validate(&TransitionReq{})
	if !errors.As(err, &ve) || ve.FieldErrors["booking_id"] == "" {
		t.Fatalf("Expected booking_id error, got %v", err)
	}
}

func TestUserPatch_Validate(t *testing.T) {
	email := "not-an-email"
	err := Validate(&UserPatch{Email: &email})
	if !IsValidation(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	email = "ada@example.com"
	if err := Validate(&UserPatch{Email: &email}); err != nil {
		t.Fatalf("Expected valid patch, got %v", err)
	}
}

func TestCheckStatusMove(t *testing.T) {
	customer := Party{Customer: true}
	chef := Party{Chef: true}

	tests := []struct {
		name  string
		from  BookingStatus
		to    BookingStatus
		party Party
		ok    bool
	}{
		{"customer cancels pending", BookingPending, BookingCancelled, customer, true},
		{"customer cancels confirmed", BookingConfirmed, BookingCancelled, customer, true},
		{"customer cannot confirm", BookingPending, BookingConfirmed, customer, false},
		{"chef confirms", BookingPending, BookingConfirmed, chef, true},
		{"chef completes", BookingConfirmed, BookingCompleted, chef, true},
		{"chef cannot complete pending", BookingPending, BookingCompleted, chef, false},
		{"completed is terminal", BookingCompleted, BookingPending, chef, false},
		{"cancelled is terminal", BookingCancelled, BookingConfirmed, Party{Customer: true, Chef: true}, false},
		{"same status is a no-op", BookingCompleted, BookingCompleted, customer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStatusMove(tt.from, tt.to, tt.party)
			if tt.ok && err != nil {
				t.Fatalf("Expected move to be allowed, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("Expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestCheckPaymentMove(t *testing.T) {
	if err := CheckPaymentMove(PaymentPending, PaymentPaid); err != nil {
		t.Fatalf("Expected pending -> paid, got %v", err)
	}
	if err := CheckPaymentMove(PaymentPaid, PaymentRefunded); err != nil {
		t.Fatalf("Expected paid -> refunded, got %v", err)
	}
	if err := CheckPaymentMove(PaymentPending, PaymentRefunded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected pending -> refunded to fail, got %v", err)
	}
	if err := CheckPaymentMove(PaymentRefunded, PaymentPaid); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected refunded -> paid to fail, got %v", err)
	}
}

func TestParseStatuses(t *testing.T) {
	if _, ok := ParseBookingStatus("canceled"); ok {
		t.Fatal("Expected the American spelling to be rejected")
	}
	if s, ok := ParseBookingStatus("cancelled"); !ok || s != BookingCancelled {
		t.Fatalf("Unexpected parse result %q %v", s, ok)
	}
	if _, ok := ParsePaymentStatus("failed"); ok {
		t.Fatal("Expected unknown payment status to be rejected")
	}
}
