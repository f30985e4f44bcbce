package service_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
)

func TestPaymentCreateIntent(t *testing.T) {
	h := newHarness(t)
	customer, cook, chef := h.fixture()
	seeded := h.store.AddBooking(customer, chef, "2026-12-24", "18:00")
	svc := h.paymentService()

	if _, err := svc.CreateIntent(ctx, cook, seeded.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected chef to be forbidden, got %v", err)
	}

	intent, err := svc.CreateIntent(ctx, customer, seeded.ID)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if intent.Amount != 12000 || intent.Currency != "usd" {
		t.Fatalf("Expected 12000 usd, got %d %s", intent.Amount, intent.Currency)
	}

	b, _ := h.store.Booking(seeded.ID)
	if b.PaymentIntentID == nil || *b.PaymentIntentID != intent.ID {
		t.Fatalf("Expected intent %s stored on booking, got %v", intent.ID, b.PaymentIntentID)
	}

	if _, err := svc.CreateIntent(ctx, customer, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPaymentCreateIntent_NotPayable(t *testing.T) {
	h := newHarness(t)
	customer, _, chef := h.fixture()
	svc := h.paymentService()

	cancelled := h.store.AddBooking(customer, chef, "2026-12-24", "18:00")
	st := domain.BookingCancelled
	h.bookings.Update(ctx, cancelled.ID, domain.BookingPatch{Status: &st})

	paid := h.store.AddBooking(customer, chef, "2026-12-25", "18:00")
	ps := domain.PaymentPaid
	h.bookings.Update(ctx, paid.ID, domain.BookingPatch{PaymentStatus: &ps})

	for _, id := range []uuid.UUID{cancelled.ID, paid.ID} {
		if _, err := svc.CreateIntent(ctx, customer, id); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("Expected ErrInvalidTransition, got %v", err)
		}
	}
	if len(h.gateway.Intents) != 0 {
		t.Fatalf("Expected no intents created, got %d", len(h.gateway.Intents))
	}
}

func TestPaymentWebhook_Lifecycle(t *testing.T) {
	h := newHarness(t)
	customer, _, chef := h.fixture()
	seeded := h.store.AddBooking(customer, chef, "2026-12-24", "18:00")
	svc := h.paymentService()

	intent, err := svc.CreateIntent(ctx, customer, seeded.ID)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	h.gateway.Event = &domain.PaymentEvent{ID: "evt_1", Type: domain.PaymentEventSucceeded, IntentID: intent.ID}
	if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if b, _ := h.store.Booking(seeded.ID); b.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("Expected paid, got %s", b.PaymentStatus)
	}

	// Redelivery is acknowledged without a second event.
	if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("Redelivered HandleWebhook failed: %v", err)
	}

	h.gateway.Event = &domain.PaymentEvent{ID: "evt_2", Type: domain.PaymentEventRefunded, IntentID: intent.ID}
	if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("Refund HandleWebhook failed: %v", err)
	}
	if b, _ := h.store.Booking(seeded.ID); b.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("Expected refunded, got %s", b.PaymentStatus)
	}

	subjects := h.publisher.Subjects()
	if len(subjects) != 2 || subjects[0] != events.PaymentCaptured || subjects[1] != events.PaymentRefunded {
		t.Fatalf("Expected payment.captured then payment.refunded, got %v", subjects)
	}
}

func TestPaymentWebhook_Ignored(t *testing.T) {
	h := newHarness(t)
	svc := h.paymentService()

	tests := []struct {
		name  string
		event *domain.PaymentEvent
	}{
		{"other type", &domain.PaymentEvent{ID: "evt_1", Type: "customer.created"}},
		{"unknown intent", &domain.PaymentEvent{ID: "evt_2", Type: domain.PaymentEventSucceeded, IntentID: "pi_missing"}},
		{"no intent", &domain.PaymentEvent{ID: "evt_3", Type: domain.PaymentEventSucceeded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.gateway.Event = tt.event
			if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
				t.Fatalf("Expected ack, got %v", err)
			}
		})
	}
	if len(h.publisher.Events()) != 0 {
		t.Fatalf("Expected no events, got %v", h.publisher.Subjects())
	}
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	h := newHarness(t)
	h.gateway.ParseErr = errors.New("signature mismatch")

	err := h.paymentService().HandleWebhook(ctx, []byte("{}"), "bad")
	if !errors.Is(err, service.ErrWebhookSignature) {
		t.Fatalf("Expected ErrWebhookSignature, got %v", err)
	}
}
