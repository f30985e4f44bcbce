package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
)

// PaymentGateway is the card processor.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, bookingID uuid.UUID, amount int64, currency string) (*domain.PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}

// ErrWebhookSignature marks a webhook that failed verification.
var ErrWebhookSignature = errors.New("invalid webhook signature")

type PaymentService interface {
	CreateIntent(ctx context.Context, requester *domain.User, bookingID uuid.UUID) (*domain.PaymentIntent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	bookings repository.BookingRepository
	tx       database.Transactor
	gateway  PaymentGateway
	emitter  *bookingEmitter
	currency string
}

func NewPaymentService(
	bookings repository.BookingRepository,
	chefs repository.ChefRepository,
	users repository.UserRepository,
	tx database.Transactor,
	gateway PaymentGateway,
	publisher events.Publisher,
	currency string,
) PaymentService {
	return &paymentService{
		bookings: bookings,
		tx:       tx,
		gateway:  gateway,
		emitter:  &bookingEmitter{users: users, chefs: chefs, publisher: publisher},
		currency: currency,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, requester *domain.User, bookingID uuid.UUID) (*domain.PaymentIntent, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking.CustomerID != requester.ID {
		return nil, domain.ErrForbidden
	}
	if booking.Status == domain.BookingCancelled || booking.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("%w: booking is %s with payment %s", domain.ErrInvalidTransition, booking.Status, booking.PaymentStatus)
	}

	amount := int64(math.Round(booking.TotalAmount * 100))
	intent, err := s.gateway.CreateIntent(ctx, booking.ID, amount, s.currency)
	if err != nil {
		return nil, err
	}

	if _, err := s.bookings.Update(ctx, booking.ID, domain.BookingPatch{PaymentIntentID: &intent.ID}); err != nil {
		return nil, fmt.Errorf("store payment intent: %w", err)
	}

	logger.InfoContext(ctx, "Payment intent created", "booking_id", booking.ID, "payment_intent_id", intent.ID, "amount", amount)
	return intent, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	var (
		target  domain.PaymentStatus
		subject string
	)
	switch ev.Type {
	case domain.PaymentEventSucceeded:
		target, subject = domain.PaymentPaid, events.PaymentCaptured
	case domain.PaymentEventRefunded:
		target, subject = domain.PaymentRefunded, events.PaymentRefunded
	default:
		logger.DebugContext(ctx, "Ignoring payment webhook", "event_id", ev.ID, "type", ev.Type)
		return nil
	}
	if ev.IntentID == "" {
		logger.WarnContext(ctx, "Payment webhook without intent id", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	var updated *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByPaymentIntent(ctx, ev.IntentID)
		if err != nil {
			return fmt.Errorf("find booking by intent: %w", err)
		}
		// Redelivered events are acknowledged without a second update.
		if b.PaymentStatus == target {
			return nil
		}
		updated, err = s.bookings.Update(ctx, b.ID, domain.BookingPatch{PaymentStatus: &target})
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		logger.WarnContext(ctx, "Payment webhook for unknown intent", "event_id", ev.ID, "payment_intent_id", ev.IntentID)
		return nil
	}
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}

	logger.InfoContext(ctx, "Payment status updated", "booking_id", updated.ID, "payment_status", updated.PaymentStatus)
	s.emitter.emit(ctx, subject, updated, updated.Status, uuid.Nil)
	return nil
}
