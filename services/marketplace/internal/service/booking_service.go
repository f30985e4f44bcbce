package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
)

type BookingService interface {
	Create(ctx context.Context, customer *domain.User, req *domain.CreateBookingReq) (*domain.Booking, error)
	Get(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, requester *domain.User, filter domain.BookingFilter) ([]domain.Booking, error)
	Transition(ctx context.Context, requester *domain.User, req *domain.TransitionReq) (*domain.Booking, error)
	Cancel(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Booking, error)
}

type BookingOptions struct {
	// StrictTransitions enforces the actor-aware lifecycle graph.
	StrictTransitions bool
}

type bookingService struct {
	bookings repository.BookingRepository
	chefs    repository.ChefRepository
	users    repository.UserRepository
	tx       database.Transactor
	emitter  *bookingEmitter
	opts     BookingOptions
}

func NewBookingService(
	bookings repository.BookingRepository,
	chefs repository.ChefRepository,
	users repository.UserRepository,
	tx database.Transactor,
	publisher events.Publisher,
	opts BookingOptions,
) BookingService {
	return &bookingService{
		bookings: bookings,
		chefs:    chefs,
		users:    users,
		tx:       tx,
		emitter:  &bookingEmitter{users: users, chefs: chefs, publisher: publisher},
		opts:     opts,
	}
}

func (s *bookingService) Create(ctx context.Context, customer *domain.User, req *domain.CreateBookingReq) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	chefID, err := uuid.Parse(req.ChefID)
	if err != nil {
		return nil, domain.NewValidationError("chef_id", "must be a valid id")
	}

	var booking *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The share lock holds off availability flips until the insert commits.
		chef, err := s.chefs.GetByIDForShare(ctx, chefID)
		if err != nil {
			return fmt.Errorf("load chef: %w", err)
		}
		if !chef.IsAvailable {
			return domain.ErrChefUnavailable
		}

		booking, err = s.bookings.Create(ctx, domain.NewBooking{
			CustomerID:      customer.ID,
			ChefID:          chef.ID,
			BookingDate:     req.BookingDate,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			TotalAmount:     req.TotalAmount,
			NumberOfGuests:  req.NumberOfGuests,
			Location:        req.Location,
			SpecialRequests: req.SpecialRequests,
			CuisineType:     req.CuisineType,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Booking created", "booking_id", booking.ID, "chef_id", booking.ChefID)
	s.emitter.emit(ctx, events.BookingCreated, booking, "", customer.ID)

	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	customer, chef, err := loadParties(ctx, s.users, s.chefs, booking)
	if err != nil {
		return nil, fmt.Errorf("load booking parties: %w", err)
	}

	if !requester.IsAdmin() && requester.ID != booking.CustomerID && requester.ID != chef.UserID {
		return nil, domain.ErrForbidden
	}

	booking.Customer = customer.Summary()
	booking.Chef = chef
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, requester *domain.User, filter domain.BookingFilter) ([]domain.Booking, error) {
	filter.CustomerID = nil
	filter.ChefID = nil

	switch requester.Role {
	case domain.RoleAdmin:
	case domain.RoleChef:
		chef, err := s.chefs.GetByUserID(ctx, requester.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Booking{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load chef profile: %w", err)
		}
		filter.ChefID = &chef.ID
	default:
		filter.CustomerID = &requester.ID
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if err := attachParties(ctx, s.users, s.chefs, bookings); err != nil {
		return nil, fmt.Errorf("load booking parties: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) Transition(ctx context.Context, requester *domain.User, req *domain.TransitionReq) (*domain.Booking, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, domain.NewValidationError("booking_id", "must be a valid id")
	}

	var patch domain.BookingPatch
	if req.Status != nil {
		st, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			return nil, domain.NewValidationError("status", "unknown booking status")
		}
		patch.Status = &st
	}
	if req.PaymentStatus != nil {
		ps, ok := domain.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			return nil, domain.NewValidationError("payment_status", "unknown payment status")
		}
		patch.PaymentStatus = &ps
	}

	var before, after *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		chef, err := s.chefs.GetByID(ctx, b.ChefID)
		if err != nil {
			return fmt.Errorf("load chef: %w", err)
		}

		party := domain.Party{Customer: b.CustomerID == requester.ID, Chef: chef.UserID == requester.ID}
		if !party.Any() {
			return domain.ErrForbidden
		}

		if s.opts.StrictTransitions {
			if patch.Status != nil {
				if err := domain.CheckStatusMove(b.Status, *patch.Status, party); err != nil {
					return err
				}
			}
			if patch.PaymentStatus != nil {
				if err := domain.CheckPaymentMove(b.PaymentStatus, *patch.PaymentStatus); err != nil {
					return err
				}
			}
		}

		before = b
		after, err = s.bookings.Update(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Booking updated",
		"booking_id", after.ID,
		"status", after.Status,
		"payment_status", after.PaymentStatus,
	)

	subject := events.BookingUpdated
	if after.Status == domain.BookingCancelled && before.Status != domain.BookingCancelled {
		subject = events.BookingCancelled
	}
	s.emitter.emit(ctx, subject, after, before.Status, requester.ID)

	return after, nil
}

func (s *bookingService) Cancel(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		prev    domain.BookingStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b.CustomerID != requester.ID {
			return domain.ErrForbidden
		}

		prev = b.Status
		if b.Status == domain.BookingCancelled {
			booking = b
			return nil
		}
		if s.opts.StrictTransitions {
			if err := domain.CheckStatusMove(b.Status, domain.BookingCancelled, domain.Party{Customer: true}); err != nil {
				return err
			}
		}

		cancelled := domain.BookingCancelled
		booking, err = s.bookings.Update(ctx, id, domain.BookingPatch{Status: &cancelled})
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if prev == domain.BookingCancelled {
		return booking, nil
	}

	logger.InfoContext(ctx, "Booking cancelled", "booking_id", booking.ID)
	s.emitter.emit(ctx, events.BookingCancelled, booking, prev, requester.ID)

	return booking, nil
}
