package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
)

// loadParties fetches a booking's customer and chef concurrently.
func loadParties(ctx context.Context, users repository.UserRepository, chefs repository.ChefRepository, b *domain.Booking) (*domain.User, *domain.Chef, error) {
	var (
		customer *domain.User
		chef     *domain.Chef
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := users.FindByID(gctx, b.CustomerID)
		customer = u
		return err
	})
	g.Go(func() error {
		c, err := chefs.GetByID(gctx, b.ChefID)
		chef = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return customer, chef, nil
}

// attachParties fills Customer and Chef on a page of bookings with one
// batched lookup per side.
func attachParties(ctx context.Context, users repository.UserRepository, chefs repository.ChefRepository, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	var customerIDs, chefIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, b := range bookings {
		if !seen[b.CustomerID] {
			seen[b.CustomerID] = true
			customerIDs = append(customerIDs, b.CustomerID)
		}
		if !seen[b.ChefID] {
			seen[b.ChefID] = true
			chefIDs = append(chefIDs, b.ChefID)
		}
	}

	var (
		customers []domain.User
		cooks     []domain.Chef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = users.FindByIDs(gctx, customerIDs)
		return err
	})
	g.Go(func() error {
		var err error
		cooks, err = chefs.GetByIDs(gctx, chefIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byUser := make(map[uuid.UUID]*domain.UserSummary, len(customers))
	for i := range customers {
		byUser[customers[i].ID] = customers[i].Summary()
	}
	byChef := make(map[uuid.UUID]*domain.Chef, len(cooks))
	for i := range cooks {
		byChef[cooks[i].ID] = &cooks[i]
	}
	for i := range bookings {
		bookings[i].Customer = byUser[bookings[i].CustomerID]
		bookings[i].Chef = byChef[bookings[i].ChefID]
	}
	return nil
}

// bookingEmitter publishes booking and payment events enriched with the
// parties' contacts. Publishing never fails the caller.
type bookingEmitter struct {
	users     repository.UserRepository
	chefs     repository.ChefRepository
	publisher events.Publisher
}

func (e *bookingEmitter) emit(ctx context.Context, subject string, b *domain.Booking, prev domain.BookingStatus, actor uuid.UUID) {
	ev := events.BookingEvent{
		BookingID:     b.ID.String(),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Location:      b.Location,
		TotalAmount:   b.TotalAmount,
		Customer:      events.Party{UserID: b.CustomerID.String()},
		Chef:          events.Party{},
		OccurredAt:    time.Now().UTC(),
	}
	if prev != "" && prev != b.Status {
		ev.PrevStatus = string(prev)
	}
	if actor != uuid.Nil {
		ev.ActorID = actor.String()
	}

	customer, chef, err := loadParties(ctx, e.users, e.chefs, b)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load booking parties for event", "error", err, "booking_id", b.ID)
	} else {
		ev.Customer = partyOf(customer.Summary())
		ev.Chef = partyOf(chef.User)
	}

	if err := e.publisher.Publish(ctx, subject, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking event", "error", err, "subject", subject, "booking_id", b.ID)
	}
}

func partyOf(u *domain.UserSummary) events.Party {
	if u == nil {
		return events.Party{}
	}
	p := events.Party{UserID: u.ID.String()}
	if u.FullName != nil {
		p.Name = *u.FullName
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	return p
}
