package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/testfixtures"
)

// ---------- Test Setup ----------

type harness struct {
	store     *testfixtures.Store
	tx        *testfixtures.Transactor
	publisher *testfixtures.RecordingPublisher
	admin     *testfixtures.FakeAdmin
	gateway   *testfixtures.FakeGateway

	users    testfixtures.UserRepository
	chefs    testfixtures.ChefRepository
	bookings testfixtures.BookingRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.SetDefault(logger.New(io.Discard, "error"))

	store := testfixtures.NewStore()
	return &harness{
		store:     store,
		tx:        &testfixtures.Transactor{Store: store},
		publisher: &testfixtures.RecordingPublisher{},
		admin:     &testfixtures.FakeAdmin{},
		gateway:   &testfixtures.FakeGateway{},
		users:     testfixtures.UserRepository{S: store},
		chefs:     testfixtures.ChefRepository{S: store},
		bookings:  testfixtures.BookingRepository{S: store},
	}
}

func (h *harness) bookingService(strict bool) service.BookingService {
	return service.NewBookingService(h.bookings, h.chefs, h.users, h.tx, h.publisher, service.BookingOptions{StrictTransitions: strict})
}

func (h *harness) chefService() service.ChefService {
	return service.NewChefService(h.chefs, h.users, h.tx, h.publisher)
}

func (h *harness) paymentService() service.PaymentService {
	return service.NewPaymentService(h.bookings, h.chefs, h.users, h.tx, h.gateway, h.publisher, "usd")
}

// fixture seeds a customer and an available chef.
func (h *harness) fixture() (*domain.User, *domain.User, *domain.Chef) {
	customer := h.store.AddUser("customer-uid", testfixtures.WithContact("Casey Customer", "casey@example.com"))
	cook := h.store.AddUser("chef-uid", testfixtures.WithContact("Remy Chef", "remy@example.com"))
	chef := h.store.AddChef(cook, true)
	return customer, cook, chef
}

func bookingReq(chefID string) *domain.CreateBookingReq {
	return &domain.CreateBookingReq{
		ChefID:         chefID,
		BookingDate:    "2026-12-24",
		StartTime:      "18:00",
		EndTime:        "21:30",
		TotalAmount:    240.5,
		NumberOfGuests: 4,
		Location:       "12 Elm Street",
	}
}

func strPtr(s string) *string { return &s }

var ctx = context.Background()
