// Package testfixtures provides in-memory stand-ins for the marketplace's
// persistence, event bus and payment gateway.
package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

var referenceTime = time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)

// Store is an in-memory database shared by the fake repositories.
type Store struct {
	mu       sync.Mutex
	now      time.Time
	users    map[uuid.UUID]domain.User
	chefs    map[uuid.UUID]domain.Chef
	bookings map[uuid.UUID]domain.Booking

	// Err, when set, is returned by every repository call.
	Err error
}

func NewStore() *Store {
	return &Store{
		now:      referenceTime,
		users:    map[uuid.UUID]domain.User{},
		chefs:    map[uuid.UUID]domain.Chef{},
		bookings: map[uuid.UUID]domain.Booking{},
	}
}

// tick advances the fake clock so timestamps are strictly increasing.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) snapshot() (map[uuid.UUID]domain.User, map[uuid.UUID]domain.Chef, map[uuid.UUID]domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make(map[uuid.UUID]domain.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	chefs := make(map[uuid.UUID]domain.Chef, len(s.chefs))
	for k, v := range s.chefs {
		chefs[k] = v
	}
	bookings := make(map[uuid.UUID]domain.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookings[k] = v
	}
	return users, chefs, bookings
}

func (s *Store) restore(users map[uuid.UUID]domain.User, chefs map[uuid.UUID]domain.Chef, bookings map[uuid.UUID]domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.chefs, s.bookings = users, chefs, bookings
}

// Transactor rolls the store back when fn fails.
type Transactor struct {
	Store *Store
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	users, chefs, bookings := t.Store.snapshot()
	if err := fn(ctx); err != nil {
		t.Store.restore(users, chefs, bookings)
		return err
	}
	return nil
}

// ---------- Seeding ----------

type UserOption func(*domain.User)

func WithRole(role domain.Role) UserOption {
	return func(u *domain.User) { u.Role = role }
}

func WithContact(name, email string) UserOption {
	return func(u *domain.User) {
		u.FullName = &name
		u.Email = &email
	}
}

// AddUser seeds a user whose firebase uid is subject.
func (s *Store) AddUser(subject string, opts ...UserOption) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	u := domain.User{
		ID:          uuid.New(),
		FirebaseUID: subject,
		PhoneNumber: fmt.Sprintf("+1555%07d", len(s.users)+1),
		Role:        domain.RoleCustomer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(&u)
	}
	s.users[u.ID] = u
	return &u
}

// AddChef seeds a chef profile for owner and promotes the owner.
func (s *Store) AddChef(owner *domain.User, available bool) *domain.Chef {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	c := domain.Chef{
		ID:              uuid.New(),
		UserID:          owner.ID,
		Specialties:     []string{"italian"},
		HourlyRate:      60,
		IsAvailable:     available,
		PortfolioImages: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.chefs[c.ID] = c

	u := s.users[owner.ID]
	if u.Role != domain.RoleAdmin {
		u.Role = domain.RoleChef
		owner.Role = domain.RoleChef
	}
	s.users[owner.ID] = u
	return &c
}

// AddBooking seeds a booking between customer and chef.
func (s *Store) AddBooking(customer *domain.User, chef *domain.Chef, date, start string) *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	b := domain.Booking{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		ChefID:         chef.ID,
		BookingDate:    date,
		StartTime:      start,
		EndTime:        "23:00",
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentPending,
		TotalAmount:    120,
		NumberOfGuests: 2,
		Location:       "Test kitchen",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.bookings[b.ID] = b
	return &b
}

func (s *Store) User(id uuid.UUID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Chef(id uuid.UUID) (domain.Chef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chefs[id]
	return c, ok
}

func (s *Store) Booking(id uuid.UUID) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// SetAvailability flips a chef's availability flag.
func (s *Store) SetAvailability(chefID uuid.UUID, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chefs[chefID]
	c.IsAvailable = available
	s.chefs[chefID] = c
}

func sortBookings(bs []domain.Booking) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].BookingDate != bs[j].BookingDate {
			return bs[i].BookingDate > bs[j].BookingDate
		}
		if bs[i].StartTime != bs[j].StartTime {
			return bs[i].StartTime > bs[j].StartTime
		}
		return bs[i].CreatedAt.After(bs[j].CreatedAt)
	})
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
