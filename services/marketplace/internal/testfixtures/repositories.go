package testfixtures

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// ---------- Users ----------

type UserRepository struct{ S *Store }

func (r UserRepository) FindByExternalID(ctx context.Context, firebaseUID string) (*domain.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	for _, u := range r.S.users {
		if u.FirebaseUID == firebaseUID {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	u, ok := r.S.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	users := []domain.User{}
	for _, id := range ids {
		if u, ok := r.S.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r UserRepository) Upsert(ctx context.Context, firebaseUID, phoneNumber string) (*domain.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}

	now := r.S.tick()
	for id, u := range r.S.users {
		if u.FirebaseUID == firebaseUID {
			u.UpdatedAt = now
			r.S.users[id] = u
			return &u, nil
		}
	}
	u := domain.User{
		ID:          uuid.New(),
		FirebaseUID: firebaseUID,
		PhoneNumber: phoneNumber,
		Role:        domain.RoleCustomer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.S.users[u.ID] = u
	return &u, nil
}

func (r UserRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	u, ok := r.S.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.FullName != nil {
		u.FullName = patch.FullName
	}
	if patch.Email != nil {
		u.Email = patch.Email
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = patch.AvatarURL
	}
	u.UpdatedAt = r.S.tick()
	r.S.users[id] = u
	return &u, nil
}

func (r UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return r.S.Err
	}
	u, ok := r.S.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.S.tick()
	r.S.users[id] = u
	return nil
}

// Delete cascades to the user's chef profile and every booking that
// references the user as customer or chef.
func (r UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return r.S.Err
	}
	if _, ok := r.S.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.S.users, id)

	for cid, c := range r.S.chefs {
		if c.UserID != id {
			continue
		}
		delete(r.S.chefs, cid)
		for bid, b := range r.S.bookings {
			if b.ChefID == cid {
				delete(r.S.bookings, bid)
			}
		}
	}
	for bid, b := range r.S.bookings {
		if b.CustomerID == id {
			delete(r.S.bookings, bid)
		}
	}
	return nil
}

// ---------- Chefs ----------

type ChefRepository struct{ S *Store }

// withOwner must be called with the store locked.
func (r ChefRepository) withOwner(c domain.Chef) *domain.Chef {
	if u, ok := r.S.users[c.UserID]; ok {
		c.User = u.Summary()
	}
	return &c
}

func (r ChefRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	c, ok := r.S.chefs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withOwner(c), nil
}

func (r ChefRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	chefs := []domain.Chef{}
	for _, id := range ids {
		if c, ok := r.S.chefs[id]; ok {
			chefs = append(chefs, *r.withOwner(c))
		}
	}
	return chefs, nil
}

func (r ChefRepository) GetByIDForShare(ctx context.Context, id uuid.UUID) (*domain.Chef, error) {
	return r.GetByID(ctx, id)
}

func (r ChefRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	for _, c := range r.S.chefs {
		if c.UserID == userID {
			return r.withOwner(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r ChefRepository) List(ctx context.Context, filter domain.ChefFilter) ([]domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}

	out := []domain.Chef{}
	for _, c := range r.S.chefs {
		if filter.AvailableOnly && !c.IsAvailable {
			continue
		}
		if filter.Specialty != "" && !slices.Contains(c.Specialties, filter.Specialty) {
			continue
		}
		out = append(out, *r.withOwner(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r ChefRepository) Create(ctx context.Context, userID uuid.UUID, req domain.CreateChefReq) (*domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	if _, ok := r.S.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	for _, c := range r.S.chefs {
		if c.UserID == userID {
			return nil, domain.ErrConflict
		}
	}

	now := r.S.tick()
	c := domain.Chef{
		ID:              uuid.New(),
		UserID:          userID,
		Bio:             req.Bio,
		Specialties:     orEmpty(req.Specialties),
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
		IsAvailable:     true,
		Location:        req.Location,
		PortfolioImages: orEmpty(req.PortfolioImages),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.S.chefs[c.ID] = c
	return r.withOwner(c), nil
}

func (r ChefRepository) Update(ctx context.Context, userID uuid.UUID, patch domain.ChefPatch) (*domain.Chef, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	for id, c := range r.S.chefs {
		if c.UserID != userID {
			continue
		}
		if patch.Bio != nil {
			c.Bio = patch.Bio
		}
		if patch.Specialties != nil {
			c.Specialties = *patch.Specialties
		}
		if patch.ExperienceYears != nil {
			c.ExperienceYears = *patch.ExperienceYears
		}
		if patch.HourlyRate != nil {
			c.HourlyRate = *patch.HourlyRate
		}
		if patch.IsAvailable != nil {
			c.IsAvailable = *patch.IsAvailable
		}
		if patch.Location != nil {
			c.Location = patch.Location
		}
		if patch.PortfolioImages != nil {
			c.PortfolioImages = *patch.PortfolioImages
		}
		c.UpdatedAt = r.S.tick()
		r.S.chefs[id] = c
		return r.withOwner(c), nil
	}
	return nil, domain.ErrNotFound
}

func (r ChefRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return uuid.Nil, r.S.Err
	}
	for id, c := range r.S.chefs {
		if c.UserID != userID {
			continue
		}
		delete(r.S.chefs, id)
		for bid, b := range r.S.bookings {
			if b.ChefID == id {
				delete(r.S.bookings, bid)
			}
		}
		return id, nil
	}
	return uuid.Nil, domain.ErrNotFound
}

// ---------- Bookings ----------

type BookingRepository struct{ S *Store }

func (r BookingRepository) Create(ctx context.Context, nb domain.NewBooking) (*domain.Booking, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	if _, ok := r.S.users[nb.CustomerID]; !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := r.S.chefs[nb.ChefID]; !ok {
		return nil, domain.ErrNotFound
	}

	now := r.S.tick()
	b := domain.Booking{
		ID:              uuid.New(),
		CustomerID:      nb.CustomerID,
		ChefID:          nb.ChefID,
		BookingDate:     nb.BookingDate,
		StartTime:       nb.StartTime,
		EndTime:         nb.EndTime,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentPending,
		TotalAmount:     nb.TotalAmount,
		NumberOfGuests:  nb.NumberOfGuests,
		Location:        nb.Location,
		SpecialRequests: nb.SpecialRequests,
		CuisineType:     nb.CuisineType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.S.bookings[b.ID] = b
	return &b, nil
}

func (r BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	b, ok := r.S.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r BookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r BookingRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	for _, b := range r.S.bookings {
		if b.PaymentIntentID != nil && *b.PaymentIntentID == intentID {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}

	out := []domain.Booking{}
	for _, b := range r.S.bookings {
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.ChefID != nil && b.ChefID != *filter.ChefID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return page(out, filter.Limit, filter.Offset), nil
}

func (r BookingRepository) Update(ctx context.Context, id uuid.UUID, patch domain.BookingPatch) (*domain.Booking, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.Err != nil {
		return nil, r.S.Err
	}
	b, ok := r.S.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		b.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentIntentID != nil {
		b.PaymentIntentID = patch.PaymentIntentID
	}
	b.UpdatedAt = r.S.tick()
	r.S.bookings[id] = b
	return &b, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
