package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, nb domain.NewBooking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// GetByIDForUpdate locks the booking row until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.BookingPatch) (*domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

// Dates and times travel as text so they round-trip exactly as submitted.
const bookingCols = `id, customer_id, chef_id,
booking_date::text, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
status, payment_status, total_amount::float8, number_of_guests, location,
special_requests, cuisine_type, payment_intent_id, created_at, updated_at`

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ChefID,
		&b.BookingDate, &b.StartTime, &b.EndTime,
		&b.Status, &b.PaymentStatus, &b.TotalAmount, &b.NumberOfGuests, &b.Location,
		&b.SpecialRequests, &b.CuisineType, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, nb domain.NewBooking) (*domain.Booking, error) {
	const q = `
		INSERT INTO bookings (
			customer_id, chef_id, booking_date, start_time, end_time,
			status, payment_status, total_amount, number_of_guests, location,
			special_requests, cuisine_type
		) VALUES ($1, $2, $3::text::date, $4::text::time, $5::text::time,
			'pending', 'pending', $6, $7, $8, $9, $10)
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanBooking(database.Conn(ctx, r.pool).QueryRow(ctx, q,
		nb.CustomerID, nb.ChefID, nb.BookingDate, nb.StartTime, nb.EndTime,
		nb.TotalAmount, nb.NumberOfGuests, nb.Location,
		nb.SpecialRequests, nb.CuisineType,
	))
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanBooking(database.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1 FOR UPDATE`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanBooking(database.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *bookingRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE payment_intent_id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanBooking(database.Conn(ctx, r.pool).QueryRow(ctx, q, intentID))
}

func (r *bookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE true`
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		q += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	if filter.ChefID != nil {
		args = append(args, *filter.ChefID)
		q += fmt.Sprintf(` AND chef_id = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	limit, offset := clampPage(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY booking_date DESC, start_time DESC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) Update(ctx context.Context, id uuid.UUID, patch domain.BookingPatch) (*domain.Booking, error) {
	const q = `
		UPDATE bookings SET
			status            = COALESCE($2, status),
			payment_status    = COALESCE($3, payment_status),
			payment_intent_id = COALESCE($4, payment_intent_id),
			updated_at        = now()
		WHERE id = $1
		RETURNING ` + bookingCols

	var status, paymentStatus *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	if patch.PaymentStatus != nil {
		s := string(*patch.PaymentStatus)
		paymentStatus = &s
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanBooking(database.Conn(ctx, r.pool).QueryRow(ctx, q, id, status, paymentStatus, patch.PaymentIntentID))
}
