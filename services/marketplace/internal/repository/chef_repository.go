package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

type ChefRepository interface {
	// GetByID returns the chef with its owner's contact summary.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chef, error)
	// GetByIDs is GetByID for a batch. Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Chef, error)
	// GetByIDForShare locks the chef row against updates until the
	// surrounding transaction ends.
	GetByIDForShare(ctx context.Context, id uuid.UUID) (*domain.Chef, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Chef, error)
	List(ctx context.Context, filter domain.ChefFilter) ([]domain.Chef, error)
	Create(ctx context.Context, userID uuid.UUID, req domain.CreateChefReq) (*domain.Chef, error)
	Update(ctx context.Context, userID uuid.UUID, patch domain.ChefPatch) (*domain.Chef, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type chefRepository struct {
	pool *pgxpool.Pool
}

func NewChefRepository(pool *pgxpool.Pool) ChefRepository {
	return &chefRepository{pool: pool}
}

const chefCols = `c.id, c.user_id, c.bio, c.specialties, c.experience_years,
c.hourly_rate::float8, c.rating::float8, c.total_bookings, c.is_verified, c.is_available,
c.location, c.portfolio_images, c.created_at, c.updated_at`

const chefWithUserCols = chefCols + `,
u.id, u.full_name, u.phone_number, u.email, u.avatar_url`

func chefDest(c *domain.Chef) []any {
	return []any{
		&c.ID, &c.UserID, &c.Bio, &c.Specialties, &c.ExperienceYears,
		&c.HourlyRate, &c.Rating, &c.TotalBookings, &c.IsVerified, &c.IsAvailable,
		&c.Location, &c.PortfolioImages, &c.CreatedAt, &c.UpdatedAt,
	}
}

func scanChef(row scanner) (*domain.Chef, error) {
	var c domain.Chef
	if err := row.Scan(chefDest(&c)...); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func scanChefWithUser(row scanner) (*domain.Chef, error) {
	var c domain.Chef
	u := &domain.UserSummary{}
	dest := append(chefDest(&c), &u.ID, &u.FullName, &u.PhoneNumber, &u.Email, &u.AvatarURL)
	if err := row.Scan(dest...); err != nil {
		return nil, translate(err)
	}
	c.User = u
	return &c, nil
}

func (r *chefRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chef, error) {
	const q = `SELECT ` + chefWithUserCols + `
		FROM chefs c JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanChefWithUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *chefRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Chef, error) {
	const q = `SELECT ` + chefWithUserCols + `
		FROM chefs c JOIN users u ON u.id = c.user_id
		WHERE c.id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chefs := make([]domain.Chef, 0, len(ids))
	for rows.Next() {
		c, err := scanChefWithUser(rows)
		if err != nil {
			return nil, err
		}
		chefs = append(chefs, *c)
	}
	return chefs, rows.Err()
}

func (r *chefRepository) GetByIDForShare(ctx context.Context, id uuid.UUID) (*domain.Chef, error) {
	const q = `SELECT ` + chefCols + ` FROM chefs c WHERE c.id = $1 FOR SHARE`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanChef(database.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *chefRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Chef, error) {
	const q = `SELECT ` + chefCols + ` FROM chefs c WHERE c.user_id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanChef(database.Conn(ctx, r.pool).QueryRow(ctx, q, userID))
}

func (r *chefRepository) List(ctx context.Context, filter domain.ChefFilter) ([]domain.Chef, error) {
	const q = `SELECT ` + chefWithUserCols + `
		FROM chefs c JOIN users u ON u.id = c.user_id
		WHERE ($1::bool = false OR c.is_available)
		  AND ($2::text = '' OR $2::text = ANY (c.specialties))
		ORDER BY c.rating DESC, c.created_at DESC
		LIMIT $3 OFFSET $4`

	limit, offset := clampPage(filter.Limit, filter.Offset)
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, filter.AvailableOnly, filter.Specialty, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chefs := []domain.Chef{}
	for rows.Next() {
		c, err := scanChefWithUser(rows)
		if err != nil {
			return nil, err
		}
		chefs = append(chefs, *c)
	}
	return chefs, rows.Err()
}

func (r *chefRepository) Create(ctx context.Context, userID uuid.UUID, req domain.CreateChefReq) (*domain.Chef, error) {
	const q = `
		INSERT INTO chefs AS c (user_id, bio, specialties, experience_years, hourly_rate, location, portfolio_images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + chefCols

	specialties := req.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	images := req.PortfolioImages
	if images == nil {
		images = []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanChef(database.Conn(ctx, r.pool).QueryRow(ctx, q,
		userID, req.Bio, specialties, req.ExperienceYears, req.HourlyRate, req.Location, images,
	))
}

func (r *chefRepository) Update(ctx context.Context, userID uuid.UUID, patch domain.ChefPatch) (*domain.Chef, error) {
	const q = `
		UPDATE chefs c SET
			bio              = COALESCE($2, c.bio),
			specialties      = COALESCE($3, c.specialties),
			experience_years = COALESCE($4, c.experience_years),
			hourly_rate      = COALESCE($5, c.hourly_rate),
			is_available     = COALESCE($6, c.is_available),
			location         = COALESCE($7, c.location),
			portfolio_images = COALESCE($8, c.portfolio_images),
			updated_at       = now()
		WHERE c.user_id = $1
		RETURNING ` + chefCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanChef(database.Conn(ctx, r.pool).QueryRow(ctx, q,
		userID, patch.Bio, patch.Specialties, patch.ExperienceYears, patch.HourlyRate,
		patch.IsAvailable, patch.Location, patch.PortfolioImages,
	))
}

func (r *chefRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	const q = `DELETE FROM chefs WHERE user_id = $1 RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id uuid.UUID
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, q, userID).Scan(&id); err != nil {
		return uuid.Nil, translate(err)
	}
	return id, nil
}
