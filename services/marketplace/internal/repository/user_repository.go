package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

type UserRepository interface {
	FindByExternalID(ctx context.Context, firebaseUID string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
	// Upsert creates a customer for an unseen subject, or touches updated_at.
	Upsert(ctx context.Context, firebaseUID, phoneNumber string) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, firebase_uid, phone_number, email, full_name, avatar_url, role, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirebaseUID, &u.PhoneNumber,
		&u.Email, &u.FullName, &u.AvatarURL,
		&u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, firebaseUID string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE firebase_uid = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, firebaseUID))
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) Upsert(ctx context.Context, firebaseUID, phoneNumber string) (*domain.User, error) {
	const q = `
		INSERT INTO users (firebase_uid, phone_number, role)
		VALUES ($1, $2, 'customer')
		ON CONFLICT (firebase_uid) DO UPDATE SET updated_at = now()
		RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, firebaseUID, phoneNumber))
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	const q = `
		UPDATE users SET
			full_name  = COALESCE($2, full_name),
			email      = COALESCE($3, email),
			avatar_url = COALESCE($4, avatar_url),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, id, patch.FullName, patch.Email, patch.AvatarURL))
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	const q = `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, q, id, string(role))
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, q, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
