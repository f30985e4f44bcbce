package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleChef     Role = "chef"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	PhoneNumber string    `json:"phone_number"`
	Email       *string   `json:"email"`
	FullName    *string   `json:"full_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSummary is the contact slice of a user embedded in chefs and bookings.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	FullName    *string   `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	Email       *string   `json:"email"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch holds the self-service profile fields. Nil means unchanged.
type UserPatch struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=200"`
	Email     *string `json:"email" validate:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

func (p UserPatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.AvatarURL == nil
}
