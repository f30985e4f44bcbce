package domain

import (
	"time"

	"github.com/google/uuid"
)

type Chef struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	Bio             *string      `json:"bio"`
	Specialties     []string     `json:"specialties"`
	ExperienceYears int          `json:"experience_years"`
	HourlyRate      float64      `json:"hourly_rate"`
	Rating          float64      `json:"rating"`
	TotalBookings   int          `json:"total_bookings"`
	IsVerified      bool         `json:"is_verified"`
	IsAvailable     bool         `json:"is_available"`
	Location        *string      `json:"location"`
	PortfolioImages []string     `json:"portfolio_images"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	User            *UserSummary `json:"user,omitempty"`
}

type CreateChefReq struct {
	Bio             *string  `json:"bio" validate:"omitempty,max=2000"`
	Specialties     []string `json:"specialties" validate:"omitempty,max=20,dive,required,max=64"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0,lte=80"`
	HourlyRate      float64  `json:"hourly_rate" validate:"gte=0"`
	Location        *string  `json:"location" validate:"omitempty,max=500"`
	PortfolioImages []string `json:"portfolio_images" validate:"omitempty,max=20,dive,url"`
}

// ChefPatch updates the owner's profile. Nil means unchanged.
type ChefPatch struct {
	Bio             *string   `json:"bio" validate:"omitempty,max=2000"`
	Specialties     *[]string `json:"specialties" validate:"omitempty,max=20,dive,required,max=64"`
	ExperienceYears *int      `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
	HourlyRate      *float64  `json:"hourly_rate" validate:"omitempty,gte=0"`
	IsAvailable     *bool     `json:"is_available"`
	Location        *string   `json:"location" validate:"omitempty,max=500"`
	PortfolioImages *[]string `json:"portfolio_images" validate:"omitempty,max=20,dive,url"`
}

type ChefFilter struct {
	AvailableOnly bool
	Specialty     string
	Limit         int
	Offset        int
}
