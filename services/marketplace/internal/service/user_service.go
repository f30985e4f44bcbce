package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
)

type UserService interface {
	// SignIn verifies an identity token and upserts its subject.
	SignIn(ctx context.Context, idToken string) (*domain.User, error)
	// Resolve maps a verified subject to its user row.
	Resolve(ctx context.Context, subject string) (*domain.User, error)
	Get(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, requester *domain.User, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, requester *domain.User) error
}

type userService struct {
	users     repository.UserRepository
	verifier  auth.Verifier
	admin     auth.Admin
	publisher events.Publisher
}

func NewUserService(users repository.UserRepository, verifier auth.Verifier, admin auth.Admin, publisher events.Publisher) UserService {
	return &userService{
		users:     users,
		verifier:  verifier,
		admin:     admin,
		publisher: publisher,
	}
}

func (s *userService) SignIn(ctx context.Context, idToken string) (*domain.User, error) {
	if idToken == "" {
		return nil, domain.NewValidationError("idToken", "is required")
	}

	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if id.PhoneNumber == "" {
		return nil, domain.NewValidationError("idToken", "phone number not found in token")
	}

	user, err := s.users.Upsert(ctx, id.Subject, id.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	logger.InfoContext(ctx, "User signed in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Resolve(ctx context.Context, subject string) (*domain.User, error) {
	user, err := s.users.FindByExternalID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.User, error) {
	if id == requester.ID {
		return requester, nil
	}
	if !requester.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, requester *domain.User, patch domain.UserPatch) (*domain.User, error) {
	if err := domain.Validate(&patch); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, requester.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, requester *domain.User) error {
	if err := s.users.Delete(ctx, requester.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.admin.DeleteAccount(ctx, requester.FirebaseUID); err != nil {
		return fmt.Errorf("delete identity account: %w", err)
	}

	logger.InfoContext(ctx, "User deleted", "user_id", requester.ID)

	ev := events.UserDeletedEvent{
		UserID:      requester.ID.String(),
		FirebaseUID: requester.FirebaseUID,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.UserDeleted, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user deleted event", "error", err, "user_id", requester.ID)
	}
	return nil
}
