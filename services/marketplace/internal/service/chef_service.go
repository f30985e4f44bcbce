package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
)

type ChefService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Chef, error)
	List(ctx context.Context, filter domain.ChefFilter) ([]domain.Chef, error)
	Create(ctx context.Context, owner *domain.User, req *domain.CreateChefReq) (*domain.Chef, error)
	Update(ctx context.Context, owner *domain.User, patch *domain.ChefPatch) (*domain.Chef, error)
	Delete(ctx context.Context, owner *domain.User) error
}

type chefService struct {
	chefs     repository.ChefRepository
	users     repository.UserRepository
	tx        database.Transactor
	publisher events.Publisher
}

func NewChefService(chefs repository.ChefRepository, users repository.UserRepository, tx database.Transactor, publisher events.Publisher) ChefService {
	return &chefService{
		chefs:     chefs,
		users:     users,
		tx:        tx,
		publisher: publisher,
	}
}

func (s *chefService) Get(ctx context.Context, id uuid.UUID) (*domain.Chef, error) {
	chef, err := s.chefs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get chef: %w", err)
	}
	return chef, nil
}

func (s *chefService) List(ctx context.Context, filter domain.ChefFilter) ([]domain.Chef, error) {
	chefs, err := s.chefs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list chefs: %w", err)
	}
	return chefs, nil
}

func (s *chefService) Create(ctx context.Context, owner *domain.User, req *domain.CreateChefReq) (*domain.Chef, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	var chef *domain.Chef
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		chef, err = s.chefs.Create(ctx, owner.ID, *req)
		if err != nil {
			return fmt.Errorf("create chef: %w", err)
		}
		// Admins keep their role when they also cook.
		if owner.Role != domain.RoleAdmin {
			if err := s.users.UpdateRole(ctx, owner.ID, domain.RoleChef); err != nil {
				return fmt.Errorf("promote user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Chef profile created", "chef_id", chef.ID, "user_id", owner.ID)
	s.publish(ctx, events.ChefProfileCreated, chef.ID, owner.ID)

	return chef, nil
}

func (s *chefService) Update(ctx context.Context, owner *domain.User, patch *domain.ChefPatch) (*domain.Chef, error) {
	if err := domain.Validate(patch); err != nil {
		return nil, err
	}

	chef, err := s.chefs.Update(ctx, owner.ID, *patch)
	if err != nil {
		return nil, fmt.Errorf("update chef: %w", err)
	}
	return chef, nil
}

func (s *chefService) Delete(ctx context.Context, owner *domain.User) error {
	var chefID uuid.UUID
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		chefID, err = s.chefs.DeleteByUserID(ctx, owner.ID)
		if err != nil {
			return fmt.Errorf("delete chef: %w", err)
		}
		if owner.Role != domain.RoleAdmin {
			if err := s.users.UpdateRole(ctx, owner.ID, domain.RoleCustomer); err != nil {
				return fmt.Errorf("demote user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Chef profile deleted", "chef_id", chefID, "user_id", owner.ID)
	s.publish(ctx, events.ChefProfileDeleted, chefID, owner.ID)

	return nil
}

func (s *chefService) publish(ctx context.Context, subject string, chefID, userID uuid.UUID) {
	ev := events.ChefProfileEvent{
		ChefID:     chefID.String(),
		UserID:     userID.String(),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish chef profile event", "error", err, "subject", subject, "chef_id", chefID)
	}
}
