package organization

import (
	"context"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/domain"
	"invoicehub/pkg/logger"
)

// CreateInput holds client-settable shop fields.
type CreateInput struct {
	Name    string
	Address *string
	Phone   *string
	Email   *string
}

// Service provides business logic for shops. Every operation is super-admin only.
type Service struct {
	repo Repository
}

// NewService creates a new shop service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new active shop.
func (s *Service) Create(ctx context.Context, caller security.Caller, in CreateInput) (*Organization, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}

	org := NewOrganization(in.Name)
	org.Address = in.Address
	org.Phone = in.Phone
	org.Email = in.Email
	if err := org.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}

	logger.Info(ctx, "shop created", "shop_id", org.ID, "name", org.Name, "by", caller.UserID)
	return org, nil
}

// GetByID returns a shop.
func (s *Service) GetByID(ctx context.Context, caller security.Caller, id int64) (*Organization, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns shops ordered by id.
func (s *Service) List(ctx context.Context, caller security.Caller, filter domain.ListFilter) (domain.ListResult[*Organization], error) {
	if err := requireSuperAdmin(caller); err != nil {
		return domain.ListResult[*Organization]{}, err
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func requireSuperAdmin(caller security.Caller) error {
	if !caller.IsSuperAdmin() {
		return apperror.NewPermissionDenied("super admin role required")
	}
	return nil
}
