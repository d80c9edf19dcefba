package product

import (
	"context"
	"strings"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/core/tenant"
	"invoicehub/internal/core/tx"
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/audit"
	"invoicehub/pkg/logger"
)

const entityName = "product"

// CreateInput holds the fields of a new product. ShopID is honored for super admins only.
type CreateInput struct {
	ShopID      *int64
	Name        string
	Description *string
	Price       types.Money
	Quantity    int
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *types.Money
	Quantity    *int
	IsActive    *bool
}

// Service provides business logic for products.
type Service struct {
	repo      Repository
	shops     ShopChecker
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new product service. A nil recorder disables auditing.
func NewService(repo Repository, shops ShopChecker, txManager tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		shops:     shops,
		txManager: txManager,
		audit:     recorder,
	}
}

// Create adds a product to the caller's shop.
func (s *Service) Create(ctx context.Context, caller security.Caller, in CreateInput) (*Product, error) {
	shopID, err := tenant.ResolveShop(caller, in.ShopID)
	if err != nil {
		return nil, err
	}

	p := &Product{
		ShopID:      shopID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		IsActive:    true,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.shops.Exists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewNotFound("shop", shopID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, entityName, p.ID, audit.ActionCreate, p.auditState())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "shop_id", p.ShopID)
	return p, nil
}

// GetByID returns a product the caller may see.
// Products of other shops are reported as not found.
func (s *Service) GetByID(ctx context.Context, caller security.Caller, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenant.CanAccessShop(caller, p.ShopID) {
		return nil, apperror.NewNotFound(entityName, id)
	}
	return p, nil
}

// List returns products of the caller's shop. Super admins see every shop unless ShopID is set.
func (s *Service) List(ctx context.Context, caller security.Caller, filter ListFilter) (domain.ListResult[*Product], error) {
	shopID, err := tenant.ScopeFilter(caller, filter.ShopID)
	if err != nil {
		return domain.ListResult[*Product]{}, err
	}
	filter.ShopID = shopID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Update applies a partial change under a row lock.
func (s *Service) Update(ctx context.Context, caller security.Caller, id int64, in UpdateInput) (*Product, error) {
	var updated *Product

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !tenant.CanAccessShop(caller, p.ShopID) {
			return apperror.NewNotFound(entityName, id)
		}

		before := p.auditState()
		in.apply(p)
		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}

		if changes := audit.Diff(before, p.auditState()); len(changes) > 0 {
			if err := s.audit.Record(ctx, entityName, p.ID, audit.ActionUpdate, changes); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product updated", "product_id", id)
	return updated, nil
}

// Delete removes a product. Products already on invoices cannot be deleted; deactivate them instead.
func (s *Service) Delete(ctx context.Context, caller security.Caller, id int64) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !tenant.CanAccessShop(caller, p.ShopID) {
			return apperror.NewNotFound(entityName, id)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, entityName, id, audit.ActionDelete, p.auditState())
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

func (in UpdateInput) apply(p *Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
