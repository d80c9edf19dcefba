package catalog_repo

import (
	"context"
	"fmt"

	"invoicehub/internal/domain"
	"invoicehub/internal/domain/catalogs/organization"
	"invoicehub/internal/infrastructure/storage/postgres"
)

const organizationTable = "organizations"

var organizationColumns = []string{
	"id", "name", "address", "phone", "email", "is_active", "created_at", "updated_at",
}

// OrganizationRepo implements organization.Repository and the shop existence checks
// used by the product and auth services.
type OrganizationRepo struct {
	*BaseCatalogRepo[organization.Organization]
}

// NewOrganizationRepo creates a new organization repository.
func NewOrganizationRepo(txManager *postgres.TxManager) *OrganizationRepo {
	return &OrganizationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[organization.Organization](txManager, organizationTable, "shop", organizationColumns),
	}
}

// Create implements organization.Repository.
func (r *OrganizationRepo) Create(ctx context.Context, org *organization.Organization) error {
	sql, args, err := r.Builder().
		Insert(organizationTable).
		Columns("name", "address", "phone", "email", "is_active").
		Values(org.Name, org.Address, org.Phone, org.Email, org.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// List implements organization.Repository.
func (r *OrganizationRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*organization.Organization], error) {
	return r.list(ctx, r.baseSelect(), filter, "name", "id")
}
