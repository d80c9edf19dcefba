package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/catalogs/product"
	"invoicehub/internal/infrastructure/storage/postgres"
)

const productTable = "products"

var productColumns = []string{
	"id", "shop_id", "name", "description", "price", "quantity", "is_active", "created_at", "updated_at",
}

// ProductRepo implements product.Repository and the stock operations of invoice.StockRepository.
type ProductRepo struct {
	*BaseCatalogRepo[product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[product.Product](txManager, productTable, "product", productColumns),
	}
}

// Create implements product.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	sql, args, err := r.Builder().
		Insert(productTable).
		Columns("shop_id", "name", "description", "price", "quantity", "is_active").
		Values(p.ShopID, p.Name, p.Description, p.Price, p.Quantity, p.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("shop", p.ShopID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update implements product.Repository.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("price", p.Price).
		Set("quantity", p.Quantity).
		Set("is_active", p.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound("product", p.ID)
		}
		if postgres.IsCheckViolation(err) {
			return apperror.NewValidation("price and quantity must not be negative")
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete implements product.Repository.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.Builder().
		Delete(productTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("Product is referenced by invoices and cannot be deleted").
				WithDetail("product_id", id)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", id)
	}
	return nil
}

// List implements product.Repository.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.baseSelect()
	if filter.ShopID != nil {
		q = q.Where(squirrel.Eq{"shop_id": *filter.ShopID})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return r.list(ctx, q, filter.ListFilter, "id")
}

// lockForSaleQuery selects the shop's products in ascending id order with row locks.
// Rows owned by other shops never match, so they are indistinguishable from missing ones.
func (r *ProductRepo) lockForSaleQuery(shopID int64, ids []int64) (string, []any, error) {
	return r.baseSelect().
		Where(squirrel.Eq{"shop_id": shopID}).
		Where("id = ANY(?)", ids).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
}

// LockForSale implements invoice.StockRepository.
func (r *ProductRepo) LockForSale(ctx context.Context, shopID int64, ids []int64) (map[int64]*product.Product, error) {
	if _, err := postgres.RequireTx(ctx, "lock products for sale"); err != nil {
		return nil, err
	}

	sql, args, err := r.lockForSaleQuery(shopID, ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*product.Product
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	out := make(map[int64]*product.Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// decrementQuery subtracts qty only when enough stock remains.
func (r *ProductRepo) decrementQuery(shopID, productID int64, qty int) (string, []any, error) {
	return r.Builder().
		Update(productTable).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"shop_id": shopID, "id": productID}).
		Where(squirrel.GtOrEq{"quantity": qty}).
		ToSql()
}

// DecrementStock implements invoice.StockRepository. It reports false when the
// conditional update matched no row.
func (r *ProductRepo) DecrementStock(ctx context.Context, shopID, productID int64, qty int) (bool, error) {
	sql, args, err := r.decrementQuery(shopID, productID, qty)
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
