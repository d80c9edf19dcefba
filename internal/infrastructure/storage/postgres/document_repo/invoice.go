// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/invoice"
	"invoicehub/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceItemsTable = "invoice_items"

	invoiceNumberConstraint = "uq_invoice_number_per_shop"
)

var invoiceColumns = []string{
	"id", "invoice_number", "customer_name", "customer_email",
	"sub_total", "discount_type", "discount_value", "discount_amount",
	"tax_rate", "tax_amount", "grand_total",
	"payment_method", "payment_status", "shop_id", "created_by_id", "created_at",
}

var invoiceItemColumns = []string{
	"id", "invoice_id", "line_no", "product_id", "quantity", "price", "total_price",
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{txManager: txManager}
}

// Builder returns a new squirrel builder.
func (r *InvoiceRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *InvoiceRepo) insertQuery(inv *invoice.Invoice) (string, []any, error) {
	return r.Builder().
		Insert(invoicesTable).
		Columns(invoiceColumns[1:]...).
		Values(
			inv.InvoiceNumber, inv.CustomerName, inv.CustomerEmail,
			inv.SubTotal, string(inv.DiscountType), inv.DiscountValue, inv.DiscountAmount,
			inv.TaxRate, inv.TaxAmount, inv.GrandTotal,
			inv.PaymentMethod, string(inv.PaymentStatus), inv.ShopID, inv.CreatedByID, inv.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
}

// Create implements invoice.Repository.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	sql, args, err := r.insertQuery(inv)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&inv.ID); err != nil {
		if postgres.IsUniqueViolationOn(err, invoiceNumberConstraint) {
			return apperror.NewConcurrentModification("invoice_number", inv.InvoiceNumber).WithCause(err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) insertItemsQuery(invoiceID int64, items []invoice.Item) (string, []any, error) {
	q := r.Builder().
		Insert(invoiceItemsTable).
		Columns(invoiceItemColumns[1:]...)

	for _, it := range items {
		q = q.Values(invoiceID, it.LineNo, it.ProductID, it.Quantity, it.Price, it.TotalPrice)
	}

	return q.Suffix("RETURNING id, line_no").ToSql()
}

// SaveItems implements invoice.Repository.
func (r *InvoiceRepo) SaveItems(ctx context.Context, invoiceID int64, items []invoice.Item) error {
	if len(items) == 0 {
		return nil
	}

	sql, args, err := r.insertItemsQuery(invoiceID, items)
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	var inserted []struct {
		ID     int64 `db:"id"`
		LineNo int   `db:"line_no"`
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &inserted, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	ids := make(map[int]int64, len(inserted))
	for _, row := range inserted {
		ids[row.LineNo] = row.ID
	}
	for i := range items {
		items[i].ID = ids[items[i].LineNo]
		items[i].InvoiceID = invoiceID
	}
	return nil
}

// GetByID implements invoice.Repository.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	sql, args, err := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	inv := &invoice.Invoice{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	if err := r.attachItems(ctx, []*invoice.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// listQuery applies the filter without paging.
func (r *InvoiceRepo) listQuery(filter invoice.ListFilter) squirrel.SelectBuilder {
	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable)

	if filter.ShopID != nil {
		q = q.Where(squirrel.Eq{"shop_id": *filter.ShopID})
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": string(*filter.PaymentStatus)})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_number": pattern},
			squirrel.ILike{"customer_name": pattern},
		})
	}
	return q
}

// List implements invoice.Repository.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	filter.Normalize()
	result := domain.ListResult[*invoice.Invoice]{
		Items:  []*invoice.Invoice{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listQuery(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	sql, args, err := q.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	if err := r.attachItems(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

// attachItems loads the lines of all given invoices in one query.
func (r *InvoiceRepo) attachItems(ctx context.Context, invoices []*invoice.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(invoices))
	byID := make(map[int64]*invoice.Invoice, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
		inv.Items = []invoice.Item{}
	}

	sql, args, err := r.Builder().
		Select(invoiceItemColumns...).
		From(invoiceItemsTable).
		Where("invoice_id = ANY(?)", ids).
		OrderBy("invoice_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	var items []invoice.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return fmt.Errorf("get items: %w", err)
	}

	for _, it := range items {
		if inv := byID[it.InvoiceID]; inv != nil {
			inv.Items = append(inv.Items, it)
		}
	}
	return nil
}
