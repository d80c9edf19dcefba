package invoice

import (
	"context"
	"slices"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain/catalogs/product"
)

// LineRequest is one requested (product, quantity) pair.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

// StockRepository is the product side of invoice creation. Both methods run in the ambient transaction.
type StockRepository interface {
	// LockForSale loads products of shopID with the given ids and locks them, in ascending
	// id order, until the transaction ends. Ids that do not exist in the shop are absent from the result.
	LockForSale(ctx context.Context, shopID int64, ids []int64) (map[int64]*product.Product, error)

	// DecrementStock subtracts qty from the product if at least qty is on hand.
	// It reports false when no row matched.
	DecrementStock(ctx context.Context, shopID, productID int64, qty int) (bool, error)
}

// StockValidator checks requested lines against the shop's stock and prices them.
type StockValidator struct {
	repo StockRepository
}

// NewStockValidator creates a StockValidator.
func NewStockValidator(repo StockRepository) *StockValidator {
	return &StockValidator{repo: repo}
}

// ValidateAndPrice validates lines in submitted order and stops at the first failure.
// It only reads; stock is not changed.
func (v *StockValidator) ValidateAndPrice(ctx context.Context, shopID int64, items []LineRequest) ([]ValidatedLine, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	products, err := v.repo.LockForSale(ctx, shopID, ids)
	if err != nil {
		return nil, err
	}
	return validateLines(shopID, items, products)
}

// validateLines checks each line against products, which holds the rows visible in shopID.
// Demand for a product listed on several lines is summed before comparing with stock.
func validateLines(shopID int64, items []LineRequest, products map[int64]*product.Product) ([]ValidatedLine, error) {
	lines := make([]ValidatedLine, 0, len(items))
	demand := make(map[int64]int, len(items))

	for i, it := range items {
		lineNo := i + 1
		if it.Quantity <= 0 {
			return nil, apperror.NewInvalidQuantity(lineNo, it.ProductID, it.Quantity)
		}

		p, ok := products[it.ProductID]
		if !ok || p.ShopID != shopID || !p.Sellable() {
			return nil, apperror.NewProductNotFound(it.ProductID).WithDetail("line_no", lineNo)
		}

		demand[p.ID] += it.Quantity
		if demand[p.ID] > p.Quantity {
			return nil, apperror.NewInsufficientStock(p.ID, demand[p.ID], p.Quantity).
				WithDetail("line_no", lineNo)
		}

		lines = append(lines, ValidatedLine{
			LineNo:    lineNo,
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price.Mul(types.FromInt(it.Quantity)),
		})
	}

	return lines, nil
}

// demandByProduct sums quantities per product, ordered by product id.
func demandByProduct(lines []ValidatedLine) ([]int64, map[int64]int) {
	demand := make(map[int64]int, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, seen := demand[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		demand[l.ProductID] += l.Quantity
	}
	slices.Sort(ids)
	return ids, demand
}
