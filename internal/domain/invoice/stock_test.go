package invoice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/domain/catalogs/product"
)

func catalog() map[int64]*product.Product {
	return map[int64]*product.Product{
		1: {ID: 1, ShopID: 1, Price: mustMoney("10"), Quantity: 5, IsActive: true},
		2: {ID: 2, ShopID: 1, Price: mustMoney("2.5"), Quantity: 100, IsActive: true},
		3: {ID: 3, ShopID: 1, Price: mustMoney("1"), Quantity: 100, IsActive: false},
		4: {ID: 4, ShopID: 2, Price: mustMoney("99"), Quantity: 100, IsActive: true},
	}
}

func TestValidateLines_PricesInSubmittedOrder(t *testing.T) {
	lines, err := validateLines(1, []LineRequest{{ProductID: 2, Quantity: 4}, {ProductID: 1, Quantity: 5}}, catalog())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, int64(2), lines[0].ProductID)
	assertMoney(t, "2.5", lines[0].UnitPrice)
	assertMoney(t, "10", lines[0].LineTotal)

	assert.Equal(t, 2, lines[1].LineNo)
	assertMoney(t, "50", lines[1].LineTotal)
}

func TestValidateLines_Errors(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineRequest
		code    string
		details map[string]any
	}{
		{
			name:    "zero quantity",
			items:   []LineRequest{{ProductID: 1, Quantity: 0}},
			code:    apperror.CodeInvalidQuantity,
			details: map[string]any{"line_no": 1, "product_id": int64(1), "quantity": 0},
		},
		{
			name:    "negative quantity on second line",
			items:   []LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: -2}},
			code:    apperror.CodeInvalidQuantity,
			details: map[string]any{"line_no": 2, "product_id": int64(2), "quantity": -2},
		},
		{
			name:    "missing product",
			items:   []LineRequest{{ProductID: 42, Quantity: 1}},
			code:    apperror.CodeProductNotFound,
			details: map[string]any{"product_id": int64(42), "line_no": 1},
		},
		{
			name:    "product of another shop",
			items:   []LineRequest{{ProductID: 4, Quantity: 1}},
			code:    apperror.CodeProductNotFound,
			details: map[string]any{"product_id": int64(4), "line_no": 1},
		},
		{
			name:    "inactive product",
			items:   []LineRequest{{ProductID: 3, Quantity: 1}},
			code:    apperror.CodeProductNotFound,
			details: map[string]any{"product_id": int64(3), "line_no": 1},
		},
		{
			name:    "more than on hand",
			items:   []LineRequest{{ProductID: 1, Quantity: 6}},
			code:    apperror.CodeInsufficientStock,
			details: map[string]any{"product_id": int64(1), "requested": 6, "available": 5, "line_no": 1},
		},
		{
			name:    "demand summed across lines",
			items:   []LineRequest{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 3}},
			code:    apperror.CodeInsufficientStock,
			details: map[string]any{"product_id": int64(1), "requested": 6, "available": 5, "line_no": 3},
		},
		{
			name:    "first failing line wins",
			items:   []LineRequest{{ProductID: 42, Quantity: 1}, {ProductID: 1, Quantity: 0}},
			code:    apperror.CodeProductNotFound,
			details: map[string]any{"product_id": int64(42), "line_no": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateLines(1, tt.items, catalog())
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.details, appErr.Details)
		})
	}
}

func TestStockValidator_LooksUpDistinctIDsInOrder(t *testing.T) {
	repo := &recordingStock{products: catalog()}
	v := NewStockValidator(repo)

	_, err := v.ValidateAndPrice(context.Background(), 1, []LineRequest{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, repo.lockedIDs)
}

func TestDemandByProduct(t *testing.T) {
	ids, demand := demandByProduct([]ValidatedLine{
		{ProductID: 9, Quantity: 1},
		{ProductID: 3, Quantity: 2},
		{ProductID: 9, Quantity: 4},
	})
	assert.Equal(t, []int64{3, 9}, ids)
	assert.Equal(t, map[int64]int{3: 2, 9: 5}, demand)
}

type recordingStock struct {
	products  map[int64]*product.Product
	lockedIDs []int64
}

func (r *recordingStock) LockForSale(_ context.Context, shopID int64, ids []int64) (map[int64]*product.Product, error) {
	r.lockedIDs = ids
	out := map[int64]*product.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.ShopID == shopID {
			out[id] = p
		}
	}
	return out, nil
}

func (r *recordingStock) DecrementStock(context.Context, int64, int64, int) (bool, error) {
	return true, nil
}
