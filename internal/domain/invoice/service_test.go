package invoice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/domain/audit"
	"invoicehub/internal/domain/events"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 { return &v }

func shopAdmin(shopID int64) security.Caller {
	return security.Caller{UserID: 100 + shopID, Roles: []string{security.RoleShopAdmin}, OrganizationID: int64Ptr(shopID)}
}

var superAdmin = security.Caller{UserID: 1, Roles: []string{security.RoleSuperAdmin}}

// fixture: shop 1 owns products 1 (price 10, qty 100) and 2 (price 4, qty 5); shop 2 owns product 3.
func newFixture(t *testing.T, cfg ServiceConfig) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	store.addShop(1, true)
	store.addShop(2, true)
	store.addProduct(1, 1, "10", 100)
	store.addProduct(2, 1, "4", 5)
	store.addProduct(3, 2, "7", 50)

	cfg.RetryBackoff = 0
	svc := NewService(store, store, store, store, cfg, WithClock(func() time.Time { return testNow }))
	return svc, store
}

func request(items ...LineRequest) CreateRequest {
	return CreateRequest{CustomerName: "Ada", Items: items, DiscountValue: mustMoney("0"), TaxRate: mustMoney("0")}
}

func TestCreate_EndToEnd(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	req := request(LineRequest{ProductID: 1, Quantity: 3})
	req.TaxRate = mustMoney("5")

	inv, err := svc.Create(context.Background(), shopAdmin(1), req)
	require.NoError(t, err)

	assert.NotZero(t, inv.ID)
	assert.Equal(t, "INV-2026-000001", inv.InvoiceNumber)
	assert.Equal(t, int64(1), inv.ShopID)
	assert.Equal(t, int64(101), inv.CreatedByID)
	assert.Equal(t, testNow, inv.CreatedAt)
	assert.Equal(t, PaymentPending, inv.PaymentStatus)
	assert.Equal(t, DiscountNone, inv.DiscountType)
	assertMoney(t, "30", inv.SubTotal)
	assertMoney(t, "0", inv.DiscountAmount)
	assertMoney(t, "1.5", inv.TaxAmount)
	assertMoney(t, "31.5", inv.GrandTotal)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, int64(1), inv.Items[0].ProductID)
	assert.Equal(t, 3, inv.Items[0].Quantity)
	assertMoney(t, "10", inv.Items[0].Price)
	assertMoney(t, "30", inv.Items[0].TotalPrice)

	assert.Equal(t, 97, store.quantity(1))
}

func TestCreate_NumbersIncreasePerShopAndYear(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	ctx := context.Background()

	var numbers []string
	for range 3 {
		inv, err := svc.Create(ctx, shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-2026-000001", "INV-2026-000002", "INV-2026-000003"}, numbers)

	other, err := svc.Create(ctx, shopAdmin(2), request(LineRequest{ProductID: 3, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000001", other.InvoiceNumber)

	svc.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 1, 0, time.UTC) }
	next, err := svc.Create(ctx, shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-000001", next.InvoiceNumber)
}

func TestCreate_SellsExactStock(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())

	_, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 2, Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, 0, store.quantity(2))
}

func TestCreate_InsufficientStockLeavesStockUnchanged(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())

	_, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 2, Quantity: 6}))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, 6, appErr.Details["requested"])
	assert.Equal(t, 5, appErr.Details["available"])
	assert.Equal(t, 5, store.quantity(2))
	assert.Zero(t, store.invoiceCount())
}

func TestCreate_CrossTenantProductIsInvisible(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())

	// product 3 belongs to shop 2; the requested shop id is ignored for shop admins
	req := request(LineRequest{ProductID: 3, Quantity: 1})
	req.ShopID = int64Ptr(2)
	_, err := svc.Create(context.Background(), shopAdmin(1), req)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeProductNotFound, appErr.Code)
	assert.NotContains(t, appErr.Details, "available")
	assert.NotContains(t, appErr.Message, "7")
	assert.Equal(t, 50, store.quantity(3))
}

func TestCreate_FailingLineAppliesNothing(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())

	_, err := svc.Create(context.Background(), shopAdmin(1), request(
		LineRequest{ProductID: 1, Quantity: 2},
		LineRequest{ProductID: 99, Quantity: 1},
		LineRequest{ProductID: 2, Quantity: 1},
	))

	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))
	assert.Equal(t, 100, store.quantity(1))
	assert.Equal(t, 5, store.quantity(2))
	assert.Zero(t, store.invoiceCount())
}

func TestCreate_StorageFailureRollsBackAndIsGeneric(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	store.createErr = errors.New("connection reset by peer")

	_, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePersistence, appErr.Code)
	assert.Equal(t, "Failed to create invoice", appErr.Message)
	assert.Empty(t, appErr.Details)
	assert.Equal(t, 1, store.txCalls, "plain storage errors are not retried")
	assert.Equal(t, 100, store.quantity(1))
}

func TestCreate_RetriesContention(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	store.failDecrements = 1

	inv, err := svc.Create(context.Background(), shopAdmin(1), request(
		LineRequest{ProductID: 1, Quantity: 2},
		LineRequest{ProductID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, 2, store.txCalls)
	assert.Equal(t, "INV-2026-000001", inv.InvoiceNumber)
	assert.Equal(t, 1, store.invoiceCount())
	assert.Equal(t, 98, store.quantity(1))
	assert.Equal(t, 4, store.quantity(2))
}

func TestCreate_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	store.failDecrements = 10

	_, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePersistence, appErr.Code)
	assert.Equal(t, "Failed to create invoice", appErr.Message)
	assert.Empty(t, appErr.Details)
	assert.False(t, apperror.IsConcurrentModification(appErr), "contention stays in the cause only")
	assert.Equal(t, 3, store.txCalls)
	assert.Zero(t, store.invoiceCount())
	assert.Equal(t, 100, store.quantity(1))
}

func TestCreate_ConcurrentRequestsSameShop(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	const workers = 12 // product 2 has 5 on hand

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
		failed  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 2, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock), "unexpected %v", err)
				failed++
				return
			}
			assert.False(t, numbers[inv.InvoiceNumber], "duplicate %s", inv.InvoiceNumber)
			numbers[inv.InvoiceNumber] = true
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 5)
	assert.Equal(t, workers-5, failed)
	assert.Equal(t, 0, store.quantity(2))
	for _, n := range []string{"INV-2026-000001", "INV-2026-000002", "INV-2026-000003", "INV-2026-000004", "INV-2026-000005"} {
		assert.True(t, numbers[n], n)
	}
}

func TestCreate_ShopChecks(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	store.addShop(3, false)
	store.addProduct(30, 3, "1", 10)

	req := request(LineRequest{ProductID: 30, Quantity: 1})
	req.ShopID = int64Ptr(3)
	_, err := svc.Create(context.Background(), superAdmin, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeShopInactive))
	assert.Equal(t, 10, store.quantity(30))
}

func TestCreate_TenantResolution(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, superAdmin, request(LineRequest{ProductID: 1, Quantity: 1}))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, security.Caller{UserID: 7}, request(LineRequest{ProductID: 1, Quantity: 1}))
	assert.True(t, apperror.HasCode(err, apperror.CodePermissionDenied))

	req := request(LineRequest{ProductID: 3, Quantity: 2})
	req.ShopID = int64Ptr(2)
	inv, err := svc.Create(ctx, superAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inv.ShopID)
	assert.Equal(t, int64(1), inv.CreatedByID)
}

func TestCreate_PaymentStatus(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.DefaultPaymentStatus = PaymentPaid
	svc, _ := newFixture(t, cfg)
	ctx := context.Background()

	inv, err := svc.Create(ctx, shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, inv.PaymentStatus)

	req := request(LineRequest{ProductID: 1, Quantity: 1})
	req.PaymentStatus = strPtr("FAILED")
	inv, err = svc.Create(ctx, shopAdmin(1), req)
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, inv.PaymentStatus)
}

func TestCreate_UnknownDiscountTypeIsNoDiscount(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	req := request(LineRequest{ProductID: 1, Quantity: 2})
	req.DiscountType = strPtr("loyalty")
	req.DiscountValue = mustMoney("5")

	inv, err := svc.Create(context.Background(), shopAdmin(1), req)
	require.NoError(t, err)
	assert.Equal(t, DiscountNone, inv.DiscountType)
	assertMoney(t, "0", inv.DiscountAmount)
	assertMoney(t, "20", inv.GrandTotal)
}

func TestCreate_PercentageDiscountAboveHundredIsAccepted(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	req := request(LineRequest{ProductID: 1, Quantity: 2})
	req.DiscountType = strPtr("percentage")
	req.DiscountValue = mustMoney("150")

	inv, err := svc.Create(context.Background(), shopAdmin(1), req)
	require.NoError(t, err)
	assert.Equal(t, DiscountPercentage, inv.DiscountType)
	assertMoney(t, "20", inv.SubTotal)
	assertMoney(t, "30", inv.DiscountAmount)
	assertMoney(t, "-10", inv.GrandTotal)
}

func TestCreateRequest_Validate(t *testing.T) {
	valid := request(LineRequest{ProductID: 1, Quantity: 1})

	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
		field  string
	}{
		{"blank customer", func(r *CreateRequest) { r.CustomerName = "  " }, "customer_name"},
		{"no items", func(r *CreateRequest) { r.Items = nil }, "items"},
		{"negative discount", func(r *CreateRequest) { r.DiscountValue = mustMoney("-1") }, "discount_value"},
		{"tax over 100", func(r *CreateRequest) { r.TaxRate = mustMoney("100.01") }, "tax_rate"},
		{"negative tax", func(r *CreateRequest) { r.TaxRate = mustMoney("-1") }, "tax_rate"},
		{"unknown payment status", func(r *CreateRequest) { r.PaymentStatus = strPtr("refunded") }, "payment_status"},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			appErr, ok := apperror.AsAppError(r.Validate())
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

type recorder struct {
	entries []int64
	fail    error
}

func (r *recorder) Record(_ context.Context, entityType string, id int64, action audit.Action, changes map[string]any) error {
	if r.fail != nil {
		return r.fail
	}
	if entityType == "invoice" && action == audit.ActionCreate && changes["invoice_number"] != nil {
		r.entries = append(r.entries, id)
	}
	return nil
}

func TestCreate_AuditHookRunsInTransaction(t *testing.T) {
	svc, store := newFixture(t, DefaultServiceConfig())
	rec := &recorder{}
	svc.Hooks().OnAfterCreate(AuditHook(rec))

	inv, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, []int64{inv.ID}, rec.entries)

	rec.fail = errors.New("audit table missing")
	_, err = svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
	assert.Equal(t, 1, store.invoiceCount())
	assert.Equal(t, 99, store.quantity(1))
}

func TestGetByID_TenantCheck(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	inv, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), shopAdmin(2), inv.ID)
	assert.True(t, apperror.IsNotFound(err))

	got, err := svc.GetByID(context.Background(), superAdmin, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
}

func TestList_Scoping(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	ctx := context.Background()
	_, err := svc.Create(ctx, shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.Create(ctx, shopAdmin(2), request(LineRequest{ProductID: 3, Quantity: 1}))
	require.NoError(t, err)

	res, err := svc.List(ctx, shopAdmin(2), ListFilter{ShopID: int64Ptr(1)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].ShopID)
	assert.Equal(t, 50, res.Limit)

	res, err = svc.List(ctx, superAdmin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

type capturePublisher struct {
	events []events.Event
	inTx   []bool
}

func (p *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	p.inTx = append(p.inTx, inTx(ctx))
	return nil
}

func TestCreate_OutboxHookPublishesInTransaction(t *testing.T) {
	svc, _ := newFixture(t, DefaultServiceConfig())
	pub := &capturePublisher{}
	svc.Hooks().OnAfterCreate(OutboxHook(pub))

	inv, err := svc.Create(context.Background(), shopAdmin(1), request(LineRequest{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, []bool{true}, pub.inTx)
	e := pub.events[0]
	assert.Equal(t, events.InvoiceCreated, e.EventType)
	assert.Equal(t, inv.ID, e.AggregateID)
	payload := e.Payload.(InvoiceCreatedPayload)
	assert.Equal(t, inv.InvoiceNumber, payload.InvoiceNumber)
	assert.Equal(t, 1, payload.ItemCount)
	assert.True(t, inv.GrandTotal.Equal(payload.GrandTotal))
}
