package invoice

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/numerator"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/catalogs/product"
)

// memStore is an in-memory store for the invoice service. It implements Repository,
// StockRepository, numerator.Generator and tx.Manager. Transactions are serialized and
// roll back by restoring a snapshot.
type memStore struct {
	mu sync.Mutex

	shops    map[int64]bool // id -> active
	products map[int64]*product.Product
	invoices []*Invoice

	nextInvoiceID int64
	nextItemID    int64

	// test knobs
	failDecrements int   // number of DecrementStock calls that report no matching row
	createErr      error // returned by Create
	txCalls        int
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		shops:    map[int64]bool{},
		products: map[int64]*product.Product{},
	}
}

func (m *memStore) addShop(id int64, active bool) {
	m.shops[id] = active
}

func (m *memStore) addProduct(id, shopID int64, price string, qty int) {
	m.products[id] = &product.Product{
		ID:       id,
		ShopID:   shopID,
		Name:     "product",
		Price:    mustMoney(price),
		Quantity: qty,
		IsActive: true,
	}
}

func (m *memStore) quantity(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Quantity
}

func (m *memStore) invoiceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invoices)
}

func inTx(ctx context.Context) bool { return ctx.Value(memTxKey{}) != nil }

// --- tx.Manager ---

type snapshot struct {
	products      map[int64]product.Product
	invoices      []*Invoice
	nextInvoiceID int64
	nextItemID    int64
}

func (m *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++

	snap := snapshot{
		products:      make(map[int64]product.Product, len(m.products)),
		invoices:      slices.Clone(m.invoices),
		nextInvoiceID: m.nextInvoiceID,
		nextItemID:    m.nextItemID,
	}
	for id, p := range m.products {
		snap.products[id] = *p
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		for id, p := range snap.products {
			*m.products[id] = p
		}
		m.invoices = snap.invoices
		m.nextInvoiceID = snap.nextInvoiceID
		m.nextItemID = snap.nextItemID
		return err
	}
	return nil
}

// --- numerator.Generator ---

func (m *memStore) Next(ctx context.Context, shopID int64, asOf time.Time) (string, error) {
	if !inTx(ctx) {
		return "", errors.New("numbering requires a transaction")
	}
	active, ok := m.shops[shopID]
	if !ok {
		return "", apperror.NewNotFound("shop", shopID)
	}
	if !active {
		return "", apperror.NewBusinessRule(apperror.CodeShopInactive, "shop is inactive")
	}

	cfg := numerator.DefaultConfig()
	var maxSeq int64
	for _, inv := range m.invoices {
		if inv.ShopID != shopID || inv.CreatedAt.Year() != asOf.Year() {
			continue
		}
		_, seq, err := cfg.Parse(inv.InvoiceNumber)
		if err != nil {
			return "", err
		}
		maxSeq = max(maxSeq, seq)
	}
	return cfg.Format(asOf.Year(), maxSeq+1), nil
}

// --- StockRepository ---

func (m *memStore) LockForSale(_ context.Context, shopID int64, ids []int64) (map[int64]*product.Product, error) {
	out := make(map[int64]*product.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.ShopID == shopID {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memStore) DecrementStock(_ context.Context, shopID, productID int64, qty int) (bool, error) {
	if m.failDecrements > 0 {
		m.failDecrements--
		return false, nil
	}
	p, ok := m.products[productID]
	if !ok || p.ShopID != shopID || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	return true, nil
}

// --- Repository ---

func (m *memStore) Create(ctx context.Context, inv *Invoice) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, other := range m.invoices {
		if other.ShopID == inv.ShopID && other.InvoiceNumber == inv.InvoiceNumber {
			return apperror.NewConcurrentModification("invoice", inv.InvoiceNumber)
		}
	}
	m.nextInvoiceID++
	inv.ID = m.nextInvoiceID
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *memStore) SaveItems(_ context.Context, invoiceID int64, items []Item) error {
	for i := range items {
		m.nextItemID++
		items[i].ID = m.nextItemID
		items[i].InvoiceID = invoiceID
	}
	for _, inv := range m.invoices {
		if inv.ID == invoiceID {
			inv.Items = slices.Clone(items)
		}
	}
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	if !inTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	for _, inv := range m.invoices {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", id)
}

func (m *memStore) List(ctx context.Context, f ListFilter) (domain.ListResult[*Invoice], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Invoice
	for i := len(m.invoices) - 1; i >= 0; i-- {
		inv := m.invoices[i]
		if f.ShopID != nil && inv.ShopID != *f.ShopID {
			continue
		}
		if f.PaymentStatus != nil && inv.PaymentStatus != *f.PaymentStatus {
			continue
		}
		out = append(out, inv)
	}
	return domain.ListResult[*Invoice]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}
