package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/core/tx"
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/audit"
)

// --- fakes ---

type memRepo struct {
	rows   map[int64]*Product
	nextID int64
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]*Product{}} }

func (m *memRepo) Create(_ context.Context, p *Product) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id int64) (*Product, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) Update(_ context.Context, p *Product) error {
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) (domain.ListResult[*Product], error) {
	var out []*Product
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.rows[id]
		if !ok || (f.ShopID != nil && p.ShopID != *f.ShopID) {
			continue
		}
		out = append(out, p)
	}
	return domain.ListResult[*Product]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit}, nil
}

type shopSet map[int64]bool

func (s shopSet) Exists(_ context.Context, id int64) (bool, error) { return s[id], nil }

type auditLog struct {
	actions []audit.Action
	changes []map[string]any
}

func (a *auditLog) Record(_ context.Context, _ string, _ int64, action audit.Action, changes map[string]any) error {
	a.actions = append(a.actions, action)
	a.changes = append(a.changes, changes)
	return nil
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func shopAdmin(shopID int64) security.Caller {
	return security.Caller{UserID: 10 + shopID, Roles: []string{security.RoleShopAdmin}, OrganizationID: ptr(shopID)}
}

var superAdmin = security.Caller{UserID: 1, Roles: []string{security.RoleSuperAdmin}}

func newTestService() (*Service, *memRepo, *auditLog) {
	repo := newMemRepo()
	log := &auditLog{}
	return NewService(repo, shopSet{1: true, 2: true}, &tx.MockManager{}, log), repo, log
}

// --- tests ---

func TestCreate_ShopAdminUsesOwnShop(t *testing.T) {
	svc, _, log := newTestService()

	p, err := svc.Create(context.Background(), shopAdmin(1), CreateInput{
		ShopID:   ptr(int64(2)),
		Name:     "Tea",
		Price:    types.MustMoney("4.50"),
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ShopID)
	assert.True(t, p.IsActive)
	assert.Equal(t, []audit.Action{audit.ActionCreate}, log.actions)
}

func TestCreate_SuperAdminNeedsShop(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), superAdmin, CreateInput{Name: "Tea", Price: types.Zero()})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(context.Background(), superAdmin, CreateInput{ShopID: ptr(int64(9)), Name: "Tea", Price: types.Zero()})
	assert.True(t, apperror.IsNotFound(err))

	p, err := svc.Create(context.Background(), superAdmin, CreateInput{ShopID: ptr(int64(2)), Name: "Tea", Price: types.Zero()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ShopID)
}

func TestCreate_RejectsNegativeValues(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), shopAdmin(1), CreateInput{Name: "Tea", Price: types.MustMoney("-1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(context.Background(), shopAdmin(1), CreateInput{Name: "Tea", Price: types.Zero(), Quantity: -1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGetByID_OtherShopIsNotFound(t *testing.T) {
	svc, repo, _ := newTestService()
	require.NoError(t, repo.Create(context.Background(), &Product{ShopID: 2, Name: "Coffee", Price: types.MustMoney("3")}))

	_, err := svc.GetByID(context.Background(), shopAdmin(1), 1)
	assert.True(t, apperror.IsNotFound(err))

	p, err := svc.GetByID(context.Background(), superAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", p.Name)
}

func TestList_Scoping(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Product{ShopID: 1, Name: "A"}))
	require.NoError(t, repo.Create(ctx, &Product{ShopID: 2, Name: "B"}))

	res, err := svc.List(ctx, shopAdmin(1), ListFilter{ShopID: ptr(int64(2))})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "A", res.Items[0].Name)

	res, err = svc.List(ctx, superAdmin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	_, err = svc.List(ctx, security.Caller{UserID: 5}, ListFilter{})
	assert.True(t, apperror.HasCode(err, apperror.CodePermissionDenied))
}

func TestUpdate_PartialAndAudited(t *testing.T) {
	svc, repo, log := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Product{ShopID: 1, Name: "Tea", Price: types.MustMoney("4"), Quantity: 3, IsActive: true}))

	p, err := svc.Update(ctx, shopAdmin(1), 1, UpdateInput{Price: ptr(types.MustMoney("5.25"))})
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Name)
	assert.Equal(t, 3, p.Quantity)
	assert.True(t, types.MustMoney("5.25").Equal(p.Price))

	require.Len(t, log.changes, 1)
	assert.Equal(t, map[string]any{"price": map[string]any{"old": "4", "new": "5.25"}}, log.changes[0])
}

func TestUpdate_Rejections(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Product{ShopID: 1, Name: "Tea", Price: types.MustMoney("4"), Quantity: 3}))

	_, err := svc.Update(ctx, shopAdmin(2), 1, UpdateInput{Quantity: ptr(1)})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Update(ctx, shopAdmin(1), 1, UpdateInput{Quantity: ptr(-1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	stored, _ := repo.GetByID(ctx, 1)
	assert.Equal(t, 3, stored.Quantity)
}

func TestDelete(t *testing.T) {
	svc, repo, log := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Product{ShopID: 1, Name: "Tea"}))

	err := svc.Delete(ctx, shopAdmin(2), 1)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, shopAdmin(1), 1))
	_, err = repo.GetByID(ctx, 1)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, []audit.Action{audit.ActionDelete}, log.actions)
}
