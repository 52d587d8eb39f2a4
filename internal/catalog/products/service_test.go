package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

type fakeRepo struct {
	nextID   int64
	products map[int64]Product
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, products: map[int64]Product{}}
}

func (f *fakeRepo) List(_ context.Context, shopID int64, filters ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range f.products {
		if p.ShopID != shopID {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if !filters.IncludeInactive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, shopID, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok || p.ShopID != shopID {
		return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepo) Create(_ context.Context, p Product) (Product, error) {
	for _, existing := range f.products {
		if existing.ShopID == p.ShopID && existing.SKU == p.SKU {
			return Product{}, fmt.Errorf("%w: sku %q", httpx.ErrDuplicate, p.SKU)
		}
	}
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Update(_ context.Context, p Product) error {
	existing, ok := f.products[p.ID]
	if !ok || existing.ShopID != p.ShopID {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, p.ID)
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeRepo) AdjustStock(_ context.Context, shopID, id int64, delta float64, allowNegative bool) (float64, error) {
	p, ok := f.products[id]
	if !ok || p.ShopID != shopID {
		return 0, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	if delta < 0 && !allowNegative && p.CurrentStock+delta < 0 {
		return 0, fmt.Errorf("%w: insufficient stock for product %d", httpx.ErrConflict, id)
	}
	p.CurrentStock += delta
	f.products[id] = p
	return p.CurrentStock, nil
}

func (f *fakeRepo) RefreshCategoryName(_ context.Context, shopID, categoryID int64, name string) (int64, error) {
	var n int64
	for id, p := range f.products {
		if p.ShopID == shopID && p.CategoryID != nil && *p.CategoryID == categoryID {
			p.CategoryName = &name
			f.products[id] = p
			n++
		}
	}
	return n, nil
}

type fakeCategories struct {
	names map[int64]string
}

func (f *fakeCategories) CategoryName(_ context.Context, _ int64, categoryID int64) (string, error) {
	name, ok := f.names[categoryID]
	if !ok {
		return "", fmt.Errorf("%w: category %d", httpx.ErrNotFound, categoryID)
	}
	return name, nil
}

func newTestService(repo Repository, allowNegative bool) *Service {
	cats := &fakeCategories{names: map[int64]string{10: "Beverages"}}
	return NewService(repo, cats, nil, slog.New(slog.DiscardHandler), allowNegative)
}

func TestCreateGeneratesSKUWhenMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:        "Cola 500ml",
		RetailPrice: 45,
		CostPrice:   30,
		Unit:        "pcs",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.SKU, "SKU-"))
	require.Len(t, p.SKU, len("SKU-")+12)
	require.True(t, p.IsActive)
}

func TestCreateDenormalizesCategoryName(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)

	catID := int64(10)
	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:        "Cola 500ml",
		SKU:         "COLA-500",
		CategoryID:  &catID,
		RetailPrice: 45,
		Unit:        "pcs",
	})
	require.NoError(t, err)
	require.NotNil(t, p.CategoryName)
	require.Equal(t, "Beverages", *p.CategoryName)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)

	catID := int64(99)
	_, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:        "Cola 500ml",
		SKU:         "COLA-500",
		CategoryID:  &catID,
		RetailPrice: 45,
		Unit:        "pcs",
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateDuplicateSKU(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)

	_, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name: "Cola 500ml", SKU: "COLA-500", RetailPrice: 45, Unit: "pcs",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, CreateProductRequest{
		Name: "Cola 500ml imported", SKU: "COLA-500", RetailPrice: 55, Unit: "pcs",
	})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestAdjustStockGuardsAgainstNegative(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name: "Cola 500ml", SKU: "COLA-500", RetailPrice: 45, Unit: "pcs", CurrentStock: 5,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), 1, 7, p.ID, AdjustStockRequest{Delta: -6})
	require.ErrorIs(t, err, httpx.ErrConflict)

	got, err := svc.AdjustStock(context.Background(), 1, 7, p.ID, AdjustStockRequest{Delta: -5})
	require.NoError(t, err)
	require.Equal(t, float64(0), got.CurrentStock)
}

func TestAdjustStockAllowsNegativeWhenConfigured(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, true)

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name: "Cola 500ml", SKU: "COLA-500", RetailPrice: 45, Unit: "pcs", CurrentStock: 2,
	})
	require.NoError(t, err)

	got, err := svc.AdjustStock(context.Background(), 1, 7, p.ID, AdjustStockRequest{Delta: -6})
	require.NoError(t, err)
	require.Equal(t, float64(-4), got.CurrentStock)
}
