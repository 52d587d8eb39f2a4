package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

type fakeRepo struct {
	nextID     int64
	categories map[int64]Category
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, categories: map[int64]Category{}}
}

func (f *fakeRepo) List(_ context.Context, shopID int64, includeInactive bool) ([]Category, error) {
	var out []Category
	for _, c := range f.categories {
		if c.ShopID != shopID {
			continue
		}
		if !includeInactive && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, shopID, id int64) (Category, error) {
	c, ok := f.categories[id]
	if !ok || c.ShopID != shopID {
		return Category{}, fmt.Errorf("%w: category %d", httpx.ErrNotFound, id)
	}
	return c, nil
}

func (f *fakeRepo) Create(_ context.Context, c Category) (Category, error) {
	for _, existing := range f.categories {
		if existing.ShopID == c.ShopID && existing.Name == c.Name {
			return Category{}, fmt.Errorf("%w: category name %q", httpx.ErrDuplicate, c.Name)
		}
	}
	c.ID = f.nextID
	f.nextID++
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeRepo) Update(_ context.Context, c Category) error {
	existing, ok := f.categories[c.ID]
	if !ok || existing.ShopID != c.ShopID {
		return fmt.Errorf("%w: category %d", httpx.ErrNotFound, c.ID)
	}
	f.categories[c.ID] = c
	return nil
}

type fakeEnqueuer struct {
	enqueued []int64
	fail     bool
}

func (f *fakeEnqueuer) EnqueueCategorySync(_ context.Context, _ int64, categoryID int64) error {
	if f.fail {
		return errors.New("queue unavailable")
	}
	f.enqueued = append(f.enqueued, categoryID)
	return nil
}

func TestUpdateEnqueuesSyncOnRename(t *testing.T) {
	repo := newFakeRepo()
	tasks := &fakeEnqueuer{}
	svc := NewService(repo, tasks, slog.New(slog.DiscardHandler))

	c, err := svc.Create(context.Background(), 1, CreateCategoryRequest{Name: "Beverages"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, c.ID, UpdateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	require.Equal(t, []int64{c.ID}, tasks.enqueued)
}

func TestUpdateSkipsSyncWhenNameUnchanged(t *testing.T) {
	repo := newFakeRepo()
	tasks := &fakeEnqueuer{}
	svc := NewService(repo, tasks, slog.New(slog.DiscardHandler))

	c, err := svc.Create(context.Background(), 1, CreateCategoryRequest{Name: "Beverages"})
	require.NoError(t, err)

	desc := "cold drinks"
	_, err = svc.Update(context.Background(), 1, c.ID, UpdateCategoryRequest{Name: "Beverages", Description: &desc})
	require.NoError(t, err)
	require.Empty(t, tasks.enqueued)
}

func TestUpdateSurvivesEnqueueFailure(t *testing.T) {
	repo := newFakeRepo()
	tasks := &fakeEnqueuer{fail: true}
	svc := NewService(repo, tasks, slog.New(slog.DiscardHandler))

	c, err := svc.Create(context.Background(), 1, CreateCategoryRequest{Name: "Beverages"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, c.ID, UpdateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	require.Equal(t, "Drinks", updated.Name)
}

func TestDeactivateSoftDeletes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEnqueuer{}, slog.New(slog.DiscardHandler))

	c, err := svc.Create(context.Background(), 1, CreateCategoryRequest{Name: "Beverages"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), 1, c.ID))

	got, err := svc.Get(context.Background(), 1, c.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	active, err := svc.List(context.Background(), 1, false)
	require.NoError(t, err)
	require.Empty(t, active)
}
