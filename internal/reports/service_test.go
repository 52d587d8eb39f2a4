package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

type fakeRepo struct {
	bills       []billing.Bill
	outstanding float64
	calls       int
}

func (f *fakeRepo) BillsInRange(_ context.Context, _ int64, _, _ time.Time) ([]billing.Bill, error) {
	f.calls++
	return f.bills, nil
}

func (f *fakeRepo) CategoryRefs(_ context.Context, _ int64) (map[int64]CategoryRef, error) {
	return nil, nil
}

func (f *fakeRepo) TotalOutstanding(_ context.Context, _ int64) (float64, error) {
	return f.outstanding, nil
}

func newCachedService(t *testing.T, repo *fakeRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, 5*time.Minute))
}

func TestGenerateCachesResult(t *testing.T) {
	repo := &fakeRepo{bills: sampleBills(), outstanding: 400}
	svc := newCachedService(t, repo)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	first, err := svc.Generate(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Equal(t, 350.0, first.Summary.TotalSales)
	require.Equal(t, 1, repo.calls)

	second, err := svc.Generate(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)
}

func TestGenerateDistinctRangesMiss(t *testing.T) {
	repo := &fakeRepo{bills: sampleBills()}
	svc := newCachedService(t, repo)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Generate(context.Background(), 1, from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 1, from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestGenerateRejectsEmptyRange(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	now := time.Now()
	_, err := svc.Generate(context.Background(), 1, now, now)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGenerateWithoutCache(t *testing.T) {
	repo := &fakeRepo{bills: sampleBills()}
	svc := NewService(repo, nil)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Generate(context.Background(), 1, from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 3, report.Summary.BillCount)
}
