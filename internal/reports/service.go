package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Service coordinates fetching, aggregation and caching.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Generate builds the report for [from, to). The three inputs are fetched
// concurrently; the fold itself is pure.
func (s *Service) Generate(ctx context.Context, shopID int64, from, to time.Time) (Report, error) {
	if !to.After(from) {
		return Report{}, fmt.Errorf("%w: report range is empty", httpx.ErrValidation)
	}

	return s.cache.Fetch(ctx, cacheKey(shopID, from, to), func(ctx context.Context) (Report, error) {
		var (
			bills       []billing.Bill
			catalog     map[int64]CategoryRef
			outstanding float64
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			bills, err = s.repo.BillsInRange(gctx, shopID, from, to)
			return err
		})
		g.Go(func() error {
			var err error
			catalog, err = s.repo.CategoryRefs(gctx, shopID)
			return err
		})
		g.Go(func() error {
			var err error
			outstanding, err = s.repo.TotalOutstanding(gctx, shopID)
			return err
		})
		if err := g.Wait(); err != nil {
			return Report{}, err
		}

		return Aggregate(from, to, bills, catalog, outstanding), nil
	})
}

// Sales returns the period's bills as rows for the flat sales export,
// oldest first. The export is a download of current data, so it bypasses
// the report cache.
func (s *Service) Sales(ctx context.Context, shopID int64, from, to time.Time) ([]billing.Bill, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: report range is empty", httpx.ErrValidation)
	}
	return s.repo.BillsInRange(ctx, shopID, from, to)
}

// Daily reports on one calendar day in the given location.
func (s *Service) Daily(ctx context.Context, shopID int64, day time.Time) (Report, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.Generate(ctx, shopID, from, from.AddDate(0, 0, 1))
}

// Monthly reports on one calendar month.
func (s *Service) Monthly(ctx context.Context, shopID int64, year int, month time.Month, loc *time.Location) (Report, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return s.Generate(ctx, shopID, from, from.AddDate(0, 1, 0))
}
