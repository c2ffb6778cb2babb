package service

import (
	"context"
	"time"

	"github.com/guttosm/stockdash/config"
	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/pipeline"
	"github.com/guttosm/stockdash/internal/storage"
	"golang.org/x/sync/errgroup"
)

// DashboardService builds the aggregate market payload and the company list.
type DashboardService interface {
	GetStockData(ctx context.Context) (*dto.StockDataResponse, error)
	ListCompanies(ctx context.Context) ([]models.CompanyRef, error)
}

type dashboardService struct {
	repo storage.MarketRepository
	cfg  config.DashboardConfig
	now  func() time.Time
}

// NewDashboardService builds the service over repo with the windows and limits in cfg.
func NewDashboardService(repo storage.MarketRepository, cfg config.DashboardConfig) DashboardService {
	return &dashboardService{repo: repo, cfg: cfg, now: time.Now}
}

// GetStockData runs the six market queries concurrently, then shapes and assembles them.
// The first failing query cancels the others and its error is returned.
func (s *dashboardService) GetStockData(ctx context.Context) (*dto.StockDataResponse, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	priceSince := today.AddDate(0, 0, -s.cfg.PriceWindowDays)
	earningsSince := today.AddDate(0, 0, -s.cfg.EarningsWindowDays)

	var (
		prices     []models.PriceRow
		sectors    []models.SectorRow
		news       []models.NewsRow
		indexRows  []models.IndexPriceRow
		components []models.IndexComponentRow
		earnings   []models.EarningsRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prices, err = s.repo.ListPriceRows(gctx, priceSince)
		return err
	})
	g.Go(func() (err error) {
		sectors, err = s.repo.ListSectorRows(gctx, priceSince)
		return err
	})
	g.Go(func() (err error) {
		news, err = s.repo.ListLatestNews(gctx, s.cfg.NewsLimit)
		return err
	})
	g.Go(func() (err error) {
		indexRows, err = s.repo.ListIndexPriceRows(gctx)
		return err
	})
	g.Go(func() (err error) {
		components, err = s.repo.ListIndexComponentRows(gctx)
		return err
	})
	g.Go(func() (err error) {
		earnings, err = s.repo.ListRecentEarnings(gctx, earningsSince, s.cfg.EarningsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Debug().
		Int("price_rows", len(prices)).
		Int("sector_rows", len(sectors)).
		Int("news_rows", len(news)).
		Int("index_rows", len(indexRows)).
		Int("component_rows", len(components)).
		Int("earnings_rows", len(earnings)).
		Msg("stock data loaded")

	resp := Assemble(Parts{
		PriceData:           pipeline.BuildPriceSeries(prices),
		SectorPerformance:   pipeline.BuildSectorOverview(sectors),
		LatestNews:          pipeline.BuildNews(news),
		MarketOverview:      pipeline.BuildMarketOverview(prices),
		TechnicalIndicators: pipeline.BuildIndicatorSeries(prices),
		MarketIndices:       pipeline.BuildMarketIndices(indexRows),
		IndexComponents:     pipeline.BuildIndexComponents(components),
		Earnings:            pipeline.BuildEarnings(earnings),
	})
	return &resp, nil
}

// ListCompanies returns every company ordered by symbol.
func (s *dashboardService) ListCompanies(ctx context.Context) ([]models.CompanyRef, error) {
	return s.repo.ListCompanies(ctx)
}
