package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/guttosm/stockdash/internal/domain/models"
)

// MarketRepository reads the market data sources behind the dashboard.
// It is read-only; nothing in this service writes these tables except the price loader.
type MarketRepository interface {
	ListPriceRows(ctx context.Context, since time.Time) ([]models.PriceRow, error)
	ListSectorRows(ctx context.Context, since time.Time) ([]models.SectorRow, error)
	ListLatestNews(ctx context.Context, limit int) ([]models.NewsRow, error)
	ListIndexPriceRows(ctx context.Context) ([]models.IndexPriceRow, error)
	ListIndexComponentRows(ctx context.Context) ([]models.IndexComponentRow, error)
	ListRecentEarnings(ctx context.Context, since time.Time, limit int) ([]models.EarningsRow, error)
	ListCompanies(ctx context.Context) ([]models.CompanyRef, error)
}

type marketRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewMarketRepository returns a MarketRepository; queryTimeout <= 0 disables the per-query deadline.
func NewMarketRepository(db *sql.DB, queryTimeout time.Duration) MarketRepository {
	return &marketRepository{db: db, queryTimeout: queryTimeout}
}

func (r *marketRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return queryContext(ctx, r.queryTimeout)
}

func queryContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

const priceRowsQuery = `
	SELECT c.symbol, c.name, COALESCE(c.sector, ''), sp.date,
	       sp.open, sp.high, sp.low, sp.close, sp.volume, c.market_cap,
	       ti.sma_20, ti.sma_50, ti.rsi
	FROM companies c
	JOIN stock_prices sp ON c.company_id = sp.company_id
	LEFT JOIN technical_indicators ti ON c.company_id = ti.company_id AND sp.date = ti.date
	WHERE sp.date >= $1
	ORDER BY sp.date DESC, c.symbol`

// ListPriceRows returns the company × price × indicator join since the given day,
// newest first and by symbol within a day.
func (r *marketRepository) ListPriceRows(ctx context.Context, since time.Time) ([]models.PriceRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, priceRowsQuery, since)
	if err != nil {
		return nil, wrap("list price rows", err)
	}
	defer rows.Close()

	out := make([]models.PriceRow, 0)
	for rows.Next() {
		var p models.PriceRow
		if err := rows.Scan(&p.Symbol, &p.Name, &p.Sector, &p.Date,
			&p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.MarketCap,
			&p.SMA20, &p.SMA50, &p.RSI); err != nil {
			return nil, wrap("scan price row", err)
		}
		out = append(out, p)
	}
	return out, wrap("iterate price rows", rows.Err())
}

const sectorRowsQuery = `
	SELECT s.sector_name, sp.date, sp.avg_price, sp.total_volume, sp.change_percent,
	       SUM(c.market_cap) AS total_market_cap
	FROM sector_performance sp
	JOIN sectors s ON sp.sector_id = s.sector_id
	JOIN companies c ON c.sector_id = s.sector_id
	WHERE sp.date >= $1
	GROUP BY s.sector_name, sp.date, sp.avg_price, sp.total_volume, sp.change_percent
	ORDER BY sp.date DESC, s.sector_name, sp.change_percent DESC NULLS LAST`

// ListSectorRows returns sector aggregates since the given day, newest first.
// Ties on (sector, date) are broken by change_percent so "first seen" is stable.
func (r *marketRepository) ListSectorRows(ctx context.Context, since time.Time) ([]models.SectorRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, sectorRowsQuery, since)
	if err != nil {
		return nil, wrap("list sector rows", err)
	}
	defer rows.Close()

	out := make([]models.SectorRow, 0)
	for rows.Next() {
		var s models.SectorRow
		if err := rows.Scan(&s.SectorName, &s.Date, &s.AvgPrice, &s.TotalVolume, &s.ChangePercent, &s.TotalMarketCap); err != nil {
			return nil, wrap("scan sector row", err)
		}
		out = append(out, s)
	}
	return out, wrap("iterate sector rows", rows.Err())
}

const latestNewsQuery = `
	SELECT na.title, COALESCE(na.url, ''), na.published_at, na.sentiment_score, c.symbol
	FROM news_articles na
	JOIN companies c ON na.company_id = c.company_id
	ORDER BY na.published_at DESC
	LIMIT $1`

// ListLatestNews returns the most recent articles, newest first.
func (r *marketRepository) ListLatestNews(ctx context.Context, limit int) ([]models.NewsRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, latestNewsQuery, limit)
	if err != nil {
		return nil, wrap("list news", err)
	}
	defer rows.Close()

	out := make([]models.NewsRow, 0, limit)
	for rows.Next() {
		var n models.NewsRow
		if err := rows.Scan(&n.Title, &n.URL, &n.PublishedAt, &n.SentimentScore, &n.Symbol); err != nil {
			return nil, wrap("scan news row", err)
		}
		out = append(out, n)
	}
	return out, wrap("iterate news rows", rows.Err())
}

const indexPriceRowsQuery = `
	SELECT mi.name, mi.symbol, ip.date, ip.close, ip.volume
	FROM market_indices mi
	JOIN index_prices ip ON mi.index_id = ip.index_id
	ORDER BY mi.name, ip.date ASC`

// ListIndexPriceRows returns every index close, by index name then ascending date.
func (r *marketRepository) ListIndexPriceRows(ctx context.Context) ([]models.IndexPriceRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, indexPriceRowsQuery)
	if err != nil {
		return nil, wrap("list index prices", err)
	}
	defer rows.Close()

	out := make([]models.IndexPriceRow, 0)
	for rows.Next() {
		var ip models.IndexPriceRow
		if err := rows.Scan(&ip.Name, &ip.Symbol, &ip.Date, &ip.Close, &ip.Volume); err != nil {
			return nil, wrap("scan index price row", err)
		}
		out = append(out, ip)
	}
	return out, wrap("iterate index price rows", rows.Err())
}

// The two most recent closes per member are enough to derive the latest change.
const indexComponentRowsQuery = `
	WITH ranked AS (
		SELECT sp.company_id, sp.date, sp.close,
		       ROW_NUMBER() OVER (PARTITION BY sp.company_id ORDER BY sp.date DESC) AS rn
		FROM stock_prices sp
		WHERE sp.company_id IN (SELECT company_id FROM index_components)
	)
	SELECT mi.name, c.symbol, ic.weight, r.date, r.close
	FROM index_components ic
	JOIN market_indices mi ON ic.index_id = mi.index_id
	JOIN companies c ON ic.company_id = c.company_id
	JOIN ranked r ON r.company_id = c.company_id AND r.rn <= 2
	ORDER BY mi.name, ic.weight DESC, c.symbol, r.date`

// ListIndexComponentRows returns index memberships paired with each member's latest two closes.
func (r *marketRepository) ListIndexComponentRows(ctx context.Context) ([]models.IndexComponentRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, indexComponentRowsQuery)
	if err != nil {
		return nil, wrap("list index components", err)
	}
	defer rows.Close()

	out := make([]models.IndexComponentRow, 0)
	for rows.Next() {
		var ic models.IndexComponentRow
		if err := rows.Scan(&ic.IndexName, &ic.Symbol, &ic.Weight, &ic.Date, &ic.Close); err != nil {
			return nil, wrap("scan index component row", err)
		}
		out = append(out, ic)
	}
	return out, wrap("iterate index component rows", rows.Err())
}

const recentEarningsQuery = `
	SELECT c.symbol, er.period_start, er.period_end, er.revenue, er.net_income,
	       er.earnings_per_share, er.report_date
	FROM earnings_reports er
	JOIN companies c ON er.company_id = c.company_id
	WHERE er.report_date >= $1
	ORDER BY er.report_date DESC
	LIMIT $2`

// ListRecentEarnings returns reports filed since the given day, newest first.
func (r *marketRepository) ListRecentEarnings(ctx context.Context, since time.Time, limit int) ([]models.EarningsRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, recentEarningsQuery, since, limit)
	if err != nil {
		return nil, wrap("list earnings", err)
	}
	defer rows.Close()

	out := make([]models.EarningsRow, 0, limit)
	for rows.Next() {
		var (
			e          models.EarningsRow
			start, end sql.NullTime
		)
		if err := rows.Scan(&e.Symbol, &start, &end, &e.Revenue, &e.NetIncome, &e.EPS, &e.ReportDate); err != nil {
			return nil, wrap("scan earnings row", err)
		}
		e.PeriodStart = nullTimePtr(start)
		e.PeriodEnd = nullTimePtr(end)
		out = append(out, e)
	}
	return out, wrap("iterate earnings rows", rows.Err())
}

// ListCompanies returns every company ordered by symbol.
func (r *marketRepository) ListCompanies(ctx context.Context) ([]models.CompanyRef, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT company_id, symbol, name FROM companies ORDER BY symbol`)
	if err != nil {
		return nil, wrap("list companies", err)
	}
	defer rows.Close()
	return scanCompanyRefs(rows)
}

func scanCompanyRefs(rows *sql.Rows) ([]models.CompanyRef, error) {
	out := make([]models.CompanyRef, 0)
	for rows.Next() {
		var c models.CompanyRef
		if err := rows.Scan(&c.CompanyID, &c.Symbol, &c.Name); err != nil {
			return nil, wrap("scan company", err)
		}
		out = append(out, c)
	}
	return out, wrap("iterate companies", rows.Err())
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
