package pipeline

import (
	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
)

// BuildPriceSeries groups rows by symbol into parallel dates/prices/volumes arrays.
//
// Arrays keep input row order, which is date DESC as returned by ListPriceRows.
// Consumers that chart the series sort it themselves. All three arrays of a symbol
// always have equal length; an unreadable value is a nil entry, never a dropped one.
func BuildPriceSeries(rows []models.PriceRow) map[string]dto.PriceSeries {
	out := make(map[string]dto.PriceSeries)
	for _, r := range rows {
		s := out[r.Symbol]
		s.Dates = append(s.Dates, formatDate(r.Date))
		s.Prices = append(s.Prices, toFloat("close", r.Symbol, r.Close))
		s.Volumes = append(s.Volumes, toFloat("volume", r.Symbol, r.Volume))
		out[r.Symbol] = s
	}
	return out
}

// BuildIndicatorSeries groups rows by symbol into parallel, nullable indicator arrays.
//
// Ordering matches BuildPriceSeries over the same rows, so a symbol's indicator
// arrays line up index for index with its price arrays.
func BuildIndicatorSeries(rows []models.PriceRow) map[string]dto.IndicatorSeries {
	out := make(map[string]dto.IndicatorSeries)
	for _, r := range rows {
		s := out[r.Symbol]
		s.Dates = append(s.Dates, formatDate(r.Date))
		s.SMA20 = append(s.SMA20, toFloat("sma_20", r.Symbol, r.SMA20))
		s.SMA50 = append(s.SMA50, toFloat("sma_50", r.Symbol, r.SMA50))
		s.RSI = append(s.RSI, toFloat("rsi", r.Symbol, r.RSI))
		out[r.Symbol] = s
	}
	return out
}

// BuildSectorOverview keeps the first row seen for each sector.
// With rows ordered date DESC that is the sector's latest aggregate.
func BuildSectorOverview(rows []models.SectorRow) map[string]dto.SectorSummary {
	out := make(map[string]dto.SectorSummary)
	for _, r := range rows {
		if _, seen := out[r.SectorName]; seen {
			continue
		}
		out[r.SectorName] = dto.SectorSummary{
			ChangePercent:  toFloat("change_percent", r.SectorName, r.ChangePercent),
			TotalMarketCap: toFloat("total_market_cap", r.SectorName, r.TotalMarketCap),
		}
	}
	return out
}

// BuildNews shapes news rows, preserving their published_at DESC order.
func BuildNews(rows []models.NewsRow) []dto.NewsItem {
	out := make([]dto.NewsItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.NewsItem{
			Title:          r.Title,
			URL:            r.URL,
			PublishedAt:    r.PublishedAt,
			SentimentScore: toFloat("sentiment_score", r.Symbol, r.SentimentScore),
			Symbol:         r.Symbol,
		})
	}
	return out
}

// BuildEarnings shapes earnings rows, preserving their report_date DESC order.
func BuildEarnings(rows []models.EarningsRow) []dto.Earnings {
	out := make([]dto.Earnings, 0, len(rows))
	for _, r := range rows {
		e := dto.Earnings{
			Symbol:           r.Symbol,
			Revenue:          toFloat("revenue", r.Symbol, r.Revenue),
			NetIncome:        toFloat("net_income", r.Symbol, r.NetIncome),
			EarningsPerShare: toFloat("earnings_per_share", r.Symbol, r.EPS),
			ReportDate:       formatDate(r.ReportDate),
		}
		if r.PeriodStart != nil {
			s := formatDate(*r.PeriodStart)
			e.PeriodStart = &s
		}
		if r.PeriodEnd != nil {
			s := formatDate(*r.PeriodEnd)
			e.PeriodEnd = &s
		}
		out = append(out, e)
	}
	return out
}
