package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
)

func sampleEnv() *dto.StockDataResponse {
	start, end := "2025-07-01", "2025-09-30"
	return &dto.StockDataResponse{
		PriceData: map[string]dto.PriceSeries{
			"AAPL": {Dates: []string{"2025-09-12", "2025-09-10", "2025-09-11"}, Prices: floats(3, 1, 2), Volumes: floats(30, 10, 20)},
			"MSFT": {Dates: []string{"2025-09-12"}, Prices: floats(400), Volumes: floats(5)},
		},
		SectorPerformance: map[string]dto.SectorSummary{
			"Technology": {ChangePercent: f(1.2), TotalMarketCap: f(3.1e12)},
		},
		LatestNews: []dto.NewsItem{
			{Title: "Apple beats", Symbol: "AAPL", SentimentScore: f(0.8), PublishedAt: time.Date(2025, 9, 12, 14, 0, 0, 0, time.UTC)},
		},
		MarketOverview: []dto.MarketOverviewItem{
			{Symbol: "AAPL", Name: "Apple Inc.", Price: f(189.5), Change: f(1.25), Volume: f(5.1e7), MarketCap: f(2.9e12), Sector: "Technology"},
			{Symbol: "MSFT", Name: "Microsoft", Price: f(415.2), Change: f(-0.5), Sector: "Technology"},
		},
		TechnicalIndicators: map[string]dto.IndicatorSeries{
			"AAPL": {Dates: []string{"2025-09-12"}, SMA20: floats(2), SMA50: []*float64{nil}, RSI: floats(61)},
		},
		MarketIndices: dto.MarketIndices{
			Indices:    []dto.MarketIndex{{Name: "S&P 500", Symbol: "^GSPC", Dates: []string{"2025-09-11", "2025-09-12"}, Prices: floats(5000, 5010), Volume: f(300)}},
			VolumesPie: []dto.IndexVolume{{Name: "S&P 500", Symbol: "^GSPC", Volume: f(300)}, {Name: "Dow", Symbol: "^DJI", Volume: f(100)}},
		},
		IndexComponents: []dto.IndexComponent{{IndexName: "S&P 500", Symbol: "MSFT", Weight: f(6.8), Price: f(415.2), Change: f(0.31)}},
		Earnings:        []dto.Earnings{{Symbol: "AAPL", PeriodStart: &start, PeriodEnd: &end, Revenue: f(9.4e10), EarningsPerShare: f(1.46), ReportDate: "2025-10-30"}},
	}
}

func TestSection_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	err := section(&buf, "ticker", func(w io.Writer) error {
		fmt.Fprint(w, "partial output")
		panic("boom")
	})

	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "ticker", re.Section)
	assert.Contains(t, buf.String(), "! error loading ticker: panic: boom")
	assert.NotContains(t, buf.String(), "partial output")
}

func TestRenderScreen_NoData(t *testing.T) {
	var (
		buf bytes.Buffer
		s   State
	)
	errs := RenderScreen(&buf, &s)

	assert.Len(t, errs, 12)
	for _, err := range errs {
		assert.ErrorIs(t, err, errNoData)
	}
	assert.Contains(t, buf.String(), "== WATCHLIST ==\n  (not logged in)")
}

func TestRenderScreen_Full(t *testing.T) {
	var s State
	require.True(t, s.Apply(1, sampleEnv(), time.Now()))
	s.setUser(&models.User{UserID: 7, Username: "jdoe"}, []models.CompanyRef{{CompanyID: 1, Symbol: "AAPL", Name: "Apple Inc."}, {CompanyID: 9, Symbol: "NVDA", Name: "Nvidia"}})

	var buf bytes.Buffer
	errs := RenderScreen(&buf, &s)
	require.Empty(t, errs)

	out := buf.String()
	assert.Contains(t, out, "AAPL 189.50 ▲1.25% | MSFT 415.20 ▼0.50%")
	assert.Contains(t, out, "Greed (90)")
	assert.Contains(t, out, "page 1/1 (2 symbols)")
	assert.Contains(t, out, "▁▄█")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "2025-07-01..2025-09-30")
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "jdoe (#7)")
	assert.Contains(t, out, "3.00")
	assert.Contains(t, out, "3.10T")
}

func TestRenderScreen_SectionsFailIndependently(t *testing.T) {
	env := sampleEnv()
	env.MarketIndices.Indices[0].Prices = floats(1)
	env.PriceData["MSFT"] = dto.PriceSeries{Dates: []string{"2025-09-12", "2025-09-11"}, Prices: floats(1), Volumes: floats(1, 2)}

	var s State
	require.True(t, s.Apply(1, env, time.Now()))

	var buf bytes.Buffer
	errs := RenderScreen(&buf, &s)

	sections := make([]string, 0, len(errs))
	for _, err := range errs {
		var re *RenderError
		require.ErrorAs(t, err, &re)
		sections = append(sections, re.Section)
	}
	assert.Equal(t, []string{"price", "indices"}, sections)

	out := buf.String()
	assert.Contains(t, out, "! error loading price")
	assert.Contains(t, out, "! error loading indices")
	assert.Contains(t, out, "== VOLUME ==\n  page 1/1")
	assert.Contains(t, out, "Apple beats")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", Sparkline(floats(1, 2, 3)))
	assert.Equal(t, "▅ ▅", Sparkline([]*float64{f(4), nil, f(4)}))
	assert.Equal(t, "", Sparkline(nil))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "-", compact(nil))
	assert.Equal(t, "950", compact(f(950)))
	assert.Equal(t, "1.50K", compact(f(1500)))
	assert.Equal(t, "-2.00M", compact(f(-2e6)))
	assert.Equal(t, "2.90T", compact(f(2.9e12)))
}
