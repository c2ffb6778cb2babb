package dto

import "time"

// StockDataResponse is the envelope returned by GET /api/stock-data.
//
// Every key is always present; empty sources serialize as {} or [].
type StockDataResponse struct {
	PriceData           map[string]PriceSeries     `json:"priceData"`
	SectorPerformance   map[string]SectorSummary   `json:"sectorPerformance"`
	LatestNews          []NewsItem                 `json:"latestNews"`
	MarketOverview      []MarketOverviewItem       `json:"marketOverview"`
	TechnicalIndicators map[string]IndicatorSeries `json:"technicalIndicators"`
	MarketIndices       MarketIndices              `json:"marketIndices"`
	IndexComponents     []IndexComponent           `json:"indexComponents"`
	Earnings            []Earnings                 `json:"earnings"`
}

// PriceSeries holds index-aligned close prices and volumes for one symbol.
// Dates are "2006-01-02" strings. A nil entry is a value that could not be read.
type PriceSeries struct {
	Dates   []string   `json:"dates"`
	Prices  []*float64 `json:"prices"`
	Volumes []*float64 `json:"volumes"`
}

// IndicatorSeries holds index-aligned, nullable indicator values for one symbol.
type IndicatorSeries struct {
	Dates []string   `json:"dates"`
	SMA20 []*float64 `json:"sma20"`
	SMA50 []*float64 `json:"sma50"`
	RSI   []*float64 `json:"rsi"`
}

// SectorSummary is the latest aggregate for one sector.
type SectorSummary struct {
	ChangePercent  *float64 `json:"change_percent" example:"1.25"`
	TotalMarketCap *float64 `json:"total_market_cap" example:"2500000000000"`
}

// NewsItem is one recent article.
type NewsItem struct {
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentScore *float64  `json:"sentiment_score"`
	Symbol         string    `json:"symbol"`
}

// MarketOverviewItem is the latest quote of one company with its day-over-day change.
type MarketOverviewItem struct {
	Symbol    string   `json:"symbol" example:"AAPL"`
	Name      string   `json:"name" example:"Apple Inc."`
	Price     *float64 `json:"price" example:"189.5"`
	Change    *float64 `json:"change" example:"-0.42"`
	Volume    *float64 `json:"volume" example:"51234000"`
	MarketCap *float64 `json:"marketCap" example:"2950000000000"`
	Sector    string   `json:"sector" example:"Technology"`
}

// MarketIndices groups index close series with the latest volume of each index.
type MarketIndices struct {
	Indices    []MarketIndex `json:"indices"`
	VolumesPie []IndexVolume `json:"volumesPie"`
}

// MarketIndex is the ascending close series of one index.
type MarketIndex struct {
	Name   string     `json:"name" example:"S&P 500"`
	Symbol string     `json:"symbol" example:"^GSPC"`
	Prices []*float64 `json:"prices"`
	Dates  []string   `json:"dates"`
	Volume *float64   `json:"volume"`
}

// IndexVolume is the most recent volume of one index.
type IndexVolume struct {
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Volume *float64 `json:"volume"`
}

// IndexComponent is one member of an index at the member's latest date.
type IndexComponent struct {
	IndexName string   `json:"index_name" example:"S&P 500"`
	Symbol    string   `json:"symbol" example:"MSFT"`
	Weight    *float64 `json:"weight" example:"6.8"`
	Price     *float64 `json:"price" example:"415.2"`
	Change    *float64 `json:"change" example:"0.31"`
}

// Earnings is one recent earnings report.
type Earnings struct {
	Symbol           string   `json:"symbol"`
	PeriodStart      *string  `json:"period_start"`
	PeriodEnd        *string  `json:"period_end"`
	Revenue          *float64 `json:"revenue"`
	NetIncome        *float64 `json:"net_income"`
	EarningsPerShare *float64 `json:"earnings_per_share"`
	ReportDate       string   `json:"report_date"`
}
