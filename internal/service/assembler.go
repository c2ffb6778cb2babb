package service

import "github.com/guttosm/stockdash/internal/domain/dto"

// Parts are the pipeline outputs and pass-through collections of one dashboard response.
type Parts struct {
	PriceData           map[string]dto.PriceSeries
	SectorPerformance   map[string]dto.SectorSummary
	LatestNews          []dto.NewsItem
	MarketOverview      []dto.MarketOverviewItem
	TechnicalIndicators map[string]dto.IndicatorSeries
	MarketIndices       dto.MarketIndices
	IndexComponents     []dto.IndexComponent
	Earnings            []dto.Earnings
}

// Assemble bundles parts into the response envelope without further computation.
// Every nil collection becomes an empty one so each key serializes as {} or [].
func Assemble(p Parts) dto.StockDataResponse {
	out := dto.StockDataResponse{
		PriceData:           p.PriceData,
		SectorPerformance:   p.SectorPerformance,
		LatestNews:          p.LatestNews,
		MarketOverview:      p.MarketOverview,
		TechnicalIndicators: p.TechnicalIndicators,
		MarketIndices:       p.MarketIndices,
		IndexComponents:     p.IndexComponents,
		Earnings:            p.Earnings,
	}
	if out.PriceData == nil {
		out.PriceData = map[string]dto.PriceSeries{}
	}
	if out.SectorPerformance == nil {
		out.SectorPerformance = map[string]dto.SectorSummary{}
	}
	if out.LatestNews == nil {
		out.LatestNews = []dto.NewsItem{}
	}
	if out.MarketOverview == nil {
		out.MarketOverview = []dto.MarketOverviewItem{}
	}
	if out.TechnicalIndicators == nil {
		out.TechnicalIndicators = map[string]dto.IndicatorSeries{}
	}
	if out.MarketIndices.Indices == nil {
		out.MarketIndices.Indices = []dto.MarketIndex{}
	}
	if out.MarketIndices.VolumesPie == nil {
		out.MarketIndices.VolumesPie = []dto.IndexVolume{}
	}
	if out.IndexComponents == nil {
		out.IndexComponents = []dto.IndexComponent{}
	}
	if out.Earnings == nil {
		out.Earnings = []dto.Earnings{}
	}
	return out
}
