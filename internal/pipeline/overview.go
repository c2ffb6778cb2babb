package pipeline

import (
	"sort"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
)

// BuildMarketOverview emits one record per symbol, ordered by ascending symbol.
//
// latest is the symbol's max-date row (first one in input order on ties);
// previous is the most recent row strictly older than latest. When no older
// row exists previous is latest and the change is 0.
func BuildMarketOverview(rows []models.PriceRow) []dto.MarketOverviewItem {
	latest := make(map[string]int)
	for i, r := range rows {
		j, ok := latest[r.Symbol]
		if !ok || r.Date.After(rows[j].Date) {
			latest[r.Symbol] = i
		}
	}

	previous := make(map[string]int)
	for i, r := range rows {
		l := rows[latest[r.Symbol]]
		if !r.Date.Before(l.Date) {
			continue
		}
		j, ok := previous[r.Symbol]
		if !ok || r.Date.After(rows[j].Date) {
			previous[r.Symbol] = i
		}
	}

	symbols := make([]string, 0, len(latest))
	for s := range latest {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	out := make([]dto.MarketOverviewItem, 0, len(symbols))
	for _, sym := range symbols {
		l := rows[latest[sym]]
		item := dto.MarketOverviewItem{
			Symbol:    sym,
			Name:      l.Name,
			Price:     toFloat("close", sym, l.Close),
			Volume:    toFloat("volume", sym, l.Volume),
			MarketCap: toFloat("market_cap", sym, l.MarketCap),
			Sector:    l.Sector,
		}

		if j, ok := previous[sym]; ok {
			lc, lok := toDecimal("close", sym, l.Close)
			pc, pok := toDecimal("previous_close", sym, rows[j].Close)
			if lok && pok {
				item.Change = percentChange("change", sym, lc, pc)
			}
		} else {
			zero := 0.0
			item.Change = &zero
		}
		out = append(out, item)
	}
	return out
}
