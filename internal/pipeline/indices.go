package pipeline

import (
	"sort"
	"time"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/shopspring/decimal"
)

// BuildMarketIndices groups index closes by index symbol.
//
// Indices appear in first-seen order. Each group is stably sorted by date, so
// prices and dates are ascending and volume is the max-date row's volume no
// matter how the rows arrived.
func BuildMarketIndices(rows []models.IndexPriceRow) dto.MarketIndices {
	order := make([]string, 0)
	groups := make(map[string][]models.IndexPriceRow)
	for _, r := range rows {
		if _, ok := groups[r.Symbol]; !ok {
			order = append(order, r.Symbol)
		}
		groups[r.Symbol] = append(groups[r.Symbol], r)
	}

	out := dto.MarketIndices{
		Indices:    make([]dto.MarketIndex, 0, len(order)),
		VolumesPie: make([]dto.IndexVolume, 0, len(order)),
	}
	for _, sym := range order {
		g := groups[sym]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })

		idx := dto.MarketIndex{
			Name:   g[0].Name,
			Symbol: sym,
			Prices: make([]*float64, 0, len(g)),
			Dates:  make([]string, 0, len(g)),
		}
		for _, r := range g {
			idx.Prices = append(idx.Prices, toFloat("close", sym, r.Close))
			idx.Dates = append(idx.Dates, formatDate(r.Date))
		}
		last := g[len(g)-1]
		idx.Volume = toFloat("volume", sym, last.Volume)

		out.Indices = append(out.Indices, idx)
		out.VolumesPie = append(out.VolumesPie, dto.IndexVolume{Name: idx.Name, Symbol: sym, Volume: idx.Volume})
	}
	return out
}

type datedClose struct {
	date  time.Time
	close models.Numeric
}

// BuildIndexComponents emits one record per (index, symbol) at the symbol's latest date.
//
// change is the percent delta against the previous date in the symbol's own
// close series, shared across every index the symbol belongs to. With no
// previous date the change is 0. Output is ordered by index name, then weight
// descending, then symbol.
func BuildIndexComponents(rows []models.IndexComponentRow) []dto.IndexComponent {
	// One close per (symbol, date); memberships in several indices repeat the same prices.
	series := make(map[string][]datedClose)
	seen := make(map[string]map[string]bool)
	type member struct {
		index, symbol string
		weight        models.Numeric
	}
	members := make([]member, 0)
	memberSeen := make(map[[2]string]bool)

	for _, r := range rows {
		if seen[r.Symbol] == nil {
			seen[r.Symbol] = make(map[string]bool)
		}
		if day := formatDate(r.Date); !seen[r.Symbol][day] {
			seen[r.Symbol][day] = true
			series[r.Symbol] = append(series[r.Symbol], datedClose{date: r.Date, close: r.Close})
		}
		key := [2]string{r.IndexName, r.Symbol}
		if !memberSeen[key] {
			memberSeen[key] = true
			members = append(members, member{index: r.IndexName, symbol: r.Symbol, weight: r.Weight})
		}
	}

	type latestQuote struct {
		price, change *float64
	}
	quotes := make(map[string]latestQuote, len(series))
	for sym, s := range series {
		sort.SliceStable(s, func(i, j int) bool { return s[i].date.Before(s[j].date) })
		last := s[len(s)-1]
		q := latestQuote{price: toFloat("close", sym, last.close)}
		if len(s) == 1 {
			zero := 0.0
			q.change = &zero
		} else {
			lc, lok := toDecimal("close", sym, last.close)
			pc, pok := toDecimal("previous_close", sym, s[len(s)-2].close)
			if lok && pok {
				q.change = percentChange("change", sym, lc, pc)
			}
		}
		quotes[sym] = q
	}

	type ranked struct {
		item   dto.IndexComponent
		weight decimal.Decimal
		hasW   bool
	}
	list := make([]ranked, 0, len(members))
	for _, m := range members {
		q := quotes[m.symbol]
		w, ok := toDecimal("weight", m.symbol, m.weight)
		item := dto.IndexComponent{
			IndexName: m.index,
			Symbol:    m.symbol,
			Price:     q.price,
			Change:    q.change,
		}
		if ok {
			item.Weight = floatPtr(w)
		}
		list = append(list, ranked{item: item, weight: w, hasW: ok})
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.item.IndexName != b.item.IndexName {
			return a.item.IndexName < b.item.IndexName
		}
		if a.hasW != b.hasW {
			return a.hasW
		}
		if c := a.weight.Cmp(b.weight); c != 0 {
			return c > 0
		}
		return a.item.Symbol < b.item.Symbol
	})

	out := make([]dto.IndexComponent, 0, len(list))
	for _, r := range list {
		out = append(out, r.item)
	}
	return out
}
