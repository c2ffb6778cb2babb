// Package dashboard is the terminal client of the stock data API.
//
// It pages symbol-keyed series through a carousel, keeps the last fetched
// envelope in an explicit State owned by a Controller, and renders each
// screen section independently so one malformed section never blanks the rest.
package dashboard

import (
	"fmt"
	"sort"

	"github.com/guttosm/stockdash/internal/domain/dto"
)

// PageSize is the number of symbols shown per carousel page.
const PageSize = 5

// Kind identifies one of the paged chart views.
type Kind int

const (
	KindPrice         Kind = iota // closing prices
	KindVolume                    // daily volumes
	KindMovingAverage             // SMA20 and SMA50
	KindRSI                       // RSI
)

var kindNames = [...]string{"price", "volume", "ma", "rsi"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a command argument ("price", "volume", "ma", "rsi") to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chart %q (want price, volume, ma or rsi)", s)
}

// Kinds lists every paged view in display order.
func Kinds() []Kind { return []Kind{KindPrice, KindVolume, KindMovingAverage, KindRSI} }

// Advance returns the next page index, wrapping to 0 after the last page.
func Advance(cursor, total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	if (cursor+1)*pageSize < total {
		return cursor + 1
	}
	return 0
}

// Retreat returns the previous page index, wrapping to the last page from 0.
func Retreat(cursor, total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	if cursor > 0 {
		return cursor - 1
	}
	return (total - 1) / pageSize
}

// Line is one named value array of a series, parallel to its dates.
type Line struct {
	Name   string
	Values []*float64
}

// Series is the per-symbol input of a chart: dates plus one or more parallel lines.
type Series struct {
	Dates []string
	Lines []Line
}

// Page is the window of symbols visible at a cursor, each sorted chronologically.
type Page struct {
	Cursor  int
	Pages   int
	Total   int
	Symbols []string
	Series  map[string]Series
}

// CurrentPage slices series to the symbols of page cursor. Symbols are taken in
// ascending order; every symbol's dates and lines are re-sorted ascending by date.
// A cursor past the end yields an empty page.
func CurrentPage(series map[string]Series, cursor, pageSize int) Page {
	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	total := len(symbols)
	page := Page{Cursor: cursor, Total: total, Series: make(map[string]Series)}
	if pageSize <= 0 || total == 0 {
		return page
	}
	page.Pages = (total + pageSize - 1) / pageSize

	start := cursor * pageSize
	if cursor < 0 || start >= total {
		return page
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	page.Symbols = symbols[start:end]
	for _, s := range page.Symbols {
		page.Series[s] = sortByDate(series[s])
	}
	return page
}

// sortByDate reorders dates and every line with one stable index permutation.
// ISO dates compare correctly as strings.
func sortByDate(s Series) Series {
	idx := make([]int, len(s.Dates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.Dates[idx[a]] < s.Dates[idx[b]] })

	out := Series{Dates: make([]string, len(idx)), Lines: make([]Line, len(s.Lines))}
	for i, j := range idx {
		out.Dates[i] = s.Dates[j]
	}
	for li, line := range s.Lines {
		vals := make([]*float64, len(idx))
		for i, j := range idx {
			if j < len(line.Values) {
				vals[i] = line.Values[j]
			}
		}
		out.Lines[li] = Line{Name: line.Name, Values: vals}
	}
	return out
}

// SeriesFor extracts the chart input of kind from the envelope. A symbol whose
// arrays disagree in length is reported as a RenderError.
func SeriesFor(kind Kind, env *dto.StockDataResponse) (map[string]Series, error) {
	if env == nil {
		return nil, &RenderError{Section: kind.String(), Err: errNoData}
	}
	out := make(map[string]Series)
	switch kind {
	case KindPrice, KindVolume:
		for sym, p := range env.PriceData {
			line := Line{Name: "close", Values: p.Prices}
			if kind == KindVolume {
				line = Line{Name: "volume", Values: p.Volumes}
			}
			if len(line.Values) != len(p.Dates) {
				return nil, malformed(kind, sym, line.Name, len(p.Dates), len(line.Values))
			}
			out[sym] = Series{Dates: p.Dates, Lines: []Line{line}}
		}
	case KindMovingAverage, KindRSI:
		for sym, ind := range env.TechnicalIndicators {
			lines := []Line{{Name: "sma20", Values: ind.SMA20}, {Name: "sma50", Values: ind.SMA50}}
			if kind == KindRSI {
				lines = []Line{{Name: "rsi", Values: ind.RSI}}
			}
			for _, l := range lines {
				if len(l.Values) != len(ind.Dates) {
					return nil, malformed(kind, sym, l.Name, len(ind.Dates), len(l.Values))
				}
			}
			out[sym] = Series{Dates: ind.Dates, Lines: lines}
		}
	default:
		return nil, &RenderError{Section: kind.String(), Err: fmt.Errorf("unsupported kind")}
	}
	return out, nil
}

func malformed(kind Kind, sym, line string, dates, values int) error {
	return &RenderError{
		Section: kind.String(),
		Err:     fmt.Errorf("%s: %d dates but %d %s values", sym, dates, values, line),
	}
}

// Carousel holds one independent cursor per Kind.
type Carousel struct {
	cursors [len(kindNames)]int
}

// Cursor returns the current page index of kind.
func (c *Carousel) Cursor(kind Kind) int { return c.cursors[kind] }

// Next advances kind's cursor over total symbols.
func (c *Carousel) Next(kind Kind, total int) int {
	c.cursors[kind] = Advance(c.cursors[kind], total, PageSize)
	return c.cursors[kind]
}

// Prev moves kind's cursor back over total symbols.
func (c *Carousel) Prev(kind Kind, total int) int {
	c.cursors[kind] = Retreat(c.cursors[kind], total, PageSize)
	return c.cursors[kind]
}

// Reset puts every cursor back on the first page. Only a fresh full fetch does this.
func (c *Carousel) Reset() { c.cursors = [len(kindNames)]int{} }
