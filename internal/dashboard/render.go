package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/guttosm/stockdash/internal/domain/dto"
)

var errNoData = errors.New("no data loaded")

// RenderError marks a screen section that could not be drawn from the envelope.
type RenderError struct {
	Section string
	Err     error
}

func (e *RenderError) Error() string { return e.Section + ": " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// maxLabels bounds the date labels printed under a sparkline.
const maxLabels = 6

var sparks = []rune("▁▂▃▄▅▆▇█")

// section draws one titled block. fn writes into a buffer so a failure or panic
// halfway through discards the partial output and prints one error row instead.
func section(w io.Writer, name string, fn func(io.Writer) error) (err error) {
	var buf bytes.Buffer
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Section: name, Err: fmt.Errorf("panic: %v", r)}
		}
		fmt.Fprintf(w, "== %s ==\n", strings.ToUpper(name))
		if err != nil {
			var re *RenderError
			if !errors.As(err, &re) {
				err = &RenderError{Section: name, Err: err}
			}
			fmt.Fprintf(w, "  ! error loading %s: %v\n\n", name, errors.Unwrap(err))
			return
		}
		_, _ = buf.WriteTo(w)
		fmt.Fprintln(w)
	}()
	return fn(&buf)
}

type step struct {
	name string
	fn   func(io.Writer) error
}

// RenderScreen draws every section of the dashboard from one snapshot of s.
// Sections fail independently; the returned slice lists the ones that could not be drawn.
func RenderScreen(w io.Writer, s *State) []error {
	snap := s.Snapshot()
	env := snap.Env
	steps := []step{
		{"ticker", func(w io.Writer) error { return renderTicker(w, env) }},
		{"overview", func(w io.Writer) error { return renderOverview(w, env) }},
		{"sentiment", func(w io.Writer) error { return renderSentiment(w, env) }},
	}
	for _, k := range Kinds() {
		steps = append(steps, step{k.String(), func(w io.Writer) error {
			p, err := snap.Page(k)
			if err != nil {
				return err
			}
			return renderChart(w, p)
		}})
	}
	steps = append(steps,
		step{"sectors", func(w io.Writer) error { return renderSectors(w, env) }},
		step{"indices", func(w io.Writer) error { return renderIndices(w, env) }},
		step{"components", func(w io.Writer) error { return renderComponents(w, env) }},
		step{"earnings", func(w io.Writer) error { return renderEarnings(w, env) }},
		step{"news", func(w io.Writer) error { return renderNews(w, env) }},
		step{"watchlist", func(w io.Writer) error { return renderWatchlist(w, snap) }},
	)

	var errs []error
	for _, st := range steps {
		if err := section(w, st.name, st.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func renderTicker(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	parts := make([]string, 0, len(env.MarketOverview))
	for _, it := range env.MarketOverview {
		parts = append(parts, fmt.Sprintf("%s %s %s", it.Symbol, num(it.Price, 2), arrow(it.Change)))
	}
	if len(parts) == 0 {
		_, err := fmt.Fprintln(w, "  (no quotes)")
		return err
	}
	_, err := fmt.Fprintln(w, "  "+strings.Join(parts, " | "))
	return err
}

func renderOverview(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tCHANGE\tVOLUME\tMKT CAP\tSECTOR\t")
	for _, it := range env.MarketOverview {
		if it.Symbol == "" {
			return fmt.Errorf("overview row without symbol")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			it.Symbol, it.Name, num(it.Price, 2), pct(it.Change), compact(it.Volume), compact(it.MarketCap), it.Sector)
	}
	return tw.Flush()
}

func renderSentiment(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	g := SentimentGauge(env.LatestNews)
	const width = 20
	filled := int(math.Round(g.Percent / 100 * width))
	_, err := fmt.Fprintf(w, "  [%s%s] %s\n", strings.Repeat("#", filled), strings.Repeat(".", width-filled), g)
	return err
}

func renderChart(w io.Writer, p Page) error {
	if p.Total == 0 {
		_, err := fmt.Fprintln(w, "  (no series)")
		return err
	}
	fmt.Fprintf(w, "  page %d/%d (%d symbols)\n", p.Cursor+1, p.Pages, p.Total)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sym := range p.Symbols {
		ser := p.Series[sym]
		for _, line := range ser.Lines {
			fmt.Fprintf(tw, "  %s\t%s\t%s\tlast %s\n", sym, line.Name, Sparkline(line.Values), num(last(line.Values), 2))
		}
		if labels := nonEmpty(ThinLabels(ser.Dates, maxLabels)); len(labels) > 0 {
			fmt.Fprintf(tw, "  \t\t%s\t\n", strings.Join(labels, " "))
		}
	}
	return tw.Flush()
}

func renderSectors(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SECTOR\tCHANGE\tMKT CAP")
	for _, name := range slices.Sorted(maps.Keys(env.SectorPerformance)) {
		s := env.SectorPerformance[name]
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, pct(s.ChangePercent), compact(s.TotalMarketCap))
	}
	return tw.Flush()
}

func renderIndices(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	var total float64
	for _, v := range env.MarketIndices.VolumesPie {
		if v.Volume != nil {
			total += *v.Volume
		}
	}
	share := make(map[string]string, len(env.MarketIndices.VolumesPie))
	for _, v := range env.MarketIndices.VolumesPie {
		if v.Volume != nil && total > 0 {
			share[v.Symbol] = fmt.Sprintf("%.1f%%", *v.Volume/total*100)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  INDEX\tSYMBOL\tTREND\tLAST\tVOL SHARE")
	for _, idx := range env.MarketIndices.Indices {
		if len(idx.Prices) != len(idx.Dates) {
			return fmt.Errorf("%s: %d dates but %d prices", idx.Symbol, len(idx.Dates), len(idx.Prices))
		}
		vs := share[idx.Symbol]
		if vs == "" {
			vs = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", idx.Name, idx.Symbol, Sparkline(idx.Prices), num(last(idx.Prices), 2), vs)
	}
	return tw.Flush()
}

func renderComponents(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  INDEX\tSYMBOL\tWEIGHT\tPRICE\tCHANGE")
	for _, c := range env.IndexComponents {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.IndexName, c.Symbol, num(c.Weight, 2), num(c.Price, 2), pct(c.Change))
	}
	return tw.Flush()
}

func renderEarnings(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SYMBOL\tREPORTED\tPERIOD\tREVENUE\tNET INCOME\tEPS")
	for _, e := range env.Earnings {
		period := "-"
		if e.PeriodStart != nil && e.PeriodEnd != nil {
			period = *e.PeriodStart + ".." + *e.PeriodEnd
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			e.Symbol, e.ReportDate, period, compact(e.Revenue), compact(e.NetIncome), num(e.EarningsPerShare, 2))
	}
	return tw.Flush()
}

func renderNews(w io.Writer, env *dto.StockDataResponse) error {
	if env == nil {
		return errNoData
	}
	if len(env.LatestNews) == 0 {
		_, err := fmt.Fprintln(w, "  (no news)")
		return err
	}
	for _, n := range env.LatestNews {
		fmt.Fprintf(w, "  %s [%s] %-8s %s\n", n.PublishedAt.UTC().Format("2006-01-02 15:04"), n.Symbol, NewsTone(n.SentimentScore), n.Title)
	}
	return nil
}

// renderWatchlist shows the latest close of each watched symbol from the envelope on display.
func renderWatchlist(w io.Writer, snap Snapshot) error {
	u, list, env := snap.User, snap.Watchlist, snap.Env
	if u == nil {
		_, err := fmt.Fprintln(w, "  (not logged in)")
		return err
	}
	if env == nil {
		return errNoData
	}
	fmt.Fprintf(w, "  %s (#%d)\n", u.Username, u.UserID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range list {
		p, ok := env.PriceData[c.Symbol]
		if !ok {
			fmt.Fprintf(tw, "  %s\t%s\t-\n", c.Symbol, c.Name)
			continue
		}
		ser := sortByDate(Series{Dates: p.Dates, Lines: []Line{{Name: "close", Values: p.Prices}}})
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Symbol, c.Name, num(last(ser.Lines[0].Values), 2), Sparkline(ser.Lines[0].Values))
	}
	return tw.Flush()
}

// Sparkline maps values onto eight block heights. Nil points render as spaces.
func Sparkline(values []*float64) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v != nil {
			lo, hi = math.Min(lo, *v), math.Max(hi, *v)
		}
	}
	var b strings.Builder
	for _, v := range values {
		switch {
		case v == nil:
			b.WriteRune(' ')
		case hi == lo:
			b.WriteRune(sparks[len(sparks)/2])
		default:
			i := int((*v - lo) / (hi - lo) * float64(len(sparks)-1))
			b.WriteRune(sparks[i])
		}
	}
	return b.String()
}

func last(values []*float64) *float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			return values[i]
		}
	}
	return nil
}

func nonEmpty(labels []string) []string {
	out := labels[:0:0]
	for _, l := range labels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func num(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

func arrow(v *float64) string {
	switch {
	case v == nil:
		return "-"
	case *v > 0:
		return fmt.Sprintf("▲%.2f%%", *v)
	case *v < 0:
		return fmt.Sprintf("▼%.2f%%", -*v)
	default:
		return "0.00%"
	}
}

// compact prints large magnitudes with K/M/B/T suffixes.
func compact(v *float64) string {
	if v == nil {
		return "-"
	}
	abs := math.Abs(*v)
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e12, "T"}, {1e9, "B"}, {1e6, "M"}, {1e3, "K"}} {
		if abs >= u.div {
			return fmt.Sprintf("%.2f%s", *v/u.div, u.suffix)
		}
	}
	return fmt.Sprintf("%.0f", *v)
}
