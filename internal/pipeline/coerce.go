// Package pipeline reshapes flat market rows into the symbol-keyed series the dashboard renders.
//
// Every function is pure apart from warn-level logging of values that fail numeric coercion.
// Empty input always yields an empty, non-nil result.
package pipeline

import (
	"time"

	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// toDecimal parses n. ok is false for NULL and for unparsable text; the latter is logged.
func toDecimal(field, symbol string, n models.Numeric) (decimal.Decimal, bool) {
	d, ok, err := n.Decimal()
	if err != nil {
		logger.L().Warn().
			Str("component", "pipeline").
			Str("field", field).
			Str("symbol", symbol).
			Str("raw", n.Raw).
			Err(err).
			Msg("numeric coercion failed; emitting null")
		return decimal.Zero, false
	}
	return d, ok
}

// toFloat is toDecimal converted to a nullable float for JSON.
func toFloat(field, symbol string, n models.Numeric) *float64 {
	d, ok := toDecimal(field, symbol, n)
	if !ok {
		return nil
	}
	return floatPtr(d)
}

func floatPtr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}

// percentChange returns (latest-previous)/previous*100, or nil when previous is zero.
func percentChange(field, symbol string, latest, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		logger.L().Warn().
			Str("component", "pipeline").
			Str("field", field).
			Str("symbol", symbol).
			Msg("previous close is zero; change is undefined")
		return nil
	}
	return floatPtr(latest.Sub(previous).Div(previous).Mul(hundred))
}
