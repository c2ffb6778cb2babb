package models

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Numeric is a raw NUMERIC column value as delivered by the driver.
//
// lib/pq hands NUMERIC back as text; keeping the text lets the pipeline decide
// what a value that fails to parse turns into, instead of failing the whole scan.
//
// swagger:ignore
type Numeric struct {
	Raw   string
	Valid bool
}

// NewNumeric builds a valid Numeric from its textual form.
func NewNumeric(raw string) Numeric {
	return Numeric{Raw: raw, Valid: true}
}

// NumericFromFloat builds a valid Numeric from a float, mostly for tests and fixtures.
func NumericFromFloat(f float64) Numeric {
	return Numeric{Raw: strconv.FormatFloat(f, 'f', -1, 64), Valid: true}
}

// Scan implements sql.Scanner.
func (n *Numeric) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Raw, n.Valid = "", false
	case []byte:
		n.Raw, n.Valid = string(v), true
	case string:
		n.Raw, n.Valid = v, true
	case float64:
		n.Raw, n.Valid = strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		n.Raw, n.Valid = strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int64:
		n.Raw, n.Valid = strconv.FormatInt(v, 10), true
	default:
		return fmt.Errorf("numeric: unsupported source type %T", src)
	}
	return nil
}

// Decimal parses the raw value. ok is false for SQL NULL; err is set when the
// stored text is not a number.
func (n Numeric) Decimal() (d decimal.Decimal, ok bool, err error) {
	if !n.Valid {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(n.Raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("numeric %q: %w", n.Raw, err)
	}
	return d, true, nil
}
