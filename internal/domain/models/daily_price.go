package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrice is one line of a daily price load file.
//
// Column order:
//  1. Symbol
//  2. Date
//  3. Open
//  4. High
//  5. Low
//  6. Close
//  7. Volume
type DailyPrice struct {
	Symbol string
	Date   time.Time
	Open   decimal.NullDecimal
	High   decimal.NullDecimal
	Low    decimal.NullDecimal
	Close  decimal.Decimal
	Volume int64
}
