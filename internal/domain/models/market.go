package models

import "time"

// PriceRow is one row of the company × date × price × indicator join.
//
// Indicator columns come from a LEFT JOIN and are invalid when no
// technical_indicators row exists for (company, date).
type PriceRow struct {
	Symbol    string
	Name      string
	Sector    string
	Date      time.Time
	Open      Numeric
	High      Numeric
	Low       Numeric
	Close     Numeric
	Volume    Numeric
	MarketCap Numeric
	SMA20     Numeric
	SMA50     Numeric
	RSI       Numeric
}

// SectorRow is one (sector, date) aggregate with the summed market cap of its companies.
type SectorRow struct {
	SectorName     string
	Date           time.Time
	AvgPrice       Numeric
	TotalVolume    Numeric
	ChangePercent  Numeric
	TotalMarketCap Numeric
}

// NewsRow is a news article with its associated company symbol.
type NewsRow struct {
	Title          string
	URL            string
	PublishedAt    time.Time
	SentimentScore Numeric
	Symbol         string
}

// IndexPriceRow is one (index, date) close.
type IndexPriceRow struct {
	Name   string
	Symbol string
	Date   time.Time
	Close  Numeric
	Volume Numeric
}

// IndexComponentRow pairs an index membership with one dated close of the member.
//
// The data access layer returns the most recent rows of each member's price
// series; the pipeline derives the change from them.
type IndexComponentRow struct {
	IndexName string
	Symbol    string
	Weight    Numeric
	Date      time.Time
	Close     Numeric
}

// EarningsRow is one earnings report.
type EarningsRow struct {
	Symbol      string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Revenue     Numeric
	NetIncome   Numeric
	EPS         Numeric
	ReportDate  time.Time
}
