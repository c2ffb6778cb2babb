package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guttosm/stockdash/internal/domain/models"
	pq "github.com/lib/pq"
)

// PricesRepository loads daily price files into stock_prices.
type PricesRepository interface {
	ResolveCompanyIDs(ctx context.Context, symbols []string) (map[string]int64, error)
	InsertPricesBatch(ctx context.Context, companyIDs map[string]int64, prices []models.DailyPrice) error
	HasIngestionForDate(ctx context.Context, date time.Time) (bool, error)
	UpsertIngestionLog(ctx context.Context, date time.Time, filename string, rowCount int, batchID uuid.UUID) error
	DeletePricesByDate(ctx context.Context, date time.Time) error
}

type pricesRepository struct {
	db *sql.DB
}

// NewPricesRepository returns the write side used by price ingestion.
func NewPricesRepository(db *sql.DB) PricesRepository {
	return &pricesRepository{db: db}
}

// ResolveCompanyIDs maps each known symbol to its company_id. Unknown symbols are absent from the result.
func (r *pricesRepository) ResolveCompanyIDs(ctx context.Context, symbols []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(symbols))
	if len(symbols) == 0 {
		return ids, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT company_id, symbol FROM companies WHERE symbol = ANY($1)`, pq.Array(symbols))
	if err != nil {
		return nil, wrap("resolve symbols", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id     int64
			symbol string
		)
		if err := rows.Scan(&id, &symbol); err != nil {
			return nil, wrap("scan symbol", err)
		}
		ids[symbol] = id
	}
	return ids, wrap("iterate symbols", rows.Err())
}

// InsertPricesBatch copies the rows into stock_prices in a single transaction.
// Every row's symbol must be present in companyIDs.
func (r *pricesRepository) InsertPricesBatch(ctx context.Context, companyIDs map[string]int64, prices []models.DailyPrice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin price load", err)
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return wrap("tune price load", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"stock_prices",
		"company_id",
		"date",
		"open",
		"high",
		"low",
		"close",
		"volume",
	))
	if err != nil {
		_ = tx.Rollback()
		return wrap("prepare price copy", err)
	}

	for _, p := range prices {
		id, ok := companyIDs[p.Symbol]
		if !ok {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("copy price row: unknown symbol %q", p.Symbol)
		}
		if _, err := stmt.ExecContext(ctx, id, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return wrap("copy price row", err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return wrap("flush price copy", err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return wrap("close price copy", err)
	}

	return wrap("commit price load", tx.Commit())
}

// HasIngestionForDate reports whether a file for the given trading day was already loaded.
func (r *pricesRepository) HasIngestionForDate(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE file_date = $1)`, date).Scan(&exists)
	if err != nil {
		return false, wrap("check ingestion log", err)
	}
	return exists, nil
}

// UpsertIngestionLog records (or refreshes) the load of one trading day.
func (r *pricesRepository) UpsertIngestionLog(ctx context.Context, date time.Time, filename string, rowCount int, batchID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_log (file_date, filename, row_count, batch_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_date)
		DO UPDATE SET filename = EXCLUDED.filename,
		              row_count = EXCLUDED.row_count,
		              batch_id = EXCLUDED.batch_id,
		              ingested_at = NOW()`,
		date, filename, rowCount, batchID.String())
	return wrap("upsert ingestion log", err)
}

// DeletePricesByDate removes every close recorded for the given day.
func (r *pricesRepository) DeletePricesByDate(ctx context.Context, date time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stock_prices WHERE date = $1`, date)
	return wrap("delete prices", err)
}
