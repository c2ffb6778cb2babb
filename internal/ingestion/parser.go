package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/storage"
	"github.com/shopspring/decimal"
)

// expectedHeaders enforces strict column ordering for daily price files.
// If the header doesn't match EXACTLY (order + count), ingestion must fail.
var expectedHeaders = []string{"symbol", "date", "open", "high", "low", "close", "volume"}

const rowDateLayout = "2006-01-02"

// parseAndPersistFile opens, validates, parses, and persists one file in batches.
//
// It fails on:
//   - header not matching expected order/length
//   - a row whose date differs from fileDate
//   - malformed numbers or a missing close
//   - unrecoverable I/O or storage errors
//
// It tolerates:
//   - empty open/high/low (stored as NULL) and empty volume (0)
//   - symbols unknown to the companies table (skipped with a warning)
//
// Returns the number of rows persisted.
func parseAndPersistFile(ctx context.Context, path string, fileDate time.Time, repo storage.PricesRepository, batch int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // checked explicitly for a better message

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return 0, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != expectedHeaders[i] {
			return 0, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], h)
		}
	}

	ids := make(map[string]int64)
	unknown := make(map[string]struct{})
	buf := make([]models.DailyPrice, 0, batch)
	total := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		var missing []string
		for _, p := range buf {
			_, known := ids[p.Symbol]
			_, skipped := unknown[p.Symbol]
			if !known && !skipped {
				missing = append(missing, p.Symbol)
			}
		}
		if len(missing) > 0 {
			resolved, err := repo.ResolveCompanyIDs(ctx, missing)
			if err != nil {
				return err
			}
			for _, s := range missing {
				if id, ok := resolved[s]; ok {
					ids[s] = id
				} else if _, seen := unknown[s]; !seen {
					unknown[s] = struct{}{}
					logger.Ctx(ctx).Warn().Str("symbol", s).Str("file", path).Msg("unknown symbol skipped")
				}
			}
		}

		keep := buf[:0]
		for _, p := range buf {
			if _, ok := ids[p.Symbol]; ok {
				keep = append(keep, p)
			}
		}
		if len(keep) > 0 {
			if err := repo.InsertPricesBatch(ctx, ids, keep); err != nil {
				return err
			}
			total += len(keep)
		}
		buf = buf[:0]
		return nil
	}

	lineNumber := 1 // header already read
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++

		if len(rec) != len(expectedHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", lineNumber, len(expectedHeaders), len(rec))
		}

		p, err := recordToPrice(rec)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if !p.Date.Equal(fileDate) {
			return 0, fmt.Errorf("line %d: date %s does not match file date %s",
				lineNumber, p.Date.Format(rowDateLayout), fileDate.Format(rowDateLayout))
		}

		buf = append(buf, p)
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return 0, fmt.Errorf("flush batch ending line %d: %w", lineNumber, err)
			}
		}
	}

	if err := flush(); err != nil {
		return 0, fmt.Errorf("final flush: %w", err)
	}
	return total, nil
}

// recordToPrice converts a single CSV record (already validated length==7)
// into a models.DailyPrice. Symbols are upper-cased.
func recordToPrice(rec []string) (models.DailyPrice, error) {
	var p models.DailyPrice

	p.Symbol = strings.ToUpper(strings.TrimSpace(rec[0]))
	if p.Symbol == "" {
		return p, errors.New("empty symbol")
	}

	d, err := time.Parse(rowDateLayout, strings.TrimSpace(rec[1]))
	if err != nil {
		return p, fmt.Errorf("invalid date: %w", err)
	}
	p.Date = d

	for i, dst := range []*decimal.NullDecimal{&p.Open, &p.High, &p.Low} {
		s := strings.TrimSpace(rec[2+i])
		if s == "" {
			continue
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return p, fmt.Errorf("invalid %s: %w", expectedHeaders[2+i], err)
		}
		*dst = decimal.NewNullDecimal(v)
	}

	s := strings.TrimSpace(rec[5])
	if s == "" {
		return p, errors.New("missing close")
	}
	if p.Close, err = decimal.NewFromString(s); err != nil {
		return p, fmt.Errorf("invalid close: %w", err)
	}

	if s := strings.TrimSpace(rec[6]); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid volume: %w", err)
		}
		if v < 0 {
			return p, fmt.Errorf("negative volume %d", v)
		}
		p.Volume = v
	}

	return p, nil
}
