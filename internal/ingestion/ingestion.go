// Package ingestion loads daily price files into stock_prices.
//
// One file per trading day, named "YYYY-MM-DD_prices.csv", with the header
// symbol,date,open,high,low,close,volume. Each day is loaded at most once
// unless forced; the ingestion_log table records what was loaded.
package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/storage"
)

const (
	fileDateLayout   = "2006-01-02"
	fileSuffix       = "_prices.csv"
	defaultBatchSize = 5000
	maxDays          = 30
	maxParallelism   = 7
)

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.PricesRepository {
	return storage.NewPricesRepository(db)
}

// now is overridden in tests to pin the trading calendar.
var now = time.Now

// FileName returns the expected file name for a trading day.
func FileName(day time.Time) string {
	return day.Format(fileDateLayout) + fileSuffix
}

// ProcessDirectory loads the files of the last nDays trading days found in dir.
//
// Behavior:
//   - nDays is clamped to 1..30; parallel to 1..7 (0 means min(7, NumCPU)).
//   - Every expected file must exist before anything is loaded.
//   - Days already in ingestion_log are skipped unless force, which deletes and reloads them.
//   - The first failing file cancels the rest and its error is returned.
func ProcessDirectory(ctx context.Context, dir string, db *sql.DB, nDays int, parallel int, force bool) error {
	repo := repoCtor(db)
	log := logger.With("ingestion")

	if nDays < 1 {
		nDays = 1
	}
	if nDays > maxDays {
		nDays = maxDays
	}
	dates := LastNTradingDays(nDays, now())

	var (
		files   []string
		missing []string
	)
	for _, d := range dates {
		name := FileName(d)
		full := filepath.Join(dir, name)
		files = append(files, full)

		if _, err := os.Stat(full); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, name)
			} else {
				return fmt.Errorf("stat failed for %s: %w", full, err)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}

	maxParallel := maxParallelism
	if parallel > 0 {
		if parallel < maxParallel {
			maxParallel = parallel
		}
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	log.Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", maxParallel).Bool("force", force).Msg("ingestion start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, file := range files {
		idx, f, day := i, file, dates[i]
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(f)
			batchID := uuid.New()
			flog := log.With().Str("file", base).Str("batch_id", batchID.String()).Logger()
			flog.Info().Int("idx", idx+1).Int("total", len(files)).Msg("file start")

			exists, err := repo.HasIngestionForDate(gctx, day)
			if err != nil {
				flog.Error().Err(err).Msg("check ingestion log failed")
				return fmt.Errorf("file %s: check ingestion log: %w", f, err)
			}
			if exists && !force {
				flog.Info().Bool("skipped", true).Msg("already ingested")
				return nil
			}
			if exists {
				if err := repo.DeletePricesByDate(gctx, day); err != nil {
					flog.Error().Err(err).Msg("delete existing failed")
					return fmt.Errorf("file %s: delete existing: %w", f, err)
				}
			}

			total, err := parseAndPersistFile(flog.WithContext(gctx), f, day, repo, defaultBatchSize)
			if err != nil {
				flog.Error().Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", f, err)
			}
			if err := repo.UpsertIngestionLog(gctx, day, base, total, batchID); err != nil {
				flog.Error().Err(err).Msg("update ingestion log failed")
				return fmt.Errorf("file %s: upsert ingestion log: %w", f, err)
			}
			flog.Info().Int("rows", total).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}

	return g.Wait()
}
