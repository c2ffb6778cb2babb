package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepoIngestion implements storage.PricesRepository for ProcessDirectory tests.
type fakeRepoIngestion struct {
	mu        sync.Mutex
	has       map[time.Time]bool
	inserted  int
	deleted   map[time.Time]bool
	batchIDs  map[time.Time]uuid.UUID
	hasErr    error
	upsertErr error
}

func (f *fakeRepoIngestion) ResolveCompanyIDs(_ context.Context, symbols []string) (map[string]int64, error) {
	out := make(map[string]int64, len(symbols))
	for i, s := range symbols {
		out[s] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeRepoIngestion) InsertPricesBatch(_ context.Context, _ map[string]int64, prices []models.DailyPrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted += len(prices)
	return nil
}

func (f *fakeRepoIngestion) HasIngestionForDate(_ context.Context, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return f.has[date], nil
}

func (f *fakeRepoIngestion) UpsertIngestionLog(_ context.Context, date time.Time, _ string, _ int, batchID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.has == nil {
		f.has = map[time.Time]bool{}
	}
	if f.batchIDs == nil {
		f.batchIDs = map[time.Time]uuid.UUID{}
	}
	f.has[date] = true
	f.batchIDs[date] = batchID
	return nil
}

func (f *fakeRepoIngestion) DeletePricesByDate(_ context.Context, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleted == nil {
		f.deleted = map[time.Time]bool{}
	}
	f.deleted[date] = true
	return nil
}

// pinNow fixes the calendar at Friday 2025-09-12 and installs repo.
func pinNow(t *testing.T, repo storage.PricesRepository) {
	t.Helper()
	oldNow, oldCtor := now, repoCtor
	now = func() time.Time { return time.Date(2025, 9, 12, 18, 0, 0, 0, time.UTC) }
	if repo != nil {
		repoCtor = func(*sql.DB) storage.PricesRepository { return repo }
	}
	t.Cleanup(func() { now, repoCtor = oldNow, oldCtor })
}

func writeDayFile(t *testing.T, dir string, day time.Time, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("symbol,date,open,high,low,close,volume\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "SYM%d,%s,1,2,0.5,%d.25,100\n", i, day.Format(fileDateLayout), 10+i)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName(day)), []byte(b.String()), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2025-09-12_prices.csv", FileName(date(2025, time.September, 12)))
}

func TestProcessDirectory_LoadsEveryDay(t *testing.T) {
	dir := t.TempDir()
	fr := &fakeRepoIngestion{}
	pinNow(t, fr)

	days := LastNTradingDays(3, now())
	for _, d := range days {
		writeDayFile(t, dir, d, 2)
	}

	require.NoError(t, ProcessDirectory(context.Background(), dir, nil, 3, runtime.NumCPU(), false))
	assert.Equal(t, 6, fr.inserted)
	for _, d := range days {
		assert.True(t, fr.has[d], d)
	}
	assert.NotEqual(t, fr.batchIDs[days[0]], fr.batchIDs[days[1]])
}

func TestProcessDirectory_SkipIfAlreadyIngested(t *testing.T) {
	dir := t.TempDir()
	day := date(2025, time.September, 12)
	fr := &fakeRepoIngestion{has: map[time.Time]bool{day: true}}
	pinNow(t, fr)
	writeDayFile(t, dir, day, 2)

	require.NoError(t, ProcessDirectory(context.Background(), dir, nil, 1, 1, false))
	assert.Zero(t, fr.inserted)
	assert.Empty(t, fr.deleted)
}

func TestProcessDirectory_ForceReprocess(t *testing.T) {
	dir := t.TempDir()
	day := date(2025, time.September, 12)
	fr := &fakeRepoIngestion{has: map[time.Time]bool{day: true}}
	pinNow(t, fr)
	writeDayFile(t, dir, day, 2)

	require.NoError(t, ProcessDirectory(context.Background(), dir, nil, 1, 1, true))
	assert.True(t, fr.deleted[day])
	assert.Equal(t, 2, fr.inserted)
}

func TestProcessDirectory_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	pinNow(t, nil)
	writeDayFile(t, dir, date(2025, time.September, 12), 1)

	err := ProcessDirectory(context.Background(), dir, nil, 2, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required files")
	assert.Contains(t, err.Error(), "2025-09-11_prices.csv")
}

func TestProcessDirectory_RepositoryErrors(t *testing.T) {
	cases := []struct {
		name string
		repo *fakeRepoIngestion
		want error
	}{
		{name: "has ingestion", repo: &fakeRepoIngestion{hasErr: context.DeadlineExceeded}, want: context.DeadlineExceeded},
		{name: "upsert log", repo: &fakeRepoIngestion{upsertErr: errors.New("log down")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			pinNow(t, tc.repo)
			writeDayFile(t, dir, date(2025, time.September, 12), 1)

			err := ProcessDirectory(context.Background(), dir, nil, 1, 1, false)
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestProcessDirectory_BadFileFails(t *testing.T) {
	dir := t.TempDir()
	pinNow(t, &fakeRepoIngestion{})
	day := date(2025, time.September, 12)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(day)), []byte("ticker,close\n"), 0o600))

	err := ProcessDirectory(context.Background(), dir, nil, 1, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
}
