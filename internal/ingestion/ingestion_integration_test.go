//go:build integration
// +build integration

package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	migrations "github.com/guttosm/stockdash/db"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "stockdash",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=stockdash sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "stockdash")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	if err := goose.Up(db, migrations.MigrationsDir); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
}

func TestIngestion_EndToEnd_ProcessDirectory(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()
	runMigrations(t, db)

	if _, err := db.Exec(`INSERT INTO companies (symbol, name) VALUES ('AAPL', 'Apple'), ('MSFT', 'Microsoft')`); err != nil {
		t.Fatalf("seed companies: %v", err)
	}

	day := LastNTradingDays(1, time.Now())[0]
	rows := []string{
		"symbol,date,open,high,low,close,volume",
		fmt.Sprintf("AAPL,%s,226.10,229.00,225.50,228.35,51234000", day.Format(fileDateLayout)),
		fmt.Sprintf("MSFT,%s,,,,415.20,", day.Format(fileDateLayout)),
		fmt.Sprintf("NOPE,%s,1,1,1,1,1", day.Format(fileDateLayout)),
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName(day)), []byte(strings.Join(rows, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, force := range []bool{false, true} {
		if err := ProcessDirectory(ctx, dir, db, 1, 2, force); err != nil {
			t.Fatalf("ProcessDirectory(force=%v): %v", force, err)
		}
	}

	var cnt int
	if err := db.QueryRow(`SELECT COUNT(*) FROM stock_prices WHERE date = $1`, day).Scan(&cnt); err != nil {
		t.Fatalf("count prices: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 prices after a forced reload, got %d", cnt)
	}

	var (
		rowCount int
		batchID  sql.NullString
	)
	if err := db.QueryRow(`SELECT row_count, batch_id FROM ingestion_log WHERE file_date = $1`, day).Scan(&rowCount, &batchID); err != nil {
		t.Fatalf("read ingestion_log: %v", err)
	}
	if rowCount != 2 || !batchID.Valid {
		t.Fatalf("unexpected ingestion_log row: count=%d batch=%v", rowCount, batchID)
	}
}
