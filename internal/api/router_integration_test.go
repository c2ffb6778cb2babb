//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/stockdash/config"
	"github.com/guttosm/stockdash/internal/app"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
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
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=stockdash sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "stockdash")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := app.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedForE2E(t *testing.T, db *sql.DB) {
	t.Helper()
	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("seed %q: %v", q, err)
		}
	}

	exec(`INSERT INTO sectors (sector_name) VALUES ('Technology')`)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		exec(`INSERT INTO companies (symbol, name, sector, sector_id, market_cap) VALUES ($1, $2, 'Technology', 1, 1000000)`, sym, sym+" Inc")
		for d := 0; d < 5; d++ {
			exec(`INSERT INTO stock_prices (company_id, date, open, high, low, close, volume) VALUES ($1, $2, 1, 2, 0.5, $3, 100)`,
				i+1, today.AddDate(0, 0, -d), 100+i*10-d)
		}
	}
	exec(`INSERT INTO sector_performance (sector_id, date, avg_price, total_volume, change_percent) VALUES (1, $1, 110, 300, 1.25)`, today)
	exec(`INSERT INTO market_indices (name, symbol) VALUES ('S&P 500', 'SPX')`)
	exec(`INSERT INTO index_prices (index_id, date, close, volume) VALUES (1, $1, 5000, 900), (1, $2, 5050, 1000)`,
		today.AddDate(0, 0, -1), today)
	exec(`INSERT INTO index_components (index_id, company_id, weight) VALUES (1, 1, 7.1), (1, 2, 6.5)`)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPI_E2E(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	db := openAndMigrate(t, dsn)
	defer db.Close()
	seedForE2E(t, db)

	// Point application config to containerized DB
	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	p, _ := nat.ParsePort(port.Port())
	config.AppConfig = config.Config{
		Server: config.ServerConfig{Port: "0", RequestTimeout: 10 * time.Second},
		Postgres: config.PostgresConfig{
			Host:         host,
			Port:         p,
			User:         "postgres",
			Password:     "postgres",
			DBName:       "stockdash",
			SSLMode:      "disable",
			QueryTimeout: 5 * time.Second,
		},
		Dashboard: config.DashboardConfig{PriceWindowDays: 30, NewsLimit: 10, EarningsWindowDays: 90, EarningsLimit: 20},
	}

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	t.Run("stock data", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/stock-data", "")
		if w.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
		}
		var body struct {
			PriceData map[string]struct {
				Dates  []string   `json:"dates"`
				Prices []*float64 `json:"prices"`
			} `json:"priceData"`
			MarketOverview []struct {
				Symbol string  `json:"symbol"`
				Change float64 `json:"change"`
			} `json:"marketOverview"`
			SectorPerformance map[string]struct {
				ChangePercent *float64 `json:"change_percent"`
			} `json:"sectorPerformance"`
			MarketIndices struct {
				Indices []struct {
					Symbol string `json:"symbol"`
				} `json:"indices"`
			} `json:"marketIndices"`
			IndexComponents []struct {
				Symbol string `json:"symbol"`
			} `json:"indexComponents"`
			LatestNews []json.RawMessage `json:"latestNews"`
			Earnings   []json.RawMessage `json:"earnings"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if len(body.PriceData) != 3 {
			t.Fatalf("want 3 price series, got %d", len(body.PriceData))
		}
		for sym, s := range body.PriceData {
			if len(s.Dates) != 5 || len(s.Prices) != 5 {
				t.Fatalf("%s: want 5 points, got %d/%d", sym, len(s.Dates), len(s.Prices))
			}
		}
		if len(body.MarketOverview) != 3 || body.MarketOverview[0].Symbol != "AAPL" {
			t.Fatalf("unexpected overview: %+v", body.MarketOverview)
		}
		if body.MarketOverview[0].Change <= 0 {
			t.Fatalf("expected positive change for AAPL, got %v", body.MarketOverview[0].Change)
		}
		if s, ok := body.SectorPerformance["Technology"]; !ok || s.ChangePercent == nil || *s.ChangePercent != 1.25 {
			t.Fatalf("unexpected sector summary: %+v", body.SectorPerformance)
		}
		if len(body.MarketIndices.Indices) != 1 || body.MarketIndices.Indices[0].Symbol != "SPX" {
			t.Fatalf("unexpected indices: %+v", body.MarketIndices)
		}
		if len(body.IndexComponents) != 2 || body.IndexComponents[0].Symbol != "AAPL" {
			t.Fatalf("unexpected components: %+v", body.IndexComponents)
		}
		if body.LatestNews == nil || body.Earnings == nil {
			t.Fatalf("empty sections must be [] not null")
		}
	})

	t.Run("register rejects empty watchlist", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/users", `{"username":"ana","email":"ana@x.io","company_ids":[]}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400 got %d body=%s", w.Code, w.Body.String())
		}
	})

	var userID int64
	t.Run("register then watchlist", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/users", `{"username":"ana","email":"ana@x.io","company_ids":[2]}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("want 201 got %d body=%s", w.Code, w.Body.String())
		}
		var created struct {
			UserID int64 `json:"user_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.UserID == 0 {
			t.Fatalf("bad body %s: %v", w.Body.String(), err)
		}
		userID = created.UserID

		w = serve(router, http.MethodGet, fmt.Sprintf("/api/watchlist/%d", userID), "")
		if w.Code != http.StatusOK {
			t.Fatalf("want 200 got %d", w.Code)
		}
		var list []struct {
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
			t.Fatalf("json: %v", err)
		}
		if len(list) != 1 || list[0].Symbol != "MSFT" {
			t.Fatalf("unexpected watchlist: %+v", list)
		}
	})

	t.Run("register with unknown company rolls back", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/users", `{"username":"bob","email":"bob@x.io","company_ids":[999]}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("want 500 got %d", w.Code)
		}
		w = serve(router, http.MethodPost, "/api/login", `{"username":"bob"}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("user must not survive a failed registration, got %d", w.Code)
		}
	})

	t.Run("login", func(t *testing.T) {
		if w := serve(router, http.MethodPost, "/api/login", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("want 400 got %d", w.Code)
		}
		if w := serve(router, http.MethodPost, "/api/login", `{"username":"ghost"}`); w.Code != http.StatusNotFound {
			t.Fatalf("want 404 got %d", w.Code)
		}
		w := serve(router, http.MethodPost, "/api/login", `{"email":"ana@x.io"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("want 200 got %d", w.Code)
		}
		var out struct {
			User struct {
				UserID int64 `json:"user_id"`
			} `json:"user"`
			Watchlist []json.RawMessage `json:"watchlist"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.User.UserID != userID || len(out.Watchlist) != 1 {
			t.Fatalf("unexpected login body: %s", w.Body.String())
		}
	})

	t.Run("readiness", func(t *testing.T) {
		if w := serve(router, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
			t.Fatalf("want 200 got %d", w.Code)
		}
	})
}
