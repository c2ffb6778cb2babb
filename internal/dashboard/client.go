package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
)

// APIError is a non-2xx answer from the API, decoded from its error body when possible.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("api %d: %s: %s", e.Status, msg, e.Details)
	}
	return fmt.Sprintf("api %d: %s", e.Status, msg)
}

// Client calls the stock data API with a bounded timeout per request.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets baseURL (e.g. "http://localhost:3000"). A zero timeout means 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StockData fetches the aggregate envelope.
func (c *Client) StockData(ctx context.Context) (*dto.StockDataResponse, error) {
	var out dto.StockDataResponse
	if err := c.do(ctx, http.MethodGet, "/api/stock-data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Companies lists every company ordered by symbol.
func (c *Client) Companies(ctx context.Context) ([]models.CompanyRef, error) {
	var out []models.CompanyRef
	err := c.do(ctx, http.MethodGet, "/api/companies", nil, &out)
	return out, err
}

// Watchlist returns the companies on a user's watchlist.
func (c *Client) Watchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error) {
	var out []models.CompanyRef
	err := c.do(ctx, http.MethodGet, "/api/watchlist/"+strconv.FormatInt(userID, 10), nil, &out)
	return out, err
}

// Login looks a user up by username or email.
func (c *Client) Login(ctx context.Context, username, email string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", dto.LoginRequest{Username: username, Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a user with a watchlist and returns the new user id.
func (c *Client) Register(ctx context.Context, username, email string, companyIDs []int64) (int64, error) {
	var out dto.RegisterUserResponse
	req := dto.RegisterUserRequest{Username: username, Email: email, CompanyIDs: companyIDs}
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb dto.ErrorResponse
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message, apiErr.Details = eb.Message, eb.ErrorDetails
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
