package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/ratelimit"
	"github.com/guttosm/stockdash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	resp := service.Assemble(service.Parts{})
	h := NewHandler(&mockDashService{resp: &resp}, &mockUserService{})
	r := NewRouter(h, RouterOptions{RequestTimeout: time.Second})

	w := do(r, http.MethodGet, "/api/stock-data", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"priceData":{}`)

	w = do(r, http.MethodGet, "/api/test", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockDashService{}, &mockUserService{}), RouterOptions{})
	w := do(r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&mockDashService{}, &mockUserService{})
	r := NewRouter(h, RouterOptions{RateLimit: ratelimit.NewMemoryStore(2)})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}
