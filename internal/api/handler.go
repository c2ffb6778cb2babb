package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/middleware"
	"github.com/guttosm/stockdash/internal/service"
	"github.com/guttosm/stockdash/internal/storage"
)

// Handler provides the HTTP endpoints of the dashboard API.
//
// Responsibilities:
//   - Decode path parameters and JSON bodies
//   - Delegate to the dashboard and user services
//   - Map service errors to 400/404/500 with a dto.ErrorResponse body
type Handler struct {
	dash  service.DashboardService
	users service.UserService
}

// NewHandler constructs a Handler from its services.
func NewHandler(dash service.DashboardService, users service.UserService) *Handler {
	return &Handler{dash: dash, users: users}
}

// GetStockData godoc
// @Summary      Aggregate market data
// @Description  Price and indicator series, sector summary, news, market overview, indices, index components and earnings in one envelope
// @Tags         market
// @Produce      json
// @Success      200  {object}  dto.StockDataResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock-data [get]
func (h *Handler) GetStockData(c *gin.Context) {
	resp, err := h.dash.GetStockData(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListCompanies godoc
// @Summary      List companies
// @Description  Every company ordered by symbol, for watchlist pickers
// @Tags         market
// @Produce      json
// @Success      200  {array}   models.CompanyRef
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/companies [get]
func (h *Handler) ListCompanies(c *gin.Context) {
	out, err := h.dash.ListCompanies(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, out)
}

// RegisterUser godoc
// @Summary      Register a user with a watchlist
// @Description  Creates the user and every watchlist entry in one transaction
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterUserRequest  true  "User and company ids"
// @Success      201   {object}  dto.RegisterUserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "Missing required fields", err)
		return
	}

	userID, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Missing required fields")
		return
	}
	c.JSON(http.StatusCreated, dto.RegisterUserResponse{
		Message: "User and watchlist created successfully",
		UserID:  userID,
	})
}

// Login godoc
// @Summary      Log in by username or email
// @Description  Returns the user and their watchlist; no session is created
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.LoginRequest  true  "Username or email"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "Username or email required", err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Username or email required")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetWatchlist godoc
// @Summary      A user's watchlist
// @Tags         users
// @Produce      json
// @Param        user_id  path      int  true  "User id"
// @Success      200      {array}   models.CompanyRef
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /api/watchlist/{user_id} [get]
func (h *Handler) GetWatchlist(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		middleware.AbortWithError(c, http.StatusBadRequest, "user_id must be a positive integer", err)
		return
	}

	out, err := h.users.Watchlist(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, out)
}

// Test godoc
// @Summary      Liveness probe of the API surface
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.TestResponse
// @Router       /api/test [get]
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, dto.TestResponse{Message: "Test endpoint working"})
}

// fail maps a service error to its status. validationMsg is the message used for 400s.
func (h *Handler) fail(c *gin.Context, err error, validationMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		middleware.AbortWithError(c, http.StatusBadRequest, validationMsg, err)
	case errors.Is(err, storage.ErrNotFound):
		middleware.AbortWithError(c, http.StatusNotFound, "User not found", nil)
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		middleware.AbortWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
