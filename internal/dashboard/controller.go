package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/logger"
)

// API is the part of the stock data API the controller drives.
type API interface {
	StockData(ctx context.Context) (*dto.StockDataResponse, error)
	Companies(ctx context.Context) ([]models.CompanyRef, error)
	Watchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error)
	Login(ctx context.Context, username, email string) (*dto.LoginResponse, error)
	Register(ctx context.Context, username, email string, companyIDs []int64) (int64, error)
}

// Controller owns the dashboard State and is its only writer.
type Controller struct {
	api   API
	state *State
	seq   atomic.Uint64
	now   func() time.Time
	log   zerolog.Logger
}

// NewController builds a Controller over api with an empty State.
func NewController(api API) *Controller {
	return &Controller{
		api:   api,
		state: &State{},
		now:   time.Now,
		log:   logger.With("dashboard"),
	}
}

// State gives read access to what is on screen.
func (c *Controller) State() *State { return c.state }

// Refresh fetches a full envelope. Every call takes a sequence number up front,
// so a slow fetch that finishes after a newer one is discarded.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.seq.Add(1)
	env, err := c.api.StockData(ctx)
	if err != nil {
		return fmt.Errorf("fetch stock data: %w", err)
	}
	if !c.state.Apply(seq, env, c.now()) {
		c.log.Debug().Uint64("seq", seq).Uint64("applied", c.state.Seq()).Msg("stale fetch dropped")
		return nil
	}
	c.log.Info().Uint64("seq", seq).Int("symbols", len(env.PriceData)).Msg("envelope applied")
	return nil
}

// Next moves kind's carousel forward one page.
func (c *Controller) Next(kind Kind) (int, error) { return c.state.move(kind, true) }

// Prev moves kind's carousel back one page.
func (c *Controller) Prev(kind Kind) (int, error) { return c.state.move(kind, false) }

// Login resolves who by email when it contains "@", by username otherwise,
// and makes that user's watchlist the one on screen.
func (c *Controller) Login(ctx context.Context, who string) (*models.User, error) {
	var username, email string
	if strings.Contains(who, "@") {
		email = who
	} else {
		username = who
	}
	resp, err := c.api.Login(ctx, username, email)
	if err != nil {
		return nil, err
	}
	u := resp.User
	c.state.setUser(&u, resp.Watchlist)
	return &u, nil
}

// Companies lists the companies a watchlist can be built from.
func (c *Controller) Companies(ctx context.Context) ([]models.CompanyRef, error) {
	return c.api.Companies(ctx)
}

// Register creates a user watching companyIDs and logs them in.
func (c *Controller) Register(ctx context.Context, username, email string, companyIDs []int64) (int64, error) {
	id, err := c.api.Register(ctx, username, email, companyIDs)
	if err != nil {
		return 0, err
	}
	list, err := c.api.Watchlist(ctx, id)
	if err != nil {
		return id, fmt.Errorf("load watchlist of new user %d: %w", id, err)
	}
	c.state.setUser(&models.User{UserID: id, Username: username, Email: email}, list)
	return id, nil
}

// LoadWatchlist shows the watchlist of userID without a login.
func (c *Controller) LoadWatchlist(ctx context.Context, userID int64) error {
	list, err := c.api.Watchlist(ctx, userID)
	if err != nil {
		return err
	}
	u, _ := c.state.User()
	if u == nil || u.UserID != userID {
		u = &models.User{UserID: userID, Username: fmt.Sprintf("user %d", userID)}
	}
	c.state.setUser(u, list)
	return nil
}

// Render draws the whole screen and logs sections that failed.
func (c *Controller) Render(w io.Writer) []error {
	errs := RenderScreen(w, c.state)
	for _, err := range errs {
		c.log.Warn().Err(err).Msg("section not rendered")
	}
	return errs
}
