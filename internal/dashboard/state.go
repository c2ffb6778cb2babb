package dashboard

import (
	"sync"
	"time"

	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
)

// State is the last applied envelope plus the carousel cursors that page it.
// Renderers get read access only; writes go through the Controller.
type State struct {
	mu        sync.RWMutex
	seq       uint64
	env       *dto.StockDataResponse
	fetchedAt time.Time
	carousel  Carousel
	user      *models.User
	watchlist []models.CompanyRef
}

// Apply stores env as the current envelope when seq is newer than the last
// applied fetch and resets the carousel. Older results are dropped and false is returned.
func (s *State) Apply(seq uint64, env *dto.StockDataResponse, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.seq {
		return false
	}
	s.seq = seq
	s.env = env
	s.fetchedAt = at
	s.carousel.Reset()
	return true
}

// Envelope returns the last applied envelope, or nil before the first fetch.
func (s *State) Envelope() *dto.StockDataResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

// Seq is the sequence number of the envelope on display.
func (s *State) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// FetchedAt is when the envelope on display was received.
func (s *State) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Cursor returns the page index of kind.
func (s *State) Cursor(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carousel.Cursor(kind)
}

// Page returns the visible page of kind at its current cursor.
func (s *State) Page(kind Kind) (Page, error) {
	return s.Snapshot().Page(kind)
}

// Snapshot is a consistent copy of what is on screen, taken under one lock.
// A whole screen is drawn from one Snapshot so a later Apply cannot mix two fetches.
type Snapshot struct {
	Seq       uint64
	Env       *dto.StockDataResponse
	FetchedAt time.Time
	User      *models.User
	Watchlist []models.CompanyRef
	carousel  Carousel
}

// Snapshot copies the envelope pointer, cursors and user.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Seq:       s.seq,
		Env:       s.env,
		FetchedAt: s.fetchedAt,
		User:      s.user,
		Watchlist: append([]models.CompanyRef(nil), s.watchlist...),
		carousel:  s.carousel,
	}
}

// Cursor returns the page index of kind when the snapshot was taken.
func (sn Snapshot) Cursor(kind Kind) int { return sn.carousel.Cursor(kind) }

// Page returns the visible page of kind.
func (sn Snapshot) Page(kind Kind) (Page, error) {
	series, err := SeriesFor(kind, sn.Env)
	if err != nil {
		return Page{}, err
	}
	return CurrentPage(series, sn.carousel.Cursor(kind), PageSize), nil
}

// User returns the logged-in user and their watchlist, if any.
func (s *State) User() (*models.User, []models.CompanyRef) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, append([]models.CompanyRef(nil), s.watchlist...)
}

func (s *State) move(kind Kind, forward bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, err := SeriesFor(kind, s.env)
	if err != nil {
		return 0, err
	}
	if forward {
		return s.carousel.Next(kind, len(series)), nil
	}
	return s.carousel.Prev(kind, len(series)), nil
}

func (s *State) setUser(u *models.User, watchlist []models.CompanyRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.watchlist = watchlist
}
