package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guttosm/stockdash/internal/domain/dto"
	"github.com/guttosm/stockdash/internal/domain/models"
	"github.com/guttosm/stockdash/internal/events"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/storage"
)

// ErrValidation marks a request that is missing or has malformed fields.
var ErrValidation = errors.New("validation failed")

// UserService registers users and resolves logins and watchlists.
type UserService interface {
	Register(ctx context.Context, req dto.RegisterUserRequest) (int64, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Watchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error)
}

type userService struct {
	repo      storage.UserRepository
	publisher events.Publisher
	validate  *validator.Validate
}

// NewUserService wires the repository and event publisher; a nil publisher drops events.
func NewUserService(repo storage.UserRepository, publisher events.Publisher) UserService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &userService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates the user and their watchlist atomically, then emits user.registered.
// A publish failure is logged and does not fail the registration.
func (s *userService) Register(ctx context.Context, req dto.RegisterUserRequest) (int64, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.check(req); err != nil {
		return 0, err
	}

	userID, err := s.repo.CreateUserWithWatchlist(ctx, req.Username, req.Email, req.CompanyIDs)
	if err != nil {
		return 0, err
	}

	if err := s.publisher.PublishUserRegistered(ctx, userID, req.Username, req.CompanyIDs); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("user registered event not published")
	}
	return userID, nil
}

// Login looks a user up by username or email and returns their watchlist.
func (s *userService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUser(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	watchlist, err := s.repo.ListWatchlist(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{User: *user, Watchlist: watchlist}, nil
}

// Watchlist lists the companies userID watches. An unknown user yields an empty list.
func (s *userService) Watchlist(ctx context.Context, userID int64) ([]models.CompanyRef, error) {
	return s.repo.ListWatchlist(ctx, userID)
}

// check runs struct validation and folds failures into ErrValidation.
func (s *userService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
