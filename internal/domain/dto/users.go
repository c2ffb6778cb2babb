package dto

import "github.com/guttosm/stockdash/internal/domain/models"

// RegisterUserRequest is the body of POST /api/users.
type RegisterUserRequest struct {
	Username   string  `json:"username" validate:"required,max=64" example:"jdoe"`
	Email      string  `json:"email" validate:"required,max=255" example:"jdoe@example.com"`
	CompanyIDs []int64 `json:"company_ids" validate:"required,min=1,dive,gt=0"`
}

// RegisterUserResponse is returned with 201 Created.
type RegisterUserResponse struct {
	Message string `json:"message" example:"User and watchlist created successfully"`
	UserID  int64  `json:"user_id" example:"7"`
}

// LoginRequest identifies a user by username or email; at least one is required.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=Username"`
}

// LoginResponse carries the user and the companies on their watchlist.
type LoginResponse struct {
	User      models.User         `json:"user"`
	Watchlist []models.CompanyRef `json:"watchlist"`
}

// TestResponse is the static liveness payload of GET /api/test.
type TestResponse struct {
	Message string `json:"message" example:"Test endpoint working"`
}
