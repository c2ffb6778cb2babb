package models

import "time"

// User is created at registration and looked up by username or email.
type User struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
}

// CompanyRef is the short company projection used by dropdowns and watchlists.
type CompanyRef struct {
	CompanyID int64  `json:"company_id" example:"1"`
	Symbol    string `json:"symbol" example:"AAPL"`
	Name      string `json:"name" example:"Apple Inc."`
}
