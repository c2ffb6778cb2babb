package dto

import "time"

// ErrorResponse is the body of every non-2xx response.
//
// Example:
//
//	{"error": "failed to fetch stock data", "details": "pq: relation \"companies\" does not exist", "timestamp": "..."}
type ErrorResponse struct {
	Message      string    `json:"error" example:"Internal server error"`
	ErrorDetails string    `json:"details,omitempty" example:"connection refused"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error lets an ErrorResponse travel as an error value (e.g. through gin's c.Error).
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse; err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
