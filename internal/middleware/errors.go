package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/domain/dto"
)

// AbortWithError stops the chain and writes a dto.ErrorResponse with the given status.
// err may be nil; when set its message becomes the "details" field.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}

// ErrorHandler turns errors attached with c.Error into a JSON body when the
// handler did not write a response itself.
//
// A dto.ErrorResponse error is written as-is; anything else becomes a 500.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	var resp dto.ErrorResponse
	if errors.As(err, &resp) {
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}
