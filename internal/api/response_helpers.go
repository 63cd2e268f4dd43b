// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func respondList(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// respondError maps application error types onto HTTP statuses and renders
// the standard error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "internal server error"

	if appErr, ok := asAppError(err); ok {
		code = appErr.Code
		message = appErr.Message
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrorTypeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrorTypeForbidden:
			status = http.StatusForbidden
		case apperrors.ErrorTypeConflict:
			status = http.StatusConflict
		case apperrors.ErrorTypePrecondition:
			status = http.StatusPreconditionFailed
		case apperrors.ErrorTypeTimeout:
			status = http.StatusGatewayTimeout
		}
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	c.AbortWithStatusJSON(status, body)
}

func asAppError(err error) (*apperrors.AppError, bool) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func respondErrorMessage(c *gin.Context, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	c.AbortWithStatusJSON(status, body)
}
