package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// classify maps a service error onto a status code and a public body. The
// body never carries internal causes.
func classify(err error) (int, errorBody) {
	switch {
	case errors.Is(err, common.ErrEmailConflict), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, errorBody{"email_conflict", common.ErrEmailConflict.Error()}
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{"invalid_credentials", err.Error()}
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, errorBody{"invalid_token", err.Error()}
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized, errorBody{"invalid_token", err.Error()}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorBody{"not_found", "Resource not found."}
	case errors.Is(err, common.ErrorValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
		return http.StatusBadRequest, errorBody{"invalid_request", msg}
	case errors.Is(err, common.ErrorStorageNotConfigured):
		return http.StatusServiceUnavailable, errorBody{"storage_unavailable", err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{"server_error", "Internal server error."}
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "error", err, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{"invalid_request", description})
}
