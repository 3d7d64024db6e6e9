package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userIDKey       = "user_id"
	userEmailKey    = "user_email"
)

// AccessVerifier checks bearer tokens. *auth.Codec satisfies it.
type AccessVerifier interface {
	Verify(token string, purpose auth.Purpose) (*auth.Payload, error)
}

// RequestLogger tags every request with an id and logs its outcome at a level
// matching the status class.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.Nop{}
	}
	log = log.With("module", "http")

	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.Request.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"status", status,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if uid := c.GetString(userIDKey); uid != "" {
			args = append(args, "user_id", uid)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "http_request", args...)
		case status >= 400:
			log.Warn(ctx, "http_request", args...)
		default:
			log.Info(ctx, "http_request", args...)
		}
	}
}

// RequireAccessToken admits requests carrying a valid access token and stores
// its subject for the handlers. Refresh tokens are rejected here.
func RequireAccessToken(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
			return
		}

		payload, err := v.Verify(strings.TrimSpace(parts[1]), auth.PurposeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
			return
		}
		c.Set(userIDKey, payload.Subject)
		c.Set(userEmailKey, payload.Email)
		c.Next()
	}
}

// currentUserID returns the subject set by RequireAccessToken.
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
