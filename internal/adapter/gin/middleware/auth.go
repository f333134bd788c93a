package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory-service/internal/adapter/auth"
	apperrors "user-directory-service/pkg/errors"
	"user-directory-service/pkg/logger"
)

// UserIDKey is the gin context key holding the authenticated user ID.
const UserIDKey = "auth.userID"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(a auth.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return authenticate(a, log, true)
}

// OptionalAuth identifies the caller when a bearer token is sent. A token that
// is sent but rejected still fails the request.
func OptionalAuth(a auth.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return authenticate(a, log, false)
}

// UserID returns the authenticated user ID, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func authenticate(a auth.Authenticator, log *zap.Logger, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		uid, err := a.Authenticate(ctx, token)
		if err != nil {
			status := apperrors.StatusOf(err)
			if status == http.StatusUnauthorized {
				logger.WithContext(ctx, log).Info("token rejected", zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
				return
			}
			logger.WithContext(ctx, log).Error("authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(UserIDKey, uid)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(ctx, uid))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
