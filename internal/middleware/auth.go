// Package middleware holds the gin middleware of the share server.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
)

// Context keys set by VerifyToken.
const (
	ContextUserID  = "userID"
	ContextIDToken = "idToken"
)

// ErrorResponse mirrors api.ErrorResponse; api imports this package, not the reverse.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware checks bearer tokens against a db.TokenVerifier.
type AuthMiddleware struct {
	verifier db.TokenVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier db.TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken rejects requests without a valid bearer token. On success the
// uid and the raw token are stored in the context; handlers call the store
// with the caller's token so the access rules apply to them.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}
		idToken := parts[1]

		uid, err := m.verifier.Verify(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(ContextUserID, uid)
		c.Set(ContextIDToken, idToken)
		c.Next()
	}
}
