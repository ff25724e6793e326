package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/infrastructure/auth"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys and headers
const (
	ClaimsKey         = "auth_claims"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
	DefaultUserHeader = "X-User-ID"
	maxUserIDLength   = 128
)

// AuthConfig configures how the caller's user namespace is resolved
type AuthConfig struct {
	// JWTService validates bearer tokens; the token subject is the user ID
	JWTService *auth.JWTService
	// AllowHeaderUser accepts UserHeader when no bearer token is sent.
	// Development only.
	AllowHeaderUser bool
	UserHeader      string
	SkipPaths       []string
	Logger          *zap.Logger
}

// Auth resolves the user namespace of every request. A bearer token always
// wins; the plain header is only consulted when AllowHeaderUser is set.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if cfg.UserHeader == "" {
		cfg.UserHeader = DefaultUserHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		var userID string
		if header := c.GetHeader(AuthHeaderKey); header != "" {
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" {
				abortUnauthorized(c, cfg.Logger, auth.ErrInvalidToken)
				return
			}
			if cfg.JWTService == nil || !cfg.JWTService.Enabled() {
				abortUnauthorized(c, cfg.Logger, auth.ErrMissingSecret)
				return
			}
			claims, err := cfg.JWTService.ValidateToken(token)
			if err != nil {
				abortUnauthorized(c, cfg.Logger, err)
				return
			}
			c.Set(ClaimsKey, claims)
			userID = claims.UserID()
		} else if cfg.AllowHeaderUser {
			userID = strings.TrimSpace(c.GetHeader(cfg.UserHeader))
		}

		if userID == "" || len(userID) > maxUserIDLength {
			abortUnauthorized(c, cfg.Logger, auth.ErrMissingUserID)
			return
		}

		c.Set(logger.GinUserIDKey, userID)
		ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("Authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetUserID returns the user namespace resolved by Auth
func GetUserID(c *gin.Context) string {
	return c.GetString(logger.GinUserIDKey)
}

// GetClaims returns the validated token claims, or nil for header-authenticated requests
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
