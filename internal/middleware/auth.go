package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
)

const (
	callerContextKey  = "caller"
	accessTokenCookie = "access_token"
)

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (domain.Caller, error)
}

// Authenticate resolves the caller from the Authorization bearer header, or
// the access_token cookie when no header is present. Requests without a
// valid token are rejected with 401.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWith(c, domain.NewAppError(domain.CodeUnauthorized, "authentication required", nil))
			return
		}
		caller, err := v.Verify(token)
		if err != nil {
			abortWith(c, err)
			return
		}
		setCaller(c, caller)
		c.Next()
	}
}

// StaticCaller attaches a fixed caller to every request. It is used when
// token authentication is disabled in local development.
func StaticCaller(caller domain.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		setCaller(c, caller)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin capability.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok || !caller.Admin {
			abortWith(c, domain.NewAppError(domain.CodeUnauthorized, "admin access required", nil))
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller attached by Authenticate or StaticCaller.
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, exists := c.Get(callerContextKey)
	if !exists {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

func setCaller(c *gin.Context, caller domain.Caller) {
	c.Set(callerContextKey, caller)
	ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("subject", caller.Subject))
	c.Request = c.Request.WithContext(ctx)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

func abortWith(c *gin.Context, err error) {
	pkg.Error(c, err)
	c.Abort()
}
