// Package auth resolves the caller capability from a bearer token. Token
// issuance lives with the storefront's account service; this package only
// verifies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

// Claims are the token claims the back office reads.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates tokens and derives the caller capability.
type Verifier struct {
	keyfunc   jwt.Keyfunc
	methods   []string
	adminRole string
	logger    *slog.Logger
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret, adminRole string, logger *slog.Logger) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	key := []byte(secret)
	return newVerifier(func(*jwt.Token) (any, error) { return key, nil },
		[]string{jwt.SigningMethodHS256.Alg()}, adminRole, logger), nil
}

// NewJWKSVerifier verifies RS256/ES256 tokens against the keys published at
// jwksURL. Keys are cached and refreshed in the background for the lifetime
// of ctx.
func NewJWKSVerifier(ctx context.Context, jwksURL, adminRole string, logger *slog.Logger) (*Verifier, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, errors.New("jwks url is required")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create jwks client: %w", err)
	}
	return newVerifier(jwks.Keyfunc, []string{"RS256", "ES256"}, adminRole, logger), nil
}

func newVerifier(kf jwt.Keyfunc, methods []string, adminRole string, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	if adminRole == "" {
		adminRole = "admin"
	}
	return &Verifier{keyfunc: kf, methods: methods, adminRole: adminRole, logger: logger}
}

// Verify parses token and returns the caller it identifies. Any parse or
// signature failure yields an Unauthorized error.
func (v *Verifier) Verify(token string) (domain.Caller, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyfunc, jwt.WithValidMethods(v.methods))
	if err != nil || !parsed.Valid {
		v.logger.Debug("token rejected", slog.Any("error", err))
		return domain.Caller{}, domain.NewAppError(domain.CodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return domain.Caller{}, domain.NewAppError(domain.CodeUnauthorized, "token has no subject", nil)
	}
	return domain.Caller{
		Subject: claims.Subject,
		Admin:   claims.Role == v.adminRole || slices.Contains(claims.Roles, v.adminRole),
	}, nil
}
