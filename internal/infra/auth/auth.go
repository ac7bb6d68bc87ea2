package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/config"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey = "userID"
	claimsKey = "claims"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks bearer tokens either against a JWKS endpoint or a shared
// HMAC secret. The token subject is the user id.
type Verifier struct {
	keyfunc jwt.Keyfunc
	methods []string
}

// NewVerifier prefers the JWKS URL when both are configured. The JWKS is
// refreshed in the background until ctx is done.
func NewVerifier(ctx context.Context, cfg *config.AuthConfig) (*Verifier, error) {
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to get JWKS: %v", err)
		}
		return &Verifier{keyfunc: jwks.Keyfunc, methods: []string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"}}, nil
	case cfg.JWTSecret != "":
		return NewHMACVerifier([]byte(cfg.JWTSecret)), nil
	default:
		return nil, errors.New("neither AUTH_JWKS_URL nor AUTH_JWT_SECRET is set")
	}
}

func NewHMACVerifier(secret []byte) *Verifier {
	return &Verifier{
		keyfunc: func(*jwt.Token) (any, error) { return secret, nil },
		methods: []string{"HS256", "HS384", "HS512"},
	}
}

// Claims are the token fields the relay reads. Roles come from either a
// "roles" claim or Cognito groups.
type Claims struct {
	jwt.RegisteredClaims
	Roles  []string `json:"roles,omitempty"`
	Groups []string `json:"cognito:groups,omitempty"`
}

func (c *Claims) HasRole(role string) bool {
	return role != "" && (slices.Contains(c.Roles, role) || slices.Contains(c.Groups, role))
}

func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithLeeway(10*time.Second), jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims, nil
}

func (v *Verifier) UserID(tokenString string) (string, error) {
	claims, err := v.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims for UserID and RequireRole.
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing bearer token"})
		}
		claims, err := v.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		c.Locals(userIDKey, claims.Subject)
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole runs after Middleware and answers 403 unless the token carries role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, _ := c.Locals(claimsKey).(*Claims)
		if claims == nil || !claims.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "missing role " + role})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
