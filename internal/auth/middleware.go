package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "acemc/internal/errors"
	"acemc/internal/model"
)

const (
	tokenContextKey     = "user"
	principalContextKey = "principal"
	claimsContextKey    = "claims"
)

// UserLoader resolves the account behind a token.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// reject renders a domain error the way handlers do.
func reject(err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, apperrors.ErrorResponse{
		Error: he.Message,
		Code:  he.Code,
	})
}

func unauthorized() error {
	return reject(apperrors.ErrUnauthenticated)
}

// JWT parses the bearer token into *Claims.
func JWT(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: jwtService.Secret(),
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized()
		},
	})
}

// Authenticate turns verified claims into a principal. The role is always
// read from the stored account, never trusted from the token.
func Authenticate(tokens TokenStoreInterface, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return unauthorized()
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || claims.TokenType != TokenTypeAccess || claims.ID == "" {
				return unauthorized()
			}

			ctx := c.Request().Context()
			revoked, err := tokens.IsAccessTokenBlacklisted(ctx, claims.ID)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("jti", claims.ID).Msg("access token blacklist unavailable")
			}
			if revoked {
				return unauthorized()
			}
			user, err := users.GetUser(ctx, claims.UserID)
			if err != nil || user == nil {
				return unauthorized()
			}

			c.Set(claimsContextKey, claims)
			c.Set(principalContextKey, user)
			return next(c)
		}
	}
}

// RequireRole rejects principals whose role is not listed.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return unauthorized()
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return reject(apperrors.ErrForbidden)
		}
	}
}

// RequireVerified rejects principals whose email address is not verified.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return unauthorized()
			}
			if !user.Verified() {
				return reject(apperrors.ErrEmailNotVerified)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated principal or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(principalContextKey).(*model.User)
	return user
}

// CurrentClaims returns the verified access-token claims or nil.
func CurrentClaims(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}

// SetPrincipal installs user as the authenticated principal.
func SetPrincipal(c echo.Context, user *model.User) {
	c.Set(principalContextKey, user)
}
