package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxEmail  = "email"

	LoginPath = "/login"
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Refresher rotates a refresh token into a fresh token pair.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret    []byte
	Refresher    Refresher
	SecureCookie bool
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher, secure bool) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:    secret,
		Refresher:    refresher,
		SecureCookie: secure,
	}
}

// Authenticate identifies the caller from the access cookie, rotating an expired one
// through the refresh cookie. Unauthenticated requests pass through as guests.
func (m *AutoRefreshMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims := m.identify(c); claims != nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

// RequireAuth sends guests to the login page with a return path.
func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(CtxUserID).(string); !ok {
			return redirectToLogin(c)
		}
		return next(c)
	}
}

// RequireRole lets through callers holding one of roles. Guests go to login, everyone
// else to the storefront root.
func (m *AutoRefreshMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(CtxUserID).(string); !ok {
				return redirectToLogin(c)
			}
			role, _ := c.Get(CtxRole).(string)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
}

func (m *AutoRefreshMiddleware) identify(c echo.Context) *tokens.AccessClaims {
	l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

	if accessCookie, err := c.Cookie(tokens.AccessCookie); err == nil && accessCookie.Value != "" {
		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			return claims
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			l.Warn("invalid_access_token", "error", err)
			m.clearAuthCookies(c)
			return nil
		}
	}

	refreshCookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || refreshCookie.Value == "" || m.Refresher == nil {
		return nil
	}

	pair, err := m.Refresher.RefreshTokens(c.Request().Context(), refreshCookie.Value)
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		m.clearAuthCookies(c)
		return nil
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp, m.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp, m.SecureCookie))

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
	if err != nil {
		l.Error("refreshed_token_invalid", "error", err)
		m.clearAuthCookies(c)
		return nil
	}
	l.Info("tokens_refreshed", "user_id", claims.Subject)
	return claims
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, LoginPath+"?next="+url.QueryEscape(c.Request().URL.RequestURI()))
}

func (m *AutoRefreshMiddleware) clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.SecureCookie))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxEmail, claims.Email)
}
