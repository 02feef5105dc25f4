package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	mw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthHTTP struct {
	Svc          *service.AccountService
	SecureCookie bool
}

// TokenRefresher lets the auth middleware rotate tokens through the account service.
type TokenRefresher struct {
	Svc *service.AccountService
}

func (r TokenRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*mw.Tokens, error) {
	res, err := r.Svc.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &mw.Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}, nil
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "register_error", err)
	}

	user, err := h.Svc.Register(ctx, req.ToInput())
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID.String())
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.SecureCookie))

	l.Info("login_successful", "user_id", res.User.ID.String())
	return c.JSON(http.StatusOK, echo.Map{
		"user":     res.User,
		"is_admin": res.User.Role == models.RoleAdmin,
		"is_staff": res.User.Role == models.RoleStaff || res.User.Role == models.RoleAdmin,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if refreshCookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, refreshCookie.Value); err != nil {
			l.Warn("logout_revoke_failed", "error", err)
		}
	}

	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.SecureCookie))
	if err := clearVoucher(c); err != nil {
		l.Warn("logout_session_clear_failed", "error", err)
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "forgot_password_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "forgot_password_error", err)
	}

	h.Svc.ForgotPassword(ctx, req.Email)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if the email is registered, reset instructions have been sent",
	})
}
