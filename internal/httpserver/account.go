package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func (h *AccountHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.profile")

	user, err := h.Svc.Profile(ctx, actorOf(c))
	if err != nil {
		return fail(l, "profile_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_profile")

	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_error", "invalid body", err)
	}

	user, err := h.Svc.UpdateProfile(ctx, actorOf(c), req.ToInput())
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	l.Info("update_profile_success")
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.change_password")

	var req transport.PasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "change_password_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "change_password_error", err)
	}

	if err := h.Svc.ChangePassword(ctx, actorOf(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return fail(l, "change_password_error", err)
	}
	l.Info("change_password_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

func (h *AccountHTTP) Wishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.wishlist")

	items, err := h.Svc.Wishlist(ctx, actorOf(c))
	if err != nil {
		return fail(l, "wishlist_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *AccountHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.add_wishlist")

	var req transport.WishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_wishlist_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "add_wishlist_error", err)
	}

	if err := h.Svc.AddToWishlist(ctx, actorOf(c), req.ProductID); err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"product_id": req.ProductID})
}

func (h *AccountHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.remove_wishlist")

	id, err := uuidParam(c, "productId")
	if err != nil {
		return badRequest(l, "remove_wishlist_error", "product id is not a uuid", err)
	}
	if err := h.Svc.RemoveFromWishlist(ctx, actorOf(c), id); err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
