package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc      *service.CartService
	Vouchers *service.VoucherService
}

type cartView struct {
	*cart.Cart
	Totals cart.Totals `json:"totals"`
}

func viewOf(ct *cart.Cart) cartView {
	if ct.Lines == nil {
		ct.Lines = []models.CartLine{}
	}
	return cartView{Cart: ct, Totals: ct.Totals()}
}

func (h *CartHTTP) load(c echo.Context) (*cart.Cart, error) {
	return loadCart(c, h.Svc)
}

// loadCart builds the signed-in user's cart with the session voucher. A voucher left behind
// on an empty cart, e.g. when the post-checkout session clear failed, is dropped here.
func loadCart(c echo.Context, svc *service.CartService) (*cart.Cart, error) {
	ctx := c.Request().Context()
	ct, err := svc.Load(ctx, actorOf(c).ID, voucherFromSession(c))
	if err != nil {
		return nil, err
	}
	if ct.Empty() && !ct.Voucher.Empty() {
		if err := clearVoucher(c); err != nil {
			logging.FromContext(ctx).Warn("stale_voucher_clear_failed", "code", ct.Voucher.Code, "error", err)
		}
		ct.Voucher = cart.AppliedVoucher{}
	}
	return ct, nil
}

// respond renders the current cart after a mutation.
func (h *CartHTTP) respond(c echo.Context, l *slog.Logger, event string, status int) error {
	ct, err := h.load(c)
	if err != nil {
		return fail(l, event, err)
	}
	return c.JSON(status, viewOf(ct))
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.get")
	return h.respond(c, l, "get_cart_error", http.StatusOK)
}

func (h *CartHTTP) AddLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_line")

	var req transport.AddLineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	line, err := h.Svc.AddLine(ctx, actorOf(c).ID, req.Key(), req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", line.ProductID.String(), "qty", line.Quantity)
	return h.respond(c, l, "add_to_cart_error", http.StatusCreated)
}

func (h *CartHTTP) AdjustLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.adjust_line")

	var req transport.AdjustLineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "adjust_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "adjust_cart_error", err)
	}

	if _, err := h.Svc.AdjustLine(ctx, actorOf(c).ID, req.Key(), req.Action); err != nil {
		return fail(l, "adjust_cart_error", err)
	}
	return h.respond(c, l, "adjust_cart_error", http.StatusOK)
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	var req transport.LineKey
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "remove_from_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}

	removed, err := h.Svc.RemoveLine(ctx, actorOf(c).ID, req.Key())
	if err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	l.Info("remove_from_cart_success", "removed", removed)
	return h.respond(c, l, "remove_from_cart_error", http.StatusOK)
}

func (h *CartHTTP) ApplyVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_voucher")

	var req transport.VoucherRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "apply_voucher_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "apply_voucher_error", err)
	}

	ct, err := h.load(c)
	if err != nil {
		return fail(l, "apply_voucher_error", err)
	}
	applied, err := h.Vouchers.Apply(ctx, req.Code, ct.Subtotal())
	if err != nil {
		return fail(l, "apply_voucher_error", err)
	}
	if err := saveVoucher(c, applied); err != nil {
		return fail(l, "apply_voucher_error", err)
	}

	ct.Voucher = applied
	l.Info("apply_voucher_success", "code", applied.Code, "discount", applied.Discount)
	return c.JSON(http.StatusOK, viewOf(ct))
}

func (h *CartHTTP) RemoveVoucher(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.remove_voucher")

	if err := clearVoucher(c); err != nil {
		return fail(l, "remove_voucher_error", err)
	}
	ct, err := h.Svc.Load(c.Request().Context(), actorOf(c).ID, cart.AppliedVoucher{})
	if err != nil {
		return fail(l, "remove_voucher_error", err)
	}
	return c.JSON(http.StatusOK, viewOf(ct))
}
