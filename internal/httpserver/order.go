package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Cart     *service.CartService
	Accounts *service.AccountService
}

// CheckoutPage returns the cart with totals and the profile used to prefill shipping.
func (h *OrderHTTP) CheckoutPage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout_page")
	actor := actorOf(c)

	ct, err := loadCart(c, h.Cart)
	if err != nil {
		return fail(l, "checkout_page_error", err)
	}
	user, err := h.Accounts.Profile(ctx, actor)
	if err != nil {
		return fail(l, "checkout_page_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cart": viewOf(ct),
		"user": user,
	})
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "checkout_error", err)
	}

	order, err := h.Svc.Checkout(ctx, actorOf(c), req.ToInput(), voucherFromSession(c))
	if err != nil {
		return fail(l, "checkout_error", err)
	}
	if err := clearVoucher(c); err != nil {
		l.Warn("checkout_session_clear_failed", "order_id", order.ID.String(), "error", err)
	}

	l.Info("checkout_success", "order_id", order.ID.String(), "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	orders, err := h.Svc.ListByUser(ctx, actorOf(c), c.QueryParam("status"))
	if err != nil {
		return fail(l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "id is not a uuid", err)
	}
	detail, err := h.Svc.Get(ctx, actorOf(c), id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *OrderHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "pay_order_error", "id is not a uuid", err)
	}
	order, err := h.Svc.Pay(ctx, actorOf(c), id)
	if err != nil {
		return fail(l, "pay_order_error", err)
	}

	l.Info("pay_order_success", "order_id", order.ID.String())
	return c.JSON(http.StatusOK, order)
}
