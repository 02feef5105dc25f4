package httpserver

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Dashboard *service.DashboardService
	Orders    *service.OrderService
	Catalog   *service.CatalogService
	Accounts  *service.AccountService
	Uploads   *Uploader
}

func (h *AdminHTTP) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	d, err := h.Dashboard.Build(ctx, actorOf(c))
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page, size := pageFrom(c)
	res, err := h.Orders.List(ctx, actorOf(c), c.QueryParam("status"), page, size)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) ExportOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.export_orders")

	orders, err := h.Orders.Export(ctx, actorOf(c))
	if err != nil {
		return fail(l, "export_orders_error", err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	res.WriteHeader(http.StatusOK)
	if err := transport.WriteOrdersCSV(res, orders); err != nil {
		l.Error("export_orders_error", "reason", "cannot write csv", "error", err)
		return nil
	}

	l.Info("export_orders_success", "count", len(orders))
	return nil
}

func (h *AdminHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_order_status_error", "id is not a uuid", err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_status_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "update_order_status_error", err)
	}

	order, err := h.Orders.UpdateStatus(ctx, actorOf(c), id, req.Status)
	if err != nil {
		return fail(l, "update_order_status_error", err)
	}
	l.Info("update_order_status_success", "order_id", id.String(), "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHTTP) EditOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.edit_order")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "edit_order_error", "id is not a uuid", err)
	}
	var req transport.AdminOrderEditRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "edit_order_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "edit_order_error", err)
	}

	order, err := h.Orders.AdminEdit(ctx, actorOf(c), id, req.ToInput())
	if err != nil {
		return fail(l, "edit_order_error", err)
	}
	l.Info("edit_order_success", "order_id", id.String())
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_order")

	var req transport.AdminOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "create_order_error", err)
	}

	order, err := h.Orders.AdminCreate(ctx, actorOf(c), req.ToInput())
	if err != nil {
		return fail(l, "create_order_error", err)
	}
	l.Info("create_order_success", "order_id", order.ID.String())
	return c.JSON(http.StatusCreated, order)
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_order_error", "id is not a uuid", err)
	}
	if err := h.Orders.Delete(ctx, actorOf(c), id); err != nil {
		return fail(l, "delete_order_error", err)
	}
	l.Info("delete_order_success", "order_id", id.String())
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_products")

	page, size := pageFrom(c)
	f := filterFrom(c)
	if f.Sort == "" {
		f.Sort = "newest"
	}
	res, err := h.Catalog.List(ctx, f, page, size)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

// productInput reads the product form and stores an optional image_file upload,
// which takes precedence over the image url field.
func (h *AdminHTTP) productInput(c echo.Context) (service.ProductInput, error) {
	form, err := c.FormParams()
	if err != nil {
		return service.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	in, err := transport.ProductInputFromForm(form)
	if err != nil {
		return in, err
	}

	fh, err := c.FormFile("image_file")
	if err != nil {
		return in, nil
	}
	urls, err := h.Uploads.Save([]*multipart.FileHeader{fh}, "product_", 1)
	if err != nil {
		return in, err
	}
	in.Image = urls[0]
	in.Images = append([]string{urls[0]}, in.Images...)
	return in, nil
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	in, err := h.productInput(c)
	if err != nil {
		return fail(l, "create_product_error", err)
	}
	p, err := h.Catalog.Create(ctx, actorOf(c), in)
	if err != nil {
		return fail(l, "create_product_error", err)
	}
	l.Info("create_product_success", "product_id", p.ID.String(), "slug", p.Slug)
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_product")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_product_error", "id is not a uuid", err)
	}
	in, err := h.productInput(c)
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	p, err := h.Catalog.Update(ctx, actorOf(c), id, in)
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	l.Info("update_product_success", "product_id", p.ID.String())
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_error", "id is not a uuid", err)
	}
	if err := h.Catalog.Delete(ctx, actorOf(c), id); err != nil {
		return fail(l, "delete_product_error", err)
	}
	l.Info("delete_product_success", "product_id", id.String())
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	res, err := h.Accounts.ListUsers(ctx, actorOf(c), c.QueryParam("role"))
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_user")

	var req transport.UserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_user_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "create_user_error", err)
	}
	u, err := h.Accounts.CreateUser(ctx, actorOf(c), req.ToInput())
	if err != nil {
		return fail(l, "create_user_error", err)
	}
	l.Info("create_user_success", "user_id", u.ID.String(), "role", u.Role)
	return c.JSON(http.StatusCreated, u)
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_user_error", "id is not a uuid", err)
	}
	var req transport.UserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "update_user_error", err)
	}
	u, err := h.Accounts.UpdateUser(ctx, actorOf(c), id, req.ToInput())
	if err != nil {
		return fail(l, "update_user_error", err)
	}
	l.Info("update_user_success", "user_id", u.ID.String())
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_user_error", "id is not a uuid", err)
	}
	if err := h.Accounts.DeleteUser(ctx, actorOf(c), id); err != nil {
		return fail(l, "delete_user_error", err)
	}
	l.Info("delete_user_success", "user_id", id.String())
	return c.NoContent(http.StatusNoContent)
}
