package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

// parsePriceRange reads "min-max"; either side may be empty.
func parsePriceRange(s string) (int64, int64) {
	lo, hi, _ := strings.Cut(s, "-")
	return cast.ToInt64(strings.TrimSpace(lo)), cast.ToInt64(strings.TrimSpace(hi))
}

func filterFrom(c echo.Context) repo.ProductFilter {
	f := repo.ProductFilter{
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
		Sort:     c.QueryParam("sort"),
	}
	f.MinPrice, f.MaxPrice = parsePriceRange(c.QueryParam("price"))
	return f
}

func pageFrom(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}

func (h *CatalogHTTP) list(c echo.Context, event string, f repo.ProductFilter) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", event)

	page, size := pageFrom(c)
	res, err := h.Svc.List(ctx, f, page, size)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	return h.list(c, "product.list", filterFrom(c))
}

func (h *CatalogHTTP) SaleProducts(c echo.Context) error {
	f := filterFrom(c)
	f.OnSale = true
	return h.list(c, "product.sale", f)
}

func (h *CatalogHTTP) Featured(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.Svc.Featured(ctx)
	if err != nil {
		return fail(logging.FromContext(ctx).With("handler", "product.featured"), "featured_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *CatalogHTTP) BestSellers(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.Svc.BestSellers(ctx)
	if err != nil {
		return fail(logging.FromContext(ctx).With("handler", "product.best_sellers"), "best_sellers_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		return fail(logging.FromContext(ctx).With("handler", "product.categories"), "categories_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cats})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, size := pageFrom(c)
	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_error", err)
	}
	l.Info("search_success", "q", c.QueryParam("q"), "total", res.Meta.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", "id is not a uuid", err)
	}
	detail, err := h.Svc.Detail(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *CatalogHTTP) GetProductBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_by_slug")

	p, err := h.Svc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	detail, err := h.Svc.Detail(ctx, p.ID)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, detail)
}
