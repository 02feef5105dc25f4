package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/seed"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/db"
	mw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type testServer struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, seed.Run(ctx, r))

	accounts := &service.AccountService{Repo: r, AccessSecret: []byte("access"), RefreshSecret: []byte("refresh")}
	catalog := &service.CatalogService{Repo: r}
	carts := &service.CartService{Repo: r}
	orders := &service.OrderService{Repo: r}
	uploads := &Uploader{Dir: t.TempDir()}

	e := echo.New()
	e.Validator = transport.NewValidator()
	Register(e, &Deps{
		Catalog: &CatalogHTTP{Svc: catalog},
		Auth:    &AuthHTTP{Svc: accounts},
		Cart:    &CartHTTP{Svc: carts, Vouchers: &service.VoucherService{Repo: r}},
		Orders:  &OrderHTTP{Svc: orders, Cart: carts, Accounts: accounts},
		Account: &AccountHTTP{Svc: accounts},
		Reviews: &ReviewHTTP{Svc: &service.ReviewService{Repo: r}, Uploads: uploads},
		Admin: &AdminHTTP{
			Dashboard: &service.DashboardService{Repo: r},
			Orders:    orders,
			Catalog:   catalog,
			Accounts:  accounts,
			Uploads:   uploads,
		},
		AuthMW:    mw.NewAutoRefreshMiddleware([]byte("access"), TokenRefresher{Svc: accounts}, false),
		Sessions:  NewSessionStore([]byte("session-secret"), false),
		UploadDir: uploads.Dir,
	})
	return &testServer{e: e, repo: r}
}

// client keeps cookies between requests the way a browser would.
type client struct {
	srv     *testServer
	cookies map[string]*http.Cookie
}

func (s *testServer) client() *client {
	return &client{srv: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.srv.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) login(t *testing.T, email, password string) {
	t.Helper()
	rec := c.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGuestsAreRedirectedToLogin(t *testing.T) {
	srv := newTestServer(t)
	guest := srv.client()

	for _, path := range []string{"/cart", "/checkout", "/my-orders", "/admin", "/wishlist"} {
		rec := guest.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login?next="+strings.ReplaceAll(path, "/", "%2F"), rec.Header().Get(echo.HeaderLocation), path)
	}
}

func TestPublicCatalogIsOpen(t *testing.T) {
	srv := newTestServer(t)
	guest := srv.client()

	rec := guest.do(t, http.MethodGet, "/products?category=Qu%E1%BA%A7n&sort=price_asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data []models.Product `json:"data"`
	}
	decode(t, rec, &page)
	require.NotEmpty(t, page.Data)
	for i := 1; i < len(page.Data); i++ {
		assert.LessOrEqual(t, page.Data[i-1].Price, page.Data[i].Price)
	}

	rec = guest.do(t, http.MethodGet, "/products/slug/quan-jeans-nam", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = guest.do(t, http.MethodGet, "/products/categories", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = guest.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlainUsersCannotReachAdmin(t *testing.T) {
	srv := newTestServer(t)
	user := srv.client()

	rec := user.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "buyer@shop.test", "password": "secret123", "confirm_password": "secret123", "name": "Buyer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user.login(t, "buyer@shop.test", "secret123")

	rec = user.do(t, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	staff := srv.client()
	staff.login(t, "staff@example.com", "staff123")
	rec = staff.do(t, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = staff.do(t, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	admin := srv.client()
	admin.login(t, "admin@example.com", "admin123")
	rec = admin.do(t, http.MethodGet, "/admin/users?role=admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutWithVoucher(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	jeans, err := srv.repo.GetProductBySlug(ctx, "quan-jeans-nam")
	require.NoError(t, err)

	user := srv.client()
	rec := user.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "buyer@shop.test", "password": "secret123", "confirm_password": "secret123", "name": "Buyer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user.login(t, "buyer@shop.test", "secret123")

	rec = user.do(t, http.MethodPost, "/cart/lines", map[string]any{
		"product_id": jeans.ID, "color": jeans.Colors[0], "size": jeans.Sizes[0], "qty": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = user.do(t, http.MethodPost, "/cart/voucher", map[string]string{"code": "giam50k"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		Totals struct {
			Subtotal int64 `json:"subtotal"`
			Shipping int64 `json:"shipping"`
			Discount int64 `json:"voucher_discount"`
			Total    int64 `json:"total"`
		} `json:"totals"`
	}
	decode(t, rec, &view)
	assert.Equal(t, jeans.Price, view.Totals.Subtotal)
	assert.Equal(t, int64(50_000), view.Totals.Discount)
	assert.Equal(t, int64(0), view.Totals.Shipping)
	assert.Equal(t, jeans.Price-50_000, view.Totals.Total)

	rec = user.do(t, http.MethodPost, "/checkout", map[string]any{
		"shipping_info":  map[string]string{"name": "Buyer", "phone": "0900000000", "address": "1 Le Loi"},
		"payment_method": models.PaymentMethodCOD,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	decode(t, rec, &order)
	assert.Equal(t, "GIAM50K", order.VoucherCode)
	assert.Equal(t, jeans.Price-50_000, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusCOD, order.PaymentStatus)

	// the cart and the session voucher are both gone after checkout
	rec = user.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		Items   []models.CartLine `json:"items"`
		Voucher struct {
			Code string `json:"code"`
		} `json:"voucher"`
	}
	decode(t, rec, &after)
	assert.Empty(t, after.Items)
	assert.Empty(t, after.Voucher.Code)

	rec = user.do(t, http.MethodPost, "/checkout", map[string]any{
		"shipping_info":  map[string]string{"name": "Buyer", "phone": "0900000000", "address": "1 Le Loi"},
		"payment_method": models.PaymentMethodCOD,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	admin := srv.client()
	admin.login(t, "admin@example.com", "admin123")
	rec = admin.do(t, http.MethodGet, "/admin/orders/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Body.String(), order.ID.String())
}

func TestEmptyCartDropsSessionVoucher(t *testing.T) {
	srv := newTestServer(t)

	jeans, err := srv.repo.GetProductBySlug(context.Background(), "quan-jeans-nam")
	require.NoError(t, err)

	user := srv.client()
	rec := user.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "shopper@shop.test", "password": "secret123", "confirm_password": "secret123", "name": "Shopper",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user.login(t, "shopper@shop.test", "secret123")

	key := map[string]any{"product_id": jeans.ID, "color": jeans.Colors[0], "size": jeans.Sizes[0]}
	rec = user.do(t, http.MethodPost, "/cart/lines", map[string]any{
		"product_id": jeans.ID, "color": jeans.Colors[0], "size": jeans.Sizes[0], "qty": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = user.do(t, http.MethodPost, "/cart/voucher", map[string]string{"code": "giam50k"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = user.do(t, http.MethodDelete, "/cart/lines", key)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type view struct {
		Voucher struct {
			Code string `json:"code"`
		} `json:"voucher"`
		Totals struct {
			Discount int64 `json:"voucher_discount"`
		} `json:"totals"`
	}

	rec = user.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty view
	decode(t, rec, &empty)
	assert.Empty(t, empty.Voucher.Code)

	// the cleared voucher does not come back with the next line
	rec = user.do(t, http.MethodPost, "/cart/lines", map[string]any{
		"product_id": jeans.ID, "color": jeans.Colors[0], "size": jeans.Sizes[0], "qty": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var refilled view
	decode(t, rec, &refilled)
	assert.Empty(t, refilled.Voucher.Code)
	assert.Zero(t, refilled.Totals.Discount)
}

func TestLogoutClearsAuthCookies(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.client()
	admin.login(t, "admin@example.com", "admin123")

	rec := admin.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = admin.do(t, http.MethodGet, "/my-orders", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
