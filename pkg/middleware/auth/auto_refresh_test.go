package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var secret = []byte("access-secret")

func accessToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := tokens.AccessClaims{
		Role:  role,
		Email: role + "@shop.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "11111111-1111-1111-1111-111111111111",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

type fakeRefresher struct {
	calls int
	pair  *Tokens
	err   error
}

func (f *fakeRefresher) RefreshTokens(context.Context, string) (*Tokens, error) {
	f.calls++
	return f.pair, f.err
}

func serve(m *AutoRefreshMiddleware, req *http.Request, chain ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	h := func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	_ = m.Authenticate(h)(c)
	return rec, seen
}

func TestAuthenticate_ValidAccessToken(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{}, false)
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: accessToken(t, "user", time.Now().Add(time.Minute))})

	rec, c := serve(m, req, m.RequireAuth)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c)
	assert.Equal(t, "user", c.Get(CtxRole))
	assert.Equal(t, "user@shop.test", c.Get(CtxEmail))
}

func TestAuthenticate_ExpiredAccessRefreshes(t *testing.T) {
	fresh := accessToken(t, "admin", time.Now().Add(time.Minute))
	ref := &fakeRefresher{pair: &Tokens{
		AccessToken:  fresh,
		RefreshToken: "next-refresh",
		AccessExp:    time.Now().Add(time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
	}}
	m := NewAutoRefreshMiddleware(secret, ref, false)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: accessToken(t, "admin", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "old-refresh"})

	rec, c := serve(m, req, m.RequireRole("admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ref.calls)
	require.NotNil(t, c)
	assert.Equal(t, "admin", c.Get(CtxRole))

	got := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		got[ck.Name] = ck.Value
	}
	assert.Equal(t, fresh, got[tokens.AccessCookie])
	assert.Equal(t, "next-refresh", got[tokens.RefreshCookie])
}

func TestAuthenticate_FailedRefreshLeavesGuest(t *testing.T) {
	ref := &fakeRefresher{err: errors.New("revoked")}
	m := NewAutoRefreshMiddleware(secret, ref, false)

	req := httptest.NewRequest(http.MethodGet, "/my-orders?status=pending", nil)
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "stale"})

	rec, _ := serve(m, req, m.RequireAuth)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fmy-orders%3Fstatus%3Dpending", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, ref.calls)
}

func TestAuthenticate_ForgedTokenIsIgnored(t *testing.T) {
	ref := &fakeRefresher{}
	m := NewAutoRefreshMiddleware([]byte("other-secret"), ref, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: accessToken(t, "admin", time.Now().Add(time.Minute))})

	rec, c := serve(m, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c)
	assert.Nil(t, c.Get(CtxUserID))
	assert.Zero(t, ref.calls)
}

func TestRequireRole_WrongRoleGoesHome(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil, false)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: accessToken(t, "user", time.Now().Add(time.Minute))})

	rec, c := serve(m, req, m.RequireRole("staff", "admin"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Nil(t, c)
}
