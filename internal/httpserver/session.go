package httpserver

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
)

const (
	SessionName = "storefront_session"

	keyVoucherCode     = "voucher_code"
	keyVoucherDiscount = "voucher_discount"
	keyFreeShipping    = "free_shipping"
)

// NewSessionStore keeps session state in a signed cookie.
func NewSessionStore(secret []byte, secure bool) sessions.Store {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func voucherFromSession(c echo.Context) cart.AppliedVoucher {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return cart.AppliedVoucher{}
	}
	code, _ := sess.Values[keyVoucherCode].(string)
	if code == "" {
		return cart.AppliedVoucher{}
	}
	discount, _ := sess.Values[keyVoucherDiscount].(int64)
	free, _ := sess.Values[keyFreeShipping].(bool)
	return cart.AppliedVoucher{Code: code, Discount: discount, FreeShipping: free}
}

func saveVoucher(c echo.Context, v cart.AppliedVoucher) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[keyVoucherCode] = v.Code
	sess.Values[keyVoucherDiscount] = v.Discount
	sess.Values[keyFreeShipping] = v.FreeShipping
	return sess.Save(c.Request(), c.Response())
}

// clearVoucher drops code, discount and the shipping waiver together.
func clearVoucher(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, keyVoucherCode)
	delete(sess.Values, keyVoucherDiscount)
	delete(sess.Values, keyFreeShipping)
	return sess.Save(c.Request(), c.Response())
}
