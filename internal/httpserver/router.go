package httpserver

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	mw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	Catalog  *CatalogHTTP
	Auth     *AuthHTTP
	Cart     *CartHTTP
	Orders   *OrderHTTP
	Account  *AccountHTTP
	Reviews  *ReviewHTTP
	Admin    *AdminHTTP
	AuthMW   *mw.AutoRefreshMiddleware
	Sessions sessions.Store

	UploadDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.Static(ImagesPrefix[:len(ImagesPrefix)-1], d.UploadDir)

	e.Use(session.Middleware(d.Sessions), d.AuthMW.Authenticate)

	e.GET("/", d.Catalog.Featured)
	e.GET(mw.LoginPath, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "login required", "next": c.QueryParam("next")})
	})

	products := e.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/sale", d.Catalog.SaleProducts)
	products.GET("/featured", d.Catalog.Featured)
	products.GET("/best-sellers", d.Catalog.BestSellers)
	products.GET("/categories", d.Catalog.Categories)
	products.GET("/search", d.Catalog.Search)
	products.GET("/slug/:slug", d.Catalog.GetProductBySlug)
	products.GET("/:id", d.Catalog.GetProduct)
	products.GET("/:id/reviews", d.Reviews.ListReviews)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.LogOut)
	auth.POST("/forgot-password", d.Auth.ForgotPassword)

	signedIn := d.AuthMW.RequireAuth
	staffOnly := d.AuthMW.RequireRole(models.RoleStaff, models.RoleAdmin)
	adminOnly := d.AuthMW.RequireRole(models.RoleAdmin)

	cart := e.Group("/cart", signedIn)
	cart.GET("", d.Cart.GetCart)
	cart.POST("/lines", d.Cart.AddLine)
	cart.PATCH("/lines", d.Cart.AdjustLine)
	cart.DELETE("/lines", d.Cart.RemoveLine)
	cart.POST("/voucher", d.Cart.ApplyVoucher)
	cart.DELETE("/voucher", d.Cart.RemoveVoucher)

	e.GET("/checkout", d.Orders.CheckoutPage, signedIn)
	e.POST("/checkout", d.Orders.Checkout, signedIn)
	e.GET("/my-orders", d.Orders.MyOrders, signedIn)
	e.GET("/orders/:id", d.Orders.GetOrder, signedIn)
	e.POST("/orders/:id/pay", d.Orders.Pay, signedIn)

	e.GET("/profile", d.Account.Profile, signedIn)
	e.PATCH("/profile", d.Account.UpdateProfile, signedIn)
	e.POST("/profile/password", d.Account.ChangePassword, signedIn)
	e.GET("/wishlist", d.Account.Wishlist, signedIn)
	e.POST("/wishlist", d.Account.AddToWishlist, signedIn)
	e.DELETE("/wishlist/:productId", d.Account.RemoveFromWishlist, signedIn)

	products.GET("/:id/review-eligibility", d.Reviews.Eligibility, signedIn)
	products.POST("/:id/reviews", d.Reviews.Submit, signedIn)
	e.DELETE("/reviews/:id", d.Reviews.Delete, signedIn)
	e.POST("/reviews/:id/helpful", d.Reviews.ToggleHelpful, signedIn)

	e.POST("/reviews/:id/replies", d.Reviews.AddReply, staffOnly)
	e.PUT("/replies/:id", d.Reviews.EditReply, staffOnly)
	e.DELETE("/replies/:id", d.Reviews.DeleteReply, staffOnly)

	admin := e.Group("/admin", staffOnly)
	admin.GET("", d.Admin.GetDashboard)
	admin.GET("/orders", d.Admin.ListOrders)
	admin.GET("/orders/export.csv", d.Admin.ExportOrders)
	admin.PATCH("/orders/:id/status", d.Admin.UpdateOrderStatus)
	admin.PUT("/orders/:id", d.Admin.EditOrder)
	admin.GET("/products", d.Admin.ListProducts)
	admin.POST("/products", d.Admin.CreateProduct)
	admin.PUT("/products/:id", d.Admin.UpdateProduct)

	admin.POST("/orders", d.Admin.CreateOrder, adminOnly)
	admin.DELETE("/orders/:id", d.Admin.DeleteOrder, adminOnly)
	admin.DELETE("/products/:id", d.Admin.DeleteProduct, adminOnly)
	admin.GET("/users", d.Admin.ListUsers, adminOnly)
	admin.POST("/users", d.Admin.CreateUser, adminOnly)
	admin.PUT("/users/:id", d.Admin.UpdateUser, adminOnly)
	admin.DELETE("/users/:id", d.Admin.DeleteUser, adminOnly)
}
