package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
)

type fakePublisher struct {
	topics []string
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, _ string, _ any) error {
	f.topics = append(f.topics, topic)
	return f.err
}

type fakeMailer struct{ sent int }

func (f *fakeMailer) SendOrderConfirmation(context.Context, *models.Order) error {
	f.sent++
	return nil
}

var shipTo = models.ShippingInfo{Name: "Ann", Phone: "0900", Address: "1 Main St"}

func addToCart(t *testing.T, svc *CartService, a Actor, p *models.Product, size string, qty int64) {
	t.Helper()
	_, err := svc.AddLine(context.Background(), a.ID, cart.Key{ProductID: p.ID, Size: size}, qty)
	require.NoError(t, err)
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	mail := &fakeMailer{}
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r, Events: pub, Mail: mail}

	user, actor := seedUser(t, r, models.RoleUser)
	p := seedProduct(t, r, "jacket", 200_000)
	addToCart(t, carts, actor, p, "M", 2)
	addToCart(t, carts, actor, p, "M", 1)

	v := cart.AppliedVoucher{Code: "GIAM50K", Discount: 50_000}
	order, err := svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodBanking}, v)
	require.NoError(t, err)

	assert.Equal(t, user.Email, order.UserEmail)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, int64(3), order.Lines[0].Quantity)
	assert.Equal(t, int64(600_000), order.Subtotal)
	assert.Zero(t, order.ShippingFee)
	assert.Equal(t, int64(50_000), order.VoucherDiscount)
	assert.Equal(t, int64(550_000), order.Total)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	lines, err := r.CartLines(ctx, actor.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// event failures do not undo a committed order
	assert.Equal(t, []string{"storefront.orders"}, pub.topics)
	assert.Equal(t, 1, mail.sent)

	_, err = svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCheckoutValidation(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r}
	_, actor := seedUser(t, r, models.RoleUser)
	addToCart(t, carts, actor, seedProduct(t, r, "tee", 100_000), "S", 1)

	_, err := svc.Checkout(ctx, actor, CheckoutInput{Shipping: models.ShippingInfo{Name: "Ann"}, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: "bitcoin"}, cart.AppliedVoucher{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Checkout(ctx, Actor{}, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.ErrorIs(t, err, ErrUnauthorized)

	order, err := svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCOD, order.PaymentStatus)
	assert.Equal(t, int64(130_000), order.Total)
}

func TestCheckoutRollback(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r}
	_, actor := seedUser(t, r, models.RoleUser)
	addToCart(t, carts, actor, seedProduct(t, r, "tee", 100_000), "S", 2)

	boom := errors.New("disk full")
	require.NoError(t, r.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_cart_clear", func(tx *gorm.DB) {
		if tx.Statement.Table == "cart_lines" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.ErrorIs(t, err, boom)

	lines, err := r.CartLines(ctx, actor.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Quantity)

	var orders, orderLines int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, r.DB.Model(&models.OrderLine{}).Count(&orderLines).Error)
	assert.Zero(t, orders)
	assert.Zero(t, orderLines)
}

func TestCheckoutKeepsLinesAddedMidway(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r}
	_, actor := seedUser(t, r, models.RoleUser)
	tee := seedProduct(t, r, "tee", 100_000)
	hat := seedProduct(t, r, "hat", 50_000)
	addToCart(t, carts, actor, tee, "S", 1)

	// a line added after the order was priced must stay in the cart
	added := false
	require.NoError(t, r.DB.Callback().Create().Before("gorm:create").Register("test:late_cart_add", func(tx *gorm.DB) {
		if added || tx.Statement.Table != "orders" {
			return
		}
		added = true
		late := &models.CartLine{UserID: actor.ID, ProductID: hat.ID, Size: "M", Quantity: 1, Name: hat.Name, Price: hat.Price}
		_ = tx.Session(&gorm.Session{NewDB: true}).Create(late).Error
	}))

	order, err := svc.Checkout(ctx, actor, CheckoutInput{Shipping: shipTo, PaymentMethod: models.PaymentMethodCOD}, cart.AppliedVoucher{})
	require.NoError(t, err)
	require.True(t, added)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, tee.ID, order.Lines[0].ProductID)

	lines, err := r.CartLines(ctx, actor.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, hat.ID, lines[0].ProductID)
}

func TestPaymentStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.PaymentStatusCOD, PaymentStatusFor(models.PaymentMethodCOD))
	for _, m := range []string{models.PaymentMethodBanking, models.PaymentMethodMomo, models.PaymentMethodQR} {
		assert.Equal(t, models.PaymentStatusPending, PaymentStatusFor(m), m)
	}
}

func TestPayAndGet(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	svc := &OrderService{Repo: r}
	owner, ownerActor := seedUser(t, r, models.RoleUser)
	_, stranger := seedUser(t, r, models.RoleUser)
	_, admin := seedUser(t, r, models.RoleAdmin)
	p := seedProduct(t, r, "tee", 100_000)
	o := seedOrder(t, r, owner, models.OrderStatusPending, p)

	_, err := svc.Get(ctx, stranger, o.ID)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Pay(ctx, stranger, o.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	paid, err := svc.Pay(ctx, ownerActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, models.OrderStatusCompleted, paid.Status)

	_, err = svc.Pay(ctx, ownerActor, o.ID)
	require.ErrorIs(t, err, ErrConflict)

	reviews := &ReviewService{Repo: r}
	_, err = reviews.Submit(ctx, ownerActor, p.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, admin, o.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.True(t, detail.Items[0].HasReview)
}

func TestListByUserAndStatus(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	svc := &OrderService{Repo: r}
	u, actor := seedUser(t, r, models.RoleUser)
	other, _ := seedUser(t, r, models.RoleUser)
	_, staff := seedUser(t, r, models.RoleStaff)
	p := seedProduct(t, r, "tee", 100_000)

	o1 := seedOrder(t, r, u, models.OrderStatusPending, p)
	seedOrder(t, r, u, models.OrderStatusCompleted, p)
	seedOrder(t, r, other, models.OrderStatusPending, p)

	all, err := svc.ListByUser(ctx, actor, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListByUser(ctx, actor, models.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o1.ID, pending[0].ID)

	_, err = svc.UpdateStatus(ctx, actor, o1.ID, models.OrderStatusShipping)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.UpdateStatus(ctx, staff, o1.ID, "lost")
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateStatus(ctx, staff, o1.ID, models.OrderStatusShipping)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipping, updated.Status)

	page, err := svc.List(ctx, staff, models.OrderStatusPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Meta.Total)
}

func TestAdminOrders(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	svc := &OrderService{Repo: r}
	customer, _ := seedUser(t, r, models.RoleUser)
	_, staff := seedUser(t, r, models.RoleStaff)
	_, admin := seedUser(t, r, models.RoleAdmin)
	tee := seedProduct(t, r, "tee", 100_000)
	coat := seedProduct(t, r, "coat", 450_000)

	in := AdminOrderInput{
		CustomerEmail: customer.Email,
		Shipping:      shipTo,
		PaymentMethod: models.PaymentMethodMomo,
		Items:         []ItemInput{{ProductID: tee.ID, Size: "M", Quantity: 2}},
	}
	_, err := svc.AdminCreate(ctx, staff, in)
	require.ErrorIs(t, err, ErrUnauthorized)

	order, err := svc.AdminCreate(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, order.UserID)
	assert.Equal(t, int64(200_000), order.Subtotal)
	assert.Equal(t, int64(30_000), order.ShippingFee)
	assert.Equal(t, int64(230_000), order.Total)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	// stored voucher discount survives an item edit
	require.NoError(t, r.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("voucher_discount", 20_000).Error)

	status := models.OrderStatusShipping
	edited, err := svc.AdminEdit(ctx, staff, order.ID, AdminOrderEdit{
		Status: &status,
		Items:  []ItemInput{{ProductID: coat.ID, Size: "L", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(900_000), edited.Subtotal)
	assert.Zero(t, edited.ShippingFee)
	assert.Equal(t, int64(880_000), edited.Total)
	assert.Equal(t, models.OrderStatusShipping, edited.Status)

	reloaded, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, coat.ID, reloaded.Lines[0].ProductID)

	require.ErrorIs(t, svc.Delete(ctx, staff, order.ID), ErrUnauthorized)
	require.NoError(t, svc.Delete(ctx, admin, order.ID))
	_, err = r.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
