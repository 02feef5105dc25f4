package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func newRepo(t *testing.T) *repo.GormRepo {
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
	return &repo.GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *repo.GormRepo, role string) (*models.User, Actor) {
	t.Helper()

	pw, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@shop.test",
		PasswordHash: pw,
		Role:         role,
		Name:         "Test " + role,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u, Actor{ID: u.ID, Role: u.Role}
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price int64) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Slug:     uuid.NewString(),
		Price:    price,
		Category: "shirts",
		Image:    "/img/" + name + ".jpg",
		Stock:    10,
		Sizes:    []string{"M", "L"},
		Colors:   []string{"black"},
	}
	_, err := r.CreateProduct(context.Background(), p)
	require.NoError(t, err)
	return p
}

func seedOrder(t *testing.T, r *repo.GormRepo, u *models.User, status string, products ...*models.Product) *models.Order {
	t.Helper()

	o := &models.Order{
		UserID:        u.ID,
		UserEmail:     u.Email,
		ShippingInfo:  models.ShippingInfo{Name: u.Name, Phone: "0900", Address: "1 Main St"},
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusCOD,
		Status:        status,
	}
	for _, p := range products {
		o.Lines = append(o.Lines, models.OrderLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1})
		o.Subtotal += p.Price
	}
	o.Total = o.Subtotal
	_, err := r.CreateOrder(context.Background(), o)
	require.NoError(t, err)
	return o
}

func seedVoucher(t *testing.T, r *repo.GormRepo, v models.Voucher) {
	t.Helper()
	require.NoError(t, r.UpsertVoucher(context.Background(), &v))
}
