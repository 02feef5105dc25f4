package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
)

type CartService struct {
	Repo *repo.GormRepo
}

// Load builds the user's cart from stored lines and the session voucher.
func (s *CartService) Load(ctx context.Context, userID uuid.UUID, v cart.AppliedVoucher) (*cart.Cart, error) {
	lines, err := s.Repo.CartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.New(lines, v), nil
}

// AddLine snapshots the product's name, price and image into a new line or bumps an existing one.
func (s *CartService) AddLine(ctx context.Context, userID uuid.UUID, k cart.Key, qty int64) (*models.CartLine, error) {
	if k.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id must be set: %w", ErrValidation)
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, k.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}

	image := product.Image
	if img, ok := product.ColorImages[k.Color]; ok && img != "" {
		image = img
	}

	line := models.CartLine{
		UserID:    userID,
		ProductID: product.ID,
		Color:     k.Color,
		Size:      k.Size,
		Quantity:  qty,
		Name:      product.Name,
		Price:     product.Price,
		Image:     image,
	}
	c, err := s.Repo.MutateCart(ctx, userID, func(c *cart.Cart) error {
		c.AddLine(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Line(k), nil
}

// AdjustLine moves a line's quantity by one. Decreasing a line at 1 leaves it unchanged.
func (s *CartService) AdjustLine(ctx context.Context, userID uuid.UUID, k cart.Key, action string) (*models.CartLine, error) {
	var delta int64
	switch action {
	case ActionIncrease:
		delta = 1
	case ActionDecrease:
		delta = -1
	default:
		return nil, fmt.Errorf("unknown action %q: %w", action, ErrValidation)
	}

	c, err := s.Repo.MutateCart(ctx, userID, func(c *cart.Cart) error {
		if _, ok := c.AdjustQuantity(k, delta); !ok {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, "cart line")
	}
	return c.Line(k), nil
}

func (s *CartService) RemoveLine(ctx context.Context, userID uuid.UUID, k cart.Key) (int64, error) {
	var removed int
	_, err := s.Repo.MutateCart(ctx, userID, func(c *cart.Cart) error {
		removed = c.RemoveLine(k)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(removed), nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, userID)
}
