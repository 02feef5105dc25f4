package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type VoucherService struct {
	Repo    *repo.GormRepo
	Metrics Recorder
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount computes what v is worth against subtotal.
// Shipping vouchers take their stored amount off and also waive the shipping fee.
func Discount(v models.Voucher, subtotal int64) cart.AppliedVoucher {
	out := cart.AppliedVoucher{Code: v.Code}
	switch v.Type {
	case models.VoucherPercent:
		out.Discount = subtotal * v.Discount / 100
	case models.VoucherShipping:
		out.Discount = v.Discount
		out.FreeShipping = true
	default:
		out.Discount = v.Discount
	}
	return out
}

// Apply looks up an active voucher and checks it against the cart subtotal.
func (s *VoucherService) Apply(ctx context.Context, code string, subtotal int64) (cart.AppliedVoucher, error) {
	code = NormalizeCode(code)
	if code == "" {
		return cart.AppliedVoucher{}, fmt.Errorf("voucher code is required: %w", ErrValidation)
	}

	v, err := s.Repo.GetActiveVoucher(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.AppliedVoucher{}, fmt.Errorf("invalid voucher %s: %w", code, ErrConflict)
		}
		return cart.AppliedVoucher{}, err
	}
	if subtotal < v.MinOrder {
		return cart.AppliedVoucher{}, fmt.Errorf("order must be at least %d to use %s: %w", v.MinOrder, code, ErrConflict)
	}

	recorderOrNop(s.Metrics).VoucherApplied(ctx, code)
	return Discount(*v, subtotal), nil
}

func (s *VoucherService) List(ctx context.Context) ([]models.Voucher, error) {
	return s.Repo.ListVouchers(ctx)
}
