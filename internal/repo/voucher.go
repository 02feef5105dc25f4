package repo

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetActiveVoucher(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	if err := r.DB.WithContext(ctx).
		Where("code = ? AND active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVoucher inserts v or overwrites the voucher stored under the same code.
func (r *GormRepo) UpsertVoucher(ctx context.Context, v *models.Voucher) error {
	v.Code = strings.ToUpper(strings.TrimSpace(v.Code))
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(v).Error
}

func (r *GormRepo) ListVouchers(ctx context.Context) ([]models.Voucher, error) {
	var out []models.Voucher
	if err := r.DB.WithContext(ctx).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
