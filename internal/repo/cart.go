package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// MutateCart loads the user's cart lines under lock, applies mutate to them as a cart.Cart and
// writes back the difference: new lines are inserted, changed quantities updated and dropped
// lines deleted.
func (r *GormRepo) MutateCart(ctx context.Context, userID uuid.UUID, mutate func(c *cart.Cart) error) (*cart.Cart, error) {
	var out *cart.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartLine
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("id ASC").
			Find(&lines).Error; err != nil {
			return err
		}

		before := make(map[uint]int64, len(lines))
		for _, l := range lines {
			before[l.ID] = l.Quantity
		}

		c := cart.New(lines, cart.AppliedVoucher{})
		if err := mutate(c); err != nil {
			return err
		}

		kept := make(map[uint]bool, len(c.Lines))
		for i := range c.Lines {
			l := &c.Lines[i]
			if l.ID == 0 {
				l.UserID = userID
				if err := tx.Create(l).Error; err != nil {
					return err
				}
				continue
			}
			kept[l.ID] = true
			if before[l.ID] != l.Quantity {
				if err := tx.Model(&models.CartLine{}).Where("id = ?", l.ID).Update("quantity", l.Quantity).Error; err != nil {
					return err
				}
			}
		}

		var dropped []uint
		for id := range before {
			if !kept[id] {
				dropped = append(dropped, id)
			}
		}
		if len(dropped) > 0 {
			if err := tx.Where("id IN ?", dropped).Delete(&models.CartLine{}).Error; err != nil {
				return err
			}
		}

		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartLine{}).Error
}
