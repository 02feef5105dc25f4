package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// PlaceOrder reads the owner's cart lines under lock, lets build turn them into an order and
// inserts it. Only the lines handed to build are removed from the cart.
func (r *GormRepo) PlaceOrder(ctx context.Context, userID uuid.UUID, build func(lines []models.CartLine) (*models.Order, error)) (*models.Order, error) {
	var order *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartLine
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("id ASC").
			Find(&lines).Error; err != nil {
			return err
		}

		o, err := build(lines)
		if err != nil {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		if len(lines) > 0 {
			ids := make([]uint, 0, len(lines))
			for _, l := range lines {
				ids = append(ids, l.ID)
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.CartLine{}).Error; err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Preload("Lines").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Lines").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) AllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Lines").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) updateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.updateOrder(ctx, id, map[string]any{"status": status})
}

func (r *GormRepo) MarkOrderPaid(ctx context.Context, id uuid.UUID) error {
	return r.updateOrder(ctx, id, map[string]any{
		"payment_status": models.PaymentStatusPaid,
		"status":         models.OrderStatusCompleted,
	})
}

// SaveOrder updates the order row; when replaceLines is set its lines are rewritten too.
func (r *GormRepo) SaveOrder(ctx context.Context, order *models.Order, replaceLines bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "User").Save(order).Error; err != nil {
			return err
		}
		if !replaceLines {
			return nil
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		for i := range order.Lines {
			order.Lines[i].ID = 0
			order.Lines[i].OrderID = order.ID
		}
		if len(order.Lines) == 0 {
			return nil
		}
		return tx.Create(&order.Lines).Error
	})
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CountOrdersForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	if err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// OrderPoint is the slice of an order the dashboard aggregates over.
type OrderPoint struct {
	Total     int64
	Status    string
	CreatedAt time.Time
}

func (r *GormRepo) OrderPoints(ctx context.Context) ([]OrderPoint, error) {
	var out []OrderPoint
	if err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("total, status, created_at").
		Order("created_at ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
