package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LockUser reads the user with a row lock held until the surrounding transaction ends.
func (r *GormRepo) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Save(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return err
	}
	return nil
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// UserListItem is a user row with its order count.
type UserListItem struct {
	models.User
	OrderCount int64 `json:"order_count"`
}

func (r *GormRepo) ListUsers(ctx context.Context, role string) ([]UserListItem, error) {
	q := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*, (SELECT COUNT(*) FROM orders WHERE orders.user_id = users.id) AS order_count")
	if role != "" {
		q = q.Where("role = ?", role)
	}

	var out []UserListItem
	if err := q.Order("created_at DESC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role string
		N    int64
	}
	if err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Select("role, COUNT(*) AS n").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

// DeleteUser removes the user with their tokens, cart, wishlist and reviews.
// Users who own orders are kept; callers check CountOrdersForUser first.
func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.RefreshToken{}, &models.CartLine{}, &models.WishlistItem{}, &models.ReviewLike{}, &models.ReviewReply{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.ReviewLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.ReviewReply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) AddWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		FirstOrCreate(&item).Error
}

func (r *GormRepo) RemoveWishlist(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) WishlistProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Joins("JOIN wishlist_items ON wishlist_items.product_id = products.id").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
