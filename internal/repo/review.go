package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const helpfulCountSelect = "reviews.*, (SELECT COUNT(*) FROM review_likes WHERE review_likes.review_id = reviews.id) AS helpful_count"

var reviewOrder = map[string]string{
	"recent":      "created_at DESC",
	"helpful":     "helpful_count DESC, created_at DESC",
	"rating_high": "rating DESC, created_at DESC",
	"rating_low":  "rating ASC, created_at DESC",
}

func repliesOldestFirst(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }

// ListReviews pages a product's reviews; helpful counts are computed from review_likes on every read.
func (r *GormRepo) ListReviews(ctx context.Context, productID uuid.UUID, sort string, offset, limit int) (int64, []models.Review, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	order, ok := reviewOrder[sort]
	if !ok {
		order = reviewOrder["recent"]
	}

	var items []models.Review
	if err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Select(helpfulCountSelect).
		Where("product_id = ?", productID).
		Preload("Replies", repliesOldestFirst).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.DB.WithContext(ctx).
		Select(helpfulCountSelect).
		Where("id = ?", id).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *GormRepo) ProductRatings(ctx context.Context, productID uuid.UUID) ([]int, error) {
	var out []int
	if err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) UpdateProductRating(ctx context.Context, productID uuid.UUID, rating float64, count int64) error {
	return r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"rating": rating, "review_count": count}).Error
}

// CountCompletedPurchases counts the user's distinct completed orders that contain productID.
func (r *GormRepo) CountCompletedPurchases(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, models.OrderStatusCompleted).
		Where("EXISTS (SELECT 1 FROM order_lines WHERE order_lines.order_id = orders.id AND order_lines.product_id = ?)", productID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepo) CountUserReviews(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n, err
}

// ReviewedProducts returns which of productIDs the user has reviewed at least once.
func (r *GormRepo) ReviewedProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	if err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Distinct("product_id").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *GormRepo) CreateReview(ctx context.Context, review *models.Review) error {
	return r.DB.WithContext(ctx).Omit("Replies", "Likes").Create(review).Error
}

// DeleteReview removes the review together with its likes and replies.
func (r *GormRepo) DeleteReview(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("review_id = ?", id).Delete(&models.ReviewLike{}).Error; err != nil {
		return err
	}
	if err := db.Where("review_id = ?", id).Delete(&models.ReviewReply{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleLike removes the (review, user) like when present, otherwise creates it.
func (r *GormRepo) ToggleLike(ctx context.Context, reviewID uint, userID uuid.UUID) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).Delete(&models.ReviewLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.ReviewLike{ReviewID: reviewID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.ReviewLike{}).Where("review_id = ?", reviewID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *GormRepo) LikedReviews(ctx context.Context, userID uuid.UUID, reviewIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return out, nil
	}

	var ids []uint
	if err := r.DB.WithContext(ctx).
		Model(&models.ReviewLike{}).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Pluck("review_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *GormRepo) CreateReply(ctx context.Context, reply *models.ReviewReply) error {
	return r.DB.WithContext(ctx).Create(reply).Error
}

func (r *GormRepo) GetReply(ctx context.Context, id uint) (*models.ReviewReply, error) {
	var reply models.ReviewReply
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *GormRepo) SaveReply(ctx context.Context, reply *models.ReviewReply) error {
	return r.DB.WithContext(ctx).Save(reply).Error
}

func (r *GormRepo) DeleteReply(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.ReviewReply{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountReviews(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Review{}).Count(&n).Error
	return n, err
}
