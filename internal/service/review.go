package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	ReviewPageSize  = 10
	MaxReviewImages = 5
)

type ReviewService struct {
	Repo    *repo.GormRepo
	Events  Publisher
	Metrics Recorder
}

type ReviewInput struct {
	Rating  int
	Comment string
	Images  []string
	Size    string
	Color   string
	OrderID *uuid.UUID
}

type Eligibility struct {
	CanReview     bool  `json:"can_review"`
	PurchaseCount int64 `json:"purchase_count"`
	ReviewCount   int64 `json:"review_count"`
}

type RatingSummary struct {
	Average   float64       `json:"average"`
	Count     int64         `json:"count"`
	Histogram map[int]int64 `json:"histogram"`
}

type ReviewPage struct {
	util.Page[models.Review]
	Summary RatingSummary `json:"summary"`
}

// AggregateRating is the mean of ratings rounded to one decimal, or 0 for none. Exact ties
// round to even, so 4.25 becomes 4.2.
func AggregateRating(ratings []int) (float64, error) {
	if len(ratings) == 0 {
		return 0, nil
	}
	mean, err := stats.Mean(stats.LoadRawData(ratings))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strconv.FormatFloat(mean, 'f', 1, 64), 64)
}

func Summarize(ratings []int) (RatingSummary, error) {
	avg, err := AggregateRating(ratings)
	if err != nil {
		return RatingSummary{}, err
	}
	hist := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range ratings {
		hist[r]++
	}
	return RatingSummary{Average: avg, Count: int64(len(ratings)), Histogram: hist}, nil
}

func eligibility(ctx context.Context, r *repo.GormRepo, userID, productID uuid.UUID) (Eligibility, error) {
	purchases, err := r.CountCompletedPurchases(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	reviews, err := r.CountUserReviews(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		CanReview:     reviews < purchases,
		PurchaseCount: purchases,
		ReviewCount:   reviews,
	}, nil
}

// recomputeRating rescans every rating of the product. Fine at storefront volume.
func recomputeRating(ctx context.Context, r *repo.GormRepo, productID uuid.UUID) (float64, error) {
	ratings, err := r.ProductRatings(ctx, productID)
	if err != nil {
		return 0, err
	}
	avg, err := AggregateRating(ratings)
	if err != nil {
		return 0, err
	}
	if err := r.UpdateProductRating(ctx, productID, avg, int64(len(ratings))); err != nil {
		return 0, err
	}
	return avg, nil
}

func (s *ReviewService) Eligibility(ctx context.Context, actor Actor, productID uuid.UUID) (Eligibility, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return Eligibility{}, err
	}
	return eligibility(ctx, s.Repo, actor.ID, productID)
}

// Submit stores a review when the user still has review credit for the product and
// refreshes the product rating in the same transaction.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, productID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return nil, err
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	}
	if len(in.Images) > MaxReviewImages {
		return nil, fmt.Errorf("at most %d images: %w", MaxReviewImages, ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	user, err := s.Repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    user.ID,
		UserEmail: user.Email,
		UserName:  user.Name,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		Images:    in.Images,
		Size:      in.Size,
		Color:     in.Color,
	}

	var newRating float64
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		// serializes concurrent submits by the same user
		if _, err := tx.LockUser(ctx, user.ID); err != nil {
			return err
		}
		e, err := eligibility(ctx, tx, user.ID, productID)
		if err != nil {
			return err
		}
		if !e.CanReview {
			return fmt.Errorf("no review credit left for this product (%d purchases, %d reviews): %w",
				e.PurchaseCount, e.ReviewCount, ErrConflict)
		}
		review.VerifiedPurchase = e.PurchaseCount > 0

		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		newRating, err = recomputeRating(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	recorderOrNop(s.Metrics).ReviewSubmitted(ctx, review.Rating)
	s.publish(ctx, events.TypeReviewCreated, review, newRating)
	return review, nil
}

// Delete removes a review with its likes and replies. Only the author or an admin may delete.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	review, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return notFound(err, "review")
	}
	if err := CanManage(actor, review.UserID); err != nil {
		return err
	}

	var newRating float64
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteReview(ctx, id); err != nil {
			return err
		}
		newRating, err = recomputeRating(ctx, tx, review.ProductID)
		return err
	})
	if err != nil {
		return notFound(err, "review")
	}

	s.publish(ctx, events.TypeReviewDeleted, review, newRating)
	return nil
}

func (s *ReviewService) publish(ctx context.Context, typ string, review *models.Review, rating float64) {
	if s.Events == nil {
		return
	}
	ev := events.ReviewEvent{
		Type:      typ,
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		NewRating: rating,
		At:        time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, events.TopicReviews, review.ProductID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("review_event_error", "type", typ, "review_id", review.ID, "error", err)
	}
}

// List pages a product's reviews. A logged-in viewer gets user_liked flags.
func (s *ReviewService) List(ctx context.Context, viewer Actor, productID uuid.UUID, sort string, page int) (*ReviewPage, error) {
	offset, limit := util.Calculate(page, ReviewPageSize)
	total, items, err := s.Repo.ListReviews(ctx, productID, sort, offset, limit)
	if err != nil {
		return nil, err
	}

	if !viewer.Guest() && len(items) > 0 {
		ids := make([]uint, 0, len(items))
		for _, r := range items {
			ids = append(ids, r.ID)
		}
		liked, err := s.Repo.LikedReviews(ctx, viewer.ID, ids)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].UserLiked = liked[items[i].ID]
		}
	}

	summary, err := s.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ReviewPage{Page: util.NewPage(items, page, limit, total), Summary: summary}, nil
}

func (s *ReviewService) Summary(ctx context.Context, productID uuid.UUID) (RatingSummary, error) {
	ratings, err := s.Repo.ProductRatings(ctx, productID)
	if err != nil {
		return RatingSummary{}, err
	}
	return Summarize(ratings)
}

// ToggleLike flips the actor's helpful mark and returns the new state with the live count.
func (s *ReviewService) ToggleLike(ctx context.Context, actor Actor, reviewID uint) (bool, int64, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return false, 0, err
	}
	if _, err := s.Repo.GetReview(ctx, reviewID); err != nil {
		return false, 0, notFound(err, "review")
	}
	return s.Repo.ToggleLike(ctx, reviewID, actor.ID)
}

func replyComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", fmt.Errorf("reply comment is required: %w", ErrValidation)
	}
	return comment, nil
}

func (s *ReviewService) AddReply(ctx context.Context, actor Actor, reviewID uint, comment string) (*models.ReviewReply, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	comment, err := replyComment(comment)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetReview(ctx, reviewID); err != nil {
		return nil, notFound(err, "review")
	}
	user, err := s.Repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	reply := &models.ReviewReply{
		ReviewID:  reviewID,
		UserID:    user.ID,
		UserEmail: user.Email,
		UserName:  user.Name,
		UserRole:  user.Role,
		Comment:   comment,
	}
	if err := s.Repo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ReviewService) reply(ctx context.Context, actor Actor, id uint) (*models.ReviewReply, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	reply, err := s.Repo.GetReply(ctx, id)
	if err != nil {
		return nil, notFound(err, "reply")
	}
	if err := CanManage(actor, reply.UserID); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ReviewService) EditReply(ctx context.Context, actor Actor, id uint, comment string) (*models.ReviewReply, error) {
	comment, err := replyComment(comment)
	if err != nil {
		return nil, err
	}
	reply, err := s.reply(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	reply.Comment = comment
	if err := s.Repo.SaveReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ReviewService) DeleteReply(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.reply(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.Repo.DeleteReply(ctx, id), "reply")
}
