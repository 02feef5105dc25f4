package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Publisher sends domain events keyed by aggregate id.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Recorder interface {
	OrderPlaced(ctx context.Context, paymentMethod string, total int64)
	OrderStatusChanged(ctx context.Context, status string)
	ReviewSubmitted(ctx context.Context, rating int)
	VoucherApplied(ctx context.Context, code string)
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// ProductIndex is the full-text product index. Search returns matching ids in rank order.
type ProductIndex interface {
	Search(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error)
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(context.Context, string, int64) {}
func (nopRecorder) OrderStatusChanged(context.Context, string) {}
func (nopRecorder) ReviewSubmitted(context.Context, int) {}
func (nopRecorder) VoucherApplied(context.Context, string) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
