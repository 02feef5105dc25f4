package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "order_created"
	TypeOrderStatusChanged = "order_status_changed"
	TypeOrderPaid          = "order_paid"
	TypeOrderDeleted       = "order_deleted"
	TypeReviewCreated      = "review_created"
	TypeReviewDeleted      = "review_deleted"
)

type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Total         int64     `json:"total"`
	At            time.Time `json:"at"`
}

type ReviewEvent struct {
	Type      string    `json:"type"`
	ReviewID  uint      `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	NewRating float64   `json:"product_rating"`
	At        time.Time `json:"at"`
}
