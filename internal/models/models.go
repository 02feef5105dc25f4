package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusShipping  = "shipping"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentMethodCOD     = "cod"
	PaymentMethodBanking = "banking"
	PaymentMethodMomo    = "momo"
	PaymentMethodQR      = "qr"

	PaymentStatusPending = "pending"
	PaymentStatusCOD     = "cod"
	PaymentStatusPaid    = "paid"
)

const (
	VoucherFixed    = "fixed"
	VoucherPercent  = "percent"
	VoucherShipping = "shipping"
)

type Product struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string            `gorm:"not null"                  json:"name"`
	Slug        string            `gorm:"uniqueIndex;not null"      json:"slug"`
	Price       int64             `gorm:"not null"                  json:"price"`
	OldPrice    int64             `gorm:"not null;default:0"        json:"old_price"`
	Category    string            `gorm:"index"                     json:"category"`
	Image       string            `                                 json:"image"`
	Images      []string          `gorm:"type:text;serializer:json" json:"images"`
	Description string            `gorm:"type:text"                 json:"description"`
	Stock       int64             `gorm:"not null;default:0"        json:"stock"`
	Sizes       []string          `gorm:"type:text;serializer:json" json:"sizes"`
	Colors      []string          `gorm:"type:text;serializer:json" json:"colors"`
	ColorImages map[string]string `gorm:"type:text;serializer:json" json:"color_images"`
	Rating      float64           `gorm:"not null;default:0"        json:"rating"`
	ReviewCount int64             `gorm:"not null;default:0"        json:"reviews"`
	Sold        int64             `gorm:"not null;default:0"        json:"sold"`
	Featured    bool              `gorm:"not null;default:false"    json:"featured"`
	CreatedAt   time.Time         `gorm:"index"                     json:"created_at"`
	UpdatedAt   time.Time         `                                 json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OnSale reports whether the product is discounted against its old price.
func (p *Product) OnSale() bool {
	return p.OldPrice > p.Price
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	Role         string    `gorm:"index;not null"        json:"role"`
	Name         string    `gorm:"not null"              json:"name"`
	Phone        string    `                             json:"phone"`
	Address      string    `gorm:"type:text"             json:"address"`
	CreatedAt    time.Time `                             json:"created_at"`
	UpdatedAt    time.Time `                             json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"     json:"jti"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"default:false"            json:"revoked"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                       json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_pair" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_pair" json:"product_id"`
	CreatedAt time.Time `                                                        json:"created_at"`
}

// CartLine is keyed by (user, product, color, size).
type CartLine struct {
	ID        uint      `gorm:"primaryKey"                                        json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line_key" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line_key" json:"product_id"`
	Color     string    `gorm:"not null;uniqueIndex:idx_cart_line_key"            json:"color"`
	Size      string    `gorm:"not null;uniqueIndex:idx_cart_line_key"            json:"size"`
	Quantity  int64     `gorm:"not null;default:1;check:quantity>0"               json:"qty"`
	Name      string    `gorm:"not null"                                          json:"name"`
	Price     int64     `gorm:"not null"                                          json:"price"`
	Image     string    `                                                         json:"image"`
	CreatedAt time.Time `                                                         json:"-"`
	UpdatedAt time.Time `                                                         json:"-"`
}

type ShippingInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey"                        json:"id"`
	UserID          uuid.UUID    `gorm:"type:uuid;index;not null"                    json:"user_id"`
	User            *User        `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	UserEmail       string       `gorm:"index;not null"                              json:"user_email"`
	Lines           []OrderLine  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	ShippingInfo    ShippingInfo `gorm:"embedded;embeddedPrefix:ship_"               json:"shipping_info"`
	Subtotal        int64        `gorm:"not null"                                    json:"subtotal"`
	ShippingFee     int64        `gorm:"not null;default:0"                          json:"shipping"`
	VoucherCode     string       `                                                   json:"voucher_code,omitempty"`
	VoucherDiscount int64        `gorm:"not null;default:0"                          json:"voucher_discount"`
	Total           int64        `gorm:"not null"                                    json:"total"`
	PaymentMethod   string       `gorm:"not null"                                    json:"payment_method"`
	PaymentStatus   string       `gorm:"not null"                                    json:"payment_status"`
	Status          string       `gorm:"index;not null"                              json:"status"`
	Notes           string       `gorm:"type:text"                                   json:"notes"`
	CreatedAt       time.Time    `gorm:"index"                                       json:"created_at"`
	UpdatedAt       time.Time    `                                                   json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine is a snapshot of a cart line taken at checkout.
type OrderLine struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"      json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"      json:"product_id"`
	Name      string    `gorm:"not null"                      json:"name"`
	Price     int64     `gorm:"not null"                      json:"price"`
	Image     string    `                                     json:"image"`
	Color     string    `                                     json:"color"`
	Size      string    `                                     json:"size"`
	Quantity  int64     `gorm:"not null;check:quantity>0"     json:"qty"`
}

type Review struct {
	ID               uint          `gorm:"primaryKey"                  json:"id"`
	ProductID        uuid.UUID     `gorm:"type:uuid;index;not null"    json:"product_id"`
	UserID           uuid.UUID     `gorm:"type:uuid;index;not null"    json:"user_id"`
	UserEmail        string        `gorm:"not null"                    json:"user_email"`
	UserName         string        `                                   json:"user_name"`
	OrderID          *uuid.UUID    `gorm:"type:uuid"                   json:"order_id,omitempty"`
	Rating           int           `gorm:"not null"                    json:"rating"`
	Comment          string        `gorm:"type:text"                   json:"comment"`
	Images           []string      `gorm:"type:text;serializer:json"   json:"images"`
	Size             string        `                                   json:"size"`
	Color            string        `                                   json:"color"`
	VerifiedPurchase bool          `gorm:"not null;default:false"      json:"verified_purchase"`
	Replies          []ReviewReply `gorm:"constraint:OnDelete:CASCADE" json:"replies"`
	Likes            []ReviewLike  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	HelpfulCount     int64         `gorm:"->;-:migration"              json:"helpful_count"`
	UserLiked        bool          `gorm:"-"                           json:"user_liked"`
	CreatedAt        time.Time     `gorm:"index"                       json:"created_at"`
}

type ReviewReply struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	ReviewID  uint      `gorm:"index;not null"           json:"review_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	UserEmail string    `gorm:"not null"                 json:"user_email"`
	UserName  string    `                                json:"user_name"`
	UserRole  string    `                                json:"user_role"`
	Comment   string    `gorm:"type:text;not null"       json:"comment"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

// ReviewLike is unique per (review, user); its absence means "not liked".
type ReviewLike struct {
	ID        uint      `gorm:"primaryKey"                                     json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_like"           json:"review_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_like" json:"user_id"`
	CreatedAt time.Time `                                                      json:"created_at"`
}

type Voucher struct {
	Code     string `gorm:"primaryKey"        json:"code"`
	Discount int64  `gorm:"not null"          json:"discount"`
	MinOrder int64  `gorm:"not null;default:0" json:"min_order"`
	Type     string `gorm:"not null"          json:"type"`
	Active   bool   `gorm:"not null"          json:"active"`
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Product{},
		&WishlistItem{},
		&CartLine{},
		&Order{},
		&OrderLine{},
		&Review{},
		&ReviewReply{},
		&ReviewLike{},
		&Voucher{},
	}
}
