package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Name            string `json:"name"             validate:"required"`
	Phone           string `json:"phone"`
}

func (r RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		Name:            r.Name,
		Phone:           r.Phone,
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r ProfileRequest) ToInput() service.ProfileInput {
	return service.ProfileInput{Name: r.Name, Phone: r.Phone, Address: r.Address}
}

type PasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type WishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// LineKey addresses a cart line by its (product, color, size) triple.
type LineKey struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
}

func (k LineKey) Key() cart.Key {
	return cart.Key{ProductID: k.ProductID, Color: k.Color, Size: k.Size}
}

type AddLineRequest struct {
	LineKey
	Quantity int64 `json:"qty" validate:"gte=0"`
}

type AdjustLineRequest struct {
	LineKey
	Action string `json:"action" validate:"required,oneof=increase decrease"`
}

type VoucherRequest struct {
	Code string `json:"code" validate:"required"`
}

type ShippingRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s ShippingRequest) Info() models.ShippingInfo {
	return models.ShippingInfo{Name: s.Name, Phone: s.Phone, Address: s.Address}
}

type CheckoutRequest struct {
	Shipping      ShippingRequest `json:"shipping_info"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Notes         string          `json:"notes"`
}

func (r CheckoutRequest) ToInput() service.CheckoutInput {
	return service.CheckoutInput{
		Shipping:      r.Shipping.Info(),
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
}

type ReviewRequest struct {
	Rating  int        `json:"rating"   validate:"required,min=1,max=5"`
	Comment string     `json:"comment"`
	Images  []string   `json:"images"   validate:"max=5"`
	Size    string     `json:"size"`
	Color   string     `json:"color"`
	OrderID *uuid.UUID `json:"order_id"`
}

func (r ReviewRequest) ToInput() service.ReviewInput {
	return service.ReviewInput{
		Rating:  r.Rating,
		Comment: r.Comment,
		Images:  r.Images,
		Size:    r.Size,
		Color:   r.Color,
		OrderID: r.OrderID,
	}
}

type ReplyRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipping completed cancelled"`
}

type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Quantity  int64     `json:"qty"        validate:"gte=1"`
}

func itemInputs(items []ItemRequest) []service.ItemInput {
	if items == nil {
		return nil
	}
	out := make([]service.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.ItemInput{
			ProductID: it.ProductID,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}
	return out
}

type AdminOrderRequest struct {
	CustomerEmail string          `json:"customer_email" validate:"required,email"`
	Shipping      ShippingRequest `json:"shipping_info"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	PaymentStatus string          `json:"payment_status"`
	Notes         string          `json:"notes"`
	Items         []ItemRequest   `json:"items"          validate:"required,min=1,dive"`
}

func (r AdminOrderRequest) ToInput() service.AdminOrderInput {
	return service.AdminOrderInput{
		CustomerEmail: r.CustomerEmail,
		Shipping:      r.Shipping.Info(),
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		Notes:         r.Notes,
		Items:         itemInputs(r.Items),
	}
}

// AdminOrderEditRequest leaves absent fields untouched; an absent items list keeps the lines.
type AdminOrderEditRequest struct {
	Shipping      *ShippingRequest `json:"shipping_info"`
	PaymentMethod *string          `json:"payment_method"`
	PaymentStatus *string          `json:"payment_status"`
	Status        *string          `json:"status"`
	Notes         *string          `json:"notes"`
	Items         []ItemRequest    `json:"items" validate:"omitempty,dive"`
}

func (r AdminOrderEditRequest) ToInput() service.AdminOrderEdit {
	in := service.AdminOrderEdit{
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		Status:        r.Status,
		Notes:         r.Notes,
		Items:         itemInputs(r.Items),
	}
	if r.Shipping != nil {
		info := r.Shipping.Info()
		in.Shipping = &info
	}
	return in
}

// UserRequest is the admin account form. Email is fixed after creation.
type UserRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password"`
	Name     string `json:"name"     validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"     validate:"required,oneof=user staff admin"`
}

func (r UserRequest) ToInput() service.UserInput {
	return service.UserInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
		Address:  r.Address,
		Role:     r.Role,
	}
}
