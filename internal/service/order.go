package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var (
	paymentMethods  = []string{models.PaymentMethodCOD, models.PaymentMethodBanking, models.PaymentMethodMomo, models.PaymentMethodQR}
	paymentStatuses = []string{models.PaymentStatusPending, models.PaymentStatusCOD, models.PaymentStatusPaid}
	orderStatuses   = []string{models.OrderStatusPending, models.OrderStatusShipping, models.OrderStatusCompleted, models.OrderStatusCancelled}
)

type OrderService struct {
	Repo    *repo.GormRepo
	Events  Publisher
	Metrics Recorder
	Mail    Mailer
}

type CheckoutInput struct {
	Shipping      models.ShippingInfo
	PaymentMethod string
	Notes         string
}

// ItemInput names a product variant to put on an order; name, price and image come from the catalog.
type ItemInput struct {
	ProductID uuid.UUID
	Color     string
	Size      string
	Quantity  int64
}

type AdminOrderInput struct {
	CustomerEmail string
	Shipping      models.ShippingInfo
	PaymentMethod string
	PaymentStatus string
	Notes         string
	Items         []ItemInput
}

// AdminOrderEdit leaves nil fields untouched. A nil Items keeps the current lines and totals.
type AdminOrderEdit struct {
	Shipping      *models.ShippingInfo
	PaymentMethod *string
	PaymentStatus *string
	Status        *string
	Notes         *string
	Items         []ItemInput
}

type OrderLineView struct {
	models.OrderLine
	HasReview bool `json:"has_review"`
}

type OrderDetail struct {
	*models.Order
	Items []OrderLineView `json:"order_items"`
}

// PaymentStatusFor returns the initial payment status of a new order.
func PaymentStatusFor(method string) string {
	if method == models.PaymentMethodCOD {
		return models.PaymentStatusCOD
	}
	return models.PaymentStatusPending
}

func validateShipping(info models.ShippingInfo) (models.ShippingInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	if info.Name == "" || info.Phone == "" || info.Address == "" {
		return info, fmt.Errorf("shipping name, phone and address are required: %w", ErrValidation)
	}
	return info, nil
}

func validatePaymentMethod(method string) error {
	if !slices.Contains(paymentMethods, method) {
		return fmt.Errorf("unknown payment method %q: %w", method, ErrValidation)
	}
	return nil
}

func orderLinesFrom(lines []models.CartLine) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Image:     l.Image,
			Color:     l.Color,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}
	return out
}

// Checkout turns the user's cart into a pending order. Order insert and cart deletion share one
// transaction; the caller clears the session voucher only after a nil error.
func (s *OrderService) Checkout(ctx context.Context, actor Actor, in CheckoutInput, v cart.AppliedVoucher) (*models.Order, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return nil, err
	}

	shipping, err := validateShipping(in.Shipping)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(in.PaymentMethod); err != nil {
		return nil, err
	}

	user, err := s.Repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	order, err := s.Repo.PlaceOrder(ctx, user.ID, func(lines []models.CartLine) (*models.Order, error) {
		if len(lines) == 0 {
			return nil, fmt.Errorf("cart is empty: %w", ErrConflict)
		}
		totals := cart.ComputeTotals(lines, v)
		return &models.Order{
			UserID:          user.ID,
			UserEmail:       user.Email,
			Lines:           orderLinesFrom(lines),
			ShippingInfo:    shipping,
			Subtotal:        totals.Subtotal,
			ShippingFee:     totals.Shipping,
			VoucherCode:     v.Code,
			VoucherDiscount: totals.Discount,
			Total:           totals.Total,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   PaymentStatusFor(in.PaymentMethod),
			Status:          models.OrderStatusPending,
			Notes:           strings.TrimSpace(in.Notes),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPlaced(ctx, order)
	return order, nil
}

func (s *OrderService) afterPlaced(ctx context.Context, order *models.Order) {
	l := logging.FromContext(ctx).With("svc", "order.placed", "order_id", order.ID)

	s.publish(ctx, events.TypeOrderCreated, order)
	recorderOrNop(s.Metrics).OrderPlaced(ctx, order.PaymentMethod, order.Total)

	if s.Mail != nil {
		if err := s.Mail.SendOrderConfirmation(ctx, order); err != nil {
			l.Warn("order_mail_error", "error", err)
		}
	}
}

func (s *OrderService) publish(ctx context.Context, typ string, order *models.Order) {
	if s.Events == nil {
		return
	}
	ev := events.OrderEvent{
		Type:          typ,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		At:            time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, events.TopicOrders, order.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_error", "type", typ, "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

// Get returns the order to its owner or an admin. Completed orders flag which lines the owner has reviewed.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDetail, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanManage(actor, order.UserID); err != nil {
		return nil, err
	}

	reviewed := map[uuid.UUID]bool{}
	if order.Status == models.OrderStatusCompleted {
		ids := make([]uuid.UUID, 0, len(order.Lines))
		for _, l := range order.Lines {
			ids = append(ids, l.ProductID)
		}
		if reviewed, err = s.Repo.ReviewedProducts(ctx, order.UserID, ids); err != nil {
			return nil, err
		}
	}

	detail := &OrderDetail{Order: order, Items: make([]OrderLineView, 0, len(order.Lines))}
	for _, l := range order.Lines {
		detail.Items = append(detail.Items, OrderLineView{OrderLine: l, HasReview: reviewed[l.ProductID]})
	}
	return detail, nil
}

func (s *OrderService) ListByUser(ctx context.Context, actor Actor, status string) ([]models.Order, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return nil, err
	}
	if status != "" && !slices.Contains(orderStatuses, status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	return s.Repo.ListOrdersByUser(ctx, actor.ID, status)
}

// Pay simulates a successful payment: the order becomes paid and completed.
func (s *OrderService) Pay(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanManage(actor, order.UserID); err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, fmt.Errorf("order already paid: %w", ErrConflict)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("order is cancelled: %w", ErrConflict)
	}

	if err := s.Repo.MarkOrderPaid(ctx, id); err != nil {
		return nil, notFound(err, "order")
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = models.OrderStatusCompleted

	s.publish(ctx, events.TypeOrderPaid, order)
	recorderOrNop(s.Metrics).OrderStatusChanged(ctx, order.Status)
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Order, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	if !slices.Contains(orderStatuses, status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, notFound(err, "order")
	}
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderStatusChanged, order)
	recorderOrNop(s.Metrics).OrderStatusChanged(ctx, status)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, actor Actor, status string, page, size int) (util.Page[models.Order], error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return util.Page[models.Order]{}, err
	}
	offset, limit := util.Calculate(page, size)
	total, orders, err := s.Repo.ListOrders(ctx, status, offset, limit)
	if err != nil {
		return util.Page[models.Order]{}, err
	}
	return util.NewPage(orders, page, limit, total), nil
}

func (s *OrderService) Export(ctx context.Context, actor Actor) ([]models.Order, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	return s.Repo.AllOrders(ctx)
}

func (s *OrderService) linesFor(ctx context.Context, items []ItemInput) ([]models.OrderLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one product is required: %w", ErrValidation)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
		}
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s not found: %w", it.ProductID, ErrNotFound)
		}
		out = append(out, models.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}
	return out, nil
}

func lineSubtotal(lines []models.OrderLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Price * l.Quantity
	}
	return sum
}

// AdminCreate places an order on behalf of a customer. No voucher applies.
func (s *OrderService) AdminCreate(ctx context.Context, actor Actor, in AdminOrderInput) (*models.Order, error) {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	customer, err := s.Repo.GetUserByEmail(ctx, in.CustomerEmail)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	shipping, err := validateShipping(in.Shipping)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(in.PaymentMethod); err != nil {
		return nil, err
	}
	payStatus := in.PaymentStatus
	if payStatus == "" {
		payStatus = PaymentStatusFor(in.PaymentMethod)
	}
	if !slices.Contains(paymentStatuses, payStatus) {
		return nil, fmt.Errorf("unknown payment status %q: %w", payStatus, ErrValidation)
	}

	lines, err := s.linesFor(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	totals := cart.TotalsFor(lineSubtotal(lines), 0, false)

	order := &models.Order{
		UserID:        customer.ID,
		UserEmail:     customer.Email,
		Lines:         lines,
		ShippingInfo:  shipping,
		Subtotal:      totals.Subtotal,
		ShippingFee:   totals.Shipping,
		Total:         totals.Total,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: payStatus,
		Status:        models.OrderStatusPending,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if _, err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.afterPlaced(ctx, order)
	return order, nil
}

// AdminEdit overwrites order fields. New items recompute subtotal and shipping but keep the stored voucher discount.
func (s *OrderService) AdminEdit(ctx context.Context, actor Actor, id uuid.UUID, in AdminOrderEdit) (*models.Order, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Shipping != nil {
		shipping, err := validateShipping(*in.Shipping)
		if err != nil {
			return nil, err
		}
		order.ShippingInfo = shipping
	}
	if in.PaymentMethod != nil {
		if err := validatePaymentMethod(*in.PaymentMethod); err != nil {
			return nil, err
		}
		order.PaymentMethod = *in.PaymentMethod
	}
	if in.PaymentStatus != nil {
		if !slices.Contains(paymentStatuses, *in.PaymentStatus) {
			return nil, fmt.Errorf("unknown payment status %q: %w", *in.PaymentStatus, ErrValidation)
		}
		order.PaymentStatus = *in.PaymentStatus
	}
	if in.Status != nil {
		if !slices.Contains(orderStatuses, *in.Status) {
			return nil, fmt.Errorf("unknown status %q: %w", *in.Status, ErrValidation)
		}
		order.Status = *in.Status
	}
	if in.Notes != nil {
		order.Notes = strings.TrimSpace(*in.Notes)
	}

	replace := in.Items != nil
	if replace {
		lines, err := s.linesFor(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		totals := cart.TotalsFor(lineSubtotal(lines), order.VoucherDiscount, false)
		order.Lines = lines
		order.Subtotal = totals.Subtotal
		order.ShippingFee = totals.Shipping
		order.Total = totals.Total
	}

	if err := s.Repo.SaveOrder(ctx, order, replace); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	order, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	s.publish(ctx, events.TypeOrderDeleted, order)
	return nil
}
