package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/api/metrics"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

type OrderService struct {
	repo      ports.OrderRepository
	renderer  ports.InvoiceRenderer
	publisher ports.Publisher
	currency  string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewOrderService(repo ports.OrderRepository, renderer ports.InvoiceRenderer, publisher ports.Publisher, currency string, logger zerolog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		renderer:  renderer,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder places an order and announces it to admin sessions. The
// announcement is best effort.
func (s *OrderService) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "items must not be empty"}
	}
	items := make([]domain.OrderItem, 0, len(input.Items))
	for i, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be greater than 0"}
		}
		if it.UnitPrice < 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "unit_price must not be negative"}
		}
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      strings.TrimSpace(it.Name),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   generateOrderNumber(),
		CustomerID:    input.CustomerID,
		Customer:      input.Customer,
		Items:         items,
		DeliveryFee:   input.DeliveryFee,
		Currency:      s.currency,
		Status:        domain.OrderPending,
		PaymentStatus: domain.OrderUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Recalculate()

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, err
	}
	metrics.OrdersCreatedTotal.Inc()
	s.logger.Info().Str("order_number", order.OrderNumber).Str("customer_id", order.CustomerID).Msg("order created")

	s.announce(ctx, domain.Notification{
		Type:    domain.NotificationOrder,
		Title:   "New order received",
		Message: fmt.Sprintf("Order %s from %s: %s %.2f", order.OrderNumber, order.Customer.Name, order.Currency, order.Total),
	})
	return order, nil
}

// GetOrder returns the order when viewer owns it or may view all orders.
func (s *OrderService) GetOrder(ctx context.Context, id string, viewer ports.Viewer) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(viewer, order.CustomerID, domain.PermOrdersView) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// Invoice renders the order's invoice document.
func (s *OrderService) Invoice(ctx context.Context, id string, viewer ports.Viewer) ([]byte, *domain.Order, error) {
	order, err := s.GetOrder(ctx, id, viewer)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.renderer.Render(order)
	if err != nil {
		return nil, nil, fmt.Errorf("render invoice %s: %w", order.OrderNumber, err)
	}
	metrics.InvoicesRenderedTotal.Inc()
	return doc, order, nil
}

func (s *OrderService) announce(ctx context.Context, n domain.Notification) {
	if s.publisher == nil {
		return
	}
	n.Timestamp = s.now().UTC()
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("type", string(n.Type)).Msg("failed to publish notification")
	}
}

// canSee reports whether viewer owns the resource or holds permission.
func canSee(viewer ports.Viewer, ownerID, permission string) bool {
	if viewer.UserID != "" && viewer.UserID == ownerID {
		return true
	}
	return domain.HasPermission(viewer.Principal, permission)
}

// generateOrderNumber returns a unique order number in the format NH-XXXXXXXX.
func generateOrderNumber() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("NH-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("NH-%08X", b)
}
