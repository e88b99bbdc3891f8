package ports

import (
	"context"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// MarkPaid sets payment_status to paid and moves a pending order to
	// processing.
	MarkPaid(ctx context.Context, id string) error
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
}

// CreateOrderInput carries all data needed to place an order.
type CreateOrderInput struct {
	CustomerID  string
	Customer    domain.Customer
	Items       []OrderItemInput
	DeliveryFee float64
}

// Viewer identifies who is asking for an order; used for ownership checks.
type Viewer struct {
	UserID    string
	Principal *domain.Principal
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string, viewer Viewer) (*domain.Order, error)
	Invoice(ctx context.Context, id string, viewer Viewer) ([]byte, *domain.Order, error)
}

// InvoiceRenderer turns an order into a fixed-layout document.
type InvoiceRenderer interface {
	Render(o *domain.Order) ([]byte, error)
}
