package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	orders    map[string]*domain.Order
	createErr error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, id string) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentStatus = domain.OrderPaid
	if o.Status == domain.OrderPending {
		o.Status = domain.OrderProcessing
	}
	return nil
}

type stubRenderer struct{ calls int }

func (r *stubRenderer) Render(o *domain.Order) ([]byte, error) {
	r.calls++
	return []byte("%PDF-" + o.OrderNumber), nil
}

type stubPublisher struct {
	sent []domain.Notification
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.sent = append(p.sent, n)
	return p.err
}

var discardLogger = zerolog.Nop()

func customerViewer(id string) ports.Viewer {
	return ports.Viewer{UserID: id, Principal: &domain.Principal{ID: id, Role: domain.RoleCustomer}}
}

func staffViewer() ports.Viewer {
	return ports.Viewer{UserID: "staff_1", Principal: &domain.Principal{ID: "staff_1", Role: domain.RoleStaff}}
}

func minimalOrderInput(customerID string) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		CustomerID: customerID,
		Customer:   domain.Customer{Name: "Nakato", Phone: "256772000000", Address: "Plot 4, Kampala Rd"},
		Items: []ports.OrderItemInput{
			{ProductID: "p1", Name: "Sugar 1kg", Quantity: 2, UnitPrice: 4500},
			{ProductID: "p2", Name: "Milk 500ml", Quantity: 3, UnitPrice: 1500},
		},
		DeliveryFee: 2000,
	}
}

// ---------------------------------------------------------------------------
// CreateOrder
// ---------------------------------------------------------------------------

func TestOrderService_Create_Success(t *testing.T) {
	repo := newStubOrderRepo()
	pub := &stubPublisher{}
	svc := NewOrderService(repo, &stubRenderer{}, pub, "UGX", discardLogger)

	order, err := svc.CreateOrder(context.Background(), minimalOrderInput("cust_1"))
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if !strings.HasPrefix(order.OrderNumber, "NH-") || len(order.OrderNumber) != 11 {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Subtotal != 13500 || order.Total != 15500 {
		t.Fatalf("unexpected totals: subtotal=%v total=%v", order.Subtotal, order.Total)
	}
	if order.Currency != "UGX" || order.Status != domain.OrderPending || order.PaymentStatus != domain.OrderUnpaid {
		t.Fatalf("unexpected order state: %+v", order)
	}
	if _, ok := repo.orders[order.ID]; !ok {
		t.Fatalf("order not persisted")
	}
	if len(pub.sent) != 1 || pub.sent[0].Type != domain.NotificationOrder {
		t.Fatalf("expected one order notification, got %+v", pub.sent)
	}
}

func TestOrderService_Create_PublishFailureIsNotFatal(t *testing.T) {
	svc := NewOrderService(newStubOrderRepo(), &stubRenderer{}, &stubPublisher{err: errors.New("hub closed")}, "UGX", discardLogger)
	if _, err := svc.CreateOrder(context.Background(), minimalOrderInput("cust_1")); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestOrderService_Create_Validation(t *testing.T) {
	svc := NewOrderService(newStubOrderRepo(), &stubRenderer{}, nil, "UGX", discardLogger)

	empty := minimalOrderInput("cust_1")
	empty.Items = nil
	var ve *domain.ValidationError
	if _, err := svc.CreateOrder(context.Background(), empty); !errors.As(err, &ve) || ve.Field != "items" {
		t.Fatalf("expected items validation error, got %v", err)
	}

	zeroQty := minimalOrderInput("cust_1")
	zeroQty.Items[1].Quantity = 0
	if _, err := svc.CreateOrder(context.Background(), zeroQty); !errors.As(err, &ve) || ve.Field != "items[1].quantity" {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
}

func TestOrderService_Create_RepoError(t *testing.T) {
	repo := newStubOrderRepo()
	repo.createErr = errors.New("db down")
	svc := NewOrderService(repo, &stubRenderer{}, nil, "UGX", discardLogger)

	if _, err := svc.CreateOrder(context.Background(), minimalOrderInput("cust_1")); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// GetOrder / Invoice
// ---------------------------------------------------------------------------

func TestOrderService_GetOrder_Visibility(t *testing.T) {
	svc := NewOrderService(newStubOrderRepo(), &stubRenderer{}, nil, "UGX", discardLogger)
	ctx := context.Background()
	order, _ := svc.CreateOrder(ctx, minimalOrderInput("cust_1"))

	cases := []struct {
		name    string
		viewer  ports.Viewer
		wantErr error
	}{
		{"owner", customerViewer("cust_1"), nil},
		{"other customer", customerViewer("cust_2"), domain.ErrForbidden},
		{"staff", staffViewer(), nil},
		{"anonymous", ports.Viewer{}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetOrder(ctx, order.ID, tc.viewer)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if _, err := svc.GetOrder(ctx, "missing", staffViewer()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderService_Invoice(t *testing.T) {
	renderer := &stubRenderer{}
	svc := NewOrderService(newStubOrderRepo(), renderer, nil, "UGX", discardLogger)
	ctx := context.Background()
	order, _ := svc.CreateOrder(ctx, minimalOrderInput("cust_1"))

	doc, got, err := svc.Invoice(ctx, order.ID, customerViewer("cust_1"))
	if err != nil {
		t.Fatalf("Invoice returned error: %v", err)
	}
	if got.OrderNumber != order.OrderNumber || !strings.HasPrefix(string(doc), "%PDF-") {
		t.Fatalf("unexpected invoice %q for %s", doc, got.OrderNumber)
	}

	if _, _, err := svc.Invoice(ctx, order.ID, customerViewer("cust_2")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected renderer called once, got %d", renderer.calls)
	}
}
