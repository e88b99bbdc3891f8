package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

type stubPaymentRepo struct {
	payments map[string]*domain.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *stubPaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	clone := *p
	r.payments[p.ID] = &clone
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPaymentRepo) SetReference(_ context.Context, id, ref string) error {
	p, ok := r.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	p.ReferenceID = ref
	return nil
}

func (r *stubPaymentRepo) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus, gw domain.GatewayStatus, reason string) (bool, error) {
	p, ok := r.payments[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status, p.GatewayStatus, p.Reason = status, gw, reason
	return true, nil
}

type stubGateway struct {
	requested  []ports.RequestToPay
	requestErr error
	status     ports.GatewayResult
	statusErr  error
	polls      int

	// beforeStatus runs at the start of every Status call.
	beforeStatus func()
}

func (g *stubGateway) RequestToPay(_ context.Context, req ports.RequestToPay) (string, error) {
	g.requested = append(g.requested, req)
	if g.requestErr != nil {
		return "", g.requestErr
	}
	return "ref-" + req.ExternalID, nil
}

func (g *stubGateway) Status(_ context.Context, _ string) (ports.GatewayResult, error) {
	g.polls++
	if g.beforeStatus != nil {
		g.beforeStatus()
	}
	return g.status, g.statusErr
}

type stubQueue struct{ ids []string }

func (q *stubQueue) Enqueue(id string) { q.ids = append(q.ids, id) }

type paymentFixture struct {
	svc      *PaymentService
	orders   *stubOrderRepo
	payments *stubPaymentRepo
	gateway  *stubGateway
	pub      *stubPublisher
	queue    *stubQueue
	order    *domain.Order
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	orders := newStubOrderRepo()
	order, err := NewOrderService(orders, &stubRenderer{}, nil, "UGX", discardLogger).
		CreateOrder(context.Background(), minimalOrderInput("cust_1"))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	f := &paymentFixture{
		orders:   orders,
		payments: newStubPaymentRepo(),
		gateway:  &stubGateway{status: ports.GatewayResult{Status: domain.GatewayPending}},
		pub:      &stubPublisher{},
		queue:    &stubQueue{},
		order:    order,
	}
	f.svc = NewPaymentService(f.payments, f.orders, f.gateway, f.pub, discardLogger)
	f.svc.UseQueue(f.queue)
	return f
}

func (f *paymentFixture) create(t *testing.T) *domain.Payment {
	t.Helper()
	p, err := f.svc.CreatePayment(context.Background(), ports.CreatePaymentInput{
		OrderID: f.order.ID,
		Phone:   "+256 772-123456",
		Viewer:  customerViewer("cust_1"),
	})
	if err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}
	return p
}

func TestPaymentService_Create_Success(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.create(t)

	if p.Status != domain.PaymentPending || p.ReferenceID != "ref-"+p.ID {
		t.Fatalf("unexpected payment: %+v", p)
	}
	if p.Amount != f.order.Total || p.Phone != "256772123456" {
		t.Fatalf("unexpected amount/phone: %v %s", p.Amount, p.Phone)
	}
	stored := f.payments.payments[p.ID]
	if stored == nil || stored.ReferenceID != p.ReferenceID {
		t.Fatalf("reference not stored: %+v", stored)
	}
	if len(f.queue.ids) != 1 || f.queue.ids[0] != p.ID {
		t.Fatalf("expected payment enqueued, got %v", f.queue.ids)
	}
}

func TestPaymentService_Create_GatewayFailureMarksFailed(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.requestErr = errors.New("connection reset")

	_, err := f.svc.CreatePayment(context.Background(), ports.CreatePaymentInput{
		OrderID: f.order.ID, Phone: "256772123456", Viewer: customerViewer("cust_1"),
	})
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if len(f.payments.payments) != 1 {
		t.Fatalf("expected the pending record to exist, got %d", len(f.payments.payments))
	}
	for _, p := range f.payments.payments {
		if p.Status != domain.PaymentFailed {
			t.Fatalf("expected failed, got %s", p.Status)
		}
	}
	if len(f.queue.ids) != 0 {
		t.Fatalf("failed payment must not be enqueued")
	}
}

func TestPaymentService_Create_Rejections(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	var ve *domain.ValidationError
	if _, err := f.svc.CreatePayment(ctx, ports.CreatePaymentInput{OrderID: f.order.ID, Phone: "12ab", Viewer: customerViewer("cust_1")}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := f.svc.CreatePayment(ctx, ports.CreatePaymentInput{OrderID: f.order.ID, Phone: "256772123456", Viewer: customerViewer("cust_2")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.CreatePayment(ctx, ports.CreatePaymentInput{OrderID: "missing", Phone: "256772123456", Viewer: customerViewer("cust_1")}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	_ = f.orders.MarkPaid(ctx, f.order.ID)
	if _, err := f.svc.CreatePayment(ctx, ports.CreatePaymentInput{OrderID: f.order.ID, Phone: "256772123456", Viewer: customerViewer("cust_1")}); !errors.Is(err, domain.ErrOrderPaid) {
		t.Fatalf("expected ErrOrderPaid, got %v", err)
	}
	if len(f.gateway.requested) != 0 {
		t.Fatalf("gateway must not be called, got %d calls", len(f.gateway.requested))
	}
}

func TestPaymentService_Verify_StatusMapping(t *testing.T) {
	cases := []struct {
		gateway domain.GatewayStatus
		want    domain.PaymentStatus
		paid    bool
	}{
		{domain.GatewayPending, domain.PaymentPending, false},
		{domain.GatewaySuccessful, domain.PaymentCompleted, true},
		{domain.GatewayFailed, domain.PaymentFailed, false},
		{domain.GatewayRejected, domain.PaymentFailed, false},
		{domain.GatewayTimeout, domain.PaymentFailed, false},
		{"UNKNOWN", domain.PaymentPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.gateway), func(t *testing.T) {
			f := newPaymentFixture(t)
			p := f.create(t)
			f.gateway.status = ports.GatewayResult{Status: tc.gateway}

			got, err := f.svc.Verify(context.Background(), p.ID)
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if got.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Status)
			}
			order := f.orders.orders[f.order.ID]
			if (order.PaymentStatus == domain.OrderPaid) != tc.paid {
				t.Fatalf("order payment status %s, want paid=%v", order.PaymentStatus, tc.paid)
			}
			if tc.paid && (len(f.pub.sent) != 1 || f.pub.sent[0].Title != "Payment received") {
				t.Fatalf("expected payment notification, got %+v", f.pub.sent)
			}
		})
	}
}

func TestPaymentService_Verify_TerminalIsNotPolled(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.create(t)
	f.gateway.status = ports.GatewayResult{Status: domain.GatewaySuccessful}
	ctx := context.Background()

	if _, err := f.svc.Verify(ctx, p.ID); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	f.gateway.status = ports.GatewayResult{Status: domain.GatewayFailed}
	got, err := f.svc.Verify(ctx, p.ID)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.Status != domain.PaymentCompleted || f.gateway.polls != 1 {
		t.Fatalf("expected completed with one poll, got %s after %d polls", got.Status, f.gateway.polls)
	}
}

func TestPaymentService_Verify_GatewayError(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.create(t)
	f.gateway.statusErr = errors.New("timeout")

	if _, err := f.svc.Verify(context.Background(), p.ID); !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if f.payments.payments[p.ID].Status != domain.PaymentPending {
		t.Fatalf("status must not change on gateway error")
	}
}

func TestPaymentService_GetPayment_Visibility(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.GetPayment(ctx, p.ID, customerViewer("cust_2")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// Staff do not hold payments.view.
	if _, err := f.svc.GetPayment(ctx, p.ID, staffViewer()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}
	admin := ports.Viewer{UserID: "adm", Principal: &domain.Principal{ID: "adm", Role: domain.RoleAdmin}}
	if _, err := f.svc.GetPayment(ctx, p.ID, admin); err != nil {
		t.Fatalf("admin GetPayment failed: %v", err)
	}
	if _, err := f.svc.GetPayment(ctx, "missing", admin); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestPaymentService_Verify_LatePendingDoesNotReopen(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.create(t)
	ctx := context.Background()

	// A second verification settles the payment while the first is still
	// waiting on the gateway, which then answers PENDING.
	raced := false
	f.gateway.beforeStatus = func() {
		if raced {
			return
		}
		raced = true
		f.gateway.status = ports.GatewayResult{Status: domain.GatewaySuccessful}
		if _, err := f.svc.Verify(ctx, p.ID); err != nil {
			t.Fatalf("concurrent Verify returned error: %v", err)
		}
		f.gateway.status = ports.GatewayResult{Status: domain.GatewayPending}
	}

	got, err := f.svc.Verify(ctx, p.ID)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.Status != domain.PaymentCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	stored := f.payments.payments[p.ID]
	if stored.Status != domain.PaymentCompleted || stored.GatewayStatus != domain.GatewaySuccessful {
		t.Fatalf("stored payment regressed: status=%s gateway=%s", stored.Status, stored.GatewayStatus)
	}

	if _, err := f.svc.Verify(ctx, p.ID); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if len(f.pub.sent) != 1 {
		t.Fatalf("expected one payment notification, got %d", len(f.pub.sent))
	}
}
