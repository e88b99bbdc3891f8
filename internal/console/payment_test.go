package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// scriptedPayments returns each scripted poll result in turn and repeats
// the last one.
type scriptedPayments struct {
	mu        sync.Mutex
	createErr error
	polls     []pollResult
	calls     int
}

type pollResult struct {
	status  domain.PaymentStatus
	gateway domain.GatewayStatus
	err     error
}

func (s *scriptedPayments) CreatePayment(_ context.Context, _, orderID, phone string) (*domain.Payment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Payment{ID: "p-1", OrderID: orderID, Phone: phone, Status: domain.PaymentPending}, nil
}

func (s *scriptedPayments) Payment(_ context.Context, _, id string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.polls[min(s.calls, len(s.polls)-1)]
	s.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Payment{ID: id, Status: r.status, GatewayStatus: r.gateway}, nil
}

func TestPaymentFlow_PollsUntilTerminal(t *testing.T) {
	api := &scriptedPayments{polls: []pollResult{
		{status: domain.PaymentPending, gateway: domain.GatewayPending},
		{status: domain.PaymentPending, gateway: domain.GatewayPending},
		{err: domain.TransientError("server", errors.New("bad gateway"))},
		{status: domain.PaymentCompleted, gateway: domain.GatewaySuccessful},
	}}
	flow := NewPaymentFlow(api, time.Millisecond, time.Second, zerolog.Nop())

	var updates []domain.GatewayStatus
	p, err := flow.Pay(context.Background(), "tok", "o-1", "256770000000", func(p *domain.Payment) {
		updates = append(updates, p.GatewayStatus)
	})
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if p.Status != domain.PaymentCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	want := []domain.GatewayStatus{"", domain.GatewayPending, domain.GatewaySuccessful}
	if len(updates) != len(want) {
		t.Fatalf("expected updates %v, got %v", want, updates)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Fatalf("expected updates %v, got %v", want, updates)
		}
	}
}

func TestPaymentFlow_TimesOut(t *testing.T) {
	api := &scriptedPayments{polls: []pollResult{{status: domain.PaymentPending, gateway: domain.GatewayPending}}}
	flow := NewPaymentFlow(api, time.Millisecond, 30*time.Millisecond, zerolog.Nop())

	p, err := flow.Pay(context.Background(), "tok", "o-1", "256770000000", func(*domain.Payment) {})
	if !errors.Is(err, ErrPaymentTimeout) {
		t.Fatalf("expected ErrPaymentTimeout, got %v", err)
	}
	if p == nil || p.Status != domain.PaymentPending {
		t.Fatalf("expected the last pending record, got %+v", p)
	}
}

func TestPaymentFlow_StopsOnPermanentError(t *testing.T) {
	api := &scriptedPayments{polls: []pollResult{{err: domain.ErrForbidden}}}
	flow := NewPaymentFlow(api, time.Millisecond, time.Second, zerolog.Nop())

	_, err := flow.Pay(context.Background(), "tok", "o-1", "256770000000", func(*domain.Payment) {})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPaymentFlow_CreateError(t *testing.T) {
	api := &scriptedPayments{createErr: domain.ErrOrderPaid}
	flow := NewPaymentFlow(api, 0, 0, zerolog.Nop())

	called := false
	_, err := flow.Pay(context.Background(), "tok", "o-1", "256770000000", func(*domain.Payment) { called = true })
	if !errors.Is(err, domain.ErrOrderPaid) {
		t.Fatalf("expected ErrOrderPaid, got %v", err)
	}
	if called {
		t.Fatal("onUpdate must not run when the payment was not created")
	}
}
