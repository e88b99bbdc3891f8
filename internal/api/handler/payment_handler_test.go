package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

type stubPaymentService struct {
	createFn func(ctx context.Context, in ports.CreatePaymentInput) (*domain.Payment, error)
	getFn    func(ctx context.Context, id string, viewer ports.Viewer) (*domain.Payment, error)
}

func (s *stubPaymentService) CreatePayment(ctx context.Context, in ports.CreatePaymentInput) (*domain.Payment, error) {
	return s.createFn(ctx, in)
}

func (s *stubPaymentService) Verify(context.Context, string) (*domain.Payment, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentService) GetPayment(ctx context.Context, id string, viewer ports.Viewer) (*domain.Payment, error) {
	return s.getFn(ctx, id, viewer)
}

func TestPaymentHandler_Create_Accepted(t *testing.T) {
	stub := &stubPaymentService{createFn: func(ctx context.Context, in ports.CreatePaymentInput) (*domain.Payment, error) {
		if in.OrderID != "o-1" || in.Phone != "256772123456" || in.Viewer.UserID != "cust-1" {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &domain.Payment{ID: "pay-1", OrderID: "o-1", Status: domain.PaymentPending}, nil
	}}
	c, rec := newContext(http.MethodPost, "/v1/payments", `{"order_id":"o-1","phone":"256772123456"}`)
	withClaims(c, customerClaims)

	if err := NewPaymentHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Links  struct {
			Self  string `json:"self"`
			Order string `json:"order"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "pending" || resp.Links.Self != "/v1/payments/pay-1" || resp.Links.Order != "/v1/orders/o-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPaymentHandler_Create_MissingPhone(t *testing.T) {
	stub := &stubPaymentService{}
	c, _ := newContext(http.MethodPost, "/v1/payments", `{"order_id":"o-1"}`)
	withClaims(c, customerClaims)

	assertHTTPError(t, NewPaymentHandler(stub).Create(c), http.StatusBadRequest)
}

func TestPaymentHandler_Get(t *testing.T) {
	stub := &stubPaymentService{getFn: func(ctx context.Context, id string, viewer ports.Viewer) (*domain.Payment, error) {
		if id != "pay-1" {
			t.Fatalf("unexpected id %q", id)
		}
		return &domain.Payment{ID: id, OrderID: "o-1", Status: domain.PaymentCompleted, GatewayStatus: domain.GatewaySuccessful}, nil
	}}
	c, rec := newContext(http.MethodGet, "/v1/payments/pay-1", "")
	c.SetParamNames("id")
	c.SetParamValues("pay-1")
	withClaims(c, customerClaims)

	if err := NewPaymentHandler(stub).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "completed" || resp["gateway_status"] != "SUCCESSFUL" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
