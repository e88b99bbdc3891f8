package domain

import (
	"testing"
	"time"
)

func TestCredential_Completeness(t *testing.T) {
	now := time.Now()
	p := &Principal{Role: RoleAdmin}

	tests := []struct {
		name     string
		cred     Credential
		complete bool
		empty    bool
	}{
		{"zero", Credential{}, false, true},
		{"full", Credential{Token: "t", Principal: p, LastActivityAt: now}, true, false},
		{"no token", Credential{Principal: p, LastActivityAt: now}, false, false},
		{"no principal", Credential{Token: "t", LastActivityAt: now}, false, false},
		{"no activity", Credential{Token: "t", Principal: p}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Complete(); got != tt.complete {
				t.Errorf("Complete() = %v, want %v", got, tt.complete)
			}
			if got := tt.cred.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestCredential_TouchedCopies(t *testing.T) {
	before := time.Unix(1000, 0)
	after := time.Unix(2000, 0)
	c := Credential{Token: "t", LastActivityAt: before}

	touched := c.Touched(after)
	if !touched.LastActivityAt.Equal(after) || !c.LastActivityAt.Equal(before) {
		t.Fatalf("Touched must return a modified copy, got %v / %v", touched.LastActivityAt, c.LastActivityAt)
	}
}

func TestUser_Principal(t *testing.T) {
	u := &User{ID: "u1", Name: "Amina", Email: "amina@nhonest.ug", Role: RoleManager}
	exp := time.Unix(1_800_000_000, 0)

	p := u.Principal(exp)
	if p.Exp == nil || *p.Exp != 1_800_000_000 {
		t.Fatalf("unexpected exp %v", p.Exp)
	}
	if at, ok := p.ExpiresAt(); !ok || !at.Equal(exp) {
		t.Fatalf("ExpiresAt() = %v, %v", at, ok)
	}
	if p.Permissions != nil {
		t.Fatal("a user without explicit permissions must yield a nil list")
	}

	if u.Principal(time.Time{}).Exp != nil {
		t.Fatal("a zero expiry must not be set")
	}
	var none *Principal
	if _, ok := none.ExpiresAt(); ok {
		t.Fatal("nil principal has no expiry")
	}
}

func TestOrder_Recalculate(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{Name: "Sugar 1kg", Quantity: 2, UnitPrice: 4500},
			{Name: "Milk 500ml", Quantity: 3, UnitPrice: 1800},
		},
		DeliveryFee: 3000,
	}
	o.Recalculate()
	if o.Subtotal != 14400 || o.Total != 17400 {
		t.Fatalf("unexpected totals %v / %v", o.Subtotal, o.Total)
	}
}

func TestGatewayStatus_PaymentStatus(t *testing.T) {
	tests := map[GatewayStatus]PaymentStatus{
		GatewaySuccessful: PaymentCompleted,
		GatewayFailed:     PaymentFailed,
		GatewayRejected:   PaymentFailed,
		GatewayTimeout:    PaymentFailed,
		GatewayPending:    PaymentPending,
		"ONGOING":         PaymentPending,
	}
	for in, want := range tests {
		if got := in.PaymentStatus(); got != want {
			t.Errorf("%s.PaymentStatus() = %s, want %s", in, got, want)
		}
	}
	if PaymentPending.Terminal() || !PaymentCompleted.Terminal() || !PaymentFailed.Terminal() {
		t.Fatal("unexpected terminal states")
	}
}
