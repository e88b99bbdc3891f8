package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/api/handler"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

type tokenTable map[string]*ports.Claims

func (t tokenTable) Verify(_ context.Context, token string) (*ports.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, domain.ErrNotAuthenticated
}

type nopPublisher struct{ calls int }

func (p *nopPublisher) Publish(context.Context, domain.Notification) error {
	p.calls++
	return nil
}

type unusedOrders struct{ ports.OrderService }

func (unusedOrders) GetOrder(context.Context, string, ports.Viewer) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

// The prometheus middleware registers collectors globally, so the router is
// built once for the whole file.
func TestRouter(t *testing.T) {
	staff := []string{domain.PermOrdersView}
	tokens := tokenTable{
		"admin-token": {TokenID: "a", UserID: "admin-1", Role: domain.RoleAdmin},
		"staff-token": {TokenID: "s", UserID: "staff-1", Role: domain.RoleStaff, Permissions: staff},
	}
	pub := &nopPublisher{}
	e := NewRouter(Deps{
		Verifier:  tokens,
		Orders:    unusedOrders{},
		Publisher: pub,
		Checks: map[string]handler.Checker{
			"mongodb": func(context.Context) error { return nil },
		},
		Log: zerolog.Nop(),
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	broadcast := `{"type":"system","title":"Maintenance","message":"Back in 5 minutes"}`

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantCode int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"readiness", http.MethodGet, "/health/ready", "", "", http.StatusOK},
		{"metrics exposed", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"v1 requires token", http.MethodGet, "/v1/orders/o-1", "", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/v1/orders/o-1", "forged", "", http.StatusUnauthorized},
		{"domain error mapped", http.MethodGet, "/v1/orders/o-1", "admin-token", "", http.StatusNotFound},
		{"broadcast needs permission", http.MethodPost, "/v1/notifications", "staff-token", broadcast, http.StatusForbidden},
		{"admin may broadcast", http.MethodPost, "/v1/notifications", "admin-token", broadcast, http.StatusAccepted},
		{"refresh requires token", http.MethodPost, "/auth/refresh-token", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	if pub.calls != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", pub.calls)
	}
}
