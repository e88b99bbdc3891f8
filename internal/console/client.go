package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

var _ ports.TokenRefresher = (*Client)(nil)

// Client calls the supermarket HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. If httpClient is nil, a client
// with a 30s timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// APIError is a non-2xx response the client has no better mapping for.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type authResponse struct {
	Token string            `json:"token"`
	User  *domain.Principal `json:"user"`
}

func (r authResponse) session() *ports.Session {
	return &ports.Session{Token: r.Token, Principal: r.User}
}

// Login posts credentials to /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// Refresh exchanges token at /auth/refresh-token.
func (c *Client) Refresh(ctx context.Context, token string) (*ports.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh-token", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// CreatePayment requests a mobile-money payment for an order.
func (c *Client) CreatePayment(ctx context.Context, token, orderID, phone string) (*domain.Payment, error) {
	body, _ := json.Marshal(map[string]string{"order_id": orderID, "phone": phone})
	var p domain.Payment
	if err := c.do(ctx, http.MethodPost, "/v1/payments", token, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Payment fetches a payment; the server verifies it with the gateway.
func (c *Client) Payment(ctx context.Context, token, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Invoice downloads the invoice PDF of an order.
func (c *Client) Invoice(ctx context.Context, token, orderID string) ([]byte, error) {
	var doc []byte
	err := c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID)+"/invoice", token, nil, &doc)
	return doc, err
}

// Broadcast sends a notification to every connected admin.
func (c *Client) Broadcast(ctx context.Context, token string, n domain.Notification) error {
	body, _ := json.Marshal(map[string]string{"type": string(n.Type), "title": n.Title, "message": n.Message})
	return c.do(ctx, http.MethodPost, "/v1/notifications", token, body, nil)
}

// do sends one request. out may be nil, a *[]byte for raw bodies or a
// pointer decoded as JSON. Transport failures wrap domain.ErrTransient.
func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.TransientError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *[]byte:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return domain.TransientError("read "+path, err)
		}
		*dst = data
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
}

// decodeError maps an error response onto domain errors.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		switch body.Error {
		case domain.ErrInvalidCredentials.Error():
			return domain.ErrInvalidCredentials
		case domain.ErrTokenExpired.Error():
			return domain.ErrTokenExpired
		case domain.ErrTokenRevoked.Error():
			return domain.ErrTokenRevoked
		}
		return fmt.Errorf("%w: %s", domain.ErrNotAuthenticated, body.Error)
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusTooManyRequests:
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &domain.LockoutError{Remaining: time.Duration(secs) * time.Second}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &domain.ValidationError{Field: body.Field, Message: body.Error}
	case http.StatusConflict:
		if body.Error == domain.ErrOrderPaid.Error() {
			return domain.ErrOrderPaid
		}
	case http.StatusNotFound:
		for _, sentinel := range []error{domain.ErrOrderNotFound, domain.ErrPaymentNotFound} {
			if body.Error == sentinel.Error() {
				return sentinel
			}
		}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.TransientError("server", errors.New(body.Error))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
