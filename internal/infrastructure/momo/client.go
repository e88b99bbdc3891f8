// Package momo is a client for the MTN Mobile Money collection API.
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const (
	defaultTimeout = 30 * time.Second
	// tokenLeeway renews the access token this long before it expires.
	tokenLeeway = time.Minute
)

var _ ports.PaymentGateway = (*Client)(nil)

// Config holds the collection product credentials.
type Config struct {
	BaseURL           string
	SubscriptionKey   string
	APIUser           string
	APIKey            string
	TargetEnvironment string
	CallbackURL       string
	// RequestsPerSecond caps outgoing calls; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
}

// APIError is a non-success response from the gateway.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("momo %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the collection API. It caches the access token and
// shares one in-flight token request between concurrent callers.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	token    string
	tokenExp time.Time
	sfGroup  singleflight.Group
}

// NewClient returns a Client. If httpClient is nil, a default client with a
// 30s timeout is used.
func NewClient(cfg Config, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type party struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type requestToPayBody struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        party  `json:"payer"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

type statusResponse struct {
	Status string          `json:"status"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

// RequestToPay asks the payer's wallet to approve the amount and returns
// the X-Reference-Id used for later status checks.
func (c *Client) RequestToPay(ctx context.Context, req ports.RequestToPay) (string, error) {
	ref := uuid.NewString()
	body, err := json.Marshal(requestToPayBody{
		Amount:       strconv.FormatFloat(req.Amount, 'f', -1, 64),
		Currency:     req.Currency,
		ExternalID:   req.ExternalID,
		Payer:        party{PartyIDType: "MSISDN", PartyID: req.Phone},
		PayerMessage: req.PayerNote,
		PayeeNote:    req.PayerNote,
	})
	if err != nil {
		return "", err
	}

	headers := http.Header{}
	headers.Set("X-Reference-Id", ref)
	if c.cfg.CallbackURL != "" {
		headers.Set("X-Callback-Url", c.cfg.CallbackURL)
	}

	resp, err := c.do(ctx, "request to pay", http.MethodPost, "/collection/v1_0/requesttopay", body, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", c.apiError("request to pay", resp)
	}

	c.log.Info().Str("reference_id", ref).Str("external_id", req.ExternalID).Msg("momo request to pay accepted")
	return ref, nil
}

// Status returns the gateway status of a request-to-pay.
func (c *Client) Status(ctx context.Context, referenceID string) (ports.GatewayResult, error) {
	resp, err := c.do(ctx, "payment status", http.MethodGet, "/collection/v1_0/requesttopay/"+referenceID, nil, nil)
	if err != nil {
		return ports.GatewayResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ports.GatewayResult{}, c.apiError("payment status", resp)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return ports.GatewayResult{}, fmt.Errorf("decode payment status: %w", err)
	}
	return ports.GatewayResult{
		Status: domain.GatewayStatus(strings.ToUpper(sr.Status)),
		Reason: decodeReason(sr.Reason),
	}, nil
}

// decodeReason accepts both the string and the {code, message} forms the
// API has used for the reason field.
func decodeReason(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Code
	}
	return string(raw)
}

// do sends an authorised request. A 401 drops the cached token so the next
// call fetches a new one.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, headers http.Header) (*http.Response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", c.cfg.TargetEnvironment)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("momo %s: %w", op, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	return resp, nil
}

func (c *Client) apiError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// accessToken returns a cached token or fetches a new one, with
// singleflight to prevent concurrent token requests.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, exp := c.token, c.tokenExp
	c.mu.RUnlock()
	if token != "" && c.now().Add(tokenLeeway).Before(exp) {
		return token, nil
	}

	v, err, _ := c.sfGroup.Do("token", func() (interface{}, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("momo token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", c.apiError("token", resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode momo token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("momo token: empty access token")
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.tokenExp = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.mu.Unlock()
	c.log.Debug().Int64("expires_in", tr.ExpiresIn).Msg("momo access token refreshed")
	return tr.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExp = time.Time{}
	c.mu.Unlock()
}
