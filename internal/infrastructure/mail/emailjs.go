// Package mail sends transactional email through the EmailJS REST API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const defaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

var _ ports.Mailer = (*EmailJS)(nil)

// Config selects the EmailJS service and the welcome template.
type Config struct {
	Endpoint        string
	ServiceID       string
	WelcomeTemplate string
	PublicKey       string
	PrivateKey      string
	StoreName       string
}

// Enabled reports whether enough settings are present to send mail.
func (c Config) Enabled() bool {
	return c.ServiceID != "" && c.WelcomeTemplate != "" && c.PublicKey != ""
}

type EmailJS struct {
	cfg        Config
	httpClient *http.Client
}

// NewEmailJS returns a mailer. If httpClient is nil, a default client with
// a 10s timeout is used.
func NewEmailJS(cfg Config, httpClient *http.Client) *EmailJS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailJS{cfg: cfg, httpClient: httpClient}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// SendWelcome emails a newly registered customer.
func (m *EmailJS) SendWelcome(ctx context.Context, user *domain.User) error {
	return m.send(ctx, m.cfg.WelcomeTemplate, map[string]string{
		"to_name":    user.Name,
		"to_email":   user.Email,
		"store_name": m.cfg.StoreName,
	})
}

func (m *EmailJS) send(ctx context.Context, template string, params map[string]string) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      m.cfg.ServiceID,
		TemplateID:     template,
		UserID:         m.cfg.PublicKey,
		AccessToken:    m.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
