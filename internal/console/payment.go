package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// ErrPaymentTimeout is returned when a payment is still pending after the
// poll timeout.
var ErrPaymentTimeout = errors.New("payment still pending, check again later")

// PaymentAPI is the part of the HTTP API the payment flow needs.
type PaymentAPI interface {
	CreatePayment(ctx context.Context, token, orderID, phone string) (*domain.Payment, error)
	Payment(ctx context.Context, token, id string) (*domain.Payment, error)
}

// PaymentFlow requests a mobile-money payment and polls it until the
// gateway settles it.
type PaymentFlow struct {
	api      PaymentAPI
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewPaymentFlow returns a flow polling every interval for up to timeout.
func NewPaymentFlow(api PaymentAPI, interval, timeout time.Duration, log zerolog.Logger) *PaymentFlow {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &PaymentFlow{api: api, interval: interval, timeout: timeout, log: log}
}

// Pay creates the payment and reports each status change to onUpdate.
// It returns the terminal payment, or ErrPaymentTimeout with the last
// known record.
func (f *PaymentFlow) Pay(ctx context.Context, token, orderID, phone string, onUpdate func(*domain.Payment)) (*domain.Payment, error) {
	p, err := f.api.CreatePayment(ctx, token, orderID, phone)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	onUpdate(p)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for !p.Status.Terminal() {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return p, ErrPaymentTimeout
			}
			return p, ctx.Err()
		case <-ticker.C:
		}

		next, err := f.api.Payment(ctx, token, p.ID)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			if errors.Is(err, domain.ErrTransient) {
				f.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment status check failed, retrying")
				continue
			}
			return p, fmt.Errorf("check payment: %w", err)
		}
		if next.Status != p.Status || next.GatewayStatus != p.GatewayStatus {
			onUpdate(next)
		}
		p = next
	}
	return p, nil
}
