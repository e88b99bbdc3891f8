package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/api/metrics"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// msisdnPattern accepts international wallet numbers without the plus sign.
var msisdnPattern = regexp.MustCompile(`^[0-9]{9,15}$`)

// VerifyQueue abstracts background payment verification.
type VerifyQueue interface {
	Enqueue(paymentID string)
}

type PaymentService struct {
	payments  ports.PaymentRepository
	orders    ports.OrderRepository
	gateway   ports.PaymentGateway
	publisher ports.Publisher
	queue     VerifyQueue
	log       zerolog.Logger
	now       func() time.Time
}

// NewPaymentService returns a PaymentService. publisher may be nil.
func NewPaymentService(
	payments ports.PaymentRepository,
	orders ports.OrderRepository,
	gateway ports.PaymentGateway,
	publisher ports.Publisher,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// UseQueue hands newly requested payments to q for background polling.
func (s *PaymentService) UseQueue(q VerifyQueue) {
	s.queue = q
}

// CreatePayment persists a pending payment, asks the gateway to bill the
// payer's wallet and stores the returned reference.
func (s *PaymentService) CreatePayment(ctx context.Context, in ports.CreatePaymentInput) (*domain.Payment, error) {
	phone := normalizePhone(in.Phone)
	if !msisdnPattern.MatchString(phone) {
		return nil, &domain.ValidationError{Field: "phone", Message: "phone must be a mobile money number in international format"}
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !canSee(in.Viewer, order.CustomerID, domain.PermPaymentsView) {
		return nil, domain.ErrForbidden
	}
	if order.PaymentStatus == domain.OrderPaid {
		return nil, domain.ErrOrderPaid
	}

	// 1. Persist the pending record before any money moves.
	now := s.now().UTC()
	p := &domain.Payment{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Total,
		Currency:   order.Currency,
		Phone:      phone,
		Status:     domain.PaymentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	metrics.PaymentsTotal.WithLabelValues(string(domain.PaymentPending)).Inc()

	// 2. Request the payment.
	ref, err := s.gateway.RequestToPay(ctx, ports.RequestToPay{
		ExternalID: p.ID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Phone:      p.Phone,
		PayerNote:  "Payment for order " + order.OrderNumber,
	})
	if err != nil {
		if _, uerr := s.payments.UpdateStatus(ctx, p.ID, domain.PaymentFailed, "", err.Error()); uerr != nil {
			s.log.Warn().Err(uerr).Str("payment_id", p.ID).Msg("failed to mark payment failed")
		}
		metrics.PaymentsTotal.WithLabelValues(string(domain.PaymentFailed)).Inc()
		return nil, domain.TransientError("request to pay", err)
	}

	// 3. Store the gateway reference for later verification.
	if err := s.payments.SetReference(ctx, p.ID, ref); err != nil {
		return nil, fmt.Errorf("store payment reference: %w", err)
	}
	p.ReferenceID = ref

	if s.queue != nil {
		s.queue.Enqueue(p.ID)
	}

	s.log.Info().
		Str("payment_id", p.ID).
		Str("order_id", p.OrderID).
		Str("reference_id", ref).
		Msg("payment requested")
	return p, nil
}

// GetPayment verifies and returns a payment visible to viewer.
func (s *PaymentService) GetPayment(ctx context.Context, id string, viewer ports.Viewer) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(viewer, p.CustomerID, domain.PermPaymentsView) {
		return nil, domain.ErrForbidden
	}
	return s.verify(ctx, p)
}

// Verify polls the gateway for a pending payment and records the result.
// Only an explicit SUCCESSFUL status completes the payment.
func (s *PaymentService) Verify(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, p)
}

func (s *PaymentService) verify(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	if p.Status.Terminal() || p.ReferenceID == "" {
		return p, nil
	}

	res, err := s.gateway.Status(ctx, p.ReferenceID)
	if err != nil {
		return nil, domain.TransientError("check payment status", err)
	}

	next := res.Status.PaymentStatus()
	if next == p.Status && res.Status == p.GatewayStatus {
		return p, nil
	}
	applied, err := s.payments.UpdateStatus(ctx, p.ID, next, res.Status, res.Reason)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if !applied {
		// Settled by a concurrent verification; report the stored outcome.
		return s.payments.FindByID(ctx, p.ID)
	}
	p.Status = next
	p.GatewayStatus = res.Status
	p.Reason = res.Reason
	p.UpdatedAt = s.now().UTC()

	if next.Terminal() {
		metrics.PaymentsTotal.WithLabelValues(string(next)).Inc()
	}
	if next == domain.PaymentCompleted {
		if err := s.orders.MarkPaid(ctx, p.OrderID); err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
		s.announce(ctx, domain.Notification{
			Type:    domain.NotificationOrder,
			Title:   "Payment received",
			Message: fmt.Sprintf("Mobile money payment of %s %.2f confirmed for order %s", p.Currency, p.Amount, p.OrderID),
		})
	}

	s.log.Info().
		Str("payment_id", p.ID).
		Str("gateway_status", string(res.Status)).
		Str("status", string(next)).
		Msg("payment verified")
	return p, nil
}

func (s *PaymentService) announce(ctx context.Context, n domain.Notification) {
	if s.publisher == nil {
		return
	}
	n.Timestamp = s.now().UTC()
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish payment notification")
	}
}

// normalizePhone strips spaces, dashes and a leading plus.
func normalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return strings.TrimPrefix(r.Replace(strings.TrimSpace(phone)), "+")
}
