package ports

import (
	"context"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// PaymentGateway is the mobile-money collection API.
type PaymentGateway interface {
	// RequestToPay asks the payer's wallet to approve amount and returns the
	// gateway reference for later status checks.
	RequestToPay(ctx context.Context, req RequestToPay) (string, error)
	Status(ctx context.Context, referenceID string) (GatewayResult, error)
}

// RequestToPay carries the fields the gateway needs to bill a wallet.
type RequestToPay struct {
	ExternalID string
	Amount     float64
	Currency   string
	Phone      string
	PayerNote  string
}

// GatewayResult is a status poll answer.
type GatewayResult struct {
	Status domain.GatewayStatus
	Reason string
}

// PaymentRepository persists payment records.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	SetReference(ctx context.Context, id, referenceID string) error
	// UpdateStatus writes a poll result only while the payment is still
	// pending and reports whether it did.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, gateway domain.GatewayStatus, reason string) (bool, error)
}

// CreatePaymentInput starts a payment for an order.
type CreatePaymentInput struct {
	OrderID string
	Phone   string
	Viewer  Viewer
}

type PaymentService interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error)
	Verify(ctx context.Context, id string) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string, viewer Viewer) (*domain.Payment, error)
}

// Publisher pushes a notification to every connected admin session.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}
