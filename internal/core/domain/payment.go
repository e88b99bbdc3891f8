package domain

import "time"

// PaymentStatus is the state of a payment record in our store.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further gateway polling is needed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// GatewayStatus is the status reported by the mobile-money gateway.
type GatewayStatus string

const (
	GatewayPending    GatewayStatus = "PENDING"
	GatewaySuccessful GatewayStatus = "SUCCESSFUL"
	GatewayFailed     GatewayStatus = "FAILED"
	GatewayRejected   GatewayStatus = "REJECTED"
	GatewayTimeout    GatewayStatus = "TIMEOUT"
)

// PaymentStatus maps a gateway status onto our record status. Only an
// explicit SUCCESSFUL completes a payment.
func (g GatewayStatus) PaymentStatus() PaymentStatus {
	switch g {
	case GatewaySuccessful:
		return PaymentCompleted
	case GatewayFailed, GatewayRejected, GatewayTimeout:
		return PaymentFailed
	default:
		return PaymentPending
	}
}

// Payment is a mobile-money collection attempt for an order.
type Payment struct {
	ID            string        `json:"id" bson:"_id,omitempty"`
	OrderID       string        `json:"order_id" bson:"order_id"`
	CustomerID    string        `json:"customer_id" bson:"customer_id"`
	Amount        float64       `json:"amount" bson:"amount"`
	Currency      string        `json:"currency" bson:"currency"`
	Phone         string        `json:"phone" bson:"phone"`
	ReferenceID   string        `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Status        PaymentStatus `json:"status" bson:"status"`
	GatewayStatus GatewayStatus `json:"gateway_status,omitempty" bson:"gateway_status,omitempty"`
	Reason        string        `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}
