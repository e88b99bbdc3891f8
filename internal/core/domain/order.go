package domain

import "time"

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderPaymentStatus mirrors the payment state on the order.
type OrderPaymentStatus string

const (
	OrderUnpaid OrderPaymentStatus = "unpaid"
	OrderPaid   OrderPaymentStatus = "paid"
)

// Customer holds the delivery contact of an order.
type Customer struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"product_id" bson:"product_id"`
	Name      string  `json:"name" bson:"name"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// Order is a customer purchase.
type Order struct {
	ID            string             `json:"id" bson:"_id,omitempty"`
	OrderNumber   string             `json:"order_number" bson:"order_number"`
	CustomerID    string             `json:"customer_id" bson:"customer_id"`
	Customer      Customer           `json:"customer" bson:"customer"`
	Items         []OrderItem        `json:"items" bson:"items"`
	Subtotal      float64            `json:"subtotal" bson:"subtotal"`
	DeliveryFee   float64            `json:"delivery_fee" bson:"delivery_fee"`
	Total         float64            `json:"total" bson:"total"`
	Currency      string             `json:"currency" bson:"currency"`
	Status        OrderStatus        `json:"status" bson:"status"`
	PaymentStatus OrderPaymentStatus `json:"payment_status" bson:"payment_status"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// Recalculate sets Subtotal and Total from the items and delivery fee.
func (o *Order) Recalculate() {
	var subtotal float64
	for _, it := range o.Items {
		subtotal += it.LineTotal()
	}
	o.Subtotal = subtotal
	o.Total = subtotal + o.DeliveryFee
}
