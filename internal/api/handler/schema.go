package handler

import "github.com/nhonest/supermarket-web/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string            `json:"token,omitempty"`
	User  *domain.Principal `json:"user,omitempty"`
}

type registerResponse struct {
	User *domain.User `json:"user"`
}

// --- Orders ---

type customerRequest struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"omitempty,email"`
	Phone   string `json:"phone"   validate:"required"`
	Address string `json:"address" validate:"required"`
}

type orderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name"       validate:"required"`
	Quantity  int     `json:"quantity"   validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type createOrderRequest struct {
	Customer    customerRequest    `json:"customer"     validate:"required"`
	Items       []orderItemRequest `json:"items"        validate:"required,min=1,dive"`
	DeliveryFee float64            `json:"delivery_fee" validate:"gte=0"`
}

type orderLinks struct {
	Self    string `json:"self"`
	Invoice string `json:"invoice"`
}

type orderResponse struct {
	*domain.Order
	Links orderLinks `json:"_links"`
}

// --- Payments ---

type createPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Phone   string `json:"phone"    validate:"required,phone"`
}

type paymentLinks struct {
	Self  string `json:"self"`
	Order string `json:"order"`
}

type paymentResponse struct {
	*domain.Payment
	Links paymentLinks `json:"_links"`
}

// --- Notifications ---

type broadcastRequest struct {
	Type    string `json:"type"    validate:"required,oneof=system message stock order"`
	Title   string `json:"title"   validate:"required"`
	Message string `json:"message" validate:"required"`
}

type broadcastResponse struct {
	Delivered bool `json:"delivered"`
}
