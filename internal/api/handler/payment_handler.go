package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// PaymentHandler handles mobile-money payment requests.
type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		Payment: p,
		Links: paymentLinks{
			Self:  "/v1/payments/" + p.ID,
			Order: "/v1/orders/" + p.OrderID,
		},
	}
}

// Create handles POST /v1/payments.
//
// @Summary      Request a mobile-money payment for an order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPaymentRequest  true  "Order and payer phone"
// @Success      202   {object}  paymentResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/payments [post]
func (h *PaymentHandler) Create(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}

	var req createPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.CreatePayment(c.Request().Context(), ports.CreatePaymentInput{
		OrderID: req.OrderID,
		Phone:   req.Phone,
		Viewer:  viewer,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, toPaymentResponse(p))
}

// Get handles GET /v1/payments/:id. A pending payment is verified with the
// gateway before it is returned.
//
// @Summary      Get and verify a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment id"
// @Success      200  {object}  paymentResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/payments/{id} [get]
func (h *PaymentHandler) Get(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}

	p, err := h.service.GetPayment(c.Request().Context(), c.Param("id"), viewer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPaymentResponse(p))
}
