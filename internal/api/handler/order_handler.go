package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		Order: o,
		Links: orderLinks{
			Self:    "/v1/orders/" + o.ID,
			Invoice: "/v1/orders/" + o.ID + "/invoice",
		},
	}
}

// Create handles POST /v1/orders.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Order details"
// @Success      201   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	items := make([]ports.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ports.OrderItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	order, err := h.service.CreateOrder(c.Request().Context(), ports.CreateOrderInput{
		CustomerID: claims.UserID,
		Customer: domain.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		Items:       items,
		DeliveryFee: req.DeliveryFee,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /v1/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.Request().Context(), c.Param("id"), viewer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Invoice handles GET /v1/orders/:id/invoice.
//
// @Summary      Download the order invoice
// @Tags         orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {file}    binary
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c echo.Context) error {
	viewer, err := ctxViewer(c)
	if err != nil {
		return err
	}

	doc, order, err := h.service.Invoice(c.Request().Context(), c.Param("id"), viewer)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, order.OrderNumber))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}
