package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/application/inventory"
)

// OrderHandler maneja los pedidos de stock del personal.
type OrderHandler struct {
	svc *inventory.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *inventory.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Place godoc
// @Summary      Crear pedido
// @Description  Resta stock de forma atómica y registra el pedido confirmado. staffName vacío toma el nombre del token.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlaceOrderRequest  true  "Pedido"
// @Success      201   {object}  dto.SuccessResponse{data=dto.PlaceOrderResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in dto.PlaceOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	requester := strings.TrimSpace(in.StaffName)
	if requester == "" {
		requester = GetUserName(c)
	}
	res, err := h.svc.PlaceOrder(c.UserContext(), inventory.PlaceOrderInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Requester: requester,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{
		Success: true,
		Message: "Pedido confirmado",
		Data: dto.PlaceOrderResponse{
			OrderID:        res.Order.ID,
			ProductName:    res.Order.ProductName,
			Quantity:       res.Order.Quantity,
			AvailableStock: res.AvailableStock,
		},
	})
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.OrderResponse}
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.ListOrders(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Pedidos", Data: dto.NewOrderListResponse(list)})
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.SuccessResponse{data=dto.OrderResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.svc.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Pedido", Data: dto.NewOrderResponse(o)})
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Description  Devuelve la cantidad al stock. Un pedido ya cancelado responde 409 ALREADY_CANCELLED.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.SuccessResponse{data=dto.CancelOrderResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [patch]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	res, err := h.svc.CancelOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{
		Success: true,
		Message: "Pedido cancelado",
		Data:    dto.CancelOrderResponse{OrderID: res.Order.ID, AvailableStock: res.AvailableStock},
	})
}
