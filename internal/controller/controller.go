package controller

import (
	"errors"
	"net/http"

	"storefront-service/internal/dto"
	"storefront-service/internal/logger"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError traduce los errores de servicio a status HTTP. Los 5xx no exponen el detalle interno.
func writeError(c *gin.Context, err error) {
	var provErr *payment.ProviderError

	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinalState),
		errors.Is(err, service.ErrMalformedMetadata),
		errors.Is(err, payment.ErrInvalidSignature):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrOAuthAccount):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrOAuthDisabled):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &provErr):
		msg = provErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// POST /orders: pedido contra entrega (COD)
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := ctl.Service.CreateDirectOrder(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateOrderResponse{
		Message: "Order created successfully",
		OrderID: o.ID.Hex(),
		Order:   o,
	})
}

// GET /orders: órdenes del usuario, más nuevas primero
func (ctl *OrderController) ListMine(c *gin.Context) {
	orders, err := ctl.Service.ListForUser(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(orders)})
}

// GET /orders/:orderId: dueño o admin
func (ctl *OrderController) Get(c *gin.Context) {
	o, err := ctl.Service.GetForUser(c.Request.Context(), middleware.IdentityFrom(c), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": o})
}

// PATCH /orders/:orderId/status
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	err := ctl.Service.UpdateStatus(
		c.Request.Context(),
		middleware.IdentityFrom(c),
		c.Param("orderId"),
		req.Status,
		req.Reason,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// GET /admin/orders?status=: admin only
func (ctl *OrderController) ListAll(c *gin.Context) {
	orders, err := ctl.Service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(orders)})
}

func nonNil(orders []*model.Order) []*model.Order {
	if orders == nil {
		return []*model.Order{}
	}
	return orders
}
