package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/internal/logger"
	"storefront-service/internal/service"

	"go.uber.org/zap"
)

// StatusApplier lo implementa service.OrderService.
type StatusApplier interface {
	ApplyFulfillmentStatus(ctx context.Context, orderID, status, reason string) error
}

type OrderStatusConsumer struct {
	Service StatusApplier
}

func NewOrderStatusConsumer(s StatusApplier) *OrderStatusConsumer {
	return &OrderStatusConsumer{Service: s}
}

// OrderStatusMessage lo publica fulfillment cuando cambia el estado de un envío.
type OrderStatusMessage struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
}

// errPermanent marca mensajes que no tiene sentido reintentar.
var errPermanent = errors.New("permanent failure")

func (c *OrderStatusConsumer) Handle(ctx context.Context, msg []byte) error {
	var event OrderStatusMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("%w: decode message: %v", errPermanent, err)
	}
	if event.OrderID == "" || event.Status == "" {
		return fmt.Errorf("%w: orderId and status are required", errPermanent)
	}

	log := logger.FromCtx(ctx).With(
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status),
	)
	log.Info("[Rabbit] evento recibido: order_status_changed")

	err := c.Service.ApplyFulfillmentStatus(ctx, event.OrderID, event.Status, event.Reason)
	switch {
	case err == nil:
		log.Info("estado de orden actualizado desde fulfillment")
		return nil
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinalState):
		return fmt.Errorf("%w: %v", errPermanent, err)
	default:
		return err
	}
}
