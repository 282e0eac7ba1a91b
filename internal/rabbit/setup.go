// setup.go
package rabbit

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/logger"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeOrderPlaced        = "order_placed"
	ExchangeOrderStatusChanged = "order_status_changed"

	orderStatusQueue = "storefront_order_status"
)

func declareFanout(ch *amqp091.Channel, name string) error {
	return ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil)
}

// SetupConsumers se suscribe a order_status_changed. El loop termina al cancelar ctx o cerrar el canal.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, svc StatusApplier) error {
	consumer := NewOrderStatusConsumer(svc)

	// 1. Declarar exchange y queue
	if err := declareFanout(ch, ExchangeOrderStatusChanged); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		orderStatusQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// 2. Bindear al exchange fanout
	if err := ch.QueueBind(q.Name, "", ExchangeOrderStatusChanged, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// 3. Consumir con ack manual
	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				settle(m, consumer.Handle(ctx, m.Body))
			}
		}
	}()

	logger.L().Info("suscrito a exchange fanout", zap.String("exchange", ExchangeOrderStatusChanged))
	return nil
}

// settle hace ack si se procesó, descarta los permanentes y reencola una sola vez los demás.
func settle(m amqp091.Delivery, err error) {
	if err == nil {
		_ = m.Ack(false)
		return
	}

	requeue := !errors.Is(err, errPermanent) && !m.Redelivered
	logger.L().Warn("error procesando mensaje",
		zap.String("exchange", m.Exchange),
		zap.Bool("requeue", requeue),
		zap.Error(err),
	)
	_ = m.Nack(false, requeue)
}
