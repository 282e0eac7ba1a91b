package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/model"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Channel es la parte de *amqp091.Channel que usa el publisher.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type PlacedOrderArticle struct {
	ArticleID string `json:"articleId"`
	Quantity  int64  `json:"quantity"`
}

// PlacedOrderMessage mantiene el sobre {correlation_id, exchange, routing_key, message} del resto del sistema.
type PlacedOrderMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID       string                `json:"orderId"`
		UserID        string                `json:"userId"`
		PaymentMethod model.PaymentMethod   `json:"paymentMethod"`
		PaymentStatus model.PaymentStatus   `json:"paymentStatus"`
		Total         float64               `json:"total"`
		Articles      []PlacedOrderArticle  `json:"articles"`
		Shipping      model.ShippingAddress `json:"shipping"`
	} `json:"message"`
}

func NewPlacedOrderMessage(o *model.Order) PlacedOrderMessage {
	var m PlacedOrderMessage
	m.CorrelationID = uuid.NewString()
	m.Exchange = ExchangeOrderPlaced
	m.Message.OrderID = o.ID.Hex()
	m.Message.UserID = o.UserID
	m.Message.PaymentMethod = o.PaymentMethod
	m.Message.PaymentStatus = o.PaymentStatus
	m.Message.Total = o.TotalPrice
	m.Message.Shipping = o.ShippingAddress
	m.Message.Articles = make([]PlacedOrderArticle, 0, len(o.Items))
	for _, it := range o.Items {
		m.Message.Articles = append(m.Message.Articles, PlacedOrderArticle{ArticleID: it.ProductID, Quantity: it.Quantity})
	}
	return m
}

// OrderPlacedPublisher implementa service.EventPublisher. Un *amqp091.Channel no es seguro entre goroutines.
type OrderPlacedPublisher struct {
	mu sync.Mutex
	ch Channel
}

func NewOrderPlacedPublisher(ch Channel) *OrderPlacedPublisher {
	return &OrderPlacedPublisher{ch: ch}
}

// DeclareOrderPlaced crea el exchange antes de publicar.
func DeclareOrderPlaced(ch *amqp091.Channel) error {
	return declareFanout(ch, ExchangeOrderPlaced)
}

func (p *OrderPlacedPublisher) PublishOrderPlaced(ctx context.Context, o *model.Order) error {
	msg := NewPlacedOrderMessage(o)
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode order_placed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, ExchangeOrderPlaced, "", false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: msg.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}
