// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCOD  PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order es el registro persistido de una compra. Los precios no cambian después de crearse.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"userId"`
	Items             []OrderItem        `bson:"items" json:"items"`
	ShippingAddress   ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod     PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus     PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	CheckoutSessionID string             `bson:"checkout_session_id,omitempty" json:"checkoutSessionId,omitempty"`
	PaymentIntentID   string             `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	ItemsPrice        float64            `bson:"items_price" json:"itemsPrice"`
	TaxPrice          float64            `bson:"tax_price" json:"taxPrice"`
	ShippingPrice     float64            `bson:"shipping_price" json:"shippingPrice"`
	TotalPrice        float64            `bson:"total_price" json:"totalPrice"`
	Status            OrderStatus        `bson:"status" json:"status"` // estado actual
	History           []StatusRecord     `bson:"history" json:"history"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updatedAt"`
}

// OrderItem es una copia de la línea del carrito: no referencia precios vivos del catálogo.
type OrderItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int64   `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

type ShippingAddress struct {
	FullName    string `bson:"full_name" json:"fullName"`
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone" json:"phone"`
	AddressLine string `bson:"address_line" json:"addressLine"`
	City        string `bson:"city" json:"city"`
	State       string `bson:"state" json:"state"`
	PostalCode  string `bson:"postal_code" json:"postalCode"`
	Country     string `bson:"country" json:"country"`
}

type StatusRecord struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Reason    string      `bson:"reason" json:"reason"`
	UserID    string      `bson:"user" json:"userId"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`

	// Para marcar cuál es el último
	Current bool `bson:"current" json:"current"`
}

// CurrentRecord devuelve el registro marcado como vigente en el historial.
func (o *Order) CurrentRecord() *StatusRecord {
	for i := range o.History {
		if o.History[i].Current {
			return &o.History[i]
		}
	}
	return nil
}
