// Package payment integra el checkout alojado de Stripe: creación de sesiones y verificación de webhooks.
// Los datos de tarjeta nunca pasan por este servicio.
package payment

import (
	"context"
	"errors"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ProviderError envuelve cualquier falla del proveedor conservando su mensaje.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LineItem es una línea del checkout alojado, con el precio unitario en centavos.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	Image      string
}

type CheckoutRequest struct {
	LineItems     []LineItem
	Metadata      map[string]string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CompletedSession son los datos de una sesión pagada que llegan en el webhook.
type CompletedSession struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
}

type WebhookEvent struct {
	ID      string
	Type    string
	Session *CompletedSession // solo para checkout.session.completed
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
