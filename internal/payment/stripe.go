package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	breaker       *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

// NewStripeGateway crea el gateway. backends nil usa los endpoints reales de Stripe.
func NewStripeGateway(cfg StripeConfig, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		breaker:       newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[*stripe.CheckoutSession] {
	return gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Un 4xx es un problema del request, no del proveedor: no abre el circuito.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *stripe.Error
			return errors.As(err, &se) && se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500
		},
	})
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := buildSessionParams(req, g.currency)
	params.Context = ctx

	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, providerError(err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func buildSessionParams(req CheckoutRequest, currency string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Image != "" {
			product.Images = stripe.StringSlice([]string{li.Image})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func providerError(err error) *ProviderError {
	var se *stripe.Error
	switch {
	case errors.As(err, &se):
		msg := se.Msg
		if msg == "" {
			msg = http.StatusText(se.HTTPStatusCode)
		}
		return &ProviderError{Message: msg, Err: err}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &ProviderError{Message: "payment provider temporarily unavailable", Err: err}
	default:
		return &ProviderError{Message: err.Error(), Err: err}
	}
}

// ParseWebhook verifica la firma sobre el body crudo antes de interpretar nada.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	out.Session = &CompletedSession{
		ID:          sess.ID,
		AmountTotal: sess.AmountTotal,
		Metadata:    sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.Session.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}
