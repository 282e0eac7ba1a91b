package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/dto"
	"storefront-service/internal/logger"
	"storefront-service/internal/model"
	"storefront-service/internal/payment"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService maneja el pago con tarjeta: crea la sesión alojada y concilia el webhook.
// La orden se escribe recién cuando el proveedor confirma el pago.
type CheckoutService struct {
	orders  OrderRepository
	gateway payment.Gateway
	pricing pricing.Calculator
	events  EventPublisher
	baseURL string
}

func NewCheckoutService(orders OrderRepository, gateway payment.Gateway, calc pricing.Calculator, events EventPublisher, baseURL string) *CheckoutService {
	if events == nil {
		events = nopPublisher{}
	}
	return &CheckoutService{
		orders:  orders,
		gateway: gateway,
		pricing: calc,
		events:  events,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *CheckoutService) InitiateCheckout(ctx context.Context, id model.Identity, req dto.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	if id.IsZero() {
		return nil, ErrUnauthorized
	}

	items, err := validateCart(req.Items)
	if err != nil {
		return nil, err
	}
	shipping, err := validateShipping(req.ShippingInfo)
	if err != nil {
		return nil, err
	}

	b := s.pricing.Calculate(items)
	logTotalsMismatch(ctx, req.ClientTotals, b)

	metadata, err := encodeCheckoutMetadata(checkoutMetadata{
		UserID:       id.UserID,
		ShippingInfo: shipping,
		Items:        items,
		Subtotal:     b.Subtotal,
		Tax:          b.Tax,
		ShippingFee:  b.Shipping,
		Total:        b.Total,
	})
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		LineItems:     buildLineItems(items, b),
		Metadata:      metadata,
		CustomerEmail: shipping.Email,
		SuccessURL:    s.baseURL + "/orders?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.baseURL + "/checkout?canceled=true",
	})
	if err != nil {
		var pe *payment.ProviderError
		if !errors.As(err, &pe) {
			err = &payment.ProviderError{Message: err.Error(), Err: err}
		}
		logger.FromCtx(ctx).Error("checkout session creation failed",
			zap.String("user_id", id.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.FromCtx(ctx).Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", id.UserID),
		zap.String("total", b.Total.StringFixed(2)),
	)
	return sess, nil
}

// buildLineItems arma las líneas en centavos. Envío e impuesto van como líneas
// aparte para que el total cobrado coincida con el calculado.
func buildLineItems(items []model.OrderItem, b pricing.Breakdown) []payment.LineItem {
	out := make([]payment.LineItem, 0, len(items)+2)
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = "Item"
		}
		out = append(out, payment.LineItem{
			Name:       name,
			UnitAmount: pricing.ToCents(decimal.NewFromFloat(it.Price)),
			Quantity:   it.Quantity,
			Image:      it.Image,
		})
	}
	if b.Shipping.IsPositive() {
		out = append(out, payment.LineItem{Name: "Shipping", UnitAmount: pricing.ToCents(b.Shipping), Quantity: 1})
	}
	if b.Tax.IsPositive() {
		out = append(out, payment.LineItem{Name: "Tax", UnitAmount: pricing.ToCents(b.Tax), Quantity: 1})
	}
	return out
}

type WebhookResult struct {
	EventType string
	Order     *model.Order
	Created   bool // false si el evento se ignoró o era una re-entrega
}

// HandleWebhook verifica la firma y, en checkout.session.completed, crea la orden pagada.
// Las re-entregas de la misma sesión devuelven la orden existente sin crear otra.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", payment.ErrInvalidSignature)
	}

	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			logger.FromCtx(ctx).Warn("webhook signature verification failed", zap.Error(err))
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	log := logger.FromCtx(ctx).With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))
	res := &WebhookResult{EventType: ev.Type}

	if ev.Type != payment.EventCheckoutSessionCompleted || ev.Session == nil {
		log.Debug("webhook event ignored")
		return res, nil
	}

	sess := ev.Session
	meta, err := decodeCheckoutMetadata(sess.Metadata)
	if err != nil {
		log.Error("cannot rebuild order from session metadata",
			zap.String("session_id", sess.ID),
			zap.Strings("keys", metadataKeys(sess.Metadata)),
			zap.Error(err),
		)
		return nil, err
	}

	order := &model.Order{
		UserID:            meta.UserID,
		Items:             meta.Items,
		ShippingAddress:   meta.ShippingInfo,
		PaymentMethod:     model.PaymentMethodCard,
		PaymentStatus:     model.PaymentStatusPaid,
		CheckoutSessionID: sess.ID,
		PaymentIntentID:   sess.PaymentIntentID,
		ItemsPrice:        pricing.Float(meta.Subtotal),
		TaxPrice:          pricing.Float(meta.Tax),
		ShippingPrice:     pricing.Float(meta.ShippingFee),
		TotalPrice:        pricing.Float(meta.Total),
		Status:            model.OrderStatusProcessing,
	}

	if sess.AmountTotal > 0 && sess.AmountTotal != pricing.ToCents(meta.Total) {
		log.Warn("charged amount differs from captured total",
			zap.Int64("amount_total", sess.AmountTotal),
			zap.String("captured_total", meta.Total.StringFixed(2)),
		)
	}

	err = s.orders.Insert(ctx, order)
	if errors.Is(err, repository.ErrDuplicatePaymentSession) {
		existing, findErr := s.orders.FindByCheckoutSessionID(ctx, sess.ID)
		if findErr != nil {
			return nil, fmt.Errorf("load reconciled order: %w", findErr)
		}
		log.Info("duplicate webhook delivery ignored",
			zap.String("session_id", sess.ID),
			zap.String("order_id", existing.ID.Hex()),
		)
		res.Order = existing
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create paid order: %w", err)
	}

	log.Info("paid order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("session_id", sess.ID),
		zap.String("payment_intent_id", sess.PaymentIntentID),
	)
	publishOrderPlaced(ctx, s.events, order)

	res.Order = order
	res.Created = true
	return res, nil
}
