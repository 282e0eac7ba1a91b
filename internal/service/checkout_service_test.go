package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"storefront-service/internal/dto"
	"storefront-service/internal/model"
	"storefront-service/internal/payment"
	"storefront-service/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const webhookSecret = "whsec_test"

func TestInitiateCheckout(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	gw := new(MockGateway)
	svc := NewCheckoutService(orders, gw, pricing.Default(), nil, "http://localhost:3000/")

	var captured payment.CheckoutRequest
	gw.On("CreateCheckoutSession", ctx, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(payment.CheckoutRequest) }).
		Return(&payment.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil)

	sess, err := svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{
		Items: []dto.CartItemDTO{
			{ProductID: "p1", Name: "Shirt", Price: 19.999, Quantity: 2},
			{ProductID: "p2", Name: "Socks", Price: 5.5, Quantity: 3},
		},
		ShippingInfo: completeShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)

	// 20.00*2 + 5.50*3 = 56.50 -> tax 4.52, shipping 9.99, total 71.01
	require.Len(t, captured.LineItems, 4)
	assert.Equal(t, int64(2000), captured.LineItems[0].UnitAmount)
	assert.Equal(t, int64(550), captured.LineItems[1].UnitAmount)
	assert.Equal(t, payment.LineItem{Name: "Shipping", UnitAmount: 999, Quantity: 1}, captured.LineItems[2])
	assert.Equal(t, payment.LineItem{Name: "Tax", UnitAmount: 452, Quantity: 1}, captured.LineItems[3])

	var charged int64
	for _, li := range captured.LineItems {
		charged += li.UnitAmount * li.Quantity
	}
	assert.Equal(t, int64(7101), charged)

	assert.Equal(t, "u1", captured.Metadata["userId"])
	assert.Equal(t, "56.50", captured.Metadata["subtotal"])
	assert.Equal(t, "71.01", captured.Metadata["total"])
	assert.Equal(t, "ana@example.com", captured.CustomerEmail)
	assert.Equal(t, "http://localhost:3000/orders?success=true&session_id={CHECKOUT_SESSION_ID}", captured.SuccessURL)
	assert.Equal(t, "http://localhost:3000/checkout?canceled=true", captured.CancelURL)

	// El checkout nunca escribe órdenes.
	orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestInitiateCheckout_FreeShippingHasNoShippingLine(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc := NewCheckoutService(new(MockOrderRepository), gw, pricing.Default(), nil, "http://x")

	var captured payment.CheckoutRequest
	gw.On("CreateCheckoutSession", ctx, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(payment.CheckoutRequest) }).
		Return(&payment.CheckoutSession{ID: "cs_2"}, nil)

	_, err := svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{
		Items:        []dto.CartItemDTO{{Name: "Phone", Price: 200, Quantity: 1}},
		ShippingInfo: completeShipping(),
	})
	require.NoError(t, err)
	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, "Tax", captured.LineItems[1].Name)
}

func TestInitiateCheckout_ProviderError(t *testing.T) {
	ctx := context.Background()

	t.Run("message preserved", func(t *testing.T) {
		gw := new(MockGateway)
		svc := NewCheckoutService(new(MockOrderRepository), gw, pricing.Default(), nil, "http://x")
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, &payment.ProviderError{Message: "Invalid API Key provided"})

		_, err := svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{
			Items:        []dto.CartItemDTO{{Name: "Shirt", Price: 10, Quantity: 1}},
			ShippingInfo: completeShipping(),
		})
		var pe *payment.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "Invalid API Key provided", pe.Message)
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		gw := new(MockGateway)
		svc := NewCheckoutService(new(MockOrderRepository), gw, pricing.Default(), nil, "http://x")
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

		_, err := svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{
			Items:        []dto.CartItemDTO{{Name: "Shirt", Price: 10, Quantity: 1}},
			ShippingInfo: completeShipping(),
		})
		var pe *payment.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "dial tcp: timeout", pe.Message)
	})
}

func TestInitiateCheckout_Rejects(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc := NewCheckoutService(new(MockOrderRepository), gw, pricing.Default(), nil, "http://x")

	_, err := svc.InitiateCheckout(ctx, model.Identity{}, dto.CheckoutSessionRequest{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{ShippingInfo: completeShipping()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.InitiateCheckout(ctx, shopper, dto.CheckoutSessionRequest{
		Items: []dto.CartItemDTO{{Name: "Shirt", Price: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

// completedEvent arma un evento firmado con la metadata que generaría InitiateCheckout.
func completedEvent(t *testing.T, eventID, sessionID string) (payload []byte, header string) {
	t.Helper()
	items := []model.OrderItem{{ProductID: "p1", Name: "Shirt", Price: 50, Quantity: 2}}
	b := pricing.Default().Calculate(items)

	meta, err := encodeCheckoutMetadata(checkoutMetadata{
		UserID:       "u1",
		ShippingInfo: completeShipping().ToModel(),
		Items:        items,
		Subtotal:     b.Subtotal,
		Tax:          b.Tax,
		ShippingFee:  b.Shipping,
		Total:        b.Total,
	})
	require.NoError(t, err)

	return signedEvent(t, map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2024-06-20",
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"object":         "checkout.session",
				"payment_intent": "pi_" + sessionID,
				"amount_total":   pricing.ToCents(b.Total),
				"metadata":       meta,
			},
		},
	})
}

func signedEvent(t *testing.T, event map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: webhookSecret})
	return payload, signed.Header
}

func newWebhookService(orders OrderRepository, pub EventPublisher) *CheckoutService {
	gw := payment.NewStripeGateway(payment.StripeConfig{SecretKey: "sk_test", WebhookSecret: webhookSecret}, nil)
	return NewCheckoutService(orders, gw, pricing.Default(), pub, "http://x")
}

func TestHandleWebhook_CreatesPaidOrder(t *testing.T) {
	ctx := context.Background()
	orders := &memOrderRepository{}
	pub := new(MockPublisher)
	pub.On("PublishOrderPlaced", ctx, mock.Anything).Return(nil).Once()
	svc := newWebhookService(orders, pub)

	payload, header := completedEvent(t, "evt_1", "cs_1")
	res, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	require.True(t, res.Created)

	o := res.Order
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, model.PaymentMethodCard, o.PaymentMethod)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, "cs_1", o.CheckoutSessionID)
	assert.Equal(t, "pi_cs_1", o.PaymentIntentID)
	assert.Equal(t, 117.99, o.TotalPrice)
	assert.Equal(t, "Mendoza", o.ShippingAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].Quantity)
	pub.AssertExpectations(t)
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	orders := &memOrderRepository{}
	pub := new(MockPublisher)
	pub.On("PublishOrderPlaced", ctx, mock.Anything).Return(nil)
	svc := newWebhookService(orders, pub)

	payload, header := completedEvent(t, "evt_1", "cs_dup")

	first, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	second, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	n, _ := orders.Count(ctx)
	assert.Equal(t, int64(1), n)
	pub.AssertNumberOfCalls(t, "PublishOrderPlaced", 1)
}

func TestHandleWebhook_ConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	orders := &memOrderRepository{}
	svc := newWebhookService(orders, nil)
	payload, header := completedEvent(t, "evt_1", "cs_race")

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.HandleWebhook(ctx, payload, header)
			if assert.NoError(t, err) && res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	n, _ := orders.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	svc := newWebhookService(orders, nil)

	payload, _ := completedEvent(t, "evt_1", "cs_1")
	forged := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_attacker"})

	_, err := svc.HandleWebhook(ctx, payload, forged.Header)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	_, err = svc.HandleWebhook(ctx, payload, "")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	orders := new(MockOrderRepository)
	svc := newWebhookService(orders, nil)

	payload, header := signedEvent(t, map[string]any{
		"id":          "evt_2",
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": "2024-06-20",
		"data":        map[string]any{"object": map[string]any{"id": "pi_1", "object": "payment_intent"}},
	})

	res, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Nil(t, res.Order)
	orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestHandleWebhook_MalformedMetadata(t *testing.T) {
	orders := new(MockOrderRepository)
	svc := newWebhookService(orders, nil)

	payload, header := signedEvent(t, map[string]any{
		"id":          "evt_3",
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2024-06-20",
		"data": map[string]any{"object": map[string]any{
			"id":       "cs_bad",
			"object":   "checkout.session",
			"metadata": map[string]string{"userId": "u1", "items": "not json"},
		}},
	})

	_, err := svc.HandleWebhook(context.Background(), payload, header)
	assert.ErrorIs(t, err, ErrMalformedMetadata)
	orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestBuildLineItems_MatchesCalculatorTotal(t *testing.T) {
	items := []model.OrderItem{
		{Name: "A", Price: 33.33, Quantity: 1},
		{Name: "B", Price: 0.01, Quantity: 7},
	}
	b := pricing.Default().Calculate(items)

	var sum int64
	for _, li := range buildLineItems(items, b) {
		sum += li.UnitAmount * li.Quantity
	}
	assert.Equal(t, pricing.ToCents(b.Total), sum)
	assert.True(t, b.Total.Equal(decimal.RequireFromString("46.06")))
}
