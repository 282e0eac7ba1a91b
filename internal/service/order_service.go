package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"storefront-service/internal/dto"
	"storefront-service/internal/logger"
	"storefront-service/internal/model"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cantidad máxima de órdenes que devuelve el historial del usuario.
const userOrdersLimit = 50

// systemActor es quien aplica los cambios que llegan desde fulfillment por Rabbit.
var systemActor = model.Identity{UserID: "system", Role: model.RoleAdmin}

type OrderService struct {
	repo    OrderRepository
	pricing pricing.Calculator
	events  EventPublisher
}

func NewOrderService(r OrderRepository, calc pricing.Calculator, events EventPublisher) *OrderService {
	if events == nil {
		events = nopPublisher{}
	}
	return &OrderService{repo: r, pricing: calc, events: events}
}

// CreateDirectOrder crea una orden contra entrega. Los totales se calculan acá; los del cliente se ignoran.
func (s *OrderService) CreateDirectOrder(ctx context.Context, id model.Identity, req dto.CreateOrderRequest) (*model.Order, error) {
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
	method, err := parseDirectPaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	b := s.pricing.Calculate(items)
	logTotalsMismatch(ctx, req.ClientTotals, b)

	order := &model.Order{
		UserID:          id.UserID,
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   method,
		PaymentStatus:   model.PaymentStatusPending,
		ItemsPrice:      pricing.Float(b.Subtotal),
		TaxPrice:        pricing.Float(b.Tax),
		ShippingPrice:   pricing.Float(b.Shipping),
		TotalPrice:      pricing.Float(b.Total),
		Status:          model.OrderStatusPending,
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	logger.FromCtx(ctx).Info("order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", order.UserID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Float64("total", order.TotalPrice),
	)
	publishOrderPlaced(ctx, s.events, order)
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, id model.Identity) ([]*model.Order, error) {
	if id.IsZero() {
		return nil, ErrUnauthorized
	}
	return s.repo.FindByUserID(ctx, id.UserID, userOrdersLimit)
}

// GetForUser devuelve la orden si el actor es el dueño o admin.
func (s *OrderService) GetForUser(ctx context.Context, id model.Identity, orderID string) (*model.Order, error) {
	if id.IsZero() {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	if !id.IsAdmin() && o.UserID != id.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListAll lista todas las órdenes (admin). status vacío no filtra.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]*model.Order, error) {
	st := model.OrderStatus(status)
	if st != "" && !isValidState(st) {
		return nil, invalid("unknown order status %q", status)
	}
	return s.repo.FindAll(ctx, st)
}

// Estados válidos
var validStates = map[model.OrderStatus]bool{
	model.OrderStatusPending:    true,
	model.OrderStatusProcessing: true,
	model.OrderStatusShipped:    true,
	model.OrderStatusDelivered:  true,
	model.OrderStatusCancelled:  true,
}

func isValidState(s model.OrderStatus) bool {
	return validStates[s]
}

// Transiciones permitidas para admin y para el dueño de la orden
var adminTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
}

var userTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending: {model.OrderStatusCancelled},
}

// Estados finales
var finalStates = map[model.OrderStatus]bool{
	model.OrderStatusCancelled: true,
	model.OrderStatusDelivered: true,
}

// UpdateStatus valida y realiza la transición entre estados según las reglas de negocio.
func (s *OrderService) UpdateStatus(ctx context.Context, actor model.Identity, orderID, newStatus, reason string) error {
	if actor.IsZero() {
		return ErrUnauthorized
	}

	ord, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return notFound(err)
	}

	// Autorización primero: un extraño no ve el estado de la orden
	isOwner := ord.UserID == actor.UserID
	if !actor.IsAdmin() && !isOwner {
		return ErrForbidden
	}

	current := ord.Status
	next := model.OrderStatus(newStatus)

	// Mismo estado: no hacemos nada
	if current == next {
		return nil
	}
	if finalStates[current] {
		return ErrFinalState
	}
	if !isValidState(next) {
		return ErrInvalidTransition
	}

	allowedAsAdmin := actor.IsAdmin() && slices.Contains(adminTransitions[current], next)
	allowedAsOwner := isOwner && slices.Contains(userTransitions[current], next)
	if !allowedAsAdmin && !allowedAsOwner {
		return ErrInvalidTransition
	}

	record := model.StatusRecord{
		Status:    next,
		Reason:    reason,
		UserID:    actor.UserID,
		Timestamp: time.Now().UTC(),
	}

	err = s.repo.UpdateStatus(ctx, orderID, current, next, record)
	if errors.Is(err, repository.ErrStatusConflict) {
		return ErrConflict
	}
	if err != nil {
		return notFound(err)
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("actor", actor.UserID),
	)
	return nil
}

// ApplyFulfillmentStatus aplica un cambio de estado informado por fulfillment.
func (s *OrderService) ApplyFulfillmentStatus(ctx context.Context, orderID, status, reason string) error {
	if reason == "" {
		reason = "Actualizado por fulfillment"
	}
	return s.UpdateStatus(ctx, systemActor, orderID, status, reason)
}

func publishOrderPlaced(ctx context.Context, events EventPublisher, o *model.Order) {
	// La orden ya está guardada: un fallo de publicación solo se loguea.
	if err := events.PublishOrderPlaced(ctx, o); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order_placed",
			zap.String("order_id", o.ID.Hex()),
			zap.Error(err),
		)
	}
}

// logTotalsMismatch compara los totales del cliente con los calculados.
func logTotalsMismatch(ctx context.Context, client dto.ClientTotals, b pricing.Breakdown) {
	pairs := []struct {
		name   string
		client *float64
		server decimal.Decimal
	}{
		{"subtotal", client.Subtotal, b.Subtotal},
		{"tax", client.Tax, b.Tax},
		{"shipping", client.Shipping, b.Shipping},
		{"total", client.Total, b.Total},
	}

	for _, p := range pairs {
		if p.client == nil {
			continue
		}
		if !decimal.NewFromFloat(*p.client).Round(2).Equal(p.server.Round(2)) {
			logger.FromCtx(ctx).Warn("client totals differ from server pricing",
				zap.String("field", p.name),
				zap.Float64("client", *p.client),
				zap.String("server", p.server.StringFixed(2)),
			)
		}
	}
}
