package service

import (
	"strings"

	"storefront-service/internal/dto"
	"storefront-service/internal/model"
	"storefront-service/internal/pricing"
)

// validateCart convierte el carrito y normaliza los precios unitarios a centavos.
func validateCart(in []dto.CartItemDTO) ([]model.OrderItem, error) {
	if len(in) == 0 {
		return nil, invalid("cart items are required")
	}

	items := dto.ItemsToModel(in)
	for i := range items {
		it := &items[i]
		if it.Quantity < 1 {
			return nil, invalid("item %d: quantity must be at least 1", i)
		}
		if it.Price < 0 {
			return nil, invalid("item %d: price must not be negative", i)
		}
		it.Price = pricing.NormalizePrice(it.Price)
	}
	return items, nil
}

func validateShipping(in *dto.ShippingDTO) (model.ShippingAddress, error) {
	if in == nil {
		return model.ShippingAddress{}, invalid("shipping info is required")
	}

	s := in.ToModel()
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", s.FullName},
		{"email", s.Email},
		{"phone", s.Phone},
		{"addressLine", s.AddressLine},
		{"city", s.City},
		{"state", s.State},
		{"postalCode", s.PostalCode},
		{"country", s.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return model.ShippingAddress{}, invalid("shipping info: %s is required", f.name)
		}
	}
	return s, nil
}

// parseDirectPaymentMethod acepta solo contra entrega; las tarjetas van por el checkout alojado.
func parseDirectPaymentMethod(raw string) (model.PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", invalid("payment method is required")
	case string(model.PaymentMethodCOD), "cash_on_delivery":
		return model.PaymentMethodCOD, nil
	case string(model.PaymentMethodCard):
		return "", invalid("card payments must use the hosted checkout")
	default:
		return "", invalid("unsupported payment method %q", raw)
	}
}
