// Package pricing calcula subtotal, impuesto, envío y total de un carrito.
// Ambos caminos de creación de órdenes (contra entrega y checkout alojado) usan este cálculo.
package pricing

import (
	"storefront-service/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Calculator struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

type Breakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Default: 8% de impuesto, envío gratis por encima de $100, si no $9.99.
func Default() Calculator {
	return New(0.08, 100, 9.99)
}

func New(taxRate, freeShippingThreshold, flatShippingFee float64) Calculator {
	return Calculator{
		TaxRate:               decimal.NewFromFloat(taxRate),
		FreeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
		FlatShippingFee:       decimal.NewFromFloat(flatShippingFee),
	}
}

func (c Calculator) Calculate(items []model.OrderItem) Breakdown {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Quantity)))
	}

	tax := subtotal.Mul(c.TaxRate).Round(2)

	// El umbral es estricto: exactamente 100.00 paga envío.
	shipping := c.FlatShippingFee
	if subtotal.GreaterThan(c.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping).Round(2),
	}
}

// NormalizePrice redondea un precio unitario a centavos.
func NormalizePrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

// ToCents convierte a unidades menores, redondeando.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
