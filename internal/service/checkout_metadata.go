package service

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"storefront-service/internal/model"
	"storefront-service/internal/pricing"

	"github.com/shopspring/decimal"
)

// Límites de metadata de Stripe.
const (
	metadataMaxValueLen = 500
	metadataMaxKeys     = 50
)

const (
	metaUserID   = "userId"
	metaShipping = "shippingInfo"
	metaItems    = "items"
	metaSubtotal = "subtotal"
	metaTax      = "tax"
	metaShipFee  = "shipping"
	metaTotal    = "total"
)

// checkoutMetadata es lo que viaja en la sesión de pago hasta el webhook.
type checkoutMetadata struct {
	UserID       string
	ShippingInfo model.ShippingAddress
	Items        []model.OrderItem
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingFee  decimal.Decimal
	Total        decimal.Decimal
}

type metaItem struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

func encodeCheckoutMetadata(m checkoutMetadata) (map[string]string, error) {
	shippingJSON, err := json.Marshal(m.ShippingInfo)
	if err != nil {
		return nil, err
	}

	items := make([]metaItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, metaItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	out := map[string]string{
		metaUserID:   m.UserID,
		metaSubtotal: m.Subtotal.StringFixed(2),
		metaTax:      m.Tax.StringFixed(2),
		metaShipFee:  m.ShippingFee.StringFixed(2),
		metaTotal:    m.Total.StringFixed(2),
	}
	putChunked(out, metaShipping, string(shippingJSON))
	putChunked(out, metaItems, string(itemsJSON))

	if len(out) > metadataMaxKeys {
		return nil, invalid("cart is too large for hosted checkout")
	}
	return out, nil
}

// putChunked parte valores largos en key_0..key_n y guarda la cantidad en key_parts.
func putChunked(dst map[string]string, key, value string) {
	runes := []rune(value)
	if len(runes) <= metadataMaxValueLen {
		dst[key] = value
		return
	}

	n := 0
	for start := 0; start < len(runes); start += metadataMaxValueLen {
		end := min(start+metadataMaxValueLen, len(runes))
		dst[fmt.Sprintf("%s_%d", key, n)] = string(runes[start:end])
		n++
	}
	dst[key+"_parts"] = strconv.Itoa(n)
}

func getChunked(src map[string]string, key string) (string, error) {
	if v, ok := src[key]; ok {
		return v, nil
	}

	raw, ok := src[key+"_parts"]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedMetadata, key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return "", fmt.Errorf("%w: bad %s_parts", ErrMalformedMetadata, key)
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		part, ok := src[fmt.Sprintf("%s_%d", key, i)]
		if !ok {
			return "", fmt.Errorf("%w: missing %s_%d", ErrMalformedMetadata, key, i)
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}

func decodeCheckoutMetadata(src map[string]string) (*checkoutMetadata, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty metadata", ErrMalformedMetadata)
	}

	m := &checkoutMetadata{UserID: src[metaUserID]}
	if m.UserID == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedMetadata, metaUserID)
	}

	shippingJSON, err := getChunked(src, metaShipping)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(shippingJSON), &m.ShippingInfo); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, metaShipping, err)
	}

	itemsJSON, err := getChunked(src, metaItems)
	if err != nil {
		return nil, err
	}
	var items []metaItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, metaItems, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrMalformedMetadata)
	}
	for _, it := range items {
		m.Items = append(m.Items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     pricing.NormalizePrice(it.Price),
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{metaSubtotal, &m.Subtotal},
		{metaTax, &m.Tax},
		{metaShipFee, &m.ShippingFee},
		{metaTotal, &m.Total},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(src[a.key])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, a.key, err)
		}
		*a.dst = d
	}
	return m, nil
}

// metadataKeys devuelve las claves ordenadas; se usa en logs.
func metadataKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
