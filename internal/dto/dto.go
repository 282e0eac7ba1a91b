// dto.go
package dto

import "storefront-service/internal/model"

// CartItemDTO es una línea del carrito tal como la manda el cliente.
// Se acepta "id" como alias de "productId".
type CartItemDTO struct {
	ProductID string  `json:"productId"`
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

func (c CartItemDTO) ToModel() model.OrderItem {
	id := c.ProductID
	if id == "" {
		id = c.ID
	}
	return model.OrderItem{
		ProductID: id,
		Name:      c.Name,
		Price:     c.Price,
		Quantity:  c.Quantity,
		Image:     c.Image,
	}
}

// ShippingDTO para la dirección de envío. "address" y "zipCode" son alias aceptados.
type ShippingDTO struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country"`
}

func (s ShippingDTO) ToModel() model.ShippingAddress {
	line := s.AddressLine
	if line == "" {
		line = s.Address
	}
	postal := s.PostalCode
	if postal == "" {
		postal = s.ZipCode
	}
	return model.ShippingAddress{
		FullName:    s.FullName,
		Email:       s.Email,
		Phone:       s.Phone,
		AddressLine: line,
		City:        s.City,
		State:       s.State,
		PostalCode:  postal,
		Country:     s.Country,
	}
}

func ItemsToModel(in []CartItemDTO) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(in))
	for _, it := range in {
		out = append(out, it.ToModel())
	}
	return out
}

// ClientTotals son los totales que calcula el cliente. Solo se usan para loguear diferencias.
type ClientTotals struct {
	Subtotal *float64 `json:"subtotal,omitempty"`
	Tax      *float64 `json:"tax,omitempty"`
	Shipping *float64 `json:"shipping,omitempty"`
	Total    *float64 `json:"total,omitempty"`
}

type CreateOrderRequest struct {
	Items         []CartItemDTO `json:"items"`
	ShippingInfo  *ShippingDTO  `json:"shippingInfo"`
	PaymentMethod string        `json:"paymentMethod"`
	ClientTotals
}

type CreateOrderResponse struct {
	Message string       `json:"message"`
	OrderID string       `json:"orderId"`
	Order   *model.Order `json:"order"`
}

type CheckoutSessionRequest struct {
	Items        []CartItemDTO `json:"items"`
	ShippingInfo *ShippingDTO  `json:"shippingInfo"`
	ClientTotals
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UpdateProfileRequest: los campos nil no se tocan. Address se mergea con la actual.
type UpdateProfileRequest struct {
	FirstName       *string       `json:"firstName"`
	LastName        *string       `json:"lastName"`
	Email           *string       `json:"email"`
	Image           *string       `json:"image"`
	Address         *AddressPatch `json:"address"`
	Wishlist        []string      `json:"wishlist"`
	CurrentPassword string        `json:"currentPassword"`
	NewPassword     string        `json:"newPassword"`
}

type AddressPatch struct {
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	Phone      *string `json:"phone"`
}

type ProfileResponse struct {
	ID        string        `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Image     string        `json:"image"`
	Role      string        `json:"role"`
	Address   model.Address `json:"address"`
	Wishlist  []string      `json:"wishlist"`
}

type ProductRequest struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	Price        *float64       `json:"price"`
	Images       []string       `json:"images"`
	Category     *string        `json:"category"`
	Brand        *string        `json:"brand"`
	CountInStock *int           `json:"countInStock"`
	IsFeatured   *bool          `json:"isFeatured"`
	Discount     *float64       `json:"discount"`
	Attributes   map[string]any `json:"attributes"`
}

type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type ProductListResponse struct {
	Success    bool             `json:"success"`
	Data       []*model.Product `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type StatsResponse struct {
	TotalProducts int64   `json:"totalProducts"`
	TotalOrders   int64   `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
}
