package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ProductCategories = []string{"Dresses", "Mobiles", "Shoes", "Accessories"}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Slug         string             `bson:"slug" json:"slug"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	Images       []string           `bson:"images" json:"images"`
	Category     string             `bson:"category" json:"category"`
	Brand        string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Rating       float64            `bson:"rating" json:"rating"`
	NumReviews   int                `bson:"num_reviews" json:"numReviews"`
	CountInStock int                `bson:"count_in_stock" json:"countInStock"`
	IsFeatured   bool               `bson:"is_featured" json:"isFeatured"`
	Discount     float64            `bson:"discount" json:"discount"`
	Attributes   map[string]any     `bson:"attributes,omitempty" json:"attributes,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PriceAfterDiscount aplica el porcentaje de descuento, si lo hay.
func (p *Product) PriceAfterDiscount() float64 {
	if p.Discount > 0 {
		return p.Price - p.Price*(p.Discount/100)
	}
	return p.Price
}

func IsValidCategory(c string) bool {
	for _, v := range ProductCategories {
		if v == c {
			return true
		}
	}
	return false
}
