package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	FirstName     string             `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName      string             `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password,omitempty" json:"-"`
	Image         string             `bson:"image" json:"image"`
	EmailVerified bool               `bson:"email_verified" json:"emailVerified"`
	Provider      string             `bson:"provider" json:"provider"`
	Role          string             `bson:"role" json:"role"`
	Address       Address            `bson:"address" json:"address"`
	Wishlist      []string           `bson:"wishlist" json:"wishlist"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Address struct {
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2" json:"line2"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone" json:"phone"`
}

// Identity es el usuario autenticado de un request. Se pasa explícito a los servicios.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) IsZero() bool {
	return i.UserID == ""
}
