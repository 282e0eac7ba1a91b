package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

// Interfaces que implementa repository
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*model.Order, error)
	FindByUserID(ctx context.Context, userID string, limit int64) ([]*model.Order, error)
	FindAll(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, record model.StatusRecord) error
	Count(ctx context.Context) (int64, error)
	SumRevenue(ctx context.Context) (float64, error)
}

type ProductRepository interface {
	List(ctx context.Context, q repository.ProductQuery) ([]*model.Product, error)
	Count(ctx context.Context, q repository.ProductQuery) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	Insert(ctx context.Context, p *model.Product) error
	Replace(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) (*model.Product, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Insert(ctx context.Context, u *model.User) error
	Replace(ctx context.Context, u *model.User) error
}

// EventPublisher avisa al resto del sistema que se creó una orden.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *model.Order) error
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderPlaced(context.Context, *model.Order) error { return nil }

// Errores de negocio exportados (los usa el controller)
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOAuthAccount       = errors.New("please sign in with google")
	ErrOAuthDisabled      = errors.New("google login is not configured")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrFinalState         = errors.New("cannot change the status of an order in a final state")
	ErrMalformedMetadata  = errors.New("malformed checkout metadata")
)

// ValidationError lleva el mensaje para el cliente y matchea ErrInvalidInput.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// notFound traduce el ErrNotFound del repositorio al de servicio.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
