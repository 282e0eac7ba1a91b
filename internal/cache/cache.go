package cache

import (
	"context"
	"errors"

	"storefront-service/internal/model"
)

// ProductCache guarda productos por id o slug.
type ProductCache interface {
	Get(ctx context.Context, key string) (*model.Product, error)
	Set(ctx context.Context, key string, p *model.Product) error
	Delete(ctx context.Context, keys ...string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop se usa cuando no hay Redis configurado: siempre es miss.
type Nop struct{}

func (Nop) Get(context.Context, string) (*model.Product, error) { return nil, ErrCacheMiss }

func (Nop) Set(context.Context, string, *model.Product) error { return nil }

func (Nop) Delete(context.Context, ...string) error { return nil }
