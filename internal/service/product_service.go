package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"storefront-service/internal/cache"
	"storefront-service/internal/dto"
	"storefront-service/internal/logger"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	productLookupTimeout = 5 * time.Second
)

var (
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	slugPattern     = regexp.MustCompile(`[^a-z0-9]+`)
)

type ProductService struct {
	repo  ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // evita estampidas de cache miss
}

func NewProductService(repo ProductRepository, c cache.ProductCache) *ProductService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ProductService{repo: repo, cache: c}
}

func Slugify(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *ProductService) List(ctx context.Context, q repository.ProductQuery) (*dto.ProductListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	products, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	return &dto.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: dto.Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

// Get busca por id o por slug, pasando primero por la caché.
// La búsqueda compartida no depende de la cancelación del primer request.
func (s *ProductService) Get(ctx context.Context, idOrSlug string) (*model.Product, error) {
	v, err, _ := s.sfg.Do(idOrSlug, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), productLookupTimeout)
		defer cancel()

		p, err := s.cache.Get(ctx, idOrSlug)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromCtx(ctx).Warn("product cache get failed", zap.Error(err))
		}

		if objectIDPattern.MatchString(idOrSlug) {
			p, err = s.repo.FindByID(ctx, idOrSlug)
		} else {
			p, err = s.repo.FindBySlug(ctx, idOrSlug)
		}
		if err != nil {
			return nil, notFound(err)
		}

		s.setCache(idOrSlug, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Product), nil
}

func (s *ProductService) Create(ctx context.Context, req dto.ProductRequest) (*model.Product, error) {
	name := trimmed(req.Name)
	category := trimmed(req.Category)
	if name == "" || req.Price == nil || *req.Price <= 0 || category == "" {
		return nil, invalid("missing required fields")
	}

	p := &model.Product{Images: []string{}}
	applyProductRequest(p, req)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req dto.ProductRequest) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	oldSlug := p.Slug

	applyProductRequest(p, req)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, p); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, ErrConflict
		}
		return nil, notFound(err)
	}

	s.invalidate(id, oldSlug, p.Slug)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFound(err)
	}
	s.invalidate(id, p.Slug)
	return nil
}

func applyProductRequest(p *model.Product, req dto.ProductRequest) {
	if v := trimmed(req.Name); v != "" {
		p.Name = v
		p.Slug = Slugify(v)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if v := trimmed(req.Category); v != "" {
		p.Category = v
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.Discount != nil {
		p.Discount = *req.Discount
	}
	if req.Attributes != nil {
		p.Attributes = req.Attributes
	}
}

func validateProduct(p *model.Product) error {
	switch {
	case p.Slug == "":
		return invalid("product name must contain letters or digits")
	case p.Price <= 0:
		return invalid("price must be greater than 0")
	case !model.IsValidCategory(p.Category):
		return invalid("invalid category %q", p.Category)
	case p.Discount < 0 || p.Discount > 100:
		return invalid("discount must be between 0 and 100")
	case p.CountInStock < 0:
		return invalid("countInStock must not be negative")
	}
	return nil
}

func (s *ProductService) setCache(key string, p *model.Product) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, key, p); err != nil {
			logger.L().Warn("product cache set failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *ProductService) invalidate(keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.L().Warn("product cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
