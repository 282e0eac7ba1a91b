package service

import (
	"context"

	"storefront-service/internal/dto"
	"storefront-service/internal/repository"

	"golang.org/x/sync/errgroup"
)

type AdminService struct {
	orders   OrderRepository
	products ProductRepository
}

func NewAdminService(orders OrderRepository, products ProductRepository) *AdminService {
	return &AdminService{orders: orders, products: products}
}

// Stats resume catálogo y ventas para el dashboard. Las tres consultas corren en paralelo.
func (s *AdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	var stats dto.StatsResponse
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.products.Count(gctx, repository.ProductQuery{})
		stats.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := s.orders.Count(gctx)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		revenue, err := s.orders.SumRevenue(gctx)
		stats.TotalRevenue = revenue
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
