// Carga un catálogo de demo. Se puede correr varias veces: los slugs existentes se saltean.
package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/config"
	"storefront-service/internal/logger"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
)

func unsplash(id string) []string {
	return []string{"https://images.unsplash.com/" + id + "?w=500"}
}

var demoProducts = []model.Product{
	// Mobiles
	{
		Name: "iPhone 15 Pro Max", Description: "Latest iPhone with A17 Pro chip, titanium design, and advanced camera system",
		Price: 1199.99, Images: unsplash("photo-1695048133142-1a20484d2569"), Category: "Mobiles", Brand: "Apple",
		Rating: 4.8, NumReviews: 245, CountInStock: 50, IsFeatured: true, Discount: 5,
		Attributes: map[string]any{"storage": "256GB", "color": "Natural Titanium", "ram": "8GB"},
	},
	{
		Name: "Samsung Galaxy S24 Ultra", Description: "Flagship Android phone with S Pen, 200MP camera, and AI features",
		Price: 1099.99, Images: unsplash("photo-1610945415295-d9bbf067e59c"), Category: "Mobiles", Brand: "Samsung",
		Rating: 4.7, NumReviews: 189, CountInStock: 45, IsFeatured: true, Discount: 8,
		Attributes: map[string]any{"storage": "512GB", "color": "Titanium Gray", "ram": "12GB"},
	},
	{
		Name: "Google Pixel 8 Pro", Description: "Pure Android experience with best-in-class AI photography",
		Price: 899.99, Images: unsplash("photo-1598327105666-5b89351aff97"), Category: "Mobiles", Brand: "Google",
		Rating: 4.6, NumReviews: 156, CountInStock: 40, Discount: 10,
		Attributes: map[string]any{"storage": "128GB", "color": "Obsidian", "ram": "12GB"},
	},
	// Dresses
	{
		Name: "Floral Summer Maxi Dress", Description: "Lightweight flowy maxi dress with floral print",
		Price: 59.99, Images: unsplash("photo-1572804013309-59a88b7e92f1"), Category: "Dresses", Brand: "Zara",
		Rating: 4.4, NumReviews: 88, CountInStock: 70, IsFeatured: true, Discount: 15,
		Attributes: map[string]any{"size": "M", "color": "Blue", "material": "Cotton"},
	},
	{
		Name: "Classic Little Black Dress", Description: "Timeless fitted black dress for any occasion",
		Price: 79.99, Images: unsplash("photo-1595777457583-95e059d581b8"), Category: "Dresses", Brand: "H&M",
		Rating: 4.6, NumReviews: 120, CountInStock: 55,
		Attributes: map[string]any{"size": "S", "color": "Black", "material": "Polyester"},
	},
	// Shoes
	{
		Name: "Nike Air Max 270", Description: "Everyday sneaker with a large Max Air heel unit",
		Price: 149.99, Images: unsplash("photo-1542291026-7eec264c27ff"), Category: "Shoes", Brand: "Nike",
		Rating: 4.7, NumReviews: 310, CountInStock: 80, IsFeatured: true, Discount: 10,
		Attributes: map[string]any{"size": "42", "color": "Red"},
	},
	{
		Name: "Adidas Ultraboost 23", Description: "Responsive running shoe with Boost cushioning",
		Price: 189.99, Images: unsplash("photo-1608231387042-66d1773070a5"), Category: "Shoes", Brand: "Adidas",
		Rating: 4.5, NumReviews: 97, CountInStock: 35,
		Attributes: map[string]any{"size": "41", "color": "White"},
	},
	// Accessories
	{
		Name: "Leather Crossbody Bag", Description: "Compact genuine leather bag with adjustable strap",
		Price: 89.99, Images: unsplash("photo-1548036328-c9fa89d128fa"), Category: "Accessories", Brand: "Fossil",
		Rating: 4.3, NumReviews: 64, CountInStock: 25, Discount: 5,
		Attributes: map[string]any{"color": "Brown", "material": "Leather"},
	},
	{
		Name: "Classic Aviator Sunglasses", Description: "Polarized aviator sunglasses with metal frame",
		Price: 129.99, Images: unsplash("photo-1511499767150-a48a237f0083"), Category: "Accessories", Brand: "Ray-Ban",
		Rating: 4.8, NumReviews: 210, CountInStock: 60, IsFeatured: true,
		Attributes: map[string]any{"color": "Gold", "lens": "Polarized"},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("config", zap.Error(err))
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	repo := repository.NewMongoProductRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("ensure indexes", zap.Error(err))
	}

	var inserted, skipped int
	for i := range demoProducts {
		p := demoProducts[i]
		p.Slug = service.Slugify(p.Name)

		err := repo.Insert(ctx, &p)
		switch {
		case errors.Is(err, repository.ErrSlugTaken):
			skipped++
		case err != nil:
			log.Fatal("insert product", zap.String("slug", p.Slug), zap.Error(err))
		default:
			inserted++
		}
	}

	log.Info("seed terminado", zap.Int("inserted", inserted), zap.Int("skipped", skipped))
}
