package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductQuery son los filtros del listado del catálogo. La búsqueda usa el índice de texto.
type ProductQuery struct {
	Category string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     string // p.ej. "-createdAt", "price"
	Page     int64
	Limit    int64
}

var sortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating",
}

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

func (m *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "brand", Value: "text"},
				{Key: "category", Value: "text"},
			},
		},
	}

	if _, err := m.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func (q ProductQuery) filter() bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	return filter
}

func parseSort(s string) bson.D {
	dir := 1
	if strings.HasPrefix(s, "-") {
		dir = -1
		s = strings.TrimPrefix(s, "-")
	}
	field, ok := sortFields[s]
	if !ok {
		return bson.D{{Key: "created_at", Value: -1}}
	}
	return bson.D{{Key: field, Value: dir}}
}

func (m *MongoProductRepository) List(ctx context.Context, q ProductQuery) ([]*model.Product, error) {
	opts := options.Find().
		SetSort(parseSort(q.Sort)).
		SetLimit(q.Limit).
		SetSkip((q.Page - 1) * q.Limit)

	cur, err := m.col.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return decodeAll[model.Product](ctx, cur)
}

func (m *MongoProductRepository) Count(ctx context.Context, q ProductQuery) (int64, error) {
	return m.col.CountDocuments(ctx, q.filter())
}

func (m *MongoProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoProductRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return m.findOne(ctx, bson.M{"slug": slug})
}

func (m *MongoProductRepository) findOne(ctx context.Context, filter bson.M) (*model.Product, error) {
	var p model.Product
	err := m.col.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (m *MongoProductRepository) Insert(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := m.col.InsertOne(ctx, p); err != nil {
		p.ID = primitive.NilObjectID
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Replace reescribe el producto completo manteniendo created_at.
func (m *MongoProductRepository) Replace(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete borra y devuelve el producto eliminado (para invalidar la caché por slug).
func (m *MongoProductRepository) Delete(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var p model.Product
	err = m.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return &p, nil
}
