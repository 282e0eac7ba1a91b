package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes crea los índices de órdenes. El índice único sobre checkout_session_id
// es el que hace idempotente la conciliación del webhook.
func (m *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "checkout_session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_checkout_session").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"checkout_session_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	if _, err := m.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// Insert guarda una orden nueva. Asigna id, timestamps y el primer registro del historial.
func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()

	o.ID = primitive.NewObjectID()
	o.CreatedAt = now
	o.UpdatedAt = now
	if len(o.History) == 0 {
		o.History = []model.StatusRecord{
			{
				Status:    o.Status,
				Reason:    "Orden creada",
				UserID:    o.UserID,
				Timestamp: now,
				Current:   true,
			},
		}
	}

	if _, err := m.col.InsertOne(ctx, o); err != nil {
		o.ID = primitive.NilObjectID
		if mongo.IsDuplicateKeyError(err) && o.CheckoutSessionID != "" {
			return ErrDuplicatePaymentSession
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoOrderRepository) FindByCheckoutSessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	return m.findOne(ctx, bson.M{"checkout_session_id": sessionID})
}

func (m *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, filter).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &res, nil
}

// FindByUserID devuelve las órdenes del usuario, más nuevas primero.
func (m *MongoOrderRepository) FindByUserID(ctx context.Context, userID string, limit int64) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := m.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	return decodeAll[model.Order](ctx, cur)
}

// FindAll lista todas las órdenes; con status vacío no filtra.
func (m *MongoOrderRepository) FindAll(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	return decodeAll[model.Order](ctx, cur)
}

// UpdateStatus cambia el estado solo si la orden sigue en `from`, y agrega el registro al historial.
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, record model.StatusRecord) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	// PASO 1: cambiar estado y desmarcar el registro vigente
	filter := bson.M{"_id": oid, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":              to,
			"updated_at":          time.Now().UTC(),
			"history.$[].current": false,
		},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}

	// PASO 2: pushear el nuevo registro
	record.Current = true
	_, err = m.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"history": record}})
	if err != nil {
		return fmt.Errorf("failed to push status record: %w", err)
	}
	return nil
}

func (m *MongoOrderRepository) Count(ctx context.Context) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{})
}

// SumRevenue suma total_price de todas las órdenes.
func (m *MongoOrderRepository) SumRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total_price"}}},
		}}},
	}

	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}
