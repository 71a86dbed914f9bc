package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"distribute-bank/internal/config"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore журнал уведомлений в MongoDB. Уникальный индекс по
// transaction_id делает запись идемпотентной при повторной доставке.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	const op = "mongodb.NewMongoStore"

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctxPing, nil); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "transaction_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	ctxIndex, cancelIndex := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelIndex()
	if _, err := coll.Indexes().CreateOne(ctxIndex, indexModel); err != nil {
		return nil, fmt.Errorf("%s: индекс: %w", op, err)
	}

	return &MongoStore{
		client:     client,
		collection: coll,
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, record *models.NotificationRecord) error {
	const op = "mongodb.Save"

	record.CreatedAt = time.Now()

	_, err := s.collection.InsertOne(ctx, record)
	if err != nil {
		// повторная доставка того же события - не ошибка
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MongoStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.NotificationRecord, error) {
	const op = "mongodb.GetByTransactionID"

	var record models.NotificationRecord
	err := s.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &record, nil
}

func (s *MongoStore) GetAll(ctx context.Context) ([]*models.NotificationRecord, error) {
	const op = "mongodb.GetAll"

	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var records []*models.NotificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	ctxClose, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctxClose)
}
