package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultDatabase — имя БД по умолчанию; конфиг берёт дефолт отсюда.
const DefaultDatabase = "ultimate_hybrid_shieldbot"

type Store struct {
	client *mongo.Client
	jobs   *mongo.Collection
	config *mongo.Collection
	log    *zap.SugaredLogger
}

// Open подключается к MongoDB, проверяет соединение и готовит индексы.
func Open(ctx context.Context, uri, dbName string, log *zap.SugaredLogger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client: client,
		jobs:   db.Collection("jobs"),
		config: db.Collection("config"),
		log:    log,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		// без индексов жить можно, падать не надо
		log.Warnw("индексы не создались", "err", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "group_topic_id", Value: 1}}},
		{Keys: bson.D{{Key: "group_message_id", Value: 1}}},
		{Keys: bson.D{{Key: "dm_message_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.config.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
