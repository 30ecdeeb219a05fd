package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ключи рантайм-конфигурации. Задаются внутри Telegram через std-бота
// и хранятся в БД — деплой для смены не нужен.
const (
	KeyInboxGroupID = "INBOX_GROUP_ID"
	KeySessionToken = "SESSION_TOKEN"
)

type configDoc struct {
	Key       string      `bson:"key"`
	Value     interface{} `bson:"value"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

func (s *Store) SetConfig(ctx context.Context, key string, value interface{}) error {
	_, err := s.config.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"key": key, "value": value, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

// ConfigString возвращает строковое значение ключа; false — не задан.
func (s *Store) ConfigString(ctx context.Context, key string) (string, bool) {
	doc, ok := s.findConfig(ctx, key)
	if !ok {
		return "", false
	}
	v, ok := doc.Value.(string)
	return v, ok && v != ""
}

// ConfigInt64 терпимо относится к числовым формам BSON:
// id группы мог сохраниться как int32, int64 или double.
func (s *Store) ConfigInt64(ctx context.Context, key string) (int64, bool) {
	doc, ok := s.findConfig(ctx, key)
	if !ok {
		return 0, false
	}
	switch v := doc.Value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func (s *Store) findConfig(ctx context.Context, key string) (*configDoc, bool) {
	var doc configDoc
	err := s.config.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Errorw("чтение конфига", "key", key, "err", err)
		}
		return nil, false
	}
	return &doc, true
}
