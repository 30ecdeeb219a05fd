package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EgorLis/Shieldbot/internal/content"
)

// Статусы задачи. Переходы:
//
//	NEW_DM → PENDING_REPLY → READY_TO_SEND → SENDING → COMPLETED
//	                                                 ↘ ERROR (терминальный)
const (
	StatusNewDM        = "NEW_DM"
	StatusPendingReply = "PENDING_REPLY"
	StatusReadyToSend  = "READY_TO_SEND"
	StatusSending      = "SENDING"
	StatusCompleted    = "COMPLETED"
	StatusError        = "ERROR"
)

const (
	TypeDMFlow     = "DM_FLOW"
	TypeManualSend = "MANUAL_SEND"
)

type Job struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Type           string             `bson:"type"`
	Status         string             `bson:"status"`
	SenderID       int64              `bson:"sender_id"`
	TargetChatID   int64              `bson:"target_chat_id"`
	DMMessageID    int64              `bson:"dm_message_id,omitempty"`
	GroupTopicID   int64              `bson:"group_topic_id,omitempty"`
	GroupMessageID int64              `bson:"group_message_id,omitempty"`
	ContentIn      *content.Payload   `bson:"content_in,omitempty"`
	ContentOut     *content.Payload   `bson:"content_out,omitempty"`
	Error          string             `bson:"error,omitempty"`
	ClaimedBy      string             `bson:"claimed_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// NewDMJob — задача по входящей личке end-юзера.
func NewDMJob(senderID, chatID, messageID int64, in *content.Payload) *Job {
	now := time.Now().UTC()
	return &Job{
		Type:         TypeDMFlow,
		Status:       StatusNewDM,
		SenderID:     senderID,
		TargetChatID: chatID,
		DMMessageID:  messageID,
		ContentIn:    in,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ManualSendJob — ручная защищённая отправка владельца (/send_protected).
// Сразу READY_TO_SEND: зеркалить её некуда и незачем.
func ManualSendJob(ownerID, targetChatID int64, out *content.Payload) *Job {
	now := time.Now().UTC()
	return &Job{
		Type:         TypeManualSend,
		Status:       StatusReadyToSend,
		SenderID:     ownerID,
		TargetChatID: targetChatID,
		ContentOut:   out,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TargetID — куда слать: target_chat_id, иначе обратно отправителю.
func (j *Job) TargetID() int64 {
	if j.TargetChatID != 0 {
		return j.TargetChatID
	}
	return j.SenderID
}

func (s *Store) InsertJob(ctx context.Context, j *Job) (primitive.ObjectID, error) {
	res, err := s.jobs.InsertOne(ctx, j)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	j.ID = id
	return id, nil
}

// ClaimJob атомарно забирает самую старую задачу из статуса from в to.
// (nil, nil) — очередь пуста. Два воркера одной роли не возьмут одну
// задачу дважды: findOneAndUpdate делает claim за одну операцию.
func (s *Store) ClaimJob(ctx context.Context, from, to, workerID string) (*Job, error) {
	var job Job
	err := s.jobs.FindOneAndUpdate(ctx,
		bson.M{"status": from},
		bson.M{"$set": bson.M{
			"status":     to,
			"claimed_by": workerID,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Store) SetJobStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.jobs.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// MarkJobError переводит задачу в терминальный ERROR с текстом причины.
func (s *Store) MarkJobError(ctx context.Context, id primitive.ObjectID, cause error) error {
	_, err := s.jobs.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     StatusError,
		"error":      cause.Error(),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AttachGroupMessage фиксирует, куда легло зеркало в инбокс-группе.
func (s *Store) AttachGroupMessage(ctx context.Context, id primitive.ObjectID, topicID, messageID int64) error {
	_, err := s.jobs.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"group_topic_id":   topicID,
		"group_message_id": messageID,
		"status":           StatusPendingReply,
		"updated_at":       time.Now().UTC(),
	}})
	return err
}

// SetJobReply кладёт ответ владельца и открывает задачу для user-бота.
func (s *Store) SetJobReply(ctx context.Context, id primitive.ObjectID, out *content.Payload) error {
	_, err := s.jobs.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"content_out": out,
		"status":      StatusReadyToSend,
		"updated_at":  time.Now().UTC(),
	}})
	return err
}

// FindPendingByGroupMessage ищет задачу, на зеркало которой ответил
// владелец. (nil, nil) — реплай не на зеркало.
func (s *Store) FindPendingByGroupMessage(ctx context.Context, groupMessageID int64) (*Job, error) {
	var job Job
	err := s.jobs.FindOne(ctx, bson.M{
		"status":           StatusPendingReply,
		"group_message_id": groupMessageID,
	}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// LastTopicForSender — тема, в которую уже зеркалили этого отправителя
// (индекс sender_id+group_topic_id). 0 — темы ещё не было.
func (s *Store) LastTopicForSender(ctx context.Context, senderID int64) (int64, error) {
	var job Job
	err := s.jobs.FindOne(ctx,
		bson.M{"sender_id": senderID, "group_topic_id": bson.M{"$gt": 0}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return job.GroupTopicID, nil
}

// CountByStatus — сводка очереди для /status и ops-сервера.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.jobs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.N
	}
	return counts, cur.Err()
}
