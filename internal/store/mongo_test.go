package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func mockStore(mt *mtest.T) *Store {
	return &Store{
		client: mt.Client,
		jobs:   mt.Coll,
		config: mt.DB.Collection("config"),
		log:    zap.NewNop().Sugar(),
	}
}

func TestClaimJobEmptyQueue(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no documents", func(mt *mtest.T) {
		// findAndModify без совпадений: value == null
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		job, err := mockStore(mt).ClaimJob(context.Background(), StatusNewDM, StatusPendingReply, "std-1")
		require.NoError(mt, err)
		assert.Nil(mt, job, "пустая очередь — это не ошибка")
	})
}

func TestClaimJobReturnsClaimedJob(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("claimed", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "type", Value: TypeDMFlow},
				{Key: "status", Value: StatusPendingReply},
				{Key: "sender_id", Value: int64(42)},
				{Key: "claimed_by", Value: "std-1"},
			}},
		})

		job, err := mockStore(mt).ClaimJob(context.Background(), StatusNewDM, StatusPendingReply, "std-1")
		require.NoError(mt, err)
		require.NotNil(mt, job)
		// ReturnDocument(After): видим уже переведённую и заклеймленную задачу
		assert.Equal(mt, id, job.ID)
		assert.Equal(mt, StatusPendingReply, job.Status)
		assert.Equal(mt, "std-1", job.ClaimedBy)
		assert.Equal(mt, int64(42), job.SenderID)
	})
}

func TestConfigInt64BSONForms(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	// id группы мог сохраниться в любой числовой форме BSON
	cases := []struct {
		name  string
		value interface{}
	}{
		{"int32", int32(-100123)},
		{"int64", int64(-100123)},
		{"double", float64(-100123)},
	}
	for _, tc := range cases {
		mt.Run(tc.name, func(mt *mtest.T) {
			s := mockStore(mt)
			ns := mt.DB.Name() + ".config"
			mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "key", Value: KeyInboxGroupID},
				{Key: "value", Value: tc.value},
			}))

			got, ok := s.ConfigInt64(context.Background(), KeyInboxGroupID)
			require.True(mt, ok)
			assert.Equal(mt, int64(-100123), got)
		})
	}

	mt.Run("missing", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := mt.DB.Name() + ".config"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, ok := s.ConfigInt64(context.Background(), KeyInboxGroupID)
		assert.False(mt, ok)
	})
}

func TestConfigString(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("set", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := mt.DB.Name() + ".config"
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "key", Value: KeySessionToken},
			{Key: "value", Value: "123:abc"},
		}))

		got, ok := s.ConfigString(context.Background(), KeySessionToken)
		require.True(mt, ok)
		assert.Equal(mt, "123:abc", got)
	})

	mt.Run("empty value counts as unset", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := mt.DB.Name() + ".config"
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "key", Value: KeySessionToken},
			{Key: "value", Value: ""},
		}))

		_, ok := s.ConfigString(context.Background(), KeySessionToken)
		assert.False(mt, ok)
	})
}

func TestFindPendingByGroupMessage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		s := mockStore(mt)
		id := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: StatusPendingReply},
			{Key: "group_message_id", Value: int64(777)},
		}))

		job, err := s.FindPendingByGroupMessage(context.Background(), 777)
		require.NoError(mt, err)
		require.NotNil(mt, job)
		assert.Equal(mt, id, job.ID)
		assert.Equal(mt, int64(777), job.GroupMessageID)
	})

	mt.Run("reply is not a mirror", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		job, err := s.FindPendingByGroupMessage(context.Background(), 777)
		require.NoError(mt, err)
		assert.Nil(mt, job)
	})
}
