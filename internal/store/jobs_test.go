package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/Shieldbot/internal/content"
)

func TestNewDMJob(t *testing.T) {
	in := &content.Payload{Kind: content.KindText, Text: "hi"}
	j := NewDMJob(100, 200, 300, in)

	assert.Equal(t, TypeDMFlow, j.Type)
	assert.Equal(t, StatusNewDM, j.Status)
	assert.Equal(t, int64(100), j.SenderID)
	assert.Equal(t, int64(200), j.TargetChatID)
	assert.Equal(t, int64(300), j.DMMessageID)
	assert.Same(t, in, j.ContentIn)
	assert.Nil(t, j.ContentOut)
	require.False(t, j.CreatedAt.IsZero())
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)
}

func TestManualSendJobIsImmediatelyReady(t *testing.T) {
	out := &content.Payload{Kind: content.KindPhoto, FileID: "f"}
	j := ManualSendJob(1, -100500, out)

	assert.Equal(t, TypeManualSend, j.Type)
	assert.Equal(t, StatusReadyToSend, j.Status)
	assert.Equal(t, int64(-100500), j.TargetChatID)
	assert.Same(t, out, j.ContentOut)
	assert.Nil(t, j.ContentIn)
}

func TestJobTargetID(t *testing.T) {
	j := &Job{SenderID: 42, TargetChatID: 77}
	assert.Equal(t, int64(77), j.TargetID())

	// target не записан — ответ уходит отправителю
	j = &Job{SenderID: 42}
	assert.Equal(t, int64(42), j.TargetID())
}
