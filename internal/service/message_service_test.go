package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	dbtest "opsportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedBroadcast struct {
	room    string
	payload []byte
}

type recordingBroadcaster struct {
	sent []capturedBroadcast
}

func (b *recordingBroadcaster) BroadcastToRoom(room string, payload []byte) {
	b.sent = append(b.sent, capturedBroadcast{room: room, payload: payload})
}

func TestPostMessageBroadcastsToRoom(t *testing.T) {
	db := dbtest.NewDB(t)
	hub := &recordingBroadcaster{}
	svc := service.NewMessageService(repository.NewMessageRepository(db), repository.NewUserRepository(db), hub, zap.NewNop())
	ctx := context.Background()
	lan := dbtest.User(t, db, "lan", model.RoleStaff, "Purchasing", nil)

	msg, err := svc.PostMessage(ctx, lan.ID.String(), " site-a ", service.PostMessageRequest{Body: " cement arrived "})
	require.NoError(t, err)
	assert.Equal(t, "site-a", msg.Room)
	assert.Equal(t, "cement arrived", msg.Body)
	assert.Equal(t, "lan", msg.Sender)

	require.Len(t, hub.sent, 1)
	assert.Equal(t, "site-a", hub.sent[0].room)
	var envelope struct {
		Type string                  `json:"type"`
		Data service.MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hub.sent[0].payload, &envelope))
	assert.Equal(t, "message", envelope.Type)
	assert.Equal(t, msg.ID, envelope.Data.ID)

	_, err = svc.PostMessage(ctx, lan.ID.String(), "site-b", service.PostMessageRequest{Body: "other room"})
	require.NoError(t, err)

	page, err := svc.ListMessages(ctx, "site-a", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, "lan", page.Messages[0].Sender)
}

func TestPostMessageValidation(t *testing.T) {
	db := dbtest.NewDB(t)
	hub := &recordingBroadcaster{}
	svc := service.NewMessageService(repository.NewMessageRepository(db), repository.NewUserRepository(db), hub, zap.NewNop())
	ctx := context.Background()
	lan := dbtest.User(t, db, "lan", model.RoleStaff, "Purchasing", nil)

	for _, tc := range []struct {
		room, body string
	}{
		{"", "hello"},
		{strings.Repeat("r", 101), "hello"},
		{"site-a", "   "},
		{"site-a", strings.Repeat("x", 4001)},
	} {
		_, err := svc.PostMessage(ctx, lan.ID.String(), tc.room, service.PostMessageRequest{Body: tc.body})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	}
	assert.Empty(t, hub.sent)
}
