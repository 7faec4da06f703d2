package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRevoke(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectSet("revoked:abc", "1", 30*time.Minute).SetVal("OK")

	require.NoError(t, store.Revoke(context.Background(), "abc", 30*time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreRevokeSkipsExpiredTokens(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	require.NoError(t, store.Revoke(context.Background(), "abc", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreIsRevoked(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		want    bool
		wantErr bool
	}{
		{
			name:  "revoked",
			setup: func(mock redismock.ClientMock) { mock.ExpectGet("revoked:abc").SetVal("1") },
			want:  true,
		},
		{
			name:  "unknown jti",
			setup: func(mock redismock.ClientMock) { mock.ExpectGet("revoked:abc").RedisNil() },
			want:  false,
		},
		{
			name:    "redis down",
			setup:   func(mock redismock.ClientMock) { mock.ExpectGet("revoked:abc").SetErr(errors.New("connection refused")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setup(mock)

			got, err := NewRedisStore(client).IsRevoked(context.Background(), "abc")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNoopStore(t *testing.T) {
	var store Store = NoopStore{}
	require.NoError(t, store.Revoke(context.Background(), "abc", time.Hour))

	revoked, err := store.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}
