package redis

import (
	"context"
	"log/slog"
	"member-chat/domain"
	"member-chat/presence"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestNewBus_Rejects_Bad_URL(t *testing.T) {
	req := require.New(t)
	_, err := NewBus(context.Background(), "not a url", 8, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.Error(err)
}

func TestNewBus_Unreachable_Server(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewBus(ctx, "redis://127.0.0.1:1/0", 8, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.ErrorContains(err, "ping")
}

func TestChannel_Per_Room(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	u := presence.Update{RoomID: roomID, State: domain.PresenceState{UserID: "alice", Online: true}}
	req.Equal("presence:"+roomID.String(), channel(u))
}
