package realtime

import (
	"encoding/json"
	"log/slog"
	"member-chat/infrastructure/grpc/chatapi"
	"member-chat/sink"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection owns every write on one websocket. Deliveries come from the
// room sink, replies from the read loop of the same socket.
type connection struct {
	ws         *websocket.Conn
	deliveries *sink.ChannelSink
	replies    chan any
	once       sync.Once
	done       chan struct{}
}

func newConnection(ws *websocket.Conn, deliveries *sink.ChannelSink) *connection {
	return &connection{
		ws:         ws,
		deliveries: deliveries,
		replies:    make(chan any, 8),
		done:       make(chan struct{}),
	}
}

// reply drops the frame when the writer is behind.
func (c *connection) reply(frame any) {
	select {
	case c.replies <- frame:
	case <-c.done:
	default:
	}
}

func (c *connection) close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *connection) writeLoop(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	// A failed write unblocks the read loop
	defer c.close(websocket.CloseGoingAway, "write failed")

	for {
		select {
		case <-c.done:
			return
		case d, ok := <-c.deliveries.Deliveries:
			if !ok {
				// The member left or was removed from the room
				c.close(websocket.ClosePolicyViolation, "membership ended")
				return
			}
			if err := c.writeJSON(chatapi.ToChatEvent(d)); err != nil {
				log.Debug("websocket write failed", "room_id", d.RoomID, "error", err)
				return
			}
		case frame := <-c.replies:
			if err := c.writeJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
