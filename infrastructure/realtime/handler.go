// Package realtime serves the websocket flavour of the Connect stream and
// the health endpoint of the server.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"
	"member-chat/infrastructure/grpc/chatapi"
	"member-chat/runtime/workers"
	"member-chat/services"
	"member-chat/sink"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readTimeout = 60 * time.Second
	readLimit   = 64 << 10
)

// HealthSource returns the last health sample of the process.
type HealthSource interface {
	Snapshot() workers.Health
}

type Handler struct {
	chat       services.IChatService
	tokens     *auth.TokenManager
	health     HealthSource
	bufferSize int
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

func NewHandler(chat services.IChatService, tokens *auth.TokenManager, health HealthSource, bufferSize int, log *slog.Logger) *Handler {
	return &Handler{
		chat:       chat,
		tokens:     tokens,
		health:     health,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Authentication is token based, not cookie based
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/ws/rooms/{roomID}", h.ServeRoom).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
}

type inboundFrame struct {
	Type   string `json:"type"`
	Typing bool   `json:"typing"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ServeRoom joins the room before upgrading, so a refused caller gets a
// plain HTTP error instead of a socket that closes immediately.
func (h *Handler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromRequest(r, h.tokens)
	if err != nil {
		writeError(w, err)
		return
	}
	roomID, err := chatapi.ParseID("room_id", mux.Vars(r)["roomID"])
	if err != nil {
		writeError(w, err)
		return
	}

	connectionID := uuid.NewString()
	deliveries := sink.NewChannelSink(h.bufferSize)
	if err := h.chat.JoinRoom(r.Context(), id, roomID, connectionID, deliveries); err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := h.chat.LeaveRealtime(context.Background(), id, roomID, connectionID); err != nil {
			h.log.Warn("failed to leave room", "room_id", roomID, "user_id", id.UserID, "error", err)
		}
		deliveries.Close()
	}()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn := newConnection(ws, deliveries)
	go conn.writeLoop(h.log)
	defer conn.close(websocket.CloseNormalClosure, "session closed")

	h.readLoop(ws, conn, id, roomID)
}

func (h *Handler) readLoop(ws *websocket.Conn, conn *connection, id auth.Identity, roomID uuid.UUID) {
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Debug("websocket read stopped", "user_id", id.UserID, "room_id", roomID, "error", err)
			}
			return
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.reply(errorFrame{Type: "error", Error: "invalid payload"})
			continue
		}
		switch frame.Type {
		case "typing":
			cmd := domain.PresenceCommand{RoomID: roomID, Typing: frame.Typing}
			if err := h.chat.SetTyping(context.Background(), id, cmd); err != nil {
				conn.reply(errorFrame{Type: "error", Error: errors.UserMessage(err)})
			}
		default:
			conn.reply(errorFrame{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.health.Snapshot())
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(errorFrame{Type: "error", Error: errors.UserMessage(err)})
}
