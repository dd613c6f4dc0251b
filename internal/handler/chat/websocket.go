package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second

	// maxMessageBytes caps a chat message body or websocket frame.
	maxMessageBytes = 16 << 10
)

// handleWebSocket treats every text frame as a message and answers with one text frame.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("user", userID).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if messageType != websocket.TextMessage {
			continue
		}

		resp := h.composer.Compose(ctx, chat.Message{Text: string(data)}, userID)
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(resp.Text)); err != nil {
			h.log.Warn().Err(err).Msg("websocket write error")
			return
		}
	}
}

// pingLoop 定期发送ping消息。WriteControl 可以与 WriteMessage 并发调用。
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
