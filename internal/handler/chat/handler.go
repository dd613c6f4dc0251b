package chat

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// Composer produces the reply to a user message.
type Composer interface {
	Compose(ctx context.Context, msg chat.Message, userID string) chat.Response
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	composer Composer
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New 创建聊天处理器。checkOrigin 为空时只接受同源的 websocket 连接。
func New(composer Composer, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		composer: composer,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.Component("chat"),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/stream", h.handleStream)
	r.Get("/chat/ws", h.handleWebSocket)
}

// handleChat accepts {"message": "..."} as JSON or a "msg" form field and replies with plain text.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	text, err := readMessage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "message too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := middleware.UserID(r.Context())
	resp := h.composer.Compose(r.Context(), chat.Message{Text: text}, userID)
	utils.RespondText(w, http.StatusOK, resp.Text)
}

func readMessage(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var payload chat.Message
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return "", err
		}
		return payload.Text, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.FormValue("msg"), nil
}

// streamEvent is the payload of the "reply" SSE event.
type streamEvent struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
}

// handleStream answers ?message= over Server-Sent Events: an "emotion" event followed by a "reply" event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	text := r.URL.Query().Get("message")
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	userID, _ := middleware.UserID(r.Context())
	resp := h.composer.Compose(r.Context(), chat.Message{Text: text}, userID)
	if r.Context().Err() != nil {
		return
	}

	utils.SendSSEEvent(w, flusher, "emotion", map[string]string{"label": string(resp.Emotion)})
	utils.SendSSEEvent(w, flusher, "reply", streamEvent{Text: resp.Text, Failed: resp.Failed})
}
