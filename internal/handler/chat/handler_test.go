package chat

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/medibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
)

type fakeComposer struct {
	mu       sync.Mutex
	messages []string
	users    []string
}

func (f *fakeComposer) Compose(_ context.Context, msg chat.Message, userID string) chat.Response {
	f.mu.Lock()
	f.messages = append(f.messages, msg.Text)
	f.users = append(f.users, userID)
	f.mu.Unlock()
	return chat.Response{Text: "echo: " + msg.Text, Emotion: emotion.Joy}
}

func setupRouter() (*chi.Mux, *fakeComposer) {
	composer := &fakeComposer{}
	handler := New(composer, func(*http.Request) bool { return true })

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), "user-1")))
		})
	})
	handler.RegisterRoutes(r)
	return r, composer
}

func TestChatJSONBody(t *testing.T) {
	r, composer := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"message":"I have a headache"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "echo: I have a headache" {
		t.Fatalf("unexpected body %q", got)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain, got %q", resp.Header().Get("Content-Type"))
	}
	if composer.users[0] != "user-1" {
		t.Fatalf("user id not forwarded: %q", composer.users[0])
	}
}

func TestChatFormField(t *testing.T) {
	r, _ := setupRouter()

	form := url.Values{"msg": {"what is insulin?"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Body.String() != "echo: what is insulin?" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestChatInvalidJSON(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatStream(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/chat/stream?message=hello", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := resp.Body.String()
	if !strings.Contains(body, "event: emotion\ndata: {\"label\":\"joy\"}") {
		t.Fatalf("missing emotion event: %q", body)
	}
	if !strings.Contains(body, "event: reply\ndata: {\"text\":\"echo: hello\"}") {
		t.Fatalf("missing reply event: %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/stream", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without message, got %d", resp.Code)
	}
}

func TestChatWebSocket(t *testing.T) {
	r, _ := setupRouter()
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()

	for _, text := range []string{"first", "second"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			t.Fatalf("write err: %v", err)
		}
		_, reply, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read err: %v", err)
		}
		if string(reply) != "echo: "+text {
			t.Fatalf("unexpected reply %q", reply)
		}
	}
}

func TestChatRejectsOversizedBody(t *testing.T) {
	r, composer := setupRouter()

	body := `{"message":"` + strings.Repeat("a", maxMessageBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}

	form := url.Values{"msg": {strings.Repeat("a", maxMessageBytes)}}
	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for form body, got %d", resp.Code)
	}
	if len(composer.messages) != 0 {
		t.Fatalf("oversized message reached the composer")
	}
}

func TestChatWebSocketClosesOnOversizedFrame(t *testing.T) {
	r, composer := setupRouter()
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, bytes.Repeat([]byte("a"), maxMessageBytes+1)); err != nil {
		t.Fatalf("write err: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseMessageTooBig) {
		t.Fatalf("expected close 1009, got %v", err)
	}

	composer.mu.Lock()
	defer composer.mu.Unlock()
	if len(composer.messages) != 0 {
		t.Fatalf("oversized frame reached the composer")
	}
}
