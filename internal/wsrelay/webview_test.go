package wsrelay

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/router-for-me/AppleWebAuth/internal/auth/apple"
)

type relayHarness struct {
	manager *Manager
	server  *httptest.Server
	conn    *websocket.Conn
	view    *RemoteWebView
}

func newRelayHarness(t *testing.T) *relayHarness {
	t.Helper()
	connected := make(chan *RemoteWebView, 1)
	manager := NewManager(Options{
		Path:        "/v1/webview",
		OnConnected: func(v *RemoteWebView) { connected <- v },
	})
	server := httptest.NewServer(manager.Handler())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/webview"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	select {
	case view := <-connected:
		return &relayHarness{manager: manager, server: server, conn: conn, view: view}
	case <-time.After(2 * time.Second):
		t.Fatal("webview did not connect")
	}
	return nil
}

func (h *relayHarness) read(t *testing.T) Message {
	t.Helper()
	_ = h.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := h.conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read from host: %v", err)
	}
	return msg
}

func (h *relayHarness) write(t *testing.T, msg Message) {
	t.Helper()
	if err := h.conn.WriteJSON(msg); err != nil {
		t.Fatalf("write to host: %v", err)
	}
}

func TestRemoteWebView_LoginFlow(t *testing.T) {
	h := newRelayHarness(t)
	if h.manager.View(h.view.ID()) != h.view {
		t.Fatal("View should return the connected webview")
	}

	results := make(chan apple.Result, 1)
	session, err := apple.NewSession(h.view, apple.SessionOptions{
		ExpectedState: "s",
		InterceptURL:  "auth/callback",
		OnResult:      func(r apple.Result) { results <- r },
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()
	h.view.SetResourceLoader(session.ResourceLoader())

	bind := h.read(t)
	if bind.Type != MessageTypeBind || payloadString(bind, "name") != "FormInterceptorInterface" {
		t.Fatalf("expected bind before navigation, got %+v", bind)
	}
	if err = h.view.LoadURL("https://appleid.apple.com/auth/authorize"); err != nil {
		t.Fatalf("LoadURL: %v", err)
	}
	if msg := h.read(t); msg.Type != MessageTypeLoadURL {
		t.Fatalf("expected load_url, got %+v", msg)
	}

	h.write(t, Message{ID: "1", Type: MessageTypeResourceLoad, Payload: map[string]any{"url": "https://x/login"}})
	h.write(t, Message{ID: "2", Type: MessageTypeResourceLoad, Payload: map[string]any{"url": "https://x/auth/callback?x=1"}})

	if msg := h.read(t); msg.Type != MessageTypeStopLoading {
		t.Fatalf("expected stop_loading, got %+v", msg)
	}
	eval := h.read(t)
	if eval.Type != MessageTypeEvaluateScript || !strings.Contains(payloadString(eval, "script"), "processFormData") {
		t.Fatalf("expected evaluate_script with the form collector, got %+v", eval)
	}

	h.write(t, Message{ID: "3", Type: MessageTypeBridgeCall, Payload: map[string]any{
		"name":   "FormInterceptorInterface",
		"method": "processFormData",
		"arg":    "state=s|code=C|",
	}})

	select {
	case result := <-results:
		if success, ok := result.(apple.Success); !ok || success.Code != "C" {
			t.Fatalf("unexpected result %v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}
}

func TestRemoteWebView_UnknownBridgeReportsError(t *testing.T) {
	h := newRelayHarness(t)

	h.write(t, Message{ID: "7", Type: MessageTypeBridgeCall, Payload: map[string]any{"name": "Nope", "method": "x"}})
	msg := h.read(t)
	if msg.Type != MessageTypeError || msg.ID != "7" {
		t.Fatalf("expected error reply, got %+v", msg)
	}
}

func TestRemoteWebView_Ping(t *testing.T) {
	h := newRelayHarness(t)

	h.write(t, Message{ID: "p", Type: MessageTypePing})
	if msg := h.read(t); msg.Type != MessageTypePong || msg.ID != "p" {
		t.Fatalf("expected pong, got %+v", msg)
	}
}

func TestRemoteWebView_Dismissed(t *testing.T) {
	h := newRelayHarness(t)

	h.write(t, Message{ID: "c", Type: MessageTypeClosed})
	select {
	case <-h.view.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("view should close after dismissal")
	}
	if !errors.Is(h.view.Err(), ErrViewDismissed) {
		t.Fatalf("Err = %v, want ErrViewDismissed", h.view.Err())
	}
	if err := h.view.EvaluateScript("1"); err == nil {
		t.Fatal("commands on a closed view should fail")
	}
	if h.manager.View(h.view.ID()) != nil {
		t.Fatal("closed view should be removed from the manager")
	}
}
