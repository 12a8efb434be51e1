package wsrelay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readTimeout          = 60 * time.Second
	writeTimeout         = 10 * time.Second
	maxInboundMessageLen = 1 << 20 // 1 MiB
	heartbeatInterval    = 30 * time.Second
)

var (
	errClosed = errors.New("websocket session closed")

	// ErrViewDismissed is reported when the shell closes the webview.
	ErrViewDismissed = errors.New("wsrelay: webview dismissed")
)

type session struct {
	conn       *websocket.Conn
	manager    *Manager
	id         string
	view       *RemoteWebView
	closed     chan struct{}
	closeOnce  sync.Once
	closeErr   error
	writeMutex sync.Mutex
}

func newSession(conn *websocket.Conn, mgr *Manager, id string) *session {
	s := &session{
		conn:    conn,
		manager: mgr,
		id:      id,
		closed:  make(chan struct{}),
	}
	s.view = newRemoteWebView(s)
	conn.SetReadLimit(maxInboundMessageLen)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	s.startHeartbeat()
	return s
}

func (s *session) startHeartbeat() {
	if s == nil || s.conn == nil {
		return
	}
	ticker := time.NewTicker(heartbeatInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.closed:
				return
			case <-ticker.C:
				s.writeMutex.Lock()
				err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout))
				s.writeMutex.Unlock()
				if err != nil {
					s.cleanup(err)
					return
				}
			}
		}
	}()
}

// run reads shell messages in order; every resource load and bridge call of a
// webview is handled on this goroutine.
func (s *session) run() {
	defer s.cleanup(errClosed)
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.cleanup(err)
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if stop := s.dispatch(msg); stop {
			return
		}
	}
}

func (s *session) dispatch(msg Message) bool {
	switch msg.Type {
	case MessageTypePing:
		_ = s.send(Message{ID: msg.ID, Type: MessageTypePong})
	case MessageTypeResourceLoad:
		s.view.handleResourceLoad(payloadString(msg, "url"))
	case MessageTypeBridgeCall:
		name := payloadString(msg, "name")
		method := payloadString(msg, "method")
		if err := s.view.handleBridgeCall(name, method, payloadString(msg, "arg")); err != nil {
			s.manager.logWarnf("wsrelay: bridge call %s.%s failed: %v", name, method, err)
			_ = s.send(Message{ID: msg.ID, Type: MessageTypeError, Payload: map[string]any{"error": err.Error()}})
		}
	case MessageTypeClosed:
		s.cleanup(ErrViewDismissed)
		return true
	default:
		s.manager.logDebugf("wsrelay: ignoring message type %q from webview %s", msg.Type, s.id)
	}
	return false
}

func (s *session) send(msg Message) error {
	select {
	case <-s.closed:
		return errClosed
	default:
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func (s *session) cleanup(cause error) {
	s.closeOnce.Do(func() {
		s.closeErr = cause
		if s.manager != nil {
			s.manager.handleSessionClosed(s, cause)
		}
		close(s.closed)
		_ = s.conn.Close()
	})
}
