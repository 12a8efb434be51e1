// Package wsrelay exposes a websocket endpoint for embedded-browser shells. A
// shell reports resource loads and page bridge calls; the host answers with
// navigation commands and script evaluation. Each connection is one RemoteWebView.
package wsrelay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Manager accepts webview shell connections.
type Manager struct {
	path      string
	upgrader  websocket.Upgrader
	sessions  map[string]*session
	sessMutex sync.RWMutex

	onConnected    func(*RemoteWebView)
	onDisconnected func(string, error)

	logDebugf func(string, ...any)
	logInfof  func(string, ...any)
	logWarnf  func(string, ...any)
}

// Options configures a Manager instance.
type Options struct {
	Path           string
	OnConnected    func(*RemoteWebView)
	OnDisconnected func(string, error)
	LogDebugf      func(string, ...any)
	LogInfof       func(string, ...any)
	LogWarnf       func(string, ...any)
}

// NewManager builds a websocket relay manager with the supplied options.
func NewManager(opts Options) *Manager {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = "/v1/webview"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	mgr := &Manager{
		path:     path,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		onConnected:    opts.OnConnected,
		onDisconnected: opts.OnDisconnected,
		logDebugf:      opts.LogDebugf,
		logInfof:       opts.LogInfof,
		logWarnf:       opts.LogWarnf,
	}
	if mgr.logDebugf == nil {
		mgr.logDebugf = func(string, ...any) {}
	}
	if mgr.logInfof == nil {
		mgr.logInfof = func(string, ...any) {}
	}
	if mgr.logWarnf == nil {
		mgr.logWarnf = func(s string, args ...any) { fmt.Printf(s+"\n", args...) }
	}
	return mgr
}

// Path returns the HTTP path the manager expects for websocket upgrades.
func (m *Manager) Path() string {
	if m == nil {
		return "/v1/webview"
	}
	return m.path
}

// Handler exposes an http.Handler that upgrades connections to webview sessions.
func (m *Manager) Handler() http.Handler {
	return http.HandlerFunc(m.handleWebsocket)
}

// View returns the connected webview with the given id.
func (m *Manager) View(id string) *RemoteWebView {
	m.sessMutex.RLock()
	s := m.sessions[id]
	m.sessMutex.RUnlock()
	if s == nil {
		return nil
	}
	return s.view
}

// Stop gracefully closes all active webview sessions.
func (m *Manager) Stop(_ context.Context) error {
	m.sessMutex.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*session)
	m.sessMutex.Unlock()

	for _, sess := range sessions {
		if sess != nil {
			sess.cleanup(errors.New("wsrelay: manager stopped"))
		}
	}
	return nil
}

// handleWebsocket upgrades the connection and wires the session into the pool.
func (m *Manager) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	expectedPath := m.Path()
	if expectedPath != "" && r.URL != nil && r.URL.Path != expectedPath {
		http.NotFound(w, r)
		return
	}
	if !strings.EqualFold(r.Method, http.MethodGet) {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logWarnf("wsrelay: upgrade failed: %v", err)
		return
	}
	s := newSession(conn, m, uuid.NewString())

	m.sessMutex.Lock()
	m.sessions[s.id] = s
	m.sessMutex.Unlock()

	m.logInfof("wsrelay: webview %s connected from %s", s.id, r.RemoteAddr)
	if m.onConnected != nil {
		m.onConnected(s.view)
	}

	go s.run()
}

func (m *Manager) handleSessionClosed(s *session, cause error) {
	if s == nil {
		return
	}
	m.sessMutex.Lock()
	if cur, ok := m.sessions[s.id]; ok && cur == s {
		delete(m.sessions, s.id)
	}
	m.sessMutex.Unlock()
	m.logInfof("wsrelay: webview %s disconnected: %v", s.id, cause)
	if m.onDisconnected != nil {
		m.onDisconnected(s.id, cause)
	}
}
