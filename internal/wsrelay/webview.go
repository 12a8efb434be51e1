package wsrelay

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/router-for-me/AppleWebAuth/internal/auth/apple"
	"github.com/router-for-me/AppleWebAuth/internal/bridge"
)

// RemoteWebView drives a webview running in a connected shell. It implements
// apple.WebView and apple.Registrar: bridges registered here are announced to
// the shell, and the shell's bridge calls are dispatched to them.
type RemoteWebView struct {
	session  *session
	registry *bridge.Registry

	mu     sync.RWMutex
	loader apple.ResourceLoader
}

var (
	_ apple.WebView   = (*RemoteWebView)(nil)
	_ apple.Registrar = (*RemoteWebView)(nil)
)

func newRemoteWebView(s *session) *RemoteWebView {
	return &RemoteWebView{
		session:  s,
		registry: bridge.NewRegistry(),
		loader:   apple.DefaultResourceLoader,
	}
}

// ID returns the connection identifier.
func (v *RemoteWebView) ID() string {
	return v.session.id
}

// Closed is closed when the shell disconnects or dismisses the webview.
func (v *RemoteWebView) Closed() <-chan struct{} {
	return v.session.closed
}

// Err returns why the view closed, or nil while it is open.
func (v *RemoteWebView) Err() error {
	select {
	case <-v.session.closed:
		return v.session.closeErr
	default:
		return nil
	}
}

// SetResourceLoader installs the loader notified about every resource load.
func (v *RemoteWebView) SetResourceLoader(loader apple.ResourceLoader) {
	if loader == nil {
		loader = apple.DefaultResourceLoader
	}
	v.mu.Lock()
	v.loader = loader
	v.mu.Unlock()
}

// Register exposes h to page scripts as window.<name>.
func (v *RemoteWebView) Register(name string, h bridge.Handler) error {
	if err := v.registry.Register(name, h); err != nil {
		return err
	}
	if err := v.command(MessageTypeBind, map[string]any{"name": name}); err != nil {
		v.registry.Unregister(name)
		return fmt.Errorf("wsrelay: bind %s: %w", name, err)
	}
	return nil
}

// Unregister removes the bridge registered under name.
func (v *RemoteWebView) Unregister(name string) {
	v.registry.Unregister(name)
	_ = v.command(MessageTypeUnbind, map[string]any{"name": name})
}

// LoadURL navigates the webview.
func (v *RemoteWebView) LoadURL(url string) error {
	return v.command(MessageTypeLoadURL, map[string]any{"url": url})
}

// StopLoading implements apple.WebView.
func (v *RemoteWebView) StopLoading() error {
	return v.command(MessageTypeStopLoading, nil)
}

// EvaluateScript implements apple.WebView.
func (v *RemoteWebView) EvaluateScript(script string) error {
	return v.command(MessageTypeEvaluateScript, map[string]any{"script": script})
}

// Close disconnects the shell.
func (v *RemoteWebView) Close() {
	v.session.cleanup(errClosed)
}

func (v *RemoteWebView) command(kind string, payload map[string]any) error {
	return v.session.send(Message{ID: uuid.NewString(), Type: kind, Payload: payload})
}

func (v *RemoteWebView) handleResourceLoad(url string) {
	v.mu.RLock()
	loader := v.loader
	v.mu.RUnlock()
	loader.OnLoadResource(v, url)
}

func (v *RemoteWebView) handleBridgeCall(name, method, arg string) error {
	return v.registry.Dispatch(name, method, arg)
}
