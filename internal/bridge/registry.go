// Package bridge implements the named message-passing boundary between page
// scripts and the host. The host registers handlers under fixed names before
// navigation starts; a page addresses a handler by name and method.
package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownHandler is returned when no handler is registered under a name.
	ErrUnknownHandler = errors.New("bridge: unknown handler")
	// ErrUnknownMethod is returned by handlers for methods they do not expose.
	ErrUnknownMethod = errors.New("bridge: unknown method")
	// ErrDuplicateHandler is returned when a name is registered twice.
	ErrDuplicateHandler = errors.New("bridge: handler already registered")
)

// Handler receives calls addressed to its registered name.
type Handler interface {
	Invoke(method, arg string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(method, arg string) error

// Invoke calls f(method, arg).
func (f HandlerFunc) Invoke(method, arg string) error {
	return f(method, arg)
}

// Registry maps bridge names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register exposes h under name.
func (r *Registry) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("bridge: handler name is required")
	}
	if h == nil {
		return fmt.Errorf("bridge: handler for %s is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	r.handlers[name] = h
	return nil
}

// Unregister removes the handler registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.handlers, strings.TrimSpace(name))
	r.mu.Unlock()
}

// Dispatch routes a call to the handler registered under name. A panicking
// handler is converted into an error so a page can never crash the host.
func (r *Registry) Dispatch(name, method, arg string) (err error) {
	r.mu.RLock()
	h, ok := r.handlers[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("bridge: handler %s.%s panicked: %v", name, method, rec)
		}
	}()
	return h.Invoke(method, arg)
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
