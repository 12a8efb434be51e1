package apple

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/router-for-me/AppleWebAuth/internal/bridge"
	"github.com/router-for-me/AppleWebAuth/internal/constant"
)

// Registrar exposes host handlers to page scripts under a name.
type Registrar interface {
	Register(name string, h bridge.Handler) error
	Unregister(name string)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// AttemptID tags log lines; optional.
	AttemptID string
	// ExpectedState is the state the response must echo.
	ExpectedState string
	// InterceptURL is the URL substring that marks the redirect.
	InterceptURL string
	// OnResult receives the result; optional.
	OnResult Callback
	// Next handles resource loads that are not intercepted; optional.
	Next ResourceLoader
}

// Session binds the form bridge and the URL interceptor of one attempt to a host.
// The bridge is registered when the session is created, before any navigation.
type Session struct {
	host        Registrar
	form        *FormInterceptor
	interceptor *URLInterceptor

	done      chan struct{}
	result    Result
	closeOnce sync.Once
}

// NewSession registers the form bridge on host and prepares the interceptor.
func NewSession(host Registrar, opts SessionOptions) (*Session, error) {
	if host == nil {
		return nil, fmt.Errorf("apple: bridge host is required")
	}
	if strings.TrimSpace(opts.InterceptURL) == "" {
		return nil, fmt.Errorf("apple: intercept url is required")
	}

	s := &Session{
		host: host,
		done: make(chan struct{}),
	}
	s.form = NewFormInterceptor(opts.ExpectedState, func(result Result) {
		s.result = result
		close(s.done)
		if opts.OnResult != nil {
			opts.OnResult(result)
		}
	}).withAttemptID(opts.AttemptID)
	s.interceptor = NewURLInterceptor(opts.InterceptURL, FormCollectorScript, opts.Next)

	if err := host.Register(constant.BridgeName, s.form); err != nil {
		return nil, fmt.Errorf("apple: register form bridge: %w", err)
	}
	return s, nil
}

// NewAttemptSession creates a session for attempt.
func NewAttemptSession(host Registrar, attempt *Attempt, onResult Callback) (*Session, error) {
	if attempt == nil {
		return nil, fmt.Errorf("apple: attempt is required")
	}
	return NewSession(host, SessionOptions{
		AttemptID:     attempt.ID,
		ExpectedState: attempt.State,
		InterceptURL:  attempt.InterceptURL,
		OnResult:      onResult,
	})
}

// ResourceLoader returns the interceptor to install on the webview.
func (s *Session) ResourceLoader() ResourceLoader {
	return s.interceptor
}

// Bridge returns the form bridge registered for this session.
func (s *Session) Bridge() *FormInterceptor {
	return s.form
}

// Done is closed once the result has been delivered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the result is delivered or ctx is done.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unregisters the form bridge. Results arriving afterwards are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.host.Unregister(constant.BridgeName)
	})
}
