// Package cmd implements the command-line entry points of the Sign in with Apple host.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/router-for-me/AppleWebAuth/internal/api"
	"github.com/router-for-me/AppleWebAuth/internal/auth/apple"
	"github.com/router-for-me/AppleWebAuth/internal/bridge"
	"github.com/router-for-me/AppleWebAuth/internal/browser"
	"github.com/router-for-me/AppleWebAuth/internal/config"
	"github.com/router-for-me/AppleWebAuth/internal/misc"
	"github.com/router-for-me/AppleWebAuth/internal/wsrelay"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Login modes.
const (
	// ModeRelay drives an embedded webview connected over the relay websocket.
	ModeRelay = "relay"
	// ModeCallback opens the system browser and receives Apple's form_post on this host.
	ModeCallback = "callback"
)

// manualPromptDelay is how long callback mode waits before offering to paste the callback.
var manualPromptDelay = 15 * time.Second

// ErrWebviewDismissed is returned when the webview closes before a result arrives.
var ErrWebviewDismissed = errors.New("webview closed before sign in completed")

// LoginOptions contains options for the Apple login process.
type LoginOptions struct {
	// Mode selects ModeRelay or ModeCallback. Empty means ModeRelay.
	Mode string

	// NoBrowser prints the authorization URL instead of opening it (callback mode).
	NoBrowser bool

	// CopyCode copies the authorization code to the clipboard on success.
	CopyCode bool

	// State overrides the generated anti-forgery token.
	State string

	// Prompt allows the caller to paste the callback when it does not arrive.
	Prompt func(prompt string) (string, error)

	// Output receives user-facing messages; defaults to stdout.
	Output io.Writer
}

// DoAppleLogin runs the login and reports the outcome to the user.
func DoAppleLogin(cfg *config.Config, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}
	out := options.Output
	if out == nil {
		out = os.Stdout
	}

	result, err := RunAppleLogin(context.Background(), cfg, options)
	if err != nil {
		log.Errorf("Apple authentication failed: %v", err)
		return
	}

	switch r := result.(type) {
	case apple.Success:
		_, _ = fmt.Fprintf(out, "Apple authentication successful!\nAuthorization code: %s\n", r.Code)
		if options.CopyCode {
			if errCopy := clipboard.WriteAll(r.Code); errCopy != nil {
				log.Warnf("failed to copy authorization code to clipboard: %v", errCopy)
			} else {
				_, _ = fmt.Fprintln(out, "Authorization code copied to clipboard.")
			}
		}
	case apple.Cancel:
		_, _ = fmt.Fprintln(out, "Apple authentication was cancelled.")
	case apple.Failure:
		log.Error(apple.GetUserFriendlyMessage(r.Err))
		_, _ = fmt.Fprintf(out, "Apple authentication failed: %s\n", r.Reason())
	}
}

// RunAppleLogin starts an attempt, serves the relay and callback endpoints and
// waits for the single result. Errors are returned only for host failures
// (configuration, listener, timeout, dismissed webview); every provider outcome
// is a Result.
func RunAppleLogin(ctx context.Context, cfg *config.Config, options *LoginOptions) (apple.Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("apple login: configuration is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if options == nil {
		options = &LoginOptions{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := options.Output
	if out == nil {
		out = os.Stdout
	}

	attempt, err := apple.NewAttempt(apple.AttemptConfig{
		ClientID:     cfg.Apple.ClientID,
		RedirectURI:  cfg.Apple.RedirectURI,
		Scope:        cfg.Apple.Scope,
		AuthURL:      cfg.Apple.AuthURL,
		InterceptURL: cfg.Apple.InterceptURL,
		State:        options.State,
	})
	if err != nil {
		return nil, err
	}

	resultCh := make(chan apple.Result, 1)
	onResult := func(result apple.Result) { resultCh <- result }

	registry := bridge.NewRegistry()
	var relay *wsrelay.Manager
	var session *apple.Session
	viewErrCh := make(chan error, 1)

	mode := strings.ToLower(strings.TrimSpace(options.Mode))
	switch mode {
	case "", ModeRelay:
		mode = ModeRelay
		relay = newRelay(cfg, attempt, onResult, viewErrCh)
	case ModeCallback:
		session, err = apple.NewAttemptSession(registry, attempt, onResult)
		if err != nil {
			return nil, err
		}
		defer session.Close()
	default:
		return nil, fmt.Errorf("apple login: unknown mode %q", options.Mode)
	}

	server := api.NewServer(cfg, relay, registry)

	group, groupCtx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(groupCtx)
	defer stopServer()

	group.Go(func() error {
		return server.Run(serverCtx)
	})

	var result apple.Result
	group.Go(func() error {
		defer stopServer()
		announce(out, cfg, attempt, mode, options.NoBrowser)
		var errWait error
		result, errWait = waitForResult(serverCtx, cfg.Apple.CallbackTimeout(), resultCh, viewErrCh, session, options.Prompt)
		return errWait
	})

	if err = group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// newRelay accepts the first webview shell for the attempt and rejects later ones.
func newRelay(cfg *config.Config, attempt *apple.Attempt, onResult apple.Callback, viewErrCh chan<- error) *wsrelay.Manager {
	var claimed atomic.Bool
	return wsrelay.NewManager(wsrelay.Options{
		Path: cfg.RelayPath,
		OnConnected: func(view *wsrelay.RemoteWebView) {
			entry := log.WithFields(log.Fields{"attempt": attempt.ID, "webview": view.ID()})
			if !claimed.CompareAndSwap(false, true) {
				entry.Warn("a webview is already running this sign in; closing the new connection")
				view.Close()
				return
			}
			session, err := apple.NewAttemptSession(view, attempt, onResult)
			if err != nil {
				entry.Errorf("failed to bind form bridge: %v", err)
				view.Close()
				reportViewErr(viewErrCh, err)
				return
			}
			view.SetResourceLoader(session.ResourceLoader())
			if err = view.LoadURL(attempt.AuthorizationURL); err != nil {
				entry.Errorf("failed to load authorization page: %v", err)
				view.Close()
			}
			go func() {
				defer session.Close()
				select {
				case <-session.Done():
					return
				case <-view.Closed():
				}
				if !session.Bridge().Done() {
					reportViewErr(viewErrCh, fmt.Errorf("%w: %v", ErrWebviewDismissed, view.Err()))
				}
			}()
		},
		LogDebugf: log.Debugf,
		LogInfof:  log.Infof,
		LogWarnf:  log.Warnf,
	})
}

func reportViewErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func announce(out io.Writer, cfg *config.Config, attempt *apple.Attempt, mode string, noBrowser bool) {
	if mode == ModeRelay {
		_, _ = fmt.Fprintf(out, "Waiting for a webview shell on ws://%s%s ...\n", displayAddr(cfg), cfg.RelayPath)
		return
	}
	if !noBrowser {
		_, _ = fmt.Fprintln(out, "Opening browser for Apple authentication")
		if !browser.IsAvailable() {
			log.Warn("No browser available; please open the URL manually")
		} else if err := browser.OpenURL(attempt.AuthorizationURL); err != nil {
			log.Warnf("Failed to open browser automatically: %v", err)
		} else {
			_, _ = fmt.Fprintln(out, "Waiting for Apple authentication callback...")
			return
		}
	}
	_, _ = fmt.Fprintf(out, "Visit the following URL to continue authentication:\n%s\n", attempt.AuthorizationURL)
	_, _ = fmt.Fprintln(out, "Waiting for Apple authentication callback...")
}

func displayAddr(cfg *config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, cfg.Port)
}

func waitForResult(ctx context.Context, timeout time.Duration, resultCh <-chan apple.Result, viewErrCh <-chan error, session *apple.Session, prompt func(string) (string, error)) (apple.Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var manualPromptC <-chan time.Time
	if prompt != nil && session != nil {
		manualPromptTimer := time.NewTimer(manualPromptDelay)
		defer manualPromptTimer.Stop()
		manualPromptC = manualPromptTimer.C
	}

	for {
		select {
		case result := <-resultCh:
			return result, nil
		case err := <-viewErrCh:
			return nil, err
		case <-timer.C:
			return nil, fmt.Errorf("timeout waiting for Apple authentication after %s", timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-manualPromptC:
			manualPromptC = nil
			select {
			case result := <-resultCh:
				return result, nil
			default:
			}
			input, err := prompt("Paste the Apple callback URL or form body (or press Enter to keep waiting): ")
			if err != nil {
				return nil, err
			}
			payload, err := misc.ParseCallbackInput(input)
			if err != nil {
				return nil, err
			}
			if payload == "" {
				continue
			}
			session.Bridge().ProcessFormData(payload)
		}
	}
}
